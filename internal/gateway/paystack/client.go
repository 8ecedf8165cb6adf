// Package paystack is a thin client for the Paystack transaction API:
// session initialization, remote verification, and webhook signature
// checks. Amounts cross this boundary in kobo, matching the gateway's
// wire format.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.paystack.co"

// GatewayError is a failure reported by the gateway itself (as opposed to
// a transport failure). Its message is safe to surface to the caller.
type GatewayError struct {
	Message string
}

func (e *GatewayError) Error() string { return e.Message }

type Config struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	CallbackURL   string
	Timeout       time.Duration
}

type Client struct {
	baseURL       string
	secretKey     string
	webhookSecret string
	callbackURL   string
	client        *http.Client
}

func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		baseURL:       cfg.BaseURL,
		secretKey:     cfg.SecretKey,
		webhookSecret: cfg.WebhookSecret,
		callbackURL:   cfg.CallbackURL,
		client:        &http.Client{Timeout: cfg.Timeout},
	}
}

type initializeRequest struct {
	Email       string `json:"email"`
	Amount      int64  `json:"amount"`
	Reference   string `json:"reference,omitempty"`
	CallbackURL string `json:"callback_url,omitempty"`
}

type initializeResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	} `json:"data"`
}

// InitializeSession creates a remote payment session for amountKobo.
// A *GatewayError carries the gateway's own message verbatim.
func (c *Client) InitializeSession(ctx context.Context, email string, amountKobo int64, reference string) (*Session, error) {
	body, err := json.Marshal(initializeRequest{
		Email:       email,
		Amount:      amountKobo,
		Reference:   reference,
		CallbackURL: c.callbackURL,
	})
	if err != nil {
		return nil, err
	}

	var out initializeResponse
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	if !out.Status {
		msg := out.Message
		if msg == "" {
			msg = "payment initialization failed"
		}
		return nil, &GatewayError{Message: msg}
	}
	return &Session{
		Reference:        out.Data.Reference,
		AuthorizationURL: out.Data.AuthorizationURL,
		AccessCode:       out.Data.AccessCode,
	}, nil
}

type verifyResponse struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    struct {
		ID        int64                  `json:"id"`
		Status    string                 `json:"status"`
		Reference string                 `json:"reference"`
		Amount    int64                  `json:"amount"`
		PaidAt    string                 `json:"paid_at"`
		Metadata  map[string]interface{} `json:"metadata"`
	} `json:"data"`
}

// VerifySession fetches the gateway's current view of a session.
func (c *Client) VerifySession(ctx context.Context, reference string) (*Verification, error) {
	var out verifyResponse
	path := "/transaction/verify/" + reference
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if !out.Status {
		msg := out.Message
		if msg == "" {
			msg = "transaction verification failed"
		}
		return nil, &GatewayError{Message: msg}
	}

	v := &Verification{
		Reference:     out.Data.Reference,
		Status:        normalizeStatus(out.Data.Status),
		AmountKobo:    out.Data.Amount,
		TransactionID: fmt.Sprintf("%d", out.Data.ID),
		Raw: map[string]interface{}{
			"id":        out.Data.ID,
			"status":    out.Data.Status,
			"reference": out.Data.Reference,
			"amount":    out.Data.Amount,
			"paid_at":   out.Data.PaidAt,
		},
	}
	if out.Data.PaidAt != "" {
		if t, err := time.Parse(time.RFC3339, out.Data.PaidAt); err == nil {
			v.PaidAt = &t
		}
	}
	return v, nil
}

func normalizeStatus(status string) string {
	switch status {
	case "success":
		return SessionStatusSuccess
	case "failed", "reversed":
		return SessionStatusFailed
	case "abandoned":
		return SessionStatusAbandoned
	default:
		return SessionStatusPending
	}
}

// VerifySignature checks the HMAC-SHA512 signature over the exact raw
// bytes received, using a constant-time comparison.
func (c *Client) VerifySignature(payload []byte, signature string) bool {
	if signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) do(ctx context.Context, method, path string, body *bytes.Reader, dest interface{}) error {
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode gateway response: %w", err)
	}
	return nil
}
