package paystack

import "time"

// Session is the result of initializing a payment session. The payer
// completes payment out-of-band at AuthorizationURL.
type Session struct {
	Reference        string
	AuthorizationURL string
	AccessCode       string
}

// Session statuses reported by VerifySession, normalized onto the local
// deposit state machine's vocabulary.
const (
	SessionStatusSuccess   = "success"
	SessionStatusFailed    = "failed"
	SessionStatusAbandoned = "abandoned"
	SessionStatusPending   = "pending"
)

// Verification is the gateway's authoritative view of a session.
type Verification struct {
	Reference     string
	Status        string
	AmountKobo    int64
	TransactionID string
	PaidAt        *time.Time
	Raw           map[string]interface{}
}
