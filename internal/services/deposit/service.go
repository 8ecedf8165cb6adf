package deposit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"kobopay/internal/models"
	"kobopay/internal/money"
	"kobopay/internal/repositories"
	"kobopay/internal/repositories/cache"
	"kobopay/internal/services/ledger"
	"kobopay/internal/services/wallet"
)

// InitiateResult is returned to the client after a deposit session is
// opened (or an equivalent pending one is reused).
type InitiateResult struct {
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorization_url"`
	AmountKobo       int64  `json:"amount_kobo"`
	Amount           string `json:"amount"`
	Status           string `json:"status"`
	Reused           bool   `json:"-"`
}

// StatusResult is the client view of a deposit's current state.
type StatusResult struct {
	Reference        string     `json:"reference"`
	Status           string     `json:"status"`
	AmountKobo       int64      `json:"amount_kobo"`
	Amount           string     `json:"amount"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
	AuthorizationURL string     `json:"authorization_url,omitempty"`
}

// Service reconciles deposits against the payment gateway. The gateway's
// pull verification is authoritative; webhooks are an optimization.
type Service interface {
	Initiate(ctx context.Context, user *models.User, amountKobo int64) (*InitiateResult, error)
	CheckStatus(ctx context.Context, userID uint, reference string, forceRefresh bool) (*StatusResult, error)
	HandleCallback(ctx context.Context, rawBody []byte, signature string) error
}

type service struct {
	walletRepo repositories.WalletRepository
	txnRepo    repositories.TransactionRepository
	wallets    wallet.Service
	ledger     ledger.Service
	gateway    Gateway
	cache      *cache.CacheService
	minKobo    int64
	now        func() time.Time
}

// Config wires the deposit service. Cache is optional; when present it
// backs the invalid-signature audit counter.
type Config struct {
	WalletRepo repositories.WalletRepository
	TxnRepo    repositories.TransactionRepository
	Wallets    wallet.Service
	Ledger     ledger.Service
	Gateway    Gateway
	Cache      *cache.CacheService
	MinKobo    int64
	Now        func() time.Time
}

func NewService(cfg Config) Service {
	if cfg.WalletRepo == nil || cfg.TxnRepo == nil || cfg.Wallets == nil || cfg.Ledger == nil || cfg.Gateway == nil {
		panic("deposit service missing dependencies")
	}
	if cfg.MinKobo <= 0 {
		cfg.MinKobo = DefaultMinAmountKobo
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &service{
		walletRepo: cfg.WalletRepo,
		txnRepo:    cfg.TxnRepo,
		wallets:    cfg.Wallets,
		ledger:     cfg.Ledger,
		gateway:    cfg.Gateway,
		cache:      cfg.Cache,
		minKobo:    cfg.MinKobo,
		now:        cfg.Now,
	}
}

func (s *service) Initiate(ctx context.Context, user *models.User, amountKobo int64) (*InitiateResult, error) {
	if amountKobo < s.minKobo {
		return nil, errAmountBelowMinimum(s.minKobo)
	}

	// First deposit is the idempotent wallet-creation point.
	if _, _, err := s.wallets.GetOrCreate(ctx, user.ID, ""); err != nil {
		return nil, fmt.Errorf("failed to prepare wallet: %w", err)
	}

	// An equivalent session opened moments ago is reused rather than
	// charging the gateway for a duplicate.
	since := s.now().Add(-dedupWindow)
	if existing, err := s.txnRepo.FindRecentPendingDeposit(user.ID, amountKobo, since); err == nil {
		return &InitiateResult{
			Reference:        existing.Reference,
			AuthorizationURL: metadataString(existing.Metadata, "authorization_url"),
			AmountKobo:       existing.Amount,
			Amount:           money.ToMajorString(existing.Amount),
			Status:           existing.Status,
			Reused:           true,
		}, nil
	} else if !errors.Is(err, repositories.ErrTransactionNotFound) {
		return nil, fmt.Errorf("failed to check pending deposits: %w", err)
	}

	reference, err := ledger.NewReference(models.TransactionTypeDeposit)
	if err != nil {
		return nil, err
	}

	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	session, err := s.gateway.InitializeSession(gctx, user.Email, amountKobo, reference)
	if err != nil {
		// Gateway refusals reach the user verbatim and leave no ledger row.
		return nil, err
	}

	txn := &models.Transaction{
		Type:             models.TransactionTypeDeposit,
		Amount:           amountKobo,
		Reference:        reference,
		UserID:           &user.ID,
		GatewayReference: session.Reference,
		Metadata: models.NewJSON(map[string]interface{}{
			"authorization_url": session.AuthorizationURL,
			"email":             user.Email,
			"amount_kobo":       amountKobo,
			"amount":            money.ToMajorString(amountKobo),
		}),
	}
	if err := s.ledger.Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record deposit: %w", err)
	}
	log.Printf("deposit initiated reference=%s user_id=%d amount_kobo=%d", reference, user.ID, amountKobo)

	return &InitiateResult{
		Reference:        reference,
		AuthorizationURL: session.AuthorizationURL,
		AmountKobo:       amountKobo,
		Amount:           money.ToMajorString(amountKobo),
		Status:           models.TransactionStatusPending,
	}, nil
}

func (s *service) CheckStatus(ctx context.Context, userID uint, reference string, forceRefresh bool) (*StatusResult, error) {
	txn, err := s.txnRepo.GetByReferenceForUser(reference, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, fmt.Errorf("failed to look up deposit: %w", err)
	}

	if txn.IsTerminal() && !forceRefresh {
		return s.statusResult(txn), nil
	}

	gctx, cancel := context.WithTimeout(ctx, gatewayTimeout)
	defer cancel()
	verification, err := s.gateway.VerifySession(gctx, gatewayRef(txn))
	if err != nil {
		return nil, err
	}

	newStatus := mapGatewayStatus(verification.Status)
	if newStatus == models.TransactionStatusPending {
		return s.statusResult(txn), nil
	}

	resolved, err := s.resolve(txn.Reference, newStatus, verification.TransactionID, verification.Raw, "status_check", &userID)
	if err != nil {
		return nil, err
	}
	return s.statusResult(resolved), nil
}

// paystackEvent is the subset of a webhook payload the engine acts on.
type paystackEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		ID        int64  `json:"id"`
	} `json:"data"`
}

func (s *service) HandleCallback(ctx context.Context, rawBody []byte, signature string) error {
	signatureValid := signature != "" && s.gateway.VerifySignature(rawBody, signature)
	if !signatureValid {
		// Availability over strictness: the event is still processed, but
		// the failure is recorded for monitoring and the pull path remains
		// the court of record.
		log.Printf("webhook signature check failed signature_present=%t", signature != "")
		if s.cache != nil {
			key := s.cache.GenerateKey("webhook", "invalid_signature", s.now().Format("2006-01-02"))
			if _, err := s.cache.IncrementCounter(ctx, key, 48*time.Hour); err != nil {
				log.Printf("failed to bump invalid-signature counter: %v", err)
			}
		}
	}

	var event paystackEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return fmt.Errorf("malformed webhook payload: %w", err)
	}
	if event.Data.Reference == "" {
		return errors.New("webhook payload missing reference")
	}

	auditMeta := map[string]interface{}{
		"source":            "webhook",
		"event":             event.Event,
		"signature_present": signature != "",
		"signature_valid":   signatureValid,
	}

	switch event.Event {
	case "charge.success":
		txn, err := s.findByAnyReference(event.Data.Reference)
		if err != nil {
			return err
		}
		gatewayTxnID := ""
		if event.Data.ID != 0 {
			gatewayTxnID = fmt.Sprintf("%d", event.Data.ID)
		}
		_, err = s.resolve(txn.Reference, models.TransactionStatusSuccess, gatewayTxnID, auditMeta, "webhook_charge_success", nil)
		return err
	case "charge.failed", "transfer.failed":
		txn, err := s.findByAnyReference(event.Data.Reference)
		if err != nil {
			return err
		}
		_, err = s.resolve(txn.Reference, models.TransactionStatusFailed, "", auditMeta, "webhook_charge_failed", nil)
		return err
	default:
		log.Printf("webhook event ignored event=%s reference=%s", event.Event, event.Data.Reference)
		return nil
	}
}

// resolve applies a gateway-reported terminal status to a deposit. The
// wallet is credited iff this call performs the pending -> success
// transition; the transaction row lock makes that at-most-once under
// concurrent webhook and status-check delivery.
func (s *service) resolve(reference, newStatus, gatewayTxnID string, gatewayData map[string]interface{}, action string, performedBy *uint) (*models.Transaction, error) {
	var resolved *models.Transaction
	err := s.walletRepo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		txn, err := tx.GetTransactionByReferenceForUpdate(reference)
		if err != nil {
			if errors.Is(err, repositories.ErrTransactionNotFound) {
				return ErrDepositNotFound
			}
			return err
		}
		if !ledger.CanTransition(txn.Status, newStatus) {
			// Replayed webhook or lost status-check race. Absorb silently.
			resolved = txn
			return nil
		}

		oldStatus := txn.Status
		txn.Status = newStatus
		if gatewayTxnID != "" {
			txn.GatewayTransactionID = gatewayTxnID
		}
		if gatewayData != nil {
			txn.GatewayData = models.NewJSON(gatewayData)
		}
		if newStatus == models.TransactionStatusSuccess {
			paidAt := s.now()
			txn.PaidAt = &paidAt

			if txn.UserID == nil {
				return fmt.Errorf("deposit %s has no owner", reference)
			}
			w, err := tx.GetByUserIDForUpdate(*txn.UserID)
			if err != nil {
				return fmt.Errorf("failed to lock wallet for credit: %w", err)
			}
			wallet.ApplyCredit(w, txn.Amount)
			if err := tx.Update(w); err != nil {
				return fmt.Errorf("failed to credit wallet: %w", err)
			}
		}

		if err := tx.UpdateTransaction(txn); err != nil {
			return fmt.Errorf("failed to update deposit: %w", err)
		}
		entry := &models.TransactionLog{
			TransactionID: txn.ID,
			OldStatus:     oldStatus,
			NewStatus:     newStatus,
			Action:        action,
			PerformedBy:   performedBy,
		}
		if err := tx.CreateTransactionLog(entry); err != nil {
			return fmt.Errorf("failed to record deposit log: %w", err)
		}
		resolved = txn
		return nil
	})
	if err != nil {
		return nil, err
	}
	if resolved.Status == models.TransactionStatusSuccess {
		log.Printf("deposit resolved reference=%s status=%s amount_kobo=%d", reference, resolved.Status, resolved.Amount)
	}
	return resolved, nil
}

// findByAnyReference locates a deposit by the gateway's reference first,
// falling back to the local ledger reference. Both are the same string in
// the normal flow, but the gateway's copy wins if they ever diverge.
func (s *service) findByAnyReference(reference string) (*models.Transaction, error) {
	txn, err := s.txnRepo.GetByGatewayReference(reference)
	if err == nil {
		return txn, nil
	}
	if !errors.Is(err, repositories.ErrTransactionNotFound) {
		return nil, err
	}
	txn, err = s.txnRepo.GetByReference(reference)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrDepositNotFound
		}
		return nil, err
	}
	return txn, nil
}

func (s *service) statusResult(txn *models.Transaction) *StatusResult {
	res := &StatusResult{
		Reference:  txn.Reference,
		Status:     txn.Status,
		AmountKobo: txn.Amount,
		Amount:     money.ToMajorString(txn.Amount),
		PaidAt:     txn.PaidAt,
	}
	if txn.Status == models.TransactionStatusPending {
		res.AuthorizationURL = metadataString(txn.Metadata, "authorization_url")
	}
	return res
}

// mapGatewayStatus folds the gateway's vocabulary onto the local state
// machine. Anything unrecognized stays pending so the next check retries.
func mapGatewayStatus(status string) string {
	switch status {
	case "success":
		return models.TransactionStatusSuccess
	case "failed":
		return models.TransactionStatusFailed
	case "abandoned":
		return models.TransactionStatusAbandoned
	default:
		return models.TransactionStatusPending
	}
}

func gatewayRef(txn *models.Transaction) string {
	if txn.GatewayReference != "" {
		return txn.GatewayReference
	}
	return txn.Reference
}

func metadataString(m models.JSON, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
