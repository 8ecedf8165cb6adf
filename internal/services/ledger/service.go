package ledger

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"kobopay/internal/models"
	"kobopay/internal/repositories"
)

// Service owns the transaction ledger: recording rows, status
// transitions, and the per-user read side. Rows are append-only except for
// the status machine; amounts are immutable once recorded.
type Service interface {
	Record(ctx context.Context, txn *models.Transaction) error
	Transition(ctx context.Context, txn *models.Transaction, newStatus string, opts TransitionOptions) error
	FindByReference(ctx context.Context, reference string, userID uint) (*models.Transaction, error)
	History(ctx context.Context, userID uint, filter repositories.TransactionFilter) (*HistoryPage, error)
	Stats(ctx context.Context, userID uint) (*repositories.TransactionStats, error)
	Logs(ctx context.Context, transactionID uint) ([]models.TransactionLog, error)
}

// TransitionOptions carries the audit context for a status change.
type TransitionOptions struct {
	Action      string
	PerformedBy *uint
	Metadata    models.JSON
	IPAddress   string
	UserAgent   string
}

type service struct {
	repo repositories.TransactionRepository
	now  func() time.Time
}

func NewService(repo repositories.TransactionRepository, now func() time.Time) Service {
	if repo == nil {
		panic("repo is required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

func (s *service) Record(ctx context.Context, txn *models.Transaction) error {
	if txn.PublicID == "" {
		txn.PublicID = models.NewTransactionPublicID()
	}
	if txn.Reference == "" {
		ref, err := NewReference(txn.Type)
		if err != nil {
			return err
		}
		txn.Reference = ref
	}
	if txn.Status == "" {
		txn.Status = models.TransactionStatusPending
	}
	if txn.Amount <= 0 {
		return fmt.Errorf("transaction amount must be positive, got %d", txn.Amount)
	}
	if err := s.repo.Create(txn); err != nil {
		return fmt.Errorf("failed to record transaction: %w", err)
	}
	return nil
}

// CanTransition reports whether old -> new is a legal status change.
// Pending rows may move to any terminal status; the only move out of a
// terminal status is success -> reversed, which models an operational
// reversal of settled money. The deposit engine consults the same
// predicate when deciding whether a gateway report still applies.
func CanTransition(old, new string) bool {
	if old == models.TransactionStatusPending {
		switch new {
		case models.TransactionStatusSuccess, models.TransactionStatusFailed,
			models.TransactionStatusCancelled, models.TransactionStatusAbandoned:
			return true
		}
		return false
	}
	return old == models.TransactionStatusSuccess && new == models.TransactionStatusReversed
}

func (s *service) Transition(ctx context.Context, txn *models.Transaction, newStatus string, opts TransitionOptions) error {
	old := txn.Status
	if !CanTransition(old, newStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, old, newStatus)
	}

	txn.Status = newStatus
	if newStatus == models.TransactionStatusSuccess && txn.PaidAt == nil {
		paidAt := s.now()
		txn.PaidAt = &paidAt
	}
	if err := s.repo.Update(txn); err != nil {
		txn.Status = old
		return fmt.Errorf("failed to update transaction: %w", err)
	}

	entry := &models.TransactionLog{
		TransactionID: txn.ID,
		OldStatus:     old,
		NewStatus:     newStatus,
		Action:        opts.Action,
		PerformedBy:   opts.PerformedBy,
		Metadata:      opts.Metadata,
		IPAddress:     opts.IPAddress,
		UserAgent:     opts.UserAgent,
	}
	if entry.Action == "" {
		entry.Action = "status_change"
	}
	if err := s.repo.CreateLog(entry); err != nil {
		// The transition itself stands; a missing audit row is logged but
		// never fails the money movement.
		log.Printf("failed to write transaction log tx_id=%d: %v", txn.ID, err)
	}
	return nil
}

func (s *service) FindByReference(ctx context.Context, reference string, userID uint) (*models.Transaction, error) {
	txn, err := s.repo.GetByReferenceForUser(reference, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to look up transaction: %w", err)
	}
	return txn, nil
}

func (s *service) History(ctx context.Context, userID uint, filter repositories.TransactionFilter) (*HistoryPage, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if filter.Limit > repositories.MaxHistoryLimit {
		filter.Limit = repositories.MaxHistoryLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	rows, total, err := s.repo.ListForUser(userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	page := &HistoryPage{
		Entries: make([]HistoryEntry, 0, len(rows)),
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}
	for i := range rows {
		page.Entries = append(page.Entries, annotate(&rows[i], userID))
	}
	return page, nil
}

func (s *service) Stats(ctx context.Context, userID uint) (*repositories.TransactionStats, error) {
	stats, err := s.repo.StatsForUser(userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}
	return stats, nil
}

func (s *service) Logs(ctx context.Context, transactionID uint) ([]models.TransactionLog, error) {
	return s.repo.ListLogs(transactionID)
}
