package ledger

import (
	"context"
	"regexp"
	"testing"
	"time"

	"kobopay/internal/models"
	"kobopay/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTxnRepo struct {
	rows   map[string]*models.Transaction // by reference
	logs   []models.TransactionLog
	nextID uint
}

func newFakeTxnRepo() *fakeTxnRepo {
	return &fakeTxnRepo{rows: map[string]*models.Transaction{}}
}

func (f *fakeTxnRepo) Create(txn *models.Transaction) error {
	f.nextID++
	txn.ID = f.nextID
	cp := *txn
	f.rows[txn.Reference] = &cp
	return nil
}

func (f *fakeTxnRepo) GetByReference(reference string) (*models.Transaction, error) {
	txn, ok := f.rows[reference]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	cp := *txn
	return &cp, nil
}

func (f *fakeTxnRepo) GetByReferenceForUser(reference string, userID uint) (*models.Transaction, error) {
	txn, ok := f.rows[reference]
	if !ok {
		return nil, repositories.ErrTransactionNotFound
	}
	owns := (txn.UserID != nil && *txn.UserID == userID) ||
		(txn.SenderID != nil && *txn.SenderID == userID) ||
		(txn.RecipientID != nil && *txn.RecipientID == userID)
	if !owns {
		return nil, repositories.ErrTransactionNotFound
	}
	cp := *txn
	return &cp, nil
}

func (f *fakeTxnRepo) GetByGatewayReference(string) (*models.Transaction, error) {
	return nil, repositories.ErrTransactionNotFound
}

func (f *fakeTxnRepo) FindRecentPendingDeposit(uint, int64, time.Time) (*models.Transaction, error) {
	return nil, repositories.ErrTransactionNotFound
}

func (f *fakeTxnRepo) Update(txn *models.Transaction) error {
	cp := *txn
	f.rows[txn.Reference] = &cp
	return nil
}

func (f *fakeTxnRepo) ListForUser(userID uint, filter repositories.TransactionFilter) ([]models.Transaction, int64, error) {
	var out []models.Transaction
	for _, txn := range f.rows {
		owns := (txn.UserID != nil && *txn.UserID == userID) ||
			(txn.SenderID != nil && *txn.SenderID == userID) ||
			(txn.RecipientID != nil && *txn.RecipientID == userID)
		if owns {
			out = append(out, *txn)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeTxnRepo) StatsForUser(uint, time.Time) (*repositories.TransactionStats, error) {
	return &repositories.TransactionStats{}, nil
}

func (f *fakeTxnRepo) CreateLog(entry *models.TransactionLog) error {
	f.logs = append(f.logs, *entry)
	return nil
}

func (f *fakeTxnRepo) ListLogs(transactionID uint) ([]models.TransactionLog, error) {
	var out []models.TransactionLog
	for _, l := range f.logs {
		if l.TransactionID == transactionID {
			out = append(out, l)
		}
	}
	return out, nil
}

func uintPtr(v uint) *uint { return &v }

func TestNewReference(t *testing.T) {
	pattern := regexp.MustCompile(`^[A-Z]{3}_[0-9A-F]{24}$`)

	tests := []struct {
		txType string
		prefix string
	}{
		{models.TransactionTypeDeposit, "DEP_"},
		{models.TransactionTypeTransfer, "TRF_"},
		{models.TransactionTypeWithdrawal, "WDL_"},
		{models.TransactionTypeRefund, "RFD_"},
	}
	for _, tt := range tests {
		ref, err := NewReference(tt.txType)
		require.NoError(t, err)
		assert.True(t, pattern.MatchString(ref), "reference %q", ref)
		assert.Equal(t, tt.prefix, ref[:4])
	}

	_, err := NewReference("bogus")
	assert.Error(t, err)

	a, _ := NewReference(models.TransactionTypeDeposit)
	b, _ := NewReference(models.TransactionTypeDeposit)
	assert.NotEqual(t, a, b)
}

func TestRecordFillsDefaults(t *testing.T) {
	repo := newFakeTxnRepo()
	svc := NewService(repo, nil)

	txn := &models.Transaction{
		Type:   models.TransactionTypeDeposit,
		Amount: 5_000,
		UserID: uintPtr(1),
	}
	require.NoError(t, svc.Record(context.Background(), txn))
	assert.NotEmpty(t, txn.PublicID)
	assert.NotEmpty(t, txn.Reference)
	assert.Equal(t, models.TransactionStatusPending, txn.Status)

	bad := &models.Transaction{Type: models.TransactionTypeDeposit, Amount: 0, UserID: uintPtr(1)}
	assert.Error(t, svc.Record(context.Background(), bad))
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		old  string
		new  string
		want bool
	}{
		{models.TransactionStatusPending, models.TransactionStatusSuccess, true},
		{models.TransactionStatusPending, models.TransactionStatusFailed, true},
		{models.TransactionStatusPending, models.TransactionStatusCancelled, true},
		{models.TransactionStatusPending, models.TransactionStatusAbandoned, true},
		{models.TransactionStatusPending, models.TransactionStatusPending, false},
		{models.TransactionStatusPending, models.TransactionStatusReversed, false},
		{models.TransactionStatusSuccess, models.TransactionStatusReversed, true},
		{models.TransactionStatusSuccess, models.TransactionStatusFailed, false},
		{models.TransactionStatusFailed, models.TransactionStatusSuccess, false},
		{models.TransactionStatusAbandoned, models.TransactionStatusSuccess, false},
		{models.TransactionStatusReversed, models.TransactionStatusSuccess, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.old, tt.new), "%s -> %s", tt.old, tt.new)
	}
}

func TestTransition(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := newFakeTxnRepo()
	svc := NewService(repo, func() time.Time { return fixed })

	txn := &models.Transaction{Type: models.TransactionTypeDeposit, Amount: 5_000, UserID: uintPtr(1)}
	require.NoError(t, svc.Record(context.Background(), txn))

	require.NoError(t, svc.Transition(context.Background(), txn, models.TransactionStatusSuccess, TransitionOptions{Action: "gateway_verified"}))
	assert.Equal(t, models.TransactionStatusSuccess, txn.Status)
	require.NotNil(t, txn.PaidAt)
	assert.Equal(t, fixed, *txn.PaidAt)

	// Terminal statuses reject further pending-machine transitions.
	err := svc.Transition(context.Background(), txn, models.TransactionStatusFailed, TransitionOptions{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.TransactionStatusSuccess, txn.Status)

	// Except the reversal path.
	require.NoError(t, svc.Transition(context.Background(), txn, models.TransactionStatusReversed, TransitionOptions{Action: "manual_reversal"}))
	assert.Equal(t, models.TransactionStatusReversed, txn.Status)

	// And reversed really is final.
	err = svc.Transition(context.Background(), txn, models.TransactionStatusSuccess, TransitionOptions{})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	logs, err := svc.Logs(context.Background(), txn.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, models.TransactionStatusPending, logs[0].OldStatus)
	assert.Equal(t, models.TransactionStatusSuccess, logs[0].NewStatus)
	assert.Equal(t, "gateway_verified", logs[0].Action)
	assert.Equal(t, models.TransactionStatusSuccess, logs[1].OldStatus)
	assert.Equal(t, models.TransactionStatusReversed, logs[1].NewStatus)
}

func TestFindByReferenceScopedToUser(t *testing.T) {
	repo := newFakeTxnRepo()
	svc := NewService(repo, nil)

	txn := &models.Transaction{Type: models.TransactionTypeDeposit, Amount: 5_000, UserID: uintPtr(1)}
	require.NoError(t, svc.Record(context.Background(), txn))

	got, err := svc.FindByReference(context.Background(), txn.Reference, 1)
	require.NoError(t, err)
	assert.Equal(t, txn.Reference, got.Reference)

	_, err = svc.FindByReference(context.Background(), txn.Reference, 2)
	assert.ErrorIs(t, err, ErrTransactionNotFound)
}

func TestAnnotateDirections(t *testing.T) {
	sender, recipient := uintPtr(1), uintPtr(2)
	transfer := &models.Transaction{
		Type:                  models.TransactionTypeTransfer,
		Amount:                10_000,
		SenderID:              sender,
		RecipientID:           recipient,
		SenderWalletNumber:    "450000000000001",
		RecipientWalletNumber: "450000000000002",
	}

	out := annotate(transfer, 1)
	assert.Equal(t, DirectionOut, out.Direction)
	assert.Equal(t, "450000000000002", out.Counterparty)
	assert.Equal(t, "100.00", out.Amount)

	in := annotate(transfer, 2)
	assert.Equal(t, DirectionIn, in.Direction)
	assert.Equal(t, "450000000000001", in.Counterparty)

	deposit := &models.Transaction{Type: models.TransactionTypeDeposit, Amount: 5_000, UserID: uintPtr(3)}
	assert.Equal(t, DirectionIn, annotate(deposit, 3).Direction)
}
