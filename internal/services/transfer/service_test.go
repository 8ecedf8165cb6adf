package transfer

import (
	"context"
	"testing"
	"time"

	"kobopay/internal/models"
	"kobopay/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	byUser map[uint]*models.Wallet
	byNum  map[string]*models.Wallet
	txns   []*models.Transaction
	logs   []*models.TransactionLog
	nextID uint
}

func newFakeRepo(wallets ...*models.Wallet) *fakeRepo {
	f := &fakeRepo{byUser: map[uint]*models.Wallet{}, byNum: map[string]*models.Wallet{}}
	for _, w := range wallets {
		f.nextID++
		w.ID = f.nextID
		f.byUser[w.UserID] = w
		f.byNum[w.WalletNumber] = w
	}
	return f
}

func (f *fakeRepo) Create(w *models.Wallet) error { return nil }
func (f *fakeRepo) GetByID(id uint) (*models.Wallet, error) {
	for _, w := range f.byUser {
		if w.ID == id {
			return w, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}
func (f *fakeRepo) GetByUserID(userID uint) (*models.Wallet, error) {
	w, ok := f.byUser[userID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return w, nil
}
func (f *fakeRepo) GetByNumber(n string) (*models.Wallet, error) {
	w, ok := f.byNum[n]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	return w, nil
}
func (f *fakeRepo) GetByUserIDForUpdate(userID uint) (*models.Wallet, error) {
	return f.GetByUserID(userID)
}
func (f *fakeRepo) GetByNumberForUpdate(n string) (*models.Wallet, error) {
	return f.GetByNumber(n)
}
func (f *fakeRepo) Update(w *models.Wallet) error {
	f.byUser[w.UserID] = w
	f.byNum[w.WalletNumber] = w
	return nil
}
func (f *fakeRepo) WalletNumberExists(n string) (bool, error) { return f.byNum[n] != nil, nil }
func (f *fakeRepo) CreateTransaction(txn *models.Transaction) error {
	f.nextID++
	txn.ID = f.nextID
	f.txns = append(f.txns, txn)
	return nil
}
func (f *fakeRepo) GetTransactionByReferenceForUpdate(string) (*models.Transaction, error) {
	return nil, repositories.ErrTransactionNotFound
}
func (f *fakeRepo) UpdateTransaction(*models.Transaction) error { return nil }
func (f *fakeRepo) CreateTransactionLog(l *models.TransactionLog) error {
	f.logs = append(f.logs, l)
	return nil
}
func (f *fakeRepo) ExecuteInTransaction(fn func(repositories.WalletRepository) error) error {
	return fn(f)
}

const (
	senderNum    = "450000000000001"
	recipientNum = "450000000000002"
)

func testWallet(userID uint, number string, balance int64) *models.Wallet {
	return &models.Wallet{
		UserID:       userID,
		WalletNumber: number,
		Balance:      balance,
		Currency:     "NGN",
		Status:       models.WalletStatusActive,
		DailyLimit:   1_000_000,
		LastResetAt:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	}
}

func fixedNow() time.Time { return time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC) }

func TestTransferSuccess(t *testing.T) {
	sender := testWallet(1, senderNum, 100_000)
	recipient := testWallet(2, recipientNum, 5_000)
	repo := newFakeRepo(sender, recipient)
	svc := NewService(repo, fixedNow)

	res, err := svc.Transfer(context.Background(), 1, recipientNum, 30_000, "lunch")
	require.NoError(t, err)
	require.True(t, res.OK)

	assert.Equal(t, int64(70_000), sender.Balance)
	assert.Equal(t, int64(35_000), recipient.Balance)
	assert.Equal(t, int64(30_000), sender.DailySpent)
	assert.Equal(t, int64(0), recipient.DailySpent, "credits never touch the recipient's limit")
	assert.Equal(t, int64(105_000), sender.Balance+recipient.Balance, "money is conserved")

	require.NotNil(t, res.Transaction)
	txn := res.Transaction
	assert.Equal(t, models.TransactionTypeTransfer, txn.Type)
	assert.Equal(t, models.TransactionStatusSuccess, txn.Status)
	assert.Equal(t, "TRF_", txn.Reference[:4])
	assert.Equal(t, senderNum, txn.SenderWalletNumber)
	assert.Equal(t, recipientNum, txn.RecipientWalletNumber)
	require.NotNil(t, txn.PaidAt)

	require.Len(t, repo.logs, 1)
	assert.Equal(t, "transfer_completed", repo.logs[0].Action)
}

func TestTransferExactBalance(t *testing.T) {
	sender := testWallet(1, senderNum, 30_000)
	recipient := testWallet(2, recipientNum, 0)
	svc := NewService(newFakeRepo(sender, recipient), fixedNow)

	res, err := svc.Transfer(context.Background(), 1, recipientNum, 30_000, "")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, int64(0), sender.Balance)
}

func TestTransferBoundaryValidation(t *testing.T) {
	svc := NewService(newFakeRepo(testWallet(1, senderNum, 100_000)), fixedNow)

	_, err := svc.Transfer(context.Background(), 1, recipientNum, 99, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Transfer(context.Background(), 1, "12345", 30_000, "")
	assert.ErrorIs(t, err, ErrInvalidWalletNumber)
}

func TestTransferPreconditionMessages(t *testing.T) {
	tests := []struct {
		name        string
		setup       func() (*fakeRepo, int64)
		wantMessage string
	}{
		{
			name: "recipient missing",
			setup: func() (*fakeRepo, int64) {
				return newFakeRepo(testWallet(1, senderNum, 100_000)), 30_000
			},
			wantMessage: "Invalid wallet number or wallet is not active",
		},
		{
			name: "recipient suspended",
			setup: func() (*fakeRepo, int64) {
				r := testWallet(2, recipientNum, 0)
				r.Status = models.WalletStatusSuspended
				return newFakeRepo(testWallet(1, senderNum, 100_000), r), 30_000
			},
			wantMessage: "Invalid wallet number or wallet is not active",
		},
		{
			name: "recipient locked",
			setup: func() (*fakeRepo, int64) {
				r := testWallet(2, recipientNum, 0)
				r.IsLocked = true
				return newFakeRepo(testWallet(1, senderNum, 100_000), r), 30_000
			},
			wantMessage: "Invalid wallet number or wallet is not active",
		},
		{
			name: "self transfer",
			setup: func() (*fakeRepo, int64) {
				return newFakeRepo(testWallet(1, senderNum, 100_000), testWallet(2, recipientNum, 0)), 30_000
			},
			wantMessage: "Cannot transfer to your own wallet",
		},
		{
			name: "sender locked",
			setup: func() (*fakeRepo, int64) {
				s := testWallet(1, senderNum, 100_000)
				s.IsLocked = true
				return newFakeRepo(s, testWallet(2, recipientNum, 0)), 30_000
			},
			wantMessage: "Wallet is locked",
		},
		{
			name: "insufficient balance",
			setup: func() (*fakeRepo, int64) {
				return newFakeRepo(testWallet(1, senderNum, 29_999), testWallet(2, recipientNum, 0)), 30_000
			},
			wantMessage: "Insufficient balance",
		},
		{
			name: "daily limit exceeded",
			setup: func() (*fakeRepo, int64) {
				s := testWallet(1, senderNum, 2_000_000)
				s.DailySpent = 990_000
				return newFakeRepo(s, testWallet(2, recipientNum, 0)), 30_000
			},
			wantMessage: "Daily transfer limit exceeded",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, amount := tt.setup()
			svc := NewService(repo, fixedNow)

			target := recipientNum
			if tt.name == "self transfer" {
				target = senderNum
			}
			res, err := svc.Transfer(context.Background(), 1, target, amount, "")
			require.NoError(t, err)
			assert.False(t, res.OK)
			assert.Equal(t, tt.wantMessage, res.Message)
			assert.Empty(t, repo.txns, "failed transfers record nothing")
			assert.Empty(t, repo.logs)
		})
	}
}

func TestTransferSequentialOverdraw(t *testing.T) {
	// Two 8,000-kobo transfers out of a 10,000-kobo wallet: the first
	// settles, the second must fail on the re-checked balance.
	sender := testWallet(1, senderNum, 10_000)
	recipient := testWallet(2, recipientNum, 0)
	repo := newFakeRepo(sender, recipient)
	svc := NewService(repo, fixedNow)

	first, err := svc.Transfer(context.Background(), 1, recipientNum, 8_000, "")
	require.NoError(t, err)
	require.True(t, first.OK)

	second, err := svc.Transfer(context.Background(), 1, recipientNum, 8_000, "")
	require.NoError(t, err)
	assert.False(t, second.OK)
	assert.Equal(t, "Insufficient balance", second.Message)

	assert.Equal(t, int64(2_000), sender.Balance)
	assert.Equal(t, int64(8_000), recipient.Balance)
	assert.Len(t, repo.txns, 1, "only the first transfer reaches the ledger")
	assert.Len(t, repo.logs, 1)
}

func TestTransferDailyLimitResetsNextDay(t *testing.T) {
	sender := testWallet(1, senderNum, 5_000_000)
	sender.DailySpent = 1_000_000 // yesterday's spend equals the limit
	sender.LastResetAt = time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	recipient := testWallet(2, recipientNum, 0)
	svc := NewService(newFakeRepo(sender, recipient), fixedNow)

	res, err := svc.Transfer(context.Background(), 1, recipientNum, 400_000, "rent")
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, int64(400_000), sender.DailySpent)
	assert.Equal(t, fixedNow().Truncate(24*time.Hour), sender.LastResetAt.Truncate(24*time.Hour))
}
