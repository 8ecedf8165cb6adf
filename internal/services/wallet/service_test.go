package wallet

import (
	"context"
	"testing"
	"time"

	"kobopay/internal/models"
	"kobopay/internal/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func activeWallet() *models.Wallet {
	return &models.Wallet{
		WalletNumber: "450000000000001",
		Balance:      100_000, // ₦1,000
		Status:       models.WalletStatusActive,
		DailyLimit:   500_000,
		DailySpent:   0,
		LastResetAt:  day(2024, 3, 10),
	}
}

func TestCanDebit(t *testing.T) {
	today := day(2024, 3, 10)

	tests := []struct {
		name       string
		mutate     func(*models.Wallet)
		amount     int64
		wantOK     bool
		wantReason DenyReason
	}{
		{name: "ok", amount: 30_000, wantOK: true},
		{name: "exact balance", amount: 100_000, wantOK: true},
		{
			name:       "locked wallet",
			mutate:     func(w *models.Wallet) { w.IsLocked = true },
			amount:     1,
			wantReason: ReasonLocked,
		},
		{
			name:       "suspended wallet",
			mutate:     func(w *models.Wallet) { w.Status = models.WalletStatusSuspended },
			amount:     1,
			wantReason: ReasonInactive,
		},
		{
			name:       "one kobo over balance",
			amount:     100_001,
			wantReason: ReasonInsufficientBalance,
		},
		{
			name:       "daily limit exceeded with sufficient balance",
			mutate:     func(w *models.Wallet) { w.DailySpent = 480_000 },
			amount:     30_000,
			wantReason: ReasonLimitExceeded,
		},
		{
			name:   "limit reached exactly is allowed",
			mutate: func(w *models.Wallet) { w.DailySpent = 470_000 },
			amount: 30_000,
			wantOK: true,
		},
		{
			// Lock beats everything else; first failure wins.
			name: "locked and broke",
			mutate: func(w *models.Wallet) {
				w.IsLocked = true
				w.Balance = 0
			},
			amount:     1,
			wantReason: ReasonLocked,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := activeWallet()
			if tt.mutate != nil {
				tt.mutate(w)
			}
			ok, reason := CanDebit(w, tt.amount, today)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, tt.wantReason, reason)
			}
		})
	}
}

func TestCanDebitLazyDailyReset(t *testing.T) {
	w := activeWallet()
	w.DailySpent = 500_000 // limit fully consumed yesterday
	w.LastResetAt = day(2024, 3, 9)

	// Same day: limit blocks.
	ok, reason := CanDebit(w, 10_000, day(2024, 3, 9))
	assert.False(t, ok)
	assert.Equal(t, ReasonLimitExceeded, reason)

	// Next day: the counter is treated as zero without any write.
	ok, _ = CanDebit(w, 10_000, day(2024, 3, 10))
	assert.True(t, ok)
	assert.Equal(t, int64(500_000), w.DailySpent, "predicate must not mutate")
}

func TestApplyDebit(t *testing.T) {
	t.Run("same day accumulates", func(t *testing.T) {
		w := activeWallet()
		w.DailySpent = 20_000
		ApplyDebit(w, 30_000, day(2024, 3, 10))
		assert.Equal(t, int64(70_000), w.Balance)
		assert.Equal(t, int64(50_000), w.DailySpent)
	})

	t.Run("new day resets then accumulates", func(t *testing.T) {
		w := activeWallet()
		w.DailySpent = 450_000
		w.LastResetAt = day(2024, 3, 9)
		ApplyDebit(w, 30_000, day(2024, 3, 10))
		assert.Equal(t, int64(30_000), w.DailySpent)
		assert.Equal(t, day(2024, 3, 10), w.LastResetAt)
	})
}

func TestEffectiveDailySpentAcrossMonthAndYear(t *testing.T) {
	w := activeWallet()
	w.DailySpent = 1000

	w.LastResetAt = day(2024, 2, 29)
	assert.Equal(t, int64(0), EffectiveDailySpent(w, day(2024, 3, 1)))

	w.LastResetAt = day(2023, 12, 31)
	assert.Equal(t, int64(0), EffectiveDailySpent(w, day(2024, 1, 1)))

	w.LastResetAt = day(2024, 3, 10)
	assert.Equal(t, int64(1000), EffectiveDailySpent(w, day(2024, 3, 10)))
}

func TestGenerateNumber(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n, err := generateNumber()
		require.NoError(t, err)
		assert.Len(t, n, NumberLength)
		assert.True(t, ValidNumber(n), "generated number must be well-formed: %s", n)
		assert.Equal(t, NumberPrefix, n[:len(NumberPrefix)])
		seen[n] = true
	}
	assert.Greater(t, len(seen), 45, "numbers should be effectively unique")
}

func TestValidNumber(t *testing.T) {
	assert.True(t, ValidNumber("450000000000001"))
	assert.False(t, ValidNumber("45000"))
	assert.False(t, ValidNumber("45000000000000a"))
	assert.False(t, ValidNumber(""))
	assert.False(t, ValidNumber("4500000000000012")) // 16 digits
}

// fakeWalletRepo is an in-memory WalletRepository for service tests.
type fakeWalletRepo struct {
	wallets map[uint]*models.Wallet // by user ID
	numbers map[string]bool
}

func newFakeWalletRepo() *fakeWalletRepo {
	return &fakeWalletRepo{
		wallets: map[uint]*models.Wallet{},
		numbers: map[string]bool{},
	}
}

func (f *fakeWalletRepo) Create(w *models.Wallet) error {
	if _, ok := f.wallets[w.UserID]; ok {
		return repositories.ErrWalletExists
	}
	if f.numbers[w.WalletNumber] {
		return repositories.ErrWalletExists
	}
	cp := *w
	f.wallets[w.UserID] = &cp
	f.numbers[w.WalletNumber] = true
	return nil
}

func (f *fakeWalletRepo) GetByID(id uint) (*models.Wallet, error) {
	for _, w := range f.wallets {
		if w.ID == id {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (f *fakeWalletRepo) GetByUserID(userID uint) (*models.Wallet, error) {
	w, ok := f.wallets[userID]
	if !ok {
		return nil, repositories.ErrWalletNotFound
	}
	cp := *w
	return &cp, nil
}

func (f *fakeWalletRepo) GetByNumber(number string) (*models.Wallet, error) {
	for _, w := range f.wallets {
		if w.WalletNumber == number {
			cp := *w
			return &cp, nil
		}
	}
	return nil, repositories.ErrWalletNotFound
}

func (f *fakeWalletRepo) GetByUserIDForUpdate(userID uint) (*models.Wallet, error) {
	return f.GetByUserID(userID)
}

func (f *fakeWalletRepo) GetByNumberForUpdate(number string) (*models.Wallet, error) {
	return f.GetByNumber(number)
}

func (f *fakeWalletRepo) Update(w *models.Wallet) error {
	cp := *w
	f.wallets[w.UserID] = &cp
	return nil
}

func (f *fakeWalletRepo) WalletNumberExists(number string) (bool, error) {
	return f.numbers[number], nil
}

func (f *fakeWalletRepo) CreateTransaction(*models.Transaction) error { return nil }

func (f *fakeWalletRepo) GetTransactionByReferenceForUpdate(string) (*models.Transaction, error) {
	return nil, repositories.ErrTransactionNotFound
}

func (f *fakeWalletRepo) UpdateTransaction(*models.Transaction) error       { return nil }
func (f *fakeWalletRepo) CreateTransactionLog(*models.TransactionLog) error { return nil }

func (f *fakeWalletRepo) ExecuteInTransaction(fn func(repositories.WalletRepository) error) error {
	return fn(f)
}

func TestServiceCreate(t *testing.T) {
	repo := newFakeWalletRepo()
	svc := NewService(repo, func() time.Time { return day(2024, 3, 10) })

	w, err := svc.Create(context.Background(), 1, "")
	require.NoError(t, err)
	assert.Equal(t, "NGN", w.Currency)
	assert.Equal(t, int64(0), w.Balance)
	assert.Equal(t, models.WalletStatusActive, w.Status)
	assert.True(t, ValidNumber(w.WalletNumber))

	// Second create for the same user reports the existing wallet.
	dup, err := svc.Create(context.Background(), 1, "")
	assert.ErrorIs(t, err, ErrWalletExists)
	require.NotNil(t, dup)
	assert.Equal(t, w.WalletNumber, dup.WalletNumber)
}

func TestServiceGetOrCreate(t *testing.T) {
	repo := newFakeWalletRepo()
	svc := NewService(repo, func() time.Time { return day(2024, 3, 10) })

	w1, created, err := svc.GetOrCreate(context.Background(), 7, "NGN")
	require.NoError(t, err)
	assert.True(t, created)

	w2, created, err := svc.GetOrCreate(context.Background(), 7, "NGN")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, w1.WalletNumber, w2.WalletNumber)
}

func TestServiceLockUnlock(t *testing.T) {
	repo := newFakeWalletRepo()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), 3, "NGN")
	require.NoError(t, err)

	require.NoError(t, svc.Lock(context.Background(), 3, "fraud review"))
	w, err := svc.GetByUser(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, w.IsLocked)
	assert.Equal(t, "fraud review", w.StatusReason)

	require.NoError(t, svc.Unlock(context.Background(), 3))
	w, err = svc.GetByUser(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, w.IsLocked)
}
