package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"kobopay/internal/models"
	"kobopay/internal/repositories"
)

// Service is the single source of truth for spendable balance and
// spending-limit state. Balance reads always hit the database; balances
// are never served from cache because correctness is safety-critical.
type Service interface {
	Create(ctx context.Context, userID uint, currency string) (*models.Wallet, error)
	GetOrCreate(ctx context.Context, userID uint, currency string) (*models.Wallet, bool, error)
	GetByUser(ctx context.Context, userID uint) (*models.Wallet, error)
	GetByNumber(ctx context.Context, number string) (*models.Wallet, error)
	Lock(ctx context.Context, userID uint, reason string) error
	Unlock(ctx context.Context, userID uint) error
	SetStatus(ctx context.Context, userID uint, status, reason string) error
}

type service struct {
	repo repositories.WalletRepository
	now  func() time.Time
}

// NewService creates a wallet service. now is injectable for tests; pass
// nil for the system clock.
func NewService(repo repositories.WalletRepository, now func() time.Time) Service {
	if repo == nil {
		panic("repo is required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

func (s *service) Create(ctx context.Context, userID uint, currency string) (*models.Wallet, error) {
	if currency == "" {
		currency = DefaultCurrency
	}
	w := models.NewWallet(userID, currency, s.now())

	// The unique index on wallet_number is the collision arbiter; retry
	// with a fresh number when the insert loses the race.
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		number, err := generateNumber()
		if err != nil {
			return nil, err
		}
		exists, err := s.repo.WalletNumberExists(number)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		w.WalletNumber = number

		err = s.repo.Create(w)
		if err == nil {
			log.Printf("wallet created user_id=%d wallet_number=%s", userID, w.WalletNumber)
			return w, nil
		}
		if errors.Is(err, repositories.ErrWalletExists) {
			// Either the user already has a wallet (1:1) or the number
			// collided. Disambiguate via the owner lookup.
			if existing, lookupErr := s.repo.GetByUserID(userID); lookupErr == nil {
				return existing, ErrWalletExists
			}
			continue
		}
		return nil, err
	}
	return nil, ErrNumberExhausted
}

// GetOrCreate returns the user's wallet, creating it on first touch. The
// bool reports whether a wallet was created.
func (s *service) GetOrCreate(ctx context.Context, userID uint, currency string) (*models.Wallet, bool, error) {
	w, err := s.repo.GetByUserID(userID)
	if err == nil {
		return w, false, nil
	}
	if !errors.Is(err, repositories.ErrWalletNotFound) {
		return nil, false, err
	}
	w, err = s.Create(ctx, userID, currency)
	if errors.Is(err, ErrWalletExists) {
		return w, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return w, true, nil
}

func (s *service) GetByUser(ctx context.Context, userID uint) (*models.Wallet, error) {
	w, err := s.repo.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

func (s *service) GetByNumber(ctx context.Context, number string) (*models.Wallet, error) {
	if !ValidNumber(number) {
		return nil, ErrWalletNotFound
	}
	w, err := s.repo.GetByNumber(number)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return w, nil
}

func (s *service) Lock(ctx context.Context, userID uint, reason string) error {
	return s.mutate(userID, func(w *models.Wallet) {
		w.IsLocked = true
		w.StatusReason = reason
	})
}

func (s *service) Unlock(ctx context.Context, userID uint) error {
	return s.mutate(userID, func(w *models.Wallet) {
		w.IsLocked = false
		w.StatusReason = ""
	})
}

// SetStatus soft-transitions wallet status; wallets are never deleted,
// only closed.
func (s *service) SetStatus(ctx context.Context, userID uint, status, reason string) error {
	switch status {
	case models.WalletStatusActive, models.WalletStatusInactive,
		models.WalletStatusSuspended, models.WalletStatusClosed:
	default:
		return fmt.Errorf("invalid wallet status: %q", status)
	}
	return s.mutate(userID, func(w *models.Wallet) {
		w.Status = status
		w.StatusReason = reason
	})
}

func (s *service) mutate(userID uint, fn func(*models.Wallet)) error {
	return s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		w, err := tx.GetByUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		fn(w)
		return tx.Update(w)
	})
}
