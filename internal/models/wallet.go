package models

import (
	"time"

	"github.com/google/uuid"
)

// Wallet statuses
const (
	WalletStatusActive    = "active"
	WalletStatusInactive  = "inactive"
	WalletStatusSuspended = "suspended"
	WalletStatusClosed    = "closed"
)

// DefaultDailyLimit is 1,000,000 NGN expressed in kobo.
const DefaultDailyLimit int64 = 100_000_000

// Wallet holds a user's spendable balance. Balance, DailyLimit and
// DailySpent are kobo (minor units); conversion to naira happens only at
// the API boundary.
type Wallet struct {
	ID           uint      `gorm:"primarykey"`
	PublicID     string    `gorm:"size:36;uniqueIndex;not null"`
	UserID       uint      `gorm:"uniqueIndex;not null"`
	WalletNumber string    `gorm:"size:15;uniqueIndex;not null"`
	Balance      int64     `gorm:"not null;default:0"`
	Currency     string    `gorm:"size:3;not null;default:'NGN'"`
	Status       string    `gorm:"size:20;not null;default:'active'"`
	StatusReason string    `gorm:"default:''"`
	IsLocked     bool      `gorm:"not null;default:false"`
	DailyLimit   int64     `gorm:"not null;default:100000000"`
	DailySpent   int64     `gorm:"not null;default:0"`
	LastResetAt  time.Time `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewWallet builds an unsaved wallet with zero balance and default limits.
// The wallet number must be assigned by the caller before saving.
func NewWallet(userID uint, currency string, today time.Time) *Wallet {
	if currency == "" {
		currency = "NGN"
	}
	return &Wallet{
		PublicID:    uuid.NewString(),
		UserID:      userID,
		Balance:     0,
		Currency:    currency,
		Status:      WalletStatusActive,
		DailyLimit:  DefaultDailyLimit,
		DailySpent:  0,
		LastResetAt: today,
	}
}
