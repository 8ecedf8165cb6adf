package models

import (
	"time"

	"github.com/google/uuid"
)

// Transaction types
const (
	TransactionTypeDeposit    = "deposit"
	TransactionTypeTransfer   = "transfer"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypeRefund     = "refund"
)

// Transaction statuses
const (
	TransactionStatusPending   = "pending"
	TransactionStatusSuccess   = "success"
	TransactionStatusFailed    = "failed"
	TransactionStatusCancelled = "cancelled"
	TransactionStatusReversed  = "reversed"
	TransactionStatusAbandoned = "abandoned"
)

// Transaction is a single money movement. Amount is kobo (minor units).
// Deposits carry UserID; transfers carry SenderID and RecipientID plus the
// wallet numbers snapshotted at transfer time so history survives later
// wallet changes.
type Transaction struct {
	ID        uint   `gorm:"primarykey"`
	PublicID  string `gorm:"size:36;uniqueIndex;not null"`
	Type      string `gorm:"size:20;not null;index:idx_transactions_type_created,priority:1"`
	Status    string `gorm:"size:20;not null;default:'pending';index:idx_transactions_status_created,priority:1"`
	Amount    int64  `gorm:"not null"`
	Reference string `gorm:"size:100;uniqueIndex;not null"`

	UserID      *uint `gorm:"index:idx_transactions_user_created,priority:1"`
	SenderID    *uint `gorm:"index:idx_transactions_sender_created,priority:1"`
	RecipientID *uint `gorm:"index:idx_transactions_recipient_created,priority:1"`

	SenderWalletNumber    string `gorm:"size:15"`
	RecipientWalletNumber string `gorm:"size:15"`

	Description string
	Metadata    JSON `gorm:"type:jsonb"`

	GatewayReference     string `gorm:"size:100;index"`
	GatewayTransactionID string `gorm:"size:100"`
	GatewayData          JSON   `gorm:"type:jsonb"`

	PaidAt    *time.Time
	CreatedAt time.Time `gorm:"index:idx_transactions_type_created,priority:2;index:idx_transactions_status_created,priority:2;index:idx_transactions_user_created,priority:2;index:idx_transactions_sender_created,priority:2;index:idx_transactions_recipient_created,priority:2"`
	UpdatedAt time.Time
}

// IsTerminal reports whether the transaction status admits no further
// transitions (reversal of a success is the single exception, handled by
// the ledger service).
func (t *Transaction) IsTerminal() bool {
	return t.Status != TransactionStatusPending
}

// NewTransactionPublicID returns a fresh UUID string for a transaction.
func NewTransactionPublicID() string { return uuid.NewString() }

// TransactionLog is an audit entry for a transaction status change.
type TransactionLog struct {
	ID            uint   `gorm:"primarykey"`
	TransactionID uint   `gorm:"not null;index:idx_transaction_logs_tx_created,priority:1"`
	OldStatus     string `gorm:"size:20"`
	NewStatus     string `gorm:"size:20;not null"`
	Action        string `gorm:"size:100;not null"`
	PerformedBy   *uint
	Metadata      JSON   `gorm:"type:jsonb"`
	IPAddress     string `gorm:"size:45"`
	UserAgent     string
	CreatedAt     time.Time `gorm:"index:idx_transaction_logs_tx_created,priority:2"`
}
