package ledger

import (
	"time"

	"kobopay/internal/models"
	"kobopay/internal/money"
)

// Direction of a history entry relative to the user who asked.
const (
	DirectionIn  = "in"
	DirectionOut = "out"
)

// HistoryEntry is a ledger row annotated for one user's point of view.
type HistoryEntry struct {
	PublicID     string      `json:"id"`
	Type         string      `json:"type"`
	Status       string      `json:"status"`
	AmountKobo   int64       `json:"amount_kobo"`
	Amount       string      `json:"amount"`
	Reference    string      `json:"reference"`
	Direction    string      `json:"direction"`
	Counterparty string      `json:"counterparty_wallet,omitempty"`
	Description  string      `json:"description,omitempty"`
	Metadata     models.JSON `json:"metadata,omitempty"`
	PaidAt       *time.Time  `json:"paid_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

// HistoryPage is one page of a user's transaction history.
type HistoryPage struct {
	Entries []HistoryEntry `json:"transactions"`
	Total   int64          `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// annotate builds the user-facing view of a ledger row. Transfers are
// stored once and read from both sides; direction and counterparty depend
// on whether userID sent or received.
func annotate(txn *models.Transaction, userID uint) HistoryEntry {
	e := HistoryEntry{
		PublicID:    txn.PublicID,
		Type:        txn.Type,
		Status:      txn.Status,
		AmountKobo:  txn.Amount,
		Amount:      money.ToMajorString(txn.Amount),
		Reference:   txn.Reference,
		Description: txn.Description,
		Metadata:    txn.Metadata,
		PaidAt:      txn.PaidAt,
		CreatedAt:   txn.CreatedAt,
	}
	switch txn.Type {
	case models.TransactionTypeTransfer:
		if txn.SenderID != nil && *txn.SenderID == userID {
			e.Direction = DirectionOut
			e.Counterparty = txn.RecipientWalletNumber
		} else {
			e.Direction = DirectionIn
			e.Counterparty = txn.SenderWalletNumber
		}
	case models.TransactionTypeWithdrawal:
		e.Direction = DirectionOut
	default:
		// Deposits and refunds add money.
		e.Direction = DirectionIn
	}
	return e
}
