package repositories

import (
	"time"

	"kobopay/internal/models"
)

// TransactionFilter narrows history queries. Zero values mean "no filter";
// Limit is capped at MaxHistoryLimit by the repository.
type TransactionFilter struct {
	Type      string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int
	Offset    int
}

// MaxHistoryLimit caps history page sizes.
const MaxHistoryLimit = 100

// TransactionStats is an on-demand aggregation over a user's ledger rows.
// It is always computed from the transaction table, never maintained as
// counters.
type TransactionStats struct {
	TotalTransactions  int64 `json:"total_transactions"`
	TotalDeposits      int64 `json:"total_deposits"`
	TotalTransfers     int64 `json:"total_transfers"`
	TotalDepositKobo   int64 `json:"total_deposit_amount_kobo"`
	TotalTransferKobo  int64 `json:"total_transfer_amount_kobo"`
	Successful         int64 `json:"successful_transactions"`
	Failed             int64 `json:"failed_transactions"`
	Pending            int64 `json:"pending_transactions"`
	TodayTransactions  int64 `json:"today_transactions"`
	MonthTransactions  int64 `json:"this_month_transactions"`
}

// TransactionRepository is the read/write layer for ledger rows outside of
// a balance mutation. Anything that must be atomic with a wallet update
// goes through WalletRepository.ExecuteInTransaction instead.
type TransactionRepository interface {
	Create(txn *models.Transaction) error
	GetByReference(reference string) (*models.Transaction, error)
	GetByReferenceForUser(reference string, userID uint) (*models.Transaction, error)
	GetByGatewayReference(reference string) (*models.Transaction, error)
	FindRecentPendingDeposit(userID uint, amount int64, since time.Time) (*models.Transaction, error)
	Update(txn *models.Transaction) error
	ListForUser(userID uint, filter TransactionFilter) ([]models.Transaction, int64, error)
	StatsForUser(userID uint, now time.Time) (*TransactionStats, error)
	CreateLog(entry *models.TransactionLog) error
	ListLogs(transactionID uint) ([]models.TransactionLog, error)
}
