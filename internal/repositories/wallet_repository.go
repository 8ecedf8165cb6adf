package repositories

import "kobopay/internal/models"

// WalletRepository is the data access layer for wallets and the ledger
// rows written alongside a balance mutation. ExecuteInTransaction yields a
// repository bound to the database transaction; the ForUpdate variants
// take row locks and are only meaningful inside one.
type WalletRepository interface {
	Create(wallet *models.Wallet) error
	GetByID(id uint) (*models.Wallet, error)
	GetByUserID(userID uint) (*models.Wallet, error)
	GetByNumber(number string) (*models.Wallet, error)
	GetByUserIDForUpdate(userID uint) (*models.Wallet, error)
	GetByNumberForUpdate(number string) (*models.Wallet, error)
	Update(wallet *models.Wallet) error
	WalletNumberExists(number string) (bool, error)

	CreateTransaction(txn *models.Transaction) error
	GetTransactionByReferenceForUpdate(reference string) (*models.Transaction, error)
	UpdateTransaction(txn *models.Transaction) error
	CreateTransactionLog(entry *models.TransactionLog) error

	ExecuteInTransaction(fn func(WalletRepository) error) error
}
