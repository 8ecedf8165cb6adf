package repositories

import (
	"errors"
	"fmt"

	"kobopay/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type walletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) WalletRepository {
	return &walletRepository{db: db}
}

func (r *walletRepository) Create(wallet *models.Wallet) error {
	if err := r.db.Create(wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrWalletExists
		}
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) GetByID(id uint) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := r.db.First(&wallet, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	return r.getWallet(r.db, "user_id = ?", userID)
}

func (r *walletRepository) GetByNumber(number string) (*models.Wallet, error) {
	return r.getWallet(r.db, "wallet_number = ?", number)
}

// Row-locking lookups. Only valid inside ExecuteInTransaction; callers
// locking two wallets must lock them in wallet-number ascending order.
func (r *walletRepository) GetByUserIDForUpdate(userID uint) (*models.Wallet, error) {
	return r.getWallet(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), "user_id = ?", userID)
}

func (r *walletRepository) GetByNumberForUpdate(number string) (*models.Wallet, error) {
	return r.getWallet(r.db.Clauses(clause.Locking{Strength: "UPDATE"}), "wallet_number = ?", number)
}

func (r *walletRepository) getWallet(db *gorm.DB, query string, arg interface{}) (*models.Wallet, error) {
	var wallet models.Wallet
	if err := db.Where(query, arg).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &wallet, nil
}

func (r *walletRepository) Update(wallet *models.Wallet) error {
	if err := r.db.Save(wallet).Error; err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}
	return nil
}

func (r *walletRepository) WalletNumberExists(number string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Wallet{}).Where("wallet_number = ?", number).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check wallet number: %w", err)
	}
	return count > 0, nil
}

func (r *walletRepository) CreateTransaction(txn *models.Transaction) error {
	if err := r.db.Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *walletRepository) GetTransactionByReferenceForUpdate(reference string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("reference = ?", reference).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

func (r *walletRepository) UpdateTransaction(txn *models.Transaction) error {
	if err := r.db.Save(txn).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (r *walletRepository) CreateTransactionLog(entry *models.TransactionLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create transaction log: %w", err)
	}
	return nil
}

func (r *walletRepository) ExecuteInTransaction(fn func(WalletRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&walletRepository{db: tx})
	})
}
