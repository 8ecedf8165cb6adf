package repositories

import (
	"errors"
	"fmt"
	"time"

	"kobopay/internal/models"

	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(txn *models.Transaction) error {
	if err := r.db.Create(txn).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) GetByReference(reference string) (*models.Transaction, error) {
	return r.getTransaction("reference = ?", reference)
}

func (r *transactionRepository) GetByReferenceForUser(reference string, userID uint) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.Where("reference = ?", reference).
		Where("user_id = ? OR sender_id = ? OR recipient_id = ?", userID, userID, userID).
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

func (r *transactionRepository) GetByGatewayReference(reference string) (*models.Transaction, error) {
	return r.getTransaction("gateway_reference = ?", reference)
}

func (r *transactionRepository) getTransaction(query string, arg interface{}) (*models.Transaction, error) {
	var txn models.Transaction
	if err := r.db.Where(query, arg).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &txn, nil
}

// FindRecentPendingDeposit backs deposit deduplication: the newest pending
// deposit from the same user for the same amount created at or after the
// window start, if any.
func (r *transactionRepository) FindRecentPendingDeposit(userID uint, amount int64, since time.Time) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.Where("user_id = ? AND type = ? AND status = ? AND amount = ? AND created_at >= ?",
		userID, models.TransactionTypeDeposit, models.TransactionStatusPending, amount, since).
		Order("created_at DESC").
		First(&txn).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to find pending deposit: %w", err)
	}
	return &txn, nil
}

func (r *transactionRepository) Update(txn *models.Transaction) error {
	if err := r.db.Save(txn).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

func (r *transactionRepository) ListForUser(userID uint, filter TransactionFilter) ([]models.Transaction, int64, error) {
	q := r.db.Model(&models.Transaction{}).
		Where("user_id = ? OR sender_id = ? OR recipient_id = ?", userID, userID, userID)

	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StartDate != nil {
		q = q.Where("created_at >= ?", *filter.StartDate)
	}
	// EndDate is an exclusive upper bound.
	if filter.EndDate != nil {
		q = q.Where("created_at < ?", *filter.EndDate)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count transactions: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	var txns []models.Transaction
	err := q.Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&txns).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list transactions: %w", err)
	}
	return txns, total, nil
}

func (r *transactionRepository) StatsForUser(userID uint, now time.Time) (*TransactionStats, error) {
	base := func() *gorm.DB {
		return r.db.Model(&models.Transaction{}).
			Where("user_id = ? OR sender_id = ? OR recipient_id = ?", userID, userID, userID)
	}

	stats := &TransactionStats{}

	type countQuery struct {
		dest  *int64
		apply func(*gorm.DB) *gorm.DB
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	counts := []countQuery{
		{&stats.TotalTransactions, func(q *gorm.DB) *gorm.DB { return q }},
		{&stats.TotalDeposits, func(q *gorm.DB) *gorm.DB { return q.Where("type = ?", models.TransactionTypeDeposit) }},
		{&stats.TotalTransfers, func(q *gorm.DB) *gorm.DB { return q.Where("type = ?", models.TransactionTypeTransfer) }},
		{&stats.Successful, func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", models.TransactionStatusSuccess) }},
		{&stats.Failed, func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", models.TransactionStatusFailed) }},
		{&stats.Pending, func(q *gorm.DB) *gorm.DB { return q.Where("status = ?", models.TransactionStatusPending) }},
		{&stats.TodayTransactions, func(q *gorm.DB) *gorm.DB { return q.Where("created_at >= ?", startOfDay) }},
		{&stats.MonthTransactions, func(q *gorm.DB) *gorm.DB { return q.Where("created_at >= ?", startOfMonth) }},
	}
	for _, c := range counts {
		if err := c.apply(base()).Count(c.dest).Error; err != nil {
			return nil, fmt.Errorf("failed to aggregate transaction stats: %w", err)
		}
	}

	sums := []struct {
		dest   *int64
		txType string
	}{
		{&stats.TotalDepositKobo, models.TransactionTypeDeposit},
		{&stats.TotalTransferKobo, models.TransactionTypeTransfer},
	}
	for _, s := range sums {
		err := base().
			Where("type = ? AND status = ?", s.txType, models.TransactionStatusSuccess).
			Select("COALESCE(SUM(amount), 0)").
			Scan(s.dest).Error
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate transaction sums: %w", err)
		}
	}

	return stats, nil
}

func (r *transactionRepository) CreateLog(entry *models.TransactionLog) error {
	if err := r.db.Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create transaction log: %w", err)
	}
	return nil
}

func (r *transactionRepository) ListLogs(transactionID uint) ([]models.TransactionLog, error) {
	var logs []models.TransactionLog
	err := r.db.Where("transaction_id = ?", transactionID).
		Order("created_at DESC").
		Find(&logs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transaction logs: %w", err)
	}
	return logs, nil
}
