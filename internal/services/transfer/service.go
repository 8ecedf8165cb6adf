package transfer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"kobopay/internal/models"
	"kobopay/internal/repositories"
	"kobopay/internal/services/ledger"
	"kobopay/internal/services/wallet"
)

// MinAmountKobo is the smallest transferable amount (₦1).
const MinAmountKobo = 100

var (
	ErrInvalidAmount       = errors.New("amount must be at least 100 kobo")
	ErrInvalidWalletNumber = errors.New("invalid wallet number")
)

// Result is the outcome of a transfer attempt. A precondition failure is
// not an error: OK is false, Message carries the user-facing reason, and
// nothing was written.
type Result struct {
	OK          bool
	Message     string
	Transaction *models.Transaction
}

// Service moves money between two wallets atomically.
type Service interface {
	Transfer(ctx context.Context, senderUserID uint, recipientWalletNumber string, amountKobo int64, description string) (*Result, error)
}

type service struct {
	repo repositories.WalletRepository
	now  func() time.Time
}

func NewService(repo repositories.WalletRepository, now func() time.Time) Service {
	if repo == nil {
		panic("repo is required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}
}

func (s *service) Transfer(ctx context.Context, senderUserID uint, recipientWalletNumber string, amountKobo int64, description string) (*Result, error) {
	if amountKobo < MinAmountKobo {
		return nil, ErrInvalidAmount
	}
	if !wallet.ValidNumber(recipientWalletNumber) {
		return nil, ErrInvalidWalletNumber
	}

	var result *Result
	err := s.repo.ExecuteInTransaction(func(tx repositories.WalletRepository) error {
		sender, recipient, err := s.lockBoth(tx, senderUserID, recipientWalletNumber)
		if err != nil {
			return err
		}

		// Preconditions, checked under lock; first failure wins.
		if recipient == nil || recipient.Status != models.WalletStatusActive || recipient.IsLocked {
			result = &Result{Message: "Invalid wallet number or wallet is not active"}
			return nil
		}
		if sender.ID == recipient.ID {
			result = &Result{Message: "Cannot transfer to your own wallet"}
			return nil
		}
		today := s.now()
		if ok, reason := wallet.CanDebit(sender, amountKobo, today); !ok {
			result = &Result{Message: reason.Message(sender.Status)}
			return nil
		}

		wallet.ApplyDebit(sender, amountKobo, today)
		wallet.ApplyCredit(recipient, amountKobo)
		if err := tx.Update(sender); err != nil {
			return fmt.Errorf("failed to debit sender: %w", err)
		}
		if err := tx.Update(recipient); err != nil {
			return fmt.Errorf("failed to credit recipient: %w", err)
		}

		reference, err := ledger.NewReference(models.TransactionTypeTransfer)
		if err != nil {
			return err
		}
		paidAt := today
		txn := &models.Transaction{
			PublicID:              models.NewTransactionPublicID(),
			Type:                  models.TransactionTypeTransfer,
			Status:                models.TransactionStatusSuccess,
			Amount:                amountKobo,
			Reference:             reference,
			SenderID:              &sender.UserID,
			RecipientID:           &recipient.UserID,
			SenderWalletNumber:    sender.WalletNumber,
			RecipientWalletNumber: recipient.WalletNumber,
			Description:           description,
			PaidAt:                &paidAt,
		}
		if err := tx.CreateTransaction(txn); err != nil {
			return fmt.Errorf("failed to record transfer: %w", err)
		}
		logEntry := &models.TransactionLog{
			TransactionID: txn.ID,
			OldStatus:     models.TransactionStatusPending,
			NewStatus:     models.TransactionStatusSuccess,
			Action:        "transfer_completed",
			PerformedBy:   &sender.UserID,
		}
		if err := tx.CreateTransactionLog(logEntry); err != nil {
			return fmt.Errorf("failed to record transfer log: %w", err)
		}

		result = &Result{OK: true, Message: "Transfer successful", Transaction: txn}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if result.OK {
		log.Printf("transfer completed reference=%s amount_kobo=%d sender=%s recipient=%s",
			result.Transaction.Reference, amountKobo,
			result.Transaction.SenderWalletNumber, result.Transaction.RecipientWalletNumber)
	}
	return result, nil
}

// lockBoth takes FOR UPDATE locks on both wallet rows in wallet-number
// ascending order so two opposite-direction transfers cannot deadlock.
// A missing recipient is reported as (sender, nil, nil) so the caller can
// answer with the generic recipient message instead of an oracle.
func (s *service) lockBoth(tx repositories.WalletRepository, senderUserID uint, recipientNumber string) (*models.Wallet, *models.Wallet, error) {
	senderPeek, err := tx.GetByUserID(senderUserID)
	if err != nil {
		if errors.Is(err, repositories.ErrWalletNotFound) {
			return nil, nil, wallet.ErrWalletNotFound
		}
		return nil, nil, err
	}

	lockRecipient := func() (*models.Wallet, error) {
		w, err := tx.GetByNumberForUpdate(recipientNumber)
		if err != nil {
			if errors.Is(err, repositories.ErrWalletNotFound) {
				return nil, nil
			}
			return nil, err
		}
		return w, nil
	}

	var sender, recipient *models.Wallet
	if senderPeek.WalletNumber < recipientNumber {
		sender, err = tx.GetByUserIDForUpdate(senderUserID)
		if err != nil {
			return nil, nil, err
		}
		recipient, err = lockRecipient()
		if err != nil {
			return nil, nil, err
		}
	} else {
		recipient, err = lockRecipient()
		if err != nil {
			return nil, nil, err
		}
		sender, err = tx.GetByUserIDForUpdate(senderUserID)
		if err != nil {
			return nil, nil, err
		}
	}
	return sender, recipient, nil
}
