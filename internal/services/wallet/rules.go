package wallet

import (
	"time"

	"kobopay/internal/models"
)

// The daily-spend counter resets lazily: it is evaluated against an
// explicit "today" argument at touch time, never against an ambient
// clock, so the rules stay deterministic under test.

// needsDailyReset reports whether the wallet was last reset on an earlier
// calendar day than today.
func needsDailyReset(w *models.Wallet, today time.Time) bool {
	ly, lm, ld := w.LastResetAt.Date()
	ty, tm, td := today.Date()
	if ly != ty {
		return ly < ty
	}
	if lm != tm {
		return lm < tm
	}
	return ld < td
}

// EffectiveDailySpent is the daily-spend counter after applying the lazy
// reset rule for today.
func EffectiveDailySpent(w *models.Wallet, today time.Time) int64 {
	if needsDailyReset(w, today) {
		return 0
	}
	return w.DailySpent
}

// CanDebit checks, in order: lock flag, status, balance, daily limit.
// First failure wins. It is a pure predicate: no I/O, no clock.
func CanDebit(w *models.Wallet, amount int64, today time.Time) (bool, DenyReason) {
	if w.IsLocked {
		return false, ReasonLocked
	}
	if w.Status != models.WalletStatusActive {
		return false, ReasonInactive
	}
	if w.Balance < amount {
		return false, ReasonInsufficientBalance
	}
	if EffectiveDailySpent(w, today)+amount > w.DailyLimit {
		return false, ReasonLimitExceeded
	}
	return true, ""
}

// ApplyDebit mutates the wallet in memory: subtracts the balance, applies
// the lazy daily reset, and advances the daily-spend counter. The caller
// persists the wallet inside its database transaction.
func ApplyDebit(w *models.Wallet, amount int64, today time.Time) {
	if needsDailyReset(w, today) {
		w.DailySpent = 0
		w.LastResetAt = today
	}
	w.Balance -= amount
	w.DailySpent += amount
}

// ApplyCredit mutates the wallet in memory: adds to the balance. Credits
// do not count against the daily spending limit.
func ApplyCredit(w *models.Wallet, amount int64) {
	w.Balance += amount
}
