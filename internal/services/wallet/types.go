package wallet

import "fmt"

// DenyReason explains why a wallet cannot be debited. Each reason maps to
// a distinct user-facing message; callers never see a generic failure.
type DenyReason string

const (
	ReasonLocked              DenyReason = "locked"
	ReasonInactive            DenyReason = "inactive"
	ReasonInsufficientBalance DenyReason = "insufficient_balance"
	ReasonLimitExceeded       DenyReason = "limit_exceeded"
)

// Message renders the reason for API responses. status is the wallet's
// current status, used for the inactive case.
func (r DenyReason) Message(status string) string {
	switch r {
	case ReasonLocked:
		return "Wallet is locked"
	case ReasonInactive:
		return fmt.Sprintf("Wallet is %s", status)
	case ReasonInsufficientBalance:
		return "Insufficient balance"
	case ReasonLimitExceeded:
		return "Daily transfer limit exceeded"
	default:
		return "Wallet cannot be debited"
	}
}
