package deposit

import (
	"errors"
	"fmt"
)

var (
	ErrDepositNotFound = errors.New("deposit not found")
)

// ValidationError rejects a deposit request before anything is written.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func errAmountBelowMinimum(minKobo int64) error {
	return &ValidationError{Message: fmt.Sprintf("Minimum deposit amount is %d kobo", minKobo)}
}
