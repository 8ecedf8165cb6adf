package ledger

import "errors"

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrInvalidTransition   = errors.New("transaction is already in a terminal status")
)
