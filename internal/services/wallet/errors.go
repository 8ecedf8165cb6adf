package wallet

import "errors"

var (
	ErrWalletNotFound  = errors.New("wallet not found")
	ErrWalletExists    = errors.New("wallet already exists")
	ErrNumberExhausted = errors.New("could not allocate a unique wallet number")
)
