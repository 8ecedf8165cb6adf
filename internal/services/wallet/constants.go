package wallet

// Wallet number format: fixed prefix for identification, then random
// digits, 15 digits total.
const (
	NumberPrefix = "45"
	NumberLength = 15
)

// DefaultCurrency tags new wallets.
const DefaultCurrency = "NGN"

// Wallet number generation retries before giving up on collisions.
const maxNumberAttempts = 10
