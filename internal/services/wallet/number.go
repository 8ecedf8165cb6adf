package wallet

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// generateNumber returns a candidate wallet number: the fixed prefix
// followed by random digits up to NumberLength.
func generateNumber() (string, error) {
	digits := make([]byte, 0, NumberLength-len(NumberPrefix))
	for i := 0; i < NumberLength-len(NumberPrefix); i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("failed to generate wallet number: %w", err)
		}
		digits = append(digits, byte('0'+n.Int64()))
	}
	return NumberPrefix + string(digits), nil
}

// ValidNumber reports whether s is a well-formed wallet number: exactly
// NumberLength digits.
func ValidNumber(s string) bool {
	if len(s) != NumberLength {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
