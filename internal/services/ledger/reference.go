package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"kobopay/internal/models"
)

// referencePrefixes maps transaction types to their reference tag. The tag
// makes a reference self-describing in gateway dashboards and support logs.
var referencePrefixes = map[string]string{
	models.TransactionTypeDeposit:    "DEP",
	models.TransactionTypeTransfer:   "TRF",
	models.TransactionTypeWithdrawal: "WDL",
	models.TransactionTypeRefund:     "RFD",
}

// NewReference generates a unique ledger reference for the given
// transaction type, e.g. "DEP_3F2A9C...". The 12 random bytes give 96 bits
// of entropy; the unique index on transactions.reference is the final
// arbiter.
func NewReference(txType string) (string, error) {
	prefix, ok := referencePrefixes[txType]
	if !ok {
		return "", fmt.Errorf("unknown transaction type: %q", txType)
	}
	buf := make([]byte, 12)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate reference: %w", err)
	}
	return prefix + "_" + strings.ToUpper(hex.EncodeToString(buf)), nil
}
