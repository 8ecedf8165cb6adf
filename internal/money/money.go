// Package money formats kobo (minor units) as naira (major units).
// Every balance and amount inside the ledger is an int64 kobo value;
// decimals appear only here, at the boundary.
package money

import (
	"github.com/shopspring/decimal"
)

// ToMajorString formats kobo as a naira string with exactly two decimal
// places, e.g. 5000 -> "50.00".
func ToMajorString(kobo int64) string {
	return decimal.New(kobo, -2).StringFixed(2)
}
