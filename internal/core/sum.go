// Package core holds the ledger's domain types and sum parsing.
//
// Sums are kept as exact decimals end to end; floating point never touches
// stored amounts.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseSum converts the textual sum of a CostInput into an exact decimal.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Anything
// that is not a finite number strictly greater than zero is rejected with
// ErrInvalidSum: "0", "-5", "NaN", "abc" all fail.
func ParseSum(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrInvalidSum
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidSum
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, ErrInvalidSum
	}
	return d, nil
}
