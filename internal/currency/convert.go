package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// scale is the number of decimal places a converted amount is rounded to.
const scale = 2

// Convert converts amount from one currency to another using a canonical
// rate table.
//
// The factors stored in a Table are "units of pivot per one unit of code",
// so the cross rate between any two codes is r(from)/r(to) regardless of
// which currency the table picked as its pivot: amount * r(from) moves the
// value into pivot units, dividing by r(to) moves it out again. The result
// is rounded half-up to two decimals after the arithmetic, never before.
//
// Identity conversions (same code after normalization) return amount exactly,
// with no rounding. A nil table degrades to identity as well: with no
// snapshot ever stored there is nothing authoritative to convert against,
// and the caller is responsible for surfacing that the value is unconverted.
// A code absent from a non-nil table is a hard ErrMissingRate failure.
func Convert(amount decimal.Decimal, from, to string, t Table) (decimal.Decimal, error) {
	from = NormalizeCode(from)
	to = NormalizeCode(to)
	if from == to {
		return amount, nil
	}
	if t == nil {
		return amount, nil
	}

	rFrom, err := t.factor(from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	rTo, err := t.factor(to)
	if err != nil {
		return decimal.Decimal{}, err
	}

	return amount.Mul(rFrom).Div(rTo).Round(scale), nil
}

// factor looks up the stored factor for a canonical code.
func (t Table) factor(code string) (decimal.Decimal, error) {
	r, ok := t[code]
	if !ok {
		return decimal.Decimal{}, fmt.Errorf("%w: %s", ErrMissingRate, code)
	}
	if !r.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: factor for %s is %s", ErrInvalidRate, code, r)
	}
	return r, nil
}
