package core

import "github.com/shopspring/decimal"

// Total is a grand total expressed in the currency the caller asked for.
type Total struct {
	Currency string
	Total    decimal.Decimal
}

// Report is a monthly view of the ledger. Costs keep their original sum and
// currency for display; only Total is converted.
type Report struct {
	Year      int
	Month     int // 1-12
	Costs     []CostFields
	Total     Total
	Converted bool // false when no rate snapshot existed and sums passed through unconverted
}

// CategoryTotal is one row of a per-category breakdown, already converted
// into the requested currency.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
}
