package core

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidSum   = errors.New("invalid sum")
	ErrInvalidMonth = errors.New("invalid month")
	ErrInvalidYear  = errors.New("invalid year")
)

type (
	// CostInput carries the caller-supplied fields of a new ledger entry.
	// Sum arrives as text so the store can reject non-numeric input itself
	// instead of trusting the caller's parsing.
	CostInput struct {
		Sum         string
		Currency    string
		Category    string
		Description string
	}

	// CostFields is the write-confirmation shape: only the semantic fields
	// the caller supplied. Internal fields (id, timestamps, derived date
	// parts) are deliberately not echoed back.
	CostFields struct {
		Sum         decimal.Decimal
		Currency    string
		Category    string
		Description string
	}

	// CostRecord is a stored ledger entry. Records are append-only: once
	// written they are never updated or deleted.
	CostRecord struct {
		ID          int64
		Sum         decimal.Decimal
		Currency    string
		Category    string
		Description string
		CreatedAt   time.Time
		Year        int
		Month       int // 1-12
		Day         int
	}
)

// Fields returns the caller-visible subset of a stored record.
func (r CostRecord) Fields() CostFields {
	return CostFields{
		Sum:         r.Sum,
		Currency:    r.Currency,
		Category:    r.Category,
		Description: r.Description,
	}
}

// ValidatePeriod checks a (year, month) report period.
func ValidatePeriod(year, month int) error {
	if year < 1970 || year > 9999 {
		return ErrInvalidYear
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}
