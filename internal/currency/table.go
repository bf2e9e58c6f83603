package currency

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidTable marks a malformed rates table (nil, non-numeric
	// values, wrong shape).
	ErrInvalidTable = errors.New("invalid rate table")

	// ErrInvalidRate marks a factor that is not a finite positive number.
	ErrInvalidRate = errors.New("invalid rate")

	// ErrMissingRate marks a currency code absent from an existing table.
	// Distinct from having no table at all: a table that claims to be
	// authoritative must not silently fall back to identity.
	ErrMissingRate = errors.New("missing rate")
)

// Table is the canonical rate table: currency code -> units of the pivot
// currency per one unit of that code. The pivot itself carries factor 1.
// Every key is a canonical code and every factor is finite and positive.
type Table map[string]decimal.Decimal

// Snapshot is the single most-recently-stored rate table. No history is
// kept; writing a new snapshot replaces the old one wholesale.
type Snapshot struct {
	Table     Table
	UpdatedAt time.Time
}

// NormalizeTable resolves a raw rates table into the canonical Table.
//
// Two historical, mutually incompatible shapes are accepted and detected
// structurally:
//
//	flat:    {"USD": 1, "GBP": 1.8, ...}
//	wrapped: {"base": "USD", "rates": {"GBP": 1.8, ...}}
//
// A flat table already carries the canonical orientation: each factor is
// "units of pivot per one unit of that code". A wrapped table declares its
// factors the other way around, "units of that code per one unit of base",
// with the base itself an implicit 1, so wrapped factors are inverted here
// while folding the base in. The shape tag never leaks past this function.
//
// Every key is rewritten through NormalizeCode; when an alias and its
// canonical spelling both appear, the canonical entry wins and the alias is
// discarded. The result of normalizing a canonical table again is the table
// itself.
func NormalizeTable(raw map[string]any) (Table, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: nil table", ErrInvalidTable)
	}

	entries := raw
	invert := false
	out := make(Table, len(raw))

	if rates, ok := wrappedRates(raw); ok {
		base := NormalizeCode(stringValue(raw["base"]))
		out[base] = decimal.NewFromInt(1)
		entries = rates
		invert = true
	}

	// Canonically-spelled keys first so they win over aliases.
	aliased := make(map[string]any)
	for k, v := range entries {
		nk := NormalizeCode(k)
		if isAlias(k) {
			aliased[nk] = v
			continue
		}
		f, err := toFactor(k, v)
		if err != nil {
			return nil, err
		}
		if invert {
			f = one.Div(f)
		}
		out[nk] = f
	}
	for nk, v := range aliased {
		if _, exists := out[nk]; exists {
			continue
		}
		f, err := toFactor(nk, v)
		if err != nil {
			return nil, err
		}
		if invert {
			f = one.Div(f)
		}
		out[nk] = f
	}

	return out, nil
}

var one = decimal.NewFromInt(1)

// Codes returns the table's currency codes in sorted order.
func (t Table) Codes() []string {
	codes := make([]string, 0, len(t))
	for c := range t {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}

// Raw converts the canonical table back into the loose shape NormalizeTable
// accepts, for re-normalization and serialization.
func (t Table) Raw() map[string]any {
	raw := make(map[string]any, len(t))
	for k, v := range t {
		raw[k] = v
	}
	return raw
}

// MarshalJSON emits factors as JSON numbers, not quoted strings.
func (t Table) MarshalJSON() ([]byte, error) {
	m := make(map[string]json.Number, len(t))
	for k, v := range t {
		m[k] = json.Number(v.String())
	}
	return json.Marshal(m)
}

// UnmarshalJSON reads a stored canonical table. It does not re-run shape
// detection: stored snapshots are always flat.
func (t *Table) UnmarshalJSON(data []byte) error {
	var m map[string]json.Number
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	out := make(Table, len(m))
	for k, v := range m {
		d, err := decimal.NewFromString(v.String())
		if err != nil {
			return fmt.Errorf("%w: %q=%q", ErrInvalidTable, k, v)
		}
		out[k] = d
	}
	*t = out
	return nil
}

// isAlias reports whether a raw key is a legacy spelling that NormalizeCode
// rewrites to a different canonical code.
func isAlias(code string) bool {
	c := strings.ToUpper(strings.TrimSpace(code))
	_, ok := aliases[c]
	return ok
}

// wrappedRates reports whether raw is the wrapped shape and returns its
// rates sub-table. The marker is a "rates" key holding a mapping.
func wrappedRates(raw map[string]any) (map[string]any, bool) {
	v, ok := raw["rates"]
	if !ok {
		return nil, false
	}
	switch rates := v.(type) {
	case map[string]any:
		return rates, true
	case Table:
		return rates.Raw(), true
	default:
		return nil, false
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

// toFactor coerces one rate value into a decimal and enforces the table
// invariant: finite and strictly positive.
func toFactor(key string, v any) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch n := v.(type) {
	case decimal.Decimal:
		d = n
	case json.Number:
		parsed, err := decimal.NewFromString(n.String())
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("%w: non-numeric factor for %q", ErrInvalidTable, key)
		}
		d = parsed
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return decimal.Decimal{}, fmt.Errorf("%w: non-finite factor for %q", ErrInvalidRate, key)
		}
		d = decimal.NewFromFloat(n)
	case float32:
		return toFactor(key, float64(n))
	case int:
		d = decimal.NewFromInt(int64(n))
	case int64:
		d = decimal.NewFromInt(n)
	default:
		return decimal.Decimal{}, fmt.Errorf("%w: non-numeric factor for %q", ErrInvalidTable, key)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, fmt.Errorf("%w: factor for %q must be > 0, got %s", ErrInvalidRate, key, d)
	}
	return d, nil
}
