// Package currency canonicalizes currency codes and rate tables and performs
// the conversion arithmetic used by every report.
//
// Rate tables are reconciled from two historical shapes (flat and wrapped,
// see NormalizeTable) into one canonical flat map before any arithmetic runs.
// Amounts are exact decimals; rounding happens once, after the cross-rate
// multiplication.
package currency

import "strings"

// DefaultCode is the fallback used when a record or rate entry carries no
// currency code at all.
const DefaultCode = "USD"

// aliases maps legacy spellings to the canonical code. Both spellings of the
// Euro show up in old rate feeds and stored records; only the ISO one is
// allowed to survive normalization.
var aliases = map[string]string{
	"EURO": "EUR",
}

// NormalizeCode trims and uppercases a currency code and resolves legacy
// aliases to their canonical spelling. Empty input normalizes to DefaultCode.
func NormalizeCode(code string) string {
	return NormalizeCodeDefault(code, DefaultCode)
}

// NormalizeCodeDefault is NormalizeCode with an explicit fallback for empty
// input, for callers with a configured default currency.
func NormalizeCodeDefault(code, fallback string) string {
	c := strings.ToUpper(strings.TrimSpace(code))
	if c == "" {
		return strings.ToUpper(strings.TrimSpace(fallback))
	}
	if canonical, ok := aliases[c]; ok {
		return canonical
	}
	return c
}
