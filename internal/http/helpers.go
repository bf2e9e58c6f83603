package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"ledger/internal/core"
	"ledger/internal/currency"
	"ledger/internal/log"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// parseYearMonth extracts year and month from query parameters, defaulting
// to the current wall-clock period.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}

	return year, month
}

// sumText flattens a decoded JSON sum value (number or string) to the text
// the store validates. Other types come back as-is and fail validation there.
func sumText(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case json.Number:
		return s.String()
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return "invalid"
	}
}

// jsonNumber renders a decimal as a raw JSON number.
func jsonNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// displayAmount formats an amount with its currency's symbol and fraction
// for human-facing fields. Unknown codes fall back to "CODE 12.34".
func displayAmount(d decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return code + " " + d.StringFixed(2)
	}
	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, code).Display()
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", log.FieldError, err)
	}
}

// writeError maps the core's error taxonomy to HTTP statuses. Validation
// and conversion failures are the caller's fault; everything else is a
// storage problem.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status = http.StatusInternalServerError
		code   = "storage_error"
	)
	switch {
	case errors.Is(err, core.ErrInvalidSum),
		errors.Is(err, core.ErrInvalidYear),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, currency.ErrInvalidTable),
		errors.Is(err, currency.ErrInvalidRate):
		status = http.StatusUnprocessableEntity
		code = "validation_error"
	case errors.Is(err, currency.ErrMissingRate):
		status = http.StatusUnprocessableEntity
		code = "missing_rate"
	}

	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Request failed",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldError, err,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}
