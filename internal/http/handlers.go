package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"ledger/internal/core"
	"ledger/internal/currency"

	"github.com/shopspring/decimal"
)

type costRequest struct {
	Sum         any    `json:"sum"`
	Currency    string `json:"currency"`
	Category    string `json:"category"`
	Description string `json:"description"`
}

type costResponse struct {
	Sum         json.Number `json:"sum"`
	Currency    string      `json:"currency"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
}

func toCostResponse(f core.CostFields) costResponse {
	return costResponse{
		Sum:         jsonNumber(f.Sum),
		Currency:    f.Currency,
		Category:    f.Category,
		Description: f.Description,
	}
}

type totalResponse struct {
	Currency string      `json:"currency"`
	Total    json.Number `json:"total"`
	Display  string      `json:"display"`
}

type reportResponse struct {
	Year      int            `json:"year"`
	Month     int            `json:"month"`
	Costs     []costResponse `json:"costs"`
	Total     totalResponse  `json:"total"`
	Converted bool           `json:"converted"`
}

type costRecordResponse struct {
	ID          int64       `json:"id"`
	Sum         json.Number `json:"sum"`
	Currency    string      `json:"currency"`
	Category    string      `json:"category"`
	Description string      `json:"description"`
	CreatedAt   int64       `json:"created_at"`
	Year        int         `json:"year"`
	Month       int         `json:"month"`
	Day         int         `json:"day"`
}

func (s *Server) handleCosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleAddCost(w, r)
	case http.MethodGet:
		s.handleListCosts(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleAddCost(w http.ResponseWriter, r *http.Request) {
	var req costRequest
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed request body", Code: "bad_request"})
		return
	}

	fields, err := s.ledger.AddCost(r.Context(), core.CostInput{
		Sum:         sumText(req.Sum),
		Currency:    req.Currency,
		Category:    req.Category,
		Description: req.Description,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toCostResponse(fields))
}

// handleListCosts lists stored records by their raw category string.
func (s *Server) handleListCosts(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "category query parameter is required", Code: "bad_request"})
		return
	}

	records, err := s.ledger.ListCostsByCategory(r.Context(), category)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows := make([]costRecordResponse, 0, len(records))
	for _, rec := range records {
		rows = append(rows, costRecordResponse{
			ID:          rec.ID,
			Sum:         jsonNumber(rec.Sum),
			Currency:    rec.Currency,
			Category:    rec.Category,
			Description: rec.Description,
			CreatedAt:   rec.CreatedAt.UnixMilli(),
			Year:        rec.Year,
			Month:       rec.Month,
			Day:         rec.Day,
		})
	}

	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	year, month := parseYearMonth(r)
	target := r.URL.Query().Get("currency")

	report, err := s.reports.GetReport(r.Context(), year, month, target)
	if err != nil {
		writeError(w, r, err)
		return
	}

	costs := make([]costResponse, 0, len(report.Costs))
	for _, c := range report.Costs {
		costs = append(costs, toCostResponse(c))
	}

	writeJSON(w, http.StatusOK, reportResponse{
		Year:  report.Year,
		Month: report.Month,
		Costs: costs,
		Total: totalResponse{
			Currency: report.Total.Currency,
			Total:    jsonNumber(report.Total.Total),
			Display:  displayAmount(report.Total.Total, report.Total.Currency),
		},
		Converted: report.Converted,
	})
}

type categoryRow struct {
	Category string      `json:"category"`
	Total    json.Number `json:"total"`
}

func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	year, month := parseYearMonth(r)
	target := currency.NormalizeCode(r.URL.Query().Get("currency"))

	breakdown, err := s.reports.CategoryBreakdown(r.Context(), year, month, target)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rows := make([]categoryRow, 0, len(breakdown))
	for _, b := range breakdown {
		rows = append(rows, categoryRow{Category: b.Category, Total: jsonNumber(b.Total)})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"year":       year,
		"month":      month,
		"currency":   target,
		"categories": rows,
	})
}

type ratesResponse struct {
	Table     currency.Table `json:"table"`
	UpdatedAt int64          `json:"updated_at"`
}

func (s *Server) handleRates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut, http.MethodPost:
		var raw map[string]any
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed rates table", Code: "bad_request"})
			return
		}

		snap, err := s.ledger.SetRates(r.Context(), raw)
		if err != nil {
			writeError(w, r, err)
			return
		}

		writeJSON(w, http.StatusOK, ratesResponse{
			Table:     snap.Table,
			UpdatedAt: snap.UpdatedAt.UnixMilli(),
		})

	case http.MethodGet:
		snap, err := s.ledger.GetLatestRates(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if snap == nil {
			// No snapshot ever stored: explicit null, never "all rates 1".
			writeJSON(w, http.StatusOK, nil)
			return
		}
		writeJSON(w, http.StatusOK, ratesResponse{
			Table:     snap.Table,
			UpdatedAt: snap.UpdatedAt.UnixMilli(),
		})

	default:
		w.Header().Set("Allow", "GET, PUT, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	amount, err := decimal.NewFromString(strings.TrimSpace(q.Get("amount")))
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "invalid amount", Code: "validation_error"})
		return
	}
	from := q.Get("from")
	to := q.Get("to")

	result, err := s.reports.Convert(r.Context(), amount, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"amount":  jsonNumber(amount),
		"from":    currency.NormalizeCode(from),
		"to":      currency.NormalizeCode(to),
		"result":  jsonNumber(result),
		"display": displayAmount(result, currency.NormalizeCode(to)),
	})
}
