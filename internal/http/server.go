// Package http exposes the ledger's operations as a small JSON API. It is a
// transport only: validation, conversion and storage rules all live below.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"ledger/internal/log"
	"ledger/internal/services"
)

// Server wires the ledger and report services to HTTP routes.
type Server struct {
	*http.Server
	ledger  *services.LedgerService
	reports *services.ReportService
}

func NewServer(addr string, ledger *services.LedgerService, reports *services.ReportService) *Server {
	s := &Server{
		ledger:  ledger,
		reports: reports,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/costs", s.handleCosts)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/report/categories", s.handleCategoryReport)
	mux.HandleFunc("/api/rates", s.handleRates)
	mux.HandleFunc("/api/convert", s.handleConvert)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.Server = &http.Server{
		Addr:    addr,
		Handler: requestLogger(mux),
	}

	return s
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.InfoContext(r.Context(), "Request handled",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rec.status,
			log.FieldDuration, time.Since(start).Milliseconds())
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
