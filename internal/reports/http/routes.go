// Package reporthttp exposes the receivables reports over HTTP.
package reporthttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
)

// MountRoutes registers the report endpoints. CSV exports share a stricter
// per-IP limit.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/reports/dues", h.handleDues)
	r.Get("/reports/sales", h.handleSales)
	r.Get("/reports/payments-ledger", h.handleLedger)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/reports/dues.csv", h.handleDuesCSV)
		gr.Get("/reports/sales.csv", h.handleSalesCSV)
		gr.Get("/reports/payments-ledger.csv", h.handleLedgerCSV)
	})
}
