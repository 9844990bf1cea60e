package reporthttp

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/odyssey-erp/billing/internal/platform/httpx"
	"github.com/odyssey-erp/billing/internal/reports"
	"github.com/odyssey-erp/billing/internal/reports/export"
)

const requestTimeout = 5 * time.Second

// ReportService defines the report contract used by the handler.
type ReportService interface {
	Dues(ctx context.Context, filter reports.DuesFilter) (reports.DuesReport, error)
	Sales(ctx context.Context, filter reports.SalesFilter) (reports.SalesReport, error)
	Ledger(ctx context.Context, filter reports.LedgerFilter) (reports.PaymentsLedger, error)
}

// Handler serves the report endpoints as JSON and CSV.
type Handler struct {
	logger  *slog.Logger
	service ReportService
	csvPool sync.Pool
}

// NewHandler constructs the report HTTP handler.
func NewHandler(logger *slog.Logger, service ReportService) *Handler {
	h := &Handler{logger: logger, service: service}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

func (h *Handler) handleDues(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadDues(w, r)
	if ok {
		httpx.JSON(w, http.StatusOK, report)
	}
}

func (h *Handler) handleDuesCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadDues(w, r)
	if ok {
		h.writeCSV(w, "dues.csv", func(buf io.Writer) error { return export.WriteDuesCSV(buf, report) })
	}
}

func (h *Handler) handleSales(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadSales(w, r)
	if ok {
		httpx.JSON(w, http.StatusOK, report)
	}
}

func (h *Handler) handleSalesCSV(w http.ResponseWriter, r *http.Request) {
	report, ok := h.loadSales(w, r)
	if ok {
		h.writeCSV(w, "sales.csv", func(buf io.Writer) error { return export.WriteSalesCSV(buf, report) })
	}
}

func (h *Handler) handleLedger(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.loadLedger(w, r)
	if ok {
		httpx.JSON(w, http.StatusOK, ledger)
	}
}

func (h *Handler) handleLedgerCSV(w http.ResponseWriter, r *http.Request) {
	ledger, ok := h.loadLedger(w, r)
	if ok {
		h.writeCSV(w, "payments-ledger.csv", func(buf io.Writer) error { return export.WriteLedgerCSV(buf, ledger) })
	}
}

func (h *Handler) loadDues(w http.ResponseWriter, r *http.Request) (reports.DuesReport, bool) {
	filter, err := reports.ParseDuesQuery(r.URL.Query())
	if err != nil {
		h.fail(w, "parse dues filter", err)
		return reports.DuesReport{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	report, err := h.service.Dues(ctx, filter)
	if err != nil {
		h.fail(w, "build dues report", err)
		return reports.DuesReport{}, false
	}
	return report, true
}

func (h *Handler) loadSales(w http.ResponseWriter, r *http.Request) (reports.SalesReport, bool) {
	filter, err := reports.ParseSalesQuery(r.URL.Query())
	if err != nil {
		h.fail(w, "parse sales filter", err)
		return reports.SalesReport{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	report, err := h.service.Sales(ctx, filter)
	if err != nil {
		h.fail(w, "build sales report", err)
		return reports.SalesReport{}, false
	}
	return report, true
}

func (h *Handler) loadLedger(w http.ResponseWriter, r *http.Request) (reports.PaymentsLedger, bool) {
	filter, err := reports.ParseLedgerQuery(r.URL.Query())
	if err != nil {
		h.fail(w, "parse ledger filter", err)
		return reports.PaymentsLedger{}, false
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()
	ledger, err := h.service.Ledger(ctx, filter)
	if err != nil {
		h.fail(w, "build payments ledger", err)
		return reports.PaymentsLedger{}, false
	}
	return ledger, true
}

func (h *Handler) writeCSV(w http.ResponseWriter, filename string, write func(io.Writer) error) {
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := write(buf); err != nil {
		h.fail(w, "write csv", err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// statusClientClosedRequest is the nginx convention for a client that went
// away before the response was written.
const statusClientClosedRequest = 499

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		h.logger.Debug(op, slog.Any("error", err))
		w.WriteHeader(statusClientClosedRequest)
	case errors.Is(err, reports.ErrInvalidFilter):
		httpx.Problem(w, http.StatusBadRequest, "Invalid Filter", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusGatewayTimeout, "Timeout", "report build timed out")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.RespondError(w, err)
	}
}
