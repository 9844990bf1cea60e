package reporthttp

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/billing/internal/reports"
)

type stubService struct {
	dues       reports.DuesReport
	sales      reports.SalesReport
	ledger     reports.PaymentsLedger
	err        error
	lastDues   reports.DuesFilter
	lastSales  reports.SalesFilter
	lastLedger reports.LedgerFilter
}

func (s *stubService) Dues(ctx context.Context, filter reports.DuesFilter) (reports.DuesReport, error) {
	s.lastDues = filter
	return s.dues, s.err
}

func (s *stubService) Sales(ctx context.Context, filter reports.SalesFilter) (reports.SalesReport, error) {
	s.lastSales = filter
	return s.sales, s.err
}

func (s *stubService) Ledger(ctx context.Context, filter reports.LedgerFilter) (reports.PaymentsLedger, error) {
	s.lastLedger = filter
	return s.ledger, s.err
}

func newTestRouter(svc ReportService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(logger, svc).MountRoutes(r)
	return r
}

func TestDuesEndpointPassesFilter(t *testing.T) {
	svc := &stubService{dues: reports.DuesReport{
		GeneratedAt: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Customers:   []reports.CustomerBalance{{CustomerID: 1, CustomerName: "Alpha Industries", InvoicedCents: 15250, PaidCents: 6000, BalanceCents: 9250}},
		Summary:     reports.DuesSummary{CustomersCount: 1, TotalInvoicedCents: 15250, TotalPaidCents: 6000, TotalBalanceCents: 9250},
	}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/reports/dues?minBalanceCents=1&search=alpha", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, svc.lastDues.MinBalanceCents.Valid)
	require.Equal(t, int64(1), svc.lastDues.MinBalanceCents.Int64)
	require.Equal(t, "alpha", svc.lastDues.Search)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	summary := body["summary"].(map[string]any)
	require.EqualValues(t, 9250, summary["totalBalanceCents"])
}

func TestMalformedFilterIsBadRequest(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	for _, target := range []string{
		"/reports/dues?customerId=0",
		"/reports/sales?from=2024-13-01",
		"/reports/sales?groupBy=year",
		"/reports/payments-ledger?direction=up",
		"/reports/payments-ledger.csv?invoiceId=abc",
	} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		require.Equal(t, http.StatusBadRequest, rec.Code, target)
		require.Contains(t, rec.Body.String(), "Invalid Filter", target)
	}
	require.Equal(t, reports.LedgerFilter{}, svc.lastLedger)
}

func TestLedgerEndpointDefaults(t *testing.T) {
	svc := &stubService{}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/payments-ledger?customerId=4&from=2024-03-01&to=2024-03-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, int64(4), svc.lastLedger.CustomerID.Int64)
	require.True(t, svc.lastLedger.From.Valid)
	require.True(t, svc.lastLedger.To.Valid)
	require.Equal(t, reports.Direction(""), svc.lastLedger.Direction)
}

func TestSalesCSVExport(t *testing.T) {
	svc := &stubService{sales: reports.SalesReport{
		Rows:    []reports.SalesRow{{Period: "2024-03", InvoicesCount: 1, TotalCents: 5250}},
		Summary: reports.SalesSummary{TotalInvoicesCount: 1, TotalCents: 5250},
	}}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/sales.csv?groupBy=month", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Header().Get("Content-Disposition"), "sales.csv")

	records, err := csv.NewReader(strings.NewReader(rec.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Equal(t, []string{"2024-03", "1", "52.50"}, records[1])
}

func TestServiceFailureIsInternalError(t *testing.T) {
	svc := &stubService{err: errors.New("redis: connection refused")}
	router := newTestRouter(svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/dues", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "redis")
}

func TestCancelledRequestIsNotServerError(t *testing.T) {
	svc := &stubService{err: fmt.Errorf("reports: load customer balances: %w", context.Canceled)}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelInfo}))
	router := chi.NewRouter()
	NewHandler(logger, svc).MountRoutes(router)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports/dues", nil).WithContext(ctx))

	require.Equal(t, statusClientClosedRequest, rec.Code)
	require.Empty(t, rec.Body.String())
	require.NotContains(t, logs.String(), "level=ERROR")
}
