package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesBillingCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.InvoiceCreated("issued")
	metrics.InvoiceCreated("issued")
	metrics.InvoiceNumberRetry()
	metrics.ObserveReportBuild("dues", "cache")
	_ = metrics.Jobs().Track("reports:warmup").End(errors.New("boom"))
	metrics.Jobs().ReportWarmed("sales")

	body := scrape(t, metrics)
	for _, want := range []string{
		`billing_invoices_created_total{status="issued"} 2`,
		`billing_invoice_number_retries_total 1`,
		`billing_report_builds_total{report="dues",source="cache"} 1`,
		`billing_jobs_total{job="reports:warmup",status="failure"} 1`,
		`billing_jobs_failures_total{job="reports:warmup"} 1`,
		`billing_jobs_in_flight{job="reports:warmup"} 0`,
		`billing_report_warmups_total{report="sales"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected body to contain %s, got: %s", want, body)
		}
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/test")

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	metricsBody := scrape(t, metrics)
	if !strings.Contains(metricsBody, "billing_http_requests_total{code=\"418\",route=\"/test\"} 1") {
		t.Fatalf("expected metrics to record request, got: %s", metricsBody)
	}
	if !strings.Contains(metricsBody, "billing_http_request_duration_seconds_bucket{route=\"/test\"") {
		t.Fatalf("expected duration histogram to be present, got: %s", metricsBody)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.InvoiceCreated("draft")
	metrics.InvoiceNumberRetry()
	metrics.ObserveReportBuild("sales", "build")
	if metrics.Jobs() != nil {
		t.Fatal("expected nil job metrics")
	}

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
