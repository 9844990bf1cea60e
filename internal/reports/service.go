package reports

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// Repository fetches the records the reports are built from. Implementations
// may pre-filter with the given filter; the builders filter again.
type Repository interface {
	CustomerBalances(ctx context.Context) ([]CustomerBalance, error)
	Invoices(ctx context.Context, filter SalesFilter) ([]InvoiceRecord, error)
	Payments(ctx context.Context, filter LedgerFilter) ([]PaymentRecord, error)
}

// BuildRecorder observes where each report came from.
type BuildRecorder interface {
	ObserveReportBuild(report, source string)
}

// DefaultBuildTimeout bounds a shared report build once it is detached from
// the requests waiting on it.
const DefaultBuildTimeout = 30 * time.Second

// Report names used in cache keys and metrics.
const (
	ReportDues   = "dues"
	ReportSales  = "sales"
	ReportLedger = "ledger"
)

// Service coordinates report builds with the cache layer. Identical concurrent
// requests that miss the cache share one build.
type Service struct {
	repo     Repository
	cache    *Cache
	recorder BuildRecorder
	group    singleflight.Group
	now      func() time.Time

	buildTimeout time.Duration
}

// NewService wires a Repository with a Cache helper. cache and recorder may be nil.
func NewService(repo Repository, cache *Cache, recorder BuildRecorder) *Service {
	return &Service{
		repo:     repo,
		cache:    cache,
		recorder: recorder,
		now:      func() time.Time { return time.Now().UTC() },

		buildTimeout: DefaultBuildTimeout,
	}
}

// Dues returns the dues report for filter.
func (s *Service) Dues(ctx context.Context, filter DuesFilter) (DuesReport, error) {
	if err := filter.Validate(); err != nil {
		return DuesReport{}, err
	}
	var report DuesReport
	err := s.fetch(ctx, ReportDues, filter.cacheKey(), &report, func(ctx context.Context) (any, error) {
		rows, err := s.repo.CustomerBalances(ctx)
		if err != nil {
			return nil, fmt.Errorf("reports: load customer balances: %w", err)
		}
		return BuildDuesReport(rows, filter, s.now())
	})
	return report, err
}

// Sales returns the sales report for filter.
func (s *Service) Sales(ctx context.Context, filter SalesFilter) (SalesReport, error) {
	if err := filter.Validate(); err != nil {
		return SalesReport{}, err
	}
	var report SalesReport
	err := s.fetch(ctx, ReportSales, filter.cacheKey(), &report, func(ctx context.Context) (any, error) {
		invoices, err := s.repo.Invoices(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("reports: load invoices: %w", err)
		}
		return BuildSalesReport(invoices, filter, s.now())
	})
	return report, err
}

// Ledger returns the payments ledger for filter.
func (s *Service) Ledger(ctx context.Context, filter LedgerFilter) (PaymentsLedger, error) {
	if err := filter.Validate(); err != nil {
		return PaymentsLedger{}, err
	}
	var ledger PaymentsLedger
	err := s.fetch(ctx, ReportLedger, filter.cacheKey(), &ledger, func(ctx context.Context) (any, error) {
		payments, err := s.repo.Payments(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("reports: load payments: %w", err)
		}
		return BuildPaymentsLedger(payments, filter, s.now())
	})
	return ledger, err
}

// Invalidate drops every cached report.
func (s *Service) Invalidate(ctx context.Context) error {
	_, err := s.cache.Bump(ctx)
	return err
}

// Warmup builds the default variant of each report for the year containing
// now, leaving them in the cache. It returns the reports it built.
func (s *Service) Warmup(ctx context.Context) ([]string, error) {
	var warmed []string
	if _, err := s.Dues(ctx, DuesFilter{}); err != nil {
		return warmed, err
	}
	warmed = append(warmed, ReportDues)

	now := s.now()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.Sales(ctx, SalesFilter{
		From:    dateOf(yearStart),
		To:      dateOf(yearStart.AddDate(1, 0, -1)),
		GroupBy: GroupByMonth,
	}); err != nil {
		return warmed, err
	}
	warmed = append(warmed, ReportSales)

	if _, err := s.Ledger(ctx, LedgerFilter{}); err != nil {
		return warmed, err
	}
	return append(warmed, ReportLedger), nil
}

func (s *Service) fetch(ctx context.Context, report string, parts []string, dest any, build func(context.Context) (any, error)) error {
	key, err := s.cache.BuildKey(ctx, append([]string{"reports", report}, parts...)...)
	if err != nil {
		return err
	}
	hit, err := s.cache.FetchJSON(ctx, key, dest, func(ctx context.Context) (any, error) {
		return s.shared(ctx, key, build)
	})
	if err != nil {
		return err
	}
	if s.recorder != nil {
		source := "build"
		if hit {
			source = "cache"
		}
		s.recorder.ObserveReportBuild(report, source)
	}
	return nil
}

// shared runs fn once per key across concurrent callers. The build outlives
// the caller that started it; each caller stops waiting on its own ctx.
func (s *Service) shared(ctx context.Context, key string, fn func(context.Context) (any, error)) (any, error) {
	resultChan := s.group.DoChan(key, func() (any, error) {
		buildCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.buildTimeout)
		defer cancel()
		return fn(buildCtx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-resultChan:
		return res.Val, res.Err
	}
}
