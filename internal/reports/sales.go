package reports

import (
	"fmt"
	"sort"
	"time"
)

// BuildSalesReport buckets revenue-recognized invoices inside the filter range
// by day, week or month. Draft and void invoices never contribute.
func BuildSalesReport(invoices []InvoiceRecord, filter SalesFilter, now time.Time) (SalesReport, error) {
	if err := filter.Validate(); err != nil {
		return SalesReport{}, err
	}

	group := filter.groupBy()
	lo, hi := rangeBounds(filter.From, filter.To)
	buckets := make(map[string]*SalesRow)
	for _, inv := range invoices {
		if !inv.Status.IsRevenueRecognized() {
			continue
		}
		if !withinRange(inv.IssueDate, lo, hi) {
			continue
		}
		key := periodKey(inv.IssueDate, group)
		row, ok := buckets[key]
		if !ok {
			row = &SalesRow{Period: key}
			buckets[key] = row
		}
		row.InvoicesCount++
		row.TotalCents += inv.GrandTotalCents
	}

	rows := make([]SalesRow, 0, len(buckets))
	var summary SalesSummary
	for _, row := range buckets {
		rows = append(rows, *row)
		summary.TotalInvoicesCount += row.InvoicesCount
		summary.TotalCents += row.TotalCents
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Period < rows[j].Period })

	return SalesReport{
		GeneratedAt: now.UTC(),
		GroupBy:     group,
		Rows:        rows,
		Summary:     summary,
	}, nil
}

// periodKey renders the bucket of t in UTC. Weeks are numbered 00-53 with
// Monday as the first day; days before the year's first Monday fall in week 00.
func periodKey(t time.Time, group GroupBy) string {
	t = t.UTC()
	switch group {
	case GroupByDay:
		return t.Format("2006-01-02")
	case GroupByWeek:
		mondayOffset := (int(t.Weekday()) + 6) % 7
		week := (t.YearDay() - 1 + 7 - mondayOffset) / 7
		return fmt.Sprintf("%04d-%02d", t.Year(), week)
	default:
		return t.Format("2006-01")
	}
}
