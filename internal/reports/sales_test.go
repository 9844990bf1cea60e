package reports

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/billing/internal/billing"
)

func TestBuildSalesReportByMonthExcludesDraftAndVoid(t *testing.T) {
	report, err := BuildSalesReport(seedInvoices(), SalesFilter{}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, GroupByMonth, report.GroupBy)
	require.Equal(t, []SalesRow{
		{Period: "2024-03", InvoicesCount: 1, TotalCents: 5250},
		{Period: "2024-04", InvoicesCount: 1, TotalCents: 10000},
		{Period: "2024-05", InvoicesCount: 1, TotalCents: 7000},
	}, report.Rows)
	require.Equal(t, SalesSummary{TotalInvoicesCount: 3, TotalCents: 22250}, report.Summary)
}

func TestBuildSalesReportInclusiveRange(t *testing.T) {
	invoices := append(seedInvoices(),
		InvoiceRecord{ID: 6, CustomerID: 1, IssueDate: time.Date(2024, 4, 30, 23, 59, 59, 0, time.UTC), Status: billing.StatusIssued, GrandTotalCents: 300},
		InvoiceRecord{ID: 7, CustomerID: 1, IssueDate: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Status: billing.StatusIssued, GrandTotalCents: 400},
		InvoiceRecord{ID: 8, CustomerID: 1, IssueDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Status: billing.StatusPaid, GrandTotalCents: 500},
	)

	report, err := BuildSalesReport(invoices, SalesFilter{
		From:    dateAt(2024, time.April, 1),
		To:      dateAt(2024, time.April, 30),
		GroupBy: GroupByMonth,
	}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, []SalesRow{{Period: "2024-04", InvoicesCount: 3, TotalCents: 10800}}, report.Rows)
	require.Equal(t, SalesSummary{TotalInvoicesCount: 3, TotalCents: 10800}, report.Summary)
}

func TestBuildSalesReportByDayAndWeek(t *testing.T) {
	invoices := []InvoiceRecord{
		{ID: 1, IssueDate: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), Status: billing.StatusIssued, GrandTotalCents: 100},
		{ID: 2, IssueDate: time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC), Status: billing.StatusPaid, GrandTotalCents: 200},
		{ID: 3, IssueDate: time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), Status: billing.StatusPartial, GrandTotalCents: 300},
		{ID: 4, IssueDate: time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC), Status: billing.StatusIssued, GrandTotalCents: 400},
	}

	daily, err := BuildSalesReport(invoices, SalesFilter{GroupBy: GroupByDay}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, []SalesRow{
		{Period: "2024-03-10", InvoicesCount: 1, TotalCents: 400},
		{Period: "2024-03-11", InvoicesCount: 1, TotalCents: 300},
		{Period: "2024-03-15", InvoicesCount: 2, TotalCents: 300},
	}, daily.Rows)

	weekly, err := BuildSalesReport(invoices, SalesFilter{GroupBy: GroupByWeek}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, []SalesRow{
		{Period: "2024-10", InvoicesCount: 1, TotalCents: 400},
		{Period: "2024-11", InvoicesCount: 3, TotalCents: 600},
	}, weekly.Rows)
}

func TestPeriodKeyWeekNumbering(t *testing.T) {
	cases := []struct {
		date     time.Time
		expected string
	}{
		{time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), "2023-00"},
		{time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC), "2023-01"},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), "2024-01"},
		{time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), "2024-53"},
		{time.Date(2024, 3, 11, 3, 0, 0, 0, time.FixedZone("WIB", 7*60*60)), "2024-10"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.expected, periodKey(tc.date, GroupByWeek), tc.date.String())
	}
}

func TestBuildSalesReportRejectsInvalidFilter(t *testing.T) {
	_, err := BuildSalesReport(seedInvoices(), SalesFilter{GroupBy: "quarter"}, fixedNow)
	require.ErrorIs(t, err, ErrInvalidFilter)

	_, err = BuildSalesReport(seedInvoices(), SalesFilter{
		From: dateAt(2024, time.May, 2),
		To:   dateAt(2024, time.May, 1),
	}, fixedNow)
	require.ErrorIs(t, err, ErrInvalidFilter)
}
