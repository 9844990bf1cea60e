package reports

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuildDuesReportOrdersByBalance(t *testing.T) {
	rows := append(seedBalances(),
		CustomerBalance{CustomerID: 5, CustomerName: "Delta", InvoicedCents: 9250, BalanceCents: 9250},
		CustomerBalance{CustomerID: 4, CustomerName: "Credit Co", InvoicedCents: 100, PaidCents: 600, BalanceCents: -500},
	)

	report, err := BuildDuesReport(rows, DuesFilter{}, fixedNow)
	require.NoError(t, err)
	require.Equal(t, fixedNow, report.GeneratedAt)

	var ids []int64
	for _, c := range report.Customers {
		ids = append(ids, c.CustomerID)
	}
	require.Equal(t, []int64{1, 5, 2, 4}, ids)
	require.Equal(t, DuesSummary{
		CustomersCount:     4,
		TotalInvoicedCents: 15250 + 7000 + 9250 + 100,
		TotalPaidCents:     6000 + 7000 + 600,
		TotalBalanceCents:  9250 + 9250 - 500,
	}, report.Summary)
}

func TestBuildDuesReportSummaryFollowsFilter(t *testing.T) {
	report, err := BuildDuesReport(seedBalances(), DuesFilter{MinBalanceCents: int8Of(1)}, fixedNow)
	require.NoError(t, err)
	require.Len(t, report.Customers, 1)
	require.Equal(t, "Alpha Industries", report.Customers[0].CustomerName)
	require.Equal(t, DuesSummary{
		CustomersCount:     1,
		TotalInvoicedCents: 15250,
		TotalPaidCents:     6000,
		TotalBalanceCents:  9250,
	}, report.Summary)
}

func TestBuildDuesReportFilters(t *testing.T) {
	rows := append(seedBalances(), CustomerBalance{CustomerID: 3, CustomerName: "École Numérique", BalanceCents: 10})

	byID, err := BuildDuesReport(rows, DuesFilter{CustomerID: int8Of(2)}, fixedNow)
	require.NoError(t, err)
	require.Len(t, byID.Customers, 1)
	require.Equal(t, int64(2), byID.Customers[0].CustomerID)

	bySearch, err := BuildDuesReport(rows, DuesFilter{Search: "  INDUS "}, fixedNow)
	require.NoError(t, err)
	require.Len(t, bySearch.Customers, 1)
	require.Equal(t, int64(1), bySearch.Customers[0].CustomerID)

	accented, err := BuildDuesReport(rows, DuesFilter{Search: "ÉCOLE"}, fixedNow)
	require.NoError(t, err)
	require.Len(t, accented.Customers, 1)
	require.Equal(t, int64(3), accented.Customers[0].CustomerID)

	none, err := BuildDuesReport(rows, DuesFilter{Search: "omega"}, fixedNow)
	require.NoError(t, err)
	require.Empty(t, none.Customers)
	require.Equal(t, DuesSummary{}, none.Summary)
}

func TestBuildDuesReportRejectsInvalidFilter(t *testing.T) {
	_, err := BuildDuesReport(seedBalances(), DuesFilter{CustomerID: int8Of(0)}, fixedNow)
	require.ErrorIs(t, err, ErrInvalidFilter)
}
