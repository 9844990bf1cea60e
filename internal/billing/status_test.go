package billing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSettleStatus(t *testing.T) {
	cases := []struct {
		current  InvoiceStatus
		total    int64
		paid     int64
		expected InvoiceStatus
	}{
		{StatusIssued, 5000, 0, StatusIssued},
		{StatusIssued, 5000, 2000, StatusPartial},
		{StatusPartial, 5000, 5000, StatusPaid},
		{StatusPartial, 5000, 7000, StatusPaid},
		{StatusPaid, 5000, 1000, StatusPartial},
		{StatusDraft, 5000, 5000, StatusDraft},
		{StatusVoid, 5000, 5000, StatusVoid},
	}
	for _, tc := range cases {
		require.Equal(t, tc.expected, SettleStatus(tc.current, tc.total, tc.paid), "%s %d/%d", tc.current, tc.paid, tc.total)
	}
}

func TestRevenueRecognizedStatuses(t *testing.T) {
	for _, status := range RevenueStatuses() {
		require.True(t, status.IsRevenueRecognized())
	}
	require.False(t, StatusDraft.IsRevenueRecognized())
	require.False(t, StatusVoid.IsRevenueRecognized())

	status, err := ParseInvoiceStatus(" Partial ")
	require.NoError(t, err)
	require.Equal(t, StatusPartial, status)

	_, err = ParseInvoiceStatus("refunded")
	require.ErrorIs(t, err, ErrUnknownStatus)
}
