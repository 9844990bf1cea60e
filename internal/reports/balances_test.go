package reports

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/billing/internal/billing"
)

func TestAggregateCustomerBalances(t *testing.T) {
	customers := append(seedCustomers(), Customer{ID: 3, Name: "Gamma Supplies"})
	payments := append(seedPayments(), PaymentRecord{ID: 9, CustomerID: 42, AmountCents: 500})

	rows, err := AggregateCustomerBalances(customers, seedInvoices(), payments, billing.DefaultRounding())
	require.NoError(t, err)
	require.Equal(t, append(seedBalances(), CustomerBalance{CustomerID: 3, CustomerName: "Gamma Supplies"}), rows)
}

func TestAggregateCustomerBalancesKeepsCredit(t *testing.T) {
	rows, err := AggregateCustomerBalances(
		[]Customer{{ID: 7, Name: "Overpayer"}},
		[]InvoiceRecord{{ID: 1, CustomerID: 7, Status: billing.StatusIssued, GrandTotalCents: 5000}},
		[]PaymentRecord{{ID: 1, CustomerID: 7, AmountCents: 7500}},
		billing.DefaultRounding(),
	)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, int64(-2500), rows[0].BalanceCents)
}

func TestAggregateCustomerBalancesRejectsFractionalRounding(t *testing.T) {
	_, err := AggregateCustomerBalances(seedCustomers(), nil, nil, billing.RoundingConfig{Decimals: 2})
	require.ErrorIs(t, err, billing.ErrInvalidRounding)
}
