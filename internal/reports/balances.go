package reports

import (
	"sort"

	"github.com/odyssey-erp/billing/internal/billing"
)

// AggregateCustomerBalances derives the customer ledger from raw records: one
// row per customer with the grand totals of its revenue-recognized invoices and
// the sum of its payments. Records for unknown customers are ignored.
func AggregateCustomerBalances(customers []Customer, invoices []InvoiceRecord, payments []PaymentRecord, cfg billing.RoundingConfig) ([]CustomerBalance, error) {
	rows := make(map[int64]*CustomerBalance, len(customers))
	for _, c := range customers {
		rows[c.ID] = &CustomerBalance{CustomerID: c.ID, CustomerName: c.Name}
	}
	for _, inv := range invoices {
		row, ok := rows[inv.CustomerID]
		if !ok || !inv.Status.IsRevenueRecognized() {
			continue
		}
		row.InvoicedCents += inv.GrandTotalCents
	}
	for _, p := range payments {
		if row, ok := rows[p.CustomerID]; ok {
			row.PaidCents += p.AmountCents
		}
	}

	out := make([]CustomerBalance, 0, len(rows))
	for _, row := range rows {
		balance, err := billing.CalculateCustomerDueCents(float64(row.InvoicedCents), float64(row.PaidCents), cfg)
		if err != nil {
			return nil, err
		}
		row.BalanceCents = balance
		out = append(out, *row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, nil
}
