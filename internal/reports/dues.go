package reports

import (
	"sort"
	"strings"
	"time"
)

// BuildDuesReport filters the customer ledger rows, orders them by balance
// (highest first, then customer id) and summarizes what remains.
func BuildDuesReport(rows []CustomerBalance, filter DuesFilter, now time.Time) (DuesReport, error) {
	if err := filter.Validate(); err != nil {
		return DuesReport{}, err
	}

	needle := foldName(strings.TrimSpace(filter.Search))
	customers := make([]CustomerBalance, 0, len(rows))
	for _, row := range rows {
		if filter.CustomerID.Valid && row.CustomerID != filter.CustomerID.Int64 {
			continue
		}
		if filter.MinBalanceCents.Valid && row.BalanceCents < filter.MinBalanceCents.Int64 {
			continue
		}
		if needle != "" && !strings.Contains(foldName(row.CustomerName), needle) {
			continue
		}
		customers = append(customers, row)
	}

	sort.SliceStable(customers, func(i, j int) bool {
		if customers[i].BalanceCents != customers[j].BalanceCents {
			return customers[i].BalanceCents > customers[j].BalanceCents
		}
		return customers[i].CustomerID < customers[j].CustomerID
	})

	summary := DuesSummary{CustomersCount: len(customers)}
	for _, c := range customers {
		summary.TotalInvoicedCents += c.InvoicedCents
		summary.TotalPaidCents += c.PaidCents
		summary.TotalBalanceCents += c.BalanceCents
	}

	return DuesReport{
		GeneratedAt: now.UTC(),
		Customers:   customers,
		Summary:     summary,
	}, nil
}
