package reports

import (
	"sort"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// BuildPaymentsLedger filters payments and annotates each with its running
// balance. The running balance is accumulated in chronological order (paidAt,
// then id) and then projected onto the requested display order, so descending
// output carries the same balances as ascending output.
func BuildPaymentsLedger(payments []PaymentRecord, filter LedgerFilter, now time.Time) (PaymentsLedger, error) {
	if err := filter.Validate(); err != nil {
		return PaymentsLedger{}, err
	}

	lo, hi := rangeBounds(filter.From, filter.To)
	selected := make([]PaymentRecord, 0, len(payments))
	for _, p := range payments {
		if filter.CustomerID.Valid && p.CustomerID != filter.CustomerID.Int64 {
			continue
		}
		if filter.InvoiceID.Valid && (!p.InvoiceID.Valid || p.InvoiceID.Int64 != filter.InvoiceID.Int64) {
			continue
		}
		if !withinRange(p.PaidAt, lo, hi) {
			continue
		}
		selected = append(selected, p)
	}

	chronological := make([]PaymentRecord, len(selected))
	copy(chronological, selected)
	sort.SliceStable(chronological, func(i, j int) bool {
		return paidBefore(chronological[i], chronological[j])
	})

	running := make(map[int64]int64, len(chronological))
	var total int64
	for _, p := range chronological {
		total += p.AmountCents
		running[p.ID] = total
	}

	direction := filter.direction()
	display := selected
	sort.SliceStable(display, func(i, j int) bool {
		if direction == DirectionAsc {
			return paidBefore(display[i], display[j])
		}
		return paidBefore(display[j], display[i])
	})

	entries := make([]LedgerEntry, 0, len(display))
	for _, p := range display {
		name := UnknownCustomerName
		if p.CustomerName.Valid {
			name = p.CustomerName.String
		}
		entries = append(entries, LedgerEntry{
			ID:                  p.ID,
			CustomerID:          p.CustomerID,
			InvoiceID:           p.InvoiceID,
			AmountCents:         p.AmountCents,
			Method:              p.Method,
			PaidAt:              p.PaidAt.UTC(),
			Note:                p.Note,
			CustomerName:        name,
			InvoiceNo:           p.InvoiceNo,
			RunningBalanceCents: running[p.ID],
		})
	}

	summary := LedgerSummary{EntriesCount: len(entries), TotalPaidCents: total}
	if n := len(chronological); n > 0 {
		summary.FirstPaymentAt = pgtype.Timestamptz{Time: chronological[0].PaidAt.UTC(), Valid: true}
		summary.LastPaymentAt = pgtype.Timestamptz{Time: chronological[n-1].PaidAt.UTC(), Valid: true}
	}

	return PaymentsLedger{
		GeneratedAt: now.UTC(),
		Direction:   direction,
		Entries:     entries,
		Summary:     summary,
	}, nil
}

func paidBefore(a, b PaymentRecord) bool {
	if !a.PaidAt.Equal(b.PaidAt) {
		return a.PaidAt.Before(b.PaidAt)
	}
	return a.ID < b.ID
}
