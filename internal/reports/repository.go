package reports

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/billing/internal/billing"
)

// PGRepository reads report records from PostgreSQL.
type PGRepository struct {
	pool     *pgxpool.Pool
	rounding billing.RoundingConfig
}

// NewPGRepository constructs a repository. rounding settles the customer balances.
func NewPGRepository(pool *pgxpool.Pool, rounding billing.RoundingConfig) *PGRepository {
	return &PGRepository{pool: pool, rounding: rounding}
}

func revenueStatusArgs() []string {
	statuses := billing.RevenueStatuses()
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}

// Paid invoices count as invoiced, so a fully settled customer nets to zero.
const customerBalancesSQL = `
WITH invoice_totals AS (
	SELECT customer_id, SUM(grand_total_cents)::bigint AS invoiced_cents
	FROM invoices
	WHERE status = ANY($1)
	GROUP BY customer_id
),
payment_totals AS (
	SELECT customer_id, SUM(amount_cents)::bigint AS paid_cents
	FROM payments
	GROUP BY customer_id
)
SELECT c.id, c.name,
	COALESCE(it.invoiced_cents, 0),
	COALESCE(pt.paid_cents, 0)
FROM customers c
LEFT JOIN invoice_totals it ON it.customer_id = c.id
LEFT JOIN payment_totals pt ON pt.customer_id = c.id
ORDER BY c.id`

// CustomerBalances returns one ledger row per customer.
func (r *PGRepository) CustomerBalances(ctx context.Context) ([]CustomerBalance, error) {
	rows, err := r.pool.Query(ctx, customerBalancesSQL, revenueStatusArgs())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CustomerBalance
	for rows.Next() {
		var row CustomerBalance
		if err := rows.Scan(&row.CustomerID, &row.CustomerName, &row.InvoicedCents, &row.PaidCents); err != nil {
			return nil, err
		}
		row.BalanceCents, err = billing.CalculateCustomerDueCents(float64(row.InvoicedCents), float64(row.PaidCents), r.rounding)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

const invoicesSQL = `
SELECT id, invoice_no, customer_id, issue_date, status, grand_total_cents
FROM invoices
WHERE status = ANY($1)
	AND ($2::timestamptz IS NULL OR issue_date >= $2)
	AND ($3::timestamptz IS NULL OR issue_date < $3)
ORDER BY issue_date, id`

// Invoices returns revenue-recognized invoices issued within the filter range.
func (r *PGRepository) Invoices(ctx context.Context, filter SalesFilter) ([]InvoiceRecord, error) {
	lo, hi := rangeBounds(filter.From, filter.To)
	rows, err := r.pool.Query(ctx, invoicesSQL, revenueStatusArgs(), lo, hi)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (InvoiceRecord, error) {
		var inv InvoiceRecord
		var status string
		err := row.Scan(&inv.ID, &inv.InvoiceNo, &inv.CustomerID, &inv.IssueDate, &status, &inv.GrandTotalCents)
		inv.Status = billing.InvoiceStatus(status)
		return inv, err
	})
}

const paymentsSQL = `
SELECT p.id, p.customer_id, p.invoice_id, p.amount_cents, p.method, p.paid_at, p.note,
	c.name, i.invoice_no
FROM payments p
LEFT JOIN customers c ON c.id = p.customer_id
LEFT JOIN invoices i ON i.id = p.invoice_id
WHERE ($1::bigint IS NULL OR p.customer_id = $1)
	AND ($2::bigint IS NULL OR p.invoice_id = $2)
	AND ($3::timestamptz IS NULL OR p.paid_at >= $3)
	AND ($4::timestamptz IS NULL OR p.paid_at < $4)
ORDER BY p.paid_at, p.id`

// Payments returns the payments matching filter, joined with customer name and
// invoice number.
func (r *PGRepository) Payments(ctx context.Context, filter LedgerFilter) ([]PaymentRecord, error) {
	lo, hi := rangeBounds(filter.From, filter.To)
	rows, err := r.pool.Query(ctx, paymentsSQL, filter.CustomerID, filter.InvoiceID, lo, hi)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (PaymentRecord, error) {
		var p PaymentRecord
		err := row.Scan(&p.ID, &p.CustomerID, &p.InvoiceID, &p.AmountCents, &p.Method, &p.PaidAt, &p.Note,
			&p.CustomerName, &p.InvoiceNo)
		return p, err
	})
}
