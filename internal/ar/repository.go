package ar

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/billing/internal/billing"
	"github.com/odyssey-erp/billing/internal/platform/db"
)

// Repository defines data access methods for receivables.
type Repository interface {
	// WithTx runs fn inside a serializable transaction with a repository bound to it.
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	InsertCustomer(ctx context.Context, c *Customer) error
	UpdateCustomer(ctx context.Context, c *Customer) error
	ListCustomers(ctx context.Context, req ListCustomersRequest) ([]Customer, error)
	// NextSequence atomically reserves the next counter value of a number series.
	NextSequence(ctx context.Context, seriesKey string) (int64, error)
	// SyncSequence moves the series counter past any number already stored in the series.
	SyncSequence(ctx context.Context, seriesKey string) error
	InsertInvoice(ctx context.Context, inv *Invoice) error
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	GetInvoiceWithDetails(ctx context.Context, id int64) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
	UpdateInvoiceStatus(ctx context.Context, id int64, status billing.InvoiceStatus) error
	InsertPayment(ctx context.Context, p *Payment) error
	InvoicePaidCents(ctx context.Context, invoiceID int64) (int64, error)
	// CustomerTotals sums revenue-recognized invoices and all payments of a customer.
	CustomerTotals(ctx context.Context, customerID int64) (invoicedCents, paidCents int64, err error)
}

type dbtx interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

type repository struct {
	db   dbtx
	pool *pgxpool.Pool
	inTx bool
}

// NewRepository constructs a PostgreSQL backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	if r.inTx {
		return fn(ctx, r)
	}
	return db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool, inTx: true})
	})
}

func (r *repository) GetCustomer(ctx context.Context, id int64) (*Customer, error) {
	var c Customer
	err := r.db.QueryRow(ctx, `SELECT id, name FROM customers WHERE id = $1`, id).Scan(&c.ID, &c.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) InsertCustomer(ctx context.Context, c *Customer) error {
	return r.db.QueryRow(ctx, `INSERT INTO customers (name) VALUES ($1) RETURNING id`, c.Name).Scan(&c.ID)
}

func (r *repository) UpdateCustomer(ctx context.Context, c *Customer) error {
	result, err := r.db.Exec(ctx, `UPDATE customers SET name = $2 WHERE id = $1`, c.ID, c.Name)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) ListCustomers(ctx context.Context, req ListCustomersRequest) ([]Customer, error) {
	query := `SELECT id, name FROM customers`
	args := []any{}
	argNum := 1

	if req.Search != "" {
		query += fmt.Sprintf(` WHERE name ILIKE $%d ESCAPE '\'`, argNum)
		args = append(args, "%"+escapeLike(req.Search)+"%")
		argNum++
	}

	query += " ORDER BY name, id"

	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Customer, error) {
		var c Customer
		err := row.Scan(&c.ID, &c.Name)
		return c, err
	})
}

const bumpSequenceSQL = `
UPDATE invoice_sequences
SET last_value = last_value + 1
WHERE series_key = $1
RETURNING last_value`

const seedSequenceSQL = `
INSERT INTO invoice_sequences (series_key, last_value)
VALUES ($1, $2)
ON CONFLICT (series_key) DO UPDATE SET last_value = invoice_sequences.last_value + 1
RETURNING last_value`

func (r *repository) NextSequence(ctx context.Context, seriesKey string) (int64, error) {
	var next int64
	err := r.db.QueryRow(ctx, bumpSequenceSQL, seriesKey).Scan(&next)
	if err == nil {
		return next, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("ar: bump sequence %s: %w", seriesKey, err)
	}

	// First number of the series: continue after any rows numbered before the counter existed.
	highest, err := r.maxSequence(ctx, seriesKey)
	if err != nil {
		return 0, err
	}
	if err := r.db.QueryRow(ctx, seedSequenceSQL, seriesKey, highest+1).Scan(&next); err != nil {
		return 0, fmt.Errorf("ar: seed sequence %s: %w", seriesKey, err)
	}
	return next, nil
}

func (r *repository) SyncSequence(ctx context.Context, seriesKey string) error {
	highest, err := r.maxSequence(ctx, seriesKey)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
		UPDATE invoice_sequences
		SET last_value = GREATEST(last_value, $2)
		WHERE series_key = $1`, seriesKey, highest)
	if err != nil {
		return fmt.Errorf("ar: sync sequence %s: %w", seriesKey, err)
	}
	return nil
}

func (r *repository) maxSequence(ctx context.Context, seriesKey string) (int64, error) {
	rows, err := r.db.Query(ctx, `SELECT invoice_no FROM invoices WHERE invoice_no LIKE $1 ESCAPE '\'`, escapeLike(seriesKey)+"-%")
	if err != nil {
		return 0, fmt.Errorf("ar: scan series %s: %w", seriesKey, err)
	}
	numbers, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return 0, fmt.Errorf("ar: scan series %s: %w", seriesKey, err)
	}
	var highest int64
	for _, number := range numbers {
		if seq, ok := billing.ParseSequence(number, seriesKey); ok && seq > highest {
			highest = seq
		}
	}
	return highest, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

const insertInvoiceSQL = `
INSERT INTO invoices (
	invoice_no, reference, customer_id, issue_date, status,
	sub_total_cents, discount_cents, tax_cents, grand_total_cents, notes, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
RETURNING id, created_at`

const insertItemSQL = `
INSERT INTO invoice_items (
	invoice_id, product_id, description, quantity, unit_price_cents, line_total_cents
) VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`

func (r *repository) InsertInvoice(ctx context.Context, inv *Invoice) error {
	err := r.db.QueryRow(ctx, insertInvoiceSQL,
		inv.InvoiceNo,
		pgtype.UUID{Bytes: inv.Reference, Valid: true},
		inv.CustomerID,
		inv.IssueDate,
		string(inv.Status),
		inv.SubTotalCents,
		inv.DiscountCents,
		inv.TaxCents,
		inv.GrandTotalCents,
		inv.Notes,
	).Scan(&inv.ID, &inv.CreatedAt)
	if db.IsUniqueViolation(err, "") {
		return fmt.Errorf("%w: %s", ErrNumberConflict, inv.InvoiceNo)
	}
	if err != nil {
		return err
	}

	for i := range inv.Items {
		item := &inv.Items[i]
		item.InvoiceID = inv.ID
		err := r.db.QueryRow(ctx, insertItemSQL,
			item.InvoiceID,
			item.ProductID,
			item.Description,
			item.Quantity,
			item.UnitPriceCents,
			item.LineTotalCents,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("ar: insert item %d: %w", i, err)
		}
	}
	return nil
}

const invoiceColumns = `id, invoice_no, reference, customer_id, issue_date, status,
	sub_total_cents, discount_cents, tax_cents, grand_total_cents, notes, created_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var inv Invoice
	var ref pgtype.UUID
	var status string
	err := row.Scan(
		&inv.ID, &inv.InvoiceNo, &ref, &inv.CustomerID, &inv.IssueDate, &status,
		&inv.SubTotalCents, &inv.DiscountCents, &inv.TaxCents, &inv.GrandTotalCents,
		&inv.Notes, &inv.CreatedAt,
	)
	if err != nil {
		return Invoice{}, err
	}
	if ref.Valid {
		inv.Reference = uuid.UUID(ref.Bytes)
	}
	inv.Status = billing.InvoiceStatus(status)
	return inv, nil
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.db.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) GetInvoiceWithDetails(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := r.GetInvoice(ctx, id)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, invoice_id, product_id, description, quantity, unit_price_cents, line_total_cents
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id`, id)
	if err != nil {
		return nil, err
	}
	inv.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (InvoiceItem, error) {
		var item InvoiceItem
		err := row.Scan(&item.ID, &item.InvoiceID, &item.ProductID, &item.Description,
			&item.Quantity, &item.UnitPriceCents, &item.LineTotalCents)
		return item, err
	})
	if err != nil {
		return nil, err
	}

	rows, err = r.db.Query(ctx, `
		SELECT id, customer_id, invoice_id, amount_cents, method, paid_at, note, created_at
		FROM payments
		WHERE invoice_id = $1
		ORDER BY paid_at, id`, id)
	if err != nil {
		return nil, err
	}
	inv.Payments, err = pgx.CollectRows(rows, scanPayment)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func scanPayment(row pgx.CollectableRow) (Payment, error) {
	var p Payment
	var method string
	err := row.Scan(&p.ID, &p.CustomerID, &p.InvoiceID, &p.AmountCents, &method, &p.PaidAt, &p.Note, &p.CreatedAt)
	p.Method = PaymentMethod(method)
	return p, err
}

func (r *repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE 1=1`

	args := []any{}
	argNum := 1

	if req.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(req.Status))
		argNum++
	}
	if req.CustomerID > 0 {
		query += fmt.Sprintf(" AND customer_id = $%d", argNum)
		args = append(args, req.CustomerID)
		argNum++
	}

	query += " ORDER BY issue_date DESC, id DESC"

	if req.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, req.Limit)
		argNum++
	}
	if req.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, req.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Invoice, error) {
		return scanInvoice(row)
	})
}

func (r *repository) UpdateInvoiceStatus(ctx context.Context, id int64, status billing.InvoiceStatus) error {
	result, err := r.db.Exec(ctx, `UPDATE invoices SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const insertPaymentSQL = `
INSERT INTO payments (customer_id, invoice_id, amount_cents, method, paid_at, note, created_at)
VALUES ($1, $2, $3, $4, $5, $6, NOW())
RETURNING id, created_at`

func (r *repository) InsertPayment(ctx context.Context, p *Payment) error {
	return r.db.QueryRow(ctx, insertPaymentSQL,
		p.CustomerID,
		p.InvoiceID,
		p.AmountCents,
		string(p.Method),
		p.PaidAt,
		p.Note,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *repository) InvoicePaidCents(ctx context.Context, invoiceID int64) (int64, error) {
	var paid int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(amount_cents), 0)::bigint FROM payments WHERE invoice_id = $1`, invoiceID).Scan(&paid)
	return paid, err
}

func (r *repository) CustomerTotals(ctx context.Context, customerID int64) (int64, int64, error) {
	var invoiced, paid int64
	err := r.db.QueryRow(ctx, `
		SELECT
			(SELECT COALESCE(SUM(grand_total_cents), 0)::bigint FROM invoices
				WHERE customer_id = $1 AND status = ANY($2)),
			(SELECT COALESCE(SUM(amount_cents), 0)::bigint FROM payments
				WHERE customer_id = $1)`,
		customerID, revenueStatusArgs(),
	).Scan(&invoiced, &paid)
	return invoiced, paid, err
}

func revenueStatusArgs() []string {
	statuses := billing.RevenueStatuses()
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
