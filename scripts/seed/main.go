package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/odyssey-erp/billing/internal/app"
	"github.com/odyssey-erp/billing/internal/ar"
	"github.com/odyssey-erp/billing/internal/billing"
	"github.com/odyssey-erp/billing/internal/platform/db"
)

type seedCustomer struct {
	id   int64
	name string
}

var customers = []seedCustomer{
	{1, "Rahman Traders"},
	{2, "Karim & Sons"},
	{3, "Dhaka Fresh Mart"},
	{4, "Walk-in"},
}

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	pool, err := db.New(ctx, cfg.PGDSN, db.PoolConfig{MaxConns: 4})
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	fmt.Println("→ Seeding customers...")
	if err := seedCustomers(ctx, pool); err != nil {
		log.Fatalf("seed customers: %v", err)
	}

	svc := ar.NewService(ar.NewRepository(pool), ar.Config{
		Rounding:      cfg.Rounding(),
		Numbering:     cfg.Numbering(),
		NumberRetries: cfg.InvoiceNumberRetries,
	}, nil, nil, nil)

	fmt.Println("→ Seeding invoices and payments...")
	created, err := seedInvoices(ctx, svc)
	if err != nil {
		log.Fatalf("seed invoices: %v", err)
	}

	fmt.Printf("✓ Seed complete at %s (%d invoices)\n", time.Now().Format(time.RFC3339), created)
}

func seedCustomers(ctx context.Context, pool *pgxpool.Pool) error {
	return db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		for _, c := range customers {
			if _, err := tx.Exec(ctx, `
				INSERT INTO customers (id, name)
				VALUES ($1, $2)
				ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name`, c.id, c.name); err != nil {
				return err
			}
		}
		_, err := tx.Exec(ctx, `SELECT setval(pg_get_serial_sequence('customers', 'id'), GREATEST((SELECT MAX(id) FROM customers), 1))`)
		return err
	})
}

func seedInvoices(ctx context.Context, svc *ar.Service) (int, error) {
	taxRate := 0.05
	start := time.Now().UTC().AddDate(0, -2, 0)
	created := 0
	for i := 0; i < 12; i++ {
		customer := customers[i%len(customers)]
		issued := start.AddDate(0, 0, i*5)
		status := billing.StatusIssued
		if i%5 == 4 {
			status = billing.StatusDraft
		}
		inv, err := svc.CreateInvoice(ctx, ar.CreateInvoiceInput{
			CustomerID: customer.id,
			IssueDate:  issued,
			Status:     status,
			Items: []ar.CreateInvoiceItemInput{
				{Description: "Rice 25kg", Quantity: float64(1 + i%3), UnitPriceCents: 185000},
				{Description: "Lentils 5kg", Quantity: 2, UnitPriceCents: 62550},
			},
			DiscountCents: int64((i % 4) * 1000),
			TaxRate:       &taxRate,
		})
		if err != nil {
			return created, fmt.Errorf("invoice %d: %w", i, err)
		}
		created++
		if status != billing.StatusIssued || i%3 == 2 {
			continue
		}
		amount := inv.GrandTotalCents
		if i%2 == 1 {
			amount /= 2
		}
		paidAt := issued.AddDate(0, 0, 3)
		if _, err := svc.RegisterPayment(ctx, ar.CreatePaymentInput{
			CustomerID:  customer.id,
			InvoiceID:   &inv.ID,
			AmountCents: amount,
			Method:      ar.MethodBkash,
			PaidAt:      &paidAt,
		}); err != nil {
			return created, fmt.Errorf("payment for %s: %w", inv.InvoiceNo, err)
		}
	}
	return created, nil
}
