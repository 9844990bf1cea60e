package reports

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/odyssey-erp/billing/internal/billing"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func seedCustomers() []Customer {
	return []Customer{
		{ID: 1, Name: "Alpha Industries"},
		{ID: 2, Name: "Beta Studios"},
	}
}

func seedInvoices() []InvoiceRecord {
	return []InvoiceRecord{
		{ID: 1, InvoiceNo: "INV-202403-0001", CustomerID: 1, IssueDate: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), Status: billing.StatusIssued, GrandTotalCents: 5250},
		{ID: 2, InvoiceNo: "INV-202404-0001", CustomerID: 1, IssueDate: time.Date(2024, 4, 10, 9, 0, 0, 0, time.UTC), Status: billing.StatusPartial, GrandTotalCents: 10000},
		{ID: 3, InvoiceNo: "INV-202405-0001", CustomerID: 2, IssueDate: time.Date(2024, 5, 5, 9, 0, 0, 0, time.UTC), Status: billing.StatusPaid, GrandTotalCents: 7000},
		{ID: 4, InvoiceNo: "INV-202403-0002", CustomerID: 1, IssueDate: time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC), Status: billing.StatusDraft, GrandTotalCents: 9999},
		{ID: 5, InvoiceNo: "INV-202404-0002", CustomerID: 2, IssueDate: time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC), Status: billing.StatusVoid, GrandTotalCents: 1234},
	}
}

func seedPayments() []PaymentRecord {
	return []PaymentRecord{
		{
			ID: 1, CustomerID: 1, InvoiceID: pgtype.Int8{Int64: 1, Valid: true}, AmountCents: 2000, Method: "cash",
			PaidAt:       time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC),
			CustomerName: pgtype.Text{String: "Alpha Industries", Valid: true},
			InvoiceNo:    pgtype.Text{String: "INV-202403-0001", Valid: true},
		},
		{
			ID: 2, CustomerID: 1, InvoiceID: pgtype.Int8{Int64: 2, Valid: true}, AmountCents: 4000, Method: "card",
			PaidAt:       time.Date(2024, 4, 15, 8, 0, 0, 0, time.UTC),
			Note:         pgtype.Text{String: "first instalment", Valid: true},
			CustomerName: pgtype.Text{String: "Alpha Industries", Valid: true},
			InvoiceNo:    pgtype.Text{String: "INV-202404-0001", Valid: true},
		},
		{
			ID: 3, CustomerID: 2, InvoiceID: pgtype.Int8{Int64: 3, Valid: true}, AmountCents: 7000, Method: "bkash",
			PaidAt:       time.Date(2024, 5, 6, 9, 30, 0, 0, time.UTC),
			CustomerName: pgtype.Text{String: "Beta Studios", Valid: true},
			InvoiceNo:    pgtype.Text{String: "INV-202405-0001", Valid: true},
		},
	}
}

func seedBalances() []CustomerBalance {
	return []CustomerBalance{
		{CustomerID: 1, CustomerName: "Alpha Industries", InvoicedCents: 15250, PaidCents: 6000, BalanceCents: 9250},
		{CustomerID: 2, CustomerName: "Beta Studios", InvoicedCents: 7000, PaidCents: 7000, BalanceCents: 0},
	}
}

func int8Of(v int64) pgtype.Int8 {
	return pgtype.Int8{Int64: v, Valid: true}
}

func dateAt(y int, m time.Month, d int) pgtype.Date {
	return pgtype.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}
