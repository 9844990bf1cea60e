// Package reports builds the receivables read models: the dues report, the
// sales report and the payments ledger. The Build functions are pure; Service
// adds the storage fetch and the Redis cache around them.
package reports

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/odyssey-erp/billing/internal/billing"
)

// UnknownCustomerName labels ledger entries whose customer could not be resolved.
const UnknownCustomerName = "Unknown customer"

// Customer is the minimal customer projection needed for balance aggregation.
type Customer struct {
	ID   int64
	Name string
}

// CustomerBalance is one row of the customer ledger. BalanceCents is always
// InvoicedCents - PaidCents.
type CustomerBalance struct {
	CustomerID    int64  `json:"customerId"`
	CustomerName  string `json:"customerName"`
	InvoicedCents int64  `json:"invoicedCents"`
	PaidCents     int64  `json:"paidCents"`
	BalanceCents  int64  `json:"balanceCents"`
}

// InvoiceRecord is a persisted invoice as seen by the reports.
type InvoiceRecord struct {
	ID              int64
	InvoiceNo       string
	CustomerID      int64
	IssueDate       time.Time
	Status          billing.InvoiceStatus
	GrandTotalCents int64
}

// PaymentRecord is a persisted payment joined with its customer name and
// invoice number. Unresolved joins are left invalid.
type PaymentRecord struct {
	ID           int64
	CustomerID   int64
	InvoiceID    pgtype.Int8
	AmountCents  int64
	Method       string
	PaidAt       time.Time
	Note         pgtype.Text
	CustomerName pgtype.Text
	InvoiceNo    pgtype.Text
}

// DuesSummary totals the rows of a DuesReport.
type DuesSummary struct {
	CustomersCount     int   `json:"customersCount"`
	TotalInvoicedCents int64 `json:"totalInvoicedCents"`
	TotalPaidCents     int64 `json:"totalPaidCents"`
	TotalBalanceCents  int64 `json:"totalBalanceCents"`
}

// DuesReport lists customers ordered by outstanding balance.
type DuesReport struct {
	GeneratedAt time.Time         `json:"generatedAt"`
	Customers   []CustomerBalance `json:"customers"`
	Summary     DuesSummary       `json:"summary"`
}

// SalesRow is one period bucket of the sales report.
type SalesRow struct {
	Period        string `json:"period"`
	InvoicesCount int    `json:"invoicesCount"`
	TotalCents    int64  `json:"totalCents"`
}

// SalesSummary totals the rows of a SalesReport.
type SalesSummary struct {
	TotalInvoicesCount int   `json:"totalInvoicesCount"`
	TotalCents         int64 `json:"totalCents"`
}

// SalesReport buckets realized sales by period.
type SalesReport struct {
	GeneratedAt time.Time    `json:"generatedAt"`
	GroupBy     GroupBy      `json:"groupBy"`
	Rows        []SalesRow   `json:"rows"`
	Summary     SalesSummary `json:"summary"`
}

// LedgerEntry is a payment annotated with the cumulative amount collected up to
// and including it, in chronological order.
type LedgerEntry struct {
	ID                  int64       `json:"id"`
	CustomerID          int64       `json:"customerId"`
	InvoiceID           pgtype.Int8 `json:"invoiceId"`
	AmountCents         int64       `json:"amountCents"`
	Method              string      `json:"method"`
	PaidAt              time.Time   `json:"paidAt"`
	Note                pgtype.Text `json:"note"`
	CustomerName        string      `json:"customerName"`
	InvoiceNo           pgtype.Text `json:"invoiceNo"`
	RunningBalanceCents int64       `json:"runningBalanceCents"`
}

// LedgerSummary describes the filtered payment set. The timestamps are invalid
// when the ledger is empty.
type LedgerSummary struct {
	EntriesCount   int                `json:"entriesCount"`
	TotalPaidCents int64              `json:"totalPaidCents"`
	FirstPaymentAt pgtype.Timestamptz `json:"firstPaymentAt"`
	LastPaymentAt  pgtype.Timestamptz `json:"lastPaymentAt"`
}

// PaymentsLedger is the payments ledger in the requested display order.
type PaymentsLedger struct {
	GeneratedAt time.Time     `json:"generatedAt"`
	Direction   Direction     `json:"direction"`
	Entries     []LedgerEntry `json:"entries"`
	Summary     LedgerSummary `json:"summary"`
}
