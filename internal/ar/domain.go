package ar

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/odyssey-erp/billing/internal/billing"
)

// PaymentMethod enumerates accepted payment channels.
type PaymentMethod string

const (
	MethodCash  PaymentMethod = "cash"
	MethodBkash PaymentMethod = "bkash"
	MethodCard  PaymentMethod = "card"
	MethodOther PaymentMethod = "other"
)

// Customer model.
type Customer struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Invoice model.
type Invoice struct {
	ID              int64                 `json:"id"`
	InvoiceNo       string                `json:"invoiceNo"`
	Reference       uuid.UUID             `json:"reference"`
	CustomerID      int64                 `json:"customerId"`
	IssueDate       time.Time             `json:"issueDate"`
	Status          billing.InvoiceStatus `json:"status"`
	SubTotalCents   int64                 `json:"subTotalCents"`
	DiscountCents   int64                 `json:"discountCents"`
	TaxCents        int64                 `json:"taxCents"`
	GrandTotalCents int64                 `json:"grandTotalCents"`
	Notes           pgtype.Text           `json:"notes"`
	CreatedAt       time.Time             `json:"createdAt"`
	Items           []InvoiceItem         `json:"items,omitempty"`
	Payments        []Payment             `json:"payments,omitempty"`
}

// InvoiceItem is a persisted invoice line.
type InvoiceItem struct {
	ID             int64       `json:"id"`
	InvoiceID      int64       `json:"invoiceId"`
	ProductID      pgtype.Int8 `json:"productId"`
	Description    pgtype.Text `json:"description"`
	Quantity       float64     `json:"quantity"`
	UnitPriceCents int64       `json:"unitPriceCents"`
	LineTotalCents int64       `json:"lineTotalCents"`
}

// ItemMeta is the per-line payload carried through the totals calculator.
type ItemMeta struct {
	ProductID   pgtype.Int8
	Description pgtype.Text
}

// Payment model.
type Payment struct {
	ID          int64         `json:"id"`
	CustomerID  int64         `json:"customerId"`
	InvoiceID   pgtype.Int8   `json:"invoiceId"`
	AmountCents int64         `json:"amountCents"`
	Method      PaymentMethod `json:"method"`
	PaidAt      time.Time     `json:"paidAt"`
	Note        pgtype.Text   `json:"note"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// CustomerDue is the outstanding balance of a customer.
type CustomerDue struct {
	CustomerID    int64 `json:"customerId"`
	InvoicedCents int64 `json:"invoicedCents"`
	PaidCents     int64 `json:"paidCents"`
	BalanceCents  int64 `json:"balanceCents"`
}

// CreateInvoiceInput is the request to create an invoice. An empty InvoiceNo
// allocates the next number in the configured series.
type CreateInvoiceInput struct {
	CustomerID    int64                    `json:"customerId" validate:"required,gt=0"`
	InvoiceNo     string                   `json:"invoiceNo" validate:"omitempty,max=64"`
	IssueDate     time.Time                `json:"issueDate"`
	Status        billing.InvoiceStatus    `json:"status" validate:"omitempty,oneof=draft issued"`
	Items         []CreateInvoiceItemInput `json:"items" validate:"required,min=1,dive"`
	DiscountCents int64                    `json:"discountCents" validate:"gte=0"`
	TaxRate       *float64                 `json:"taxRate" validate:"omitempty,gte=0,lte=1"`
	TaxCents      *int64                   `json:"taxCents" validate:"omitempty,gte=0"`
	Notes         string                   `json:"notes" validate:"max=500"`
}

// CreateInvoiceItemInput is a requested invoice line. Negative quantities are returns.
type CreateInvoiceItemInput struct {
	ProductID      *int64  `json:"productId" validate:"omitempty,gt=0"`
	Description    string  `json:"description" validate:"max=240"`
	Quantity       float64 `json:"quantity" validate:"ne=0"`
	UnitPriceCents int64   `json:"unitPriceCents" validate:"gte=0"`
}

// CreatePaymentInput is the request to record a payment.
type CreatePaymentInput struct {
	CustomerID  int64         `json:"customerId" validate:"required,gt=0"`
	InvoiceID   *int64        `json:"invoiceId" validate:"omitempty,gt=0"`
	AmountCents int64         `json:"amountCents" validate:"gt=0"`
	Method      PaymentMethod `json:"method" validate:"required,oneof=cash bkash card other"`
	PaidAt      *time.Time    `json:"paidAt"`
	Note        string        `json:"note" validate:"max=240"`
}

// CustomerInput is the request to create or rename a customer.
type CustomerInput struct {
	Name string `json:"name" validate:"required,max=120"`
}

// ListCustomersRequest filters customer listings. Search matches a name substring.
type ListCustomersRequest struct {
	Search string
	Limit  int
	Offset int
}

// ListInvoicesRequest filters invoice listings.
type ListInvoicesRequest struct {
	Status     billing.InvoiceStatus
	CustomerID int64
	Limit      int
	Offset     int
}
