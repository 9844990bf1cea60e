package billing

import (
	"fmt"
	"strings"
)

// InvoiceStatus enumerates invoice lifecycle states.
type InvoiceStatus string

const (
	StatusDraft   InvoiceStatus = "draft"
	StatusIssued  InvoiceStatus = "issued"
	StatusPartial InvoiceStatus = "partial"
	StatusPaid    InvoiceStatus = "paid"
	StatusVoid    InvoiceStatus = "void"
)

// RevenueStatuses lists the statuses that represent realized sales.
func RevenueStatuses() []InvoiceStatus {
	return []InvoiceStatus{StatusIssued, StatusPartial, StatusPaid}
}

// IsRevenueRecognized reports whether invoices in this status count as sales.
func (s InvoiceStatus) IsRevenueRecognized() bool {
	switch s {
	case StatusIssued, StatusPartial, StatusPaid:
		return true
	}
	return false
}

// Valid reports whether s is a known status.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusIssued, StatusPartial, StatusPaid, StatusVoid:
		return true
	}
	return false
}

// ParseInvoiceStatus resolves a case-insensitive status name.
func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	status := InvoiceStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	return status, nil
}

// SettleStatus returns the status an invoice should carry once paidCents has been
// collected against it. Draft and void invoices are not moved by payments.
func SettleStatus(current InvoiceStatus, grandTotalCents, paidCents int64) InvoiceStatus {
	switch current {
	case StatusDraft, StatusVoid:
		return current
	}
	switch {
	case paidCents >= grandTotalCents && paidCents > 0:
		return StatusPaid
	case paidCents > 0:
		return StatusPartial
	default:
		return StatusIssued
	}
}
