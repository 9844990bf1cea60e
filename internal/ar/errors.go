package ar

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("ar: not found")
	// ErrInvalidInput indicates a request that failed field validation.
	ErrInvalidInput = errors.New("ar: invalid input")
	// ErrInvalidCustomer indicates a reference to a customer that does not exist.
	ErrInvalidCustomer = errors.New("ar: customer does not exist")
	// ErrInvalidInvoice indicates a reference to an invoice that does not exist.
	ErrInvalidInvoice = errors.New("ar: invoice does not exist")
	// ErrInvoiceCustomerMismatch indicates a payment whose invoice belongs to another customer.
	ErrInvoiceCustomerMismatch = errors.New("ar: invoice belongs to another customer")
	// ErrInvalidStatus indicates a lifecycle transition that is not allowed.
	ErrInvalidStatus = errors.New("ar: invalid status transition")
	// ErrNumberConflict indicates the invoice number is already taken.
	ErrNumberConflict = errors.New("ar: invoice number already exists")
)
