package billing

import (
	"fmt"
)

// InvoiceLineInput is a raw invoice line. Meta carries caller-defined fields
// (product id, description, ...) that are echoed into the result untouched.
// A negative quantity represents a return or credit.
type InvoiceLineInput[T any] struct {
	Quantity       float64 `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	Meta           T       `json:"meta"`
}

// InvoiceLineTotal is an input line with its rounded total.
type InvoiceLineTotal[T any] struct {
	InvoiceLineInput[T]
	LineTotalCents int64 `json:"lineTotalCents"`
}

// InvoiceTotalsInput groups the lines and adjustments of an invoice.
// TaxCents, when set, overrides any amount derived from TaxRate.
type InvoiceTotalsInput[T any] struct {
	Items         []InvoiceLineInput[T]
	DiscountCents int64
	TaxRate       *float64
	TaxCents      *int64
}

// InvoiceTotalsResult holds the computed totals. GrandTotalCents always equals
// SubTotalCents - DiscountCents + TaxCents.
type InvoiceTotalsResult[T any] struct {
	Items           []InvoiceLineTotal[T] `json:"items"`
	SubTotalCents   int64                 `json:"subTotalCents"`
	DiscountCents   int64                 `json:"discountCents"`
	TaxCents        int64                 `json:"taxCents"`
	GrandTotalCents int64                 `json:"grandTotalCents"`
}

// CalculateInvoiceTotals derives line totals, subtotal, discount, tax and the
// grand total. The grand total may be negative for fully credited invoices.
func CalculateInvoiceTotals[T any](input InvoiceTotalsInput[T], cfg RoundingConfig) (InvoiceTotalsResult[T], error) {
	if err := requireCents(cfg); err != nil {
		return InvoiceTotalsResult[T]{}, err
	}

	items := make([]InvoiceLineTotal[T], 0, len(input.Items))
	var subTotal int64
	for idx, item := range input.Items {
		if !isFinite(item.Quantity) {
			return InvoiceTotalsResult[T]{}, fmt.Errorf("%w: line %d quantity", ErrNonFiniteInput, idx)
		}
		raw := item.Quantity * float64(item.UnitPriceCents)
		if !isFinite(raw) {
			return InvoiceTotalsResult[T]{}, fmt.Errorf("%w: line %d total", ErrNonFiniteInput, idx)
		}
		lineTotal, err := toCents(Round(raw, cfg))
		if err != nil {
			return InvoiceTotalsResult[T]{}, fmt.Errorf("line %d: %w", idx, err)
		}
		items = append(items, InvoiceLineTotal[T]{InvoiceLineInput: item, LineTotalCents: lineTotal})
		if subTotal, err = addCents(subTotal, lineTotal); err != nil {
			return InvoiceTotalsResult[T]{}, fmt.Errorf("subtotal: %w", err)
		}
	}

	discount := input.DiscountCents
	taxable, err := subCents(subTotal, discount)
	if err != nil {
		return InvoiceTotalsResult[T]{}, fmt.Errorf("discount: %w", err)
	}

	var tax int64
	switch {
	case input.TaxCents != nil:
		tax = *input.TaxCents
	case input.TaxRate != nil:
		rate := *input.TaxRate
		if !isFinite(rate) {
			return InvoiceTotalsResult[T]{}, fmt.Errorf("%w: tax rate", ErrNonFiniteInput)
		}
		if rate < 0 || rate > 1 {
			return InvoiceTotalsResult[T]{}, fmt.Errorf("%w: got %v", ErrInvalidTaxRate, rate)
		}
		if tax, err = toCents(Round(float64(taxable)*rate, cfg)); err != nil {
			return InvoiceTotalsResult[T]{}, fmt.Errorf("tax: %w", err)
		}
	}

	grand, err := addCents(taxable, tax)
	if err != nil {
		return InvoiceTotalsResult[T]{}, fmt.Errorf("grand total: %w", err)
	}

	return InvoiceTotalsResult[T]{
		Items:           items,
		SubTotalCents:   subTotal,
		DiscountCents:   discount,
		TaxCents:        tax,
		GrandTotalCents: grand,
	}, nil
}
