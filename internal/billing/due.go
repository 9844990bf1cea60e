package billing

// CalculateCustomerDueCents returns invoiced minus paid, rounded to whole cents.
// Inputs may carry fractional-cent drift from upstream sums. Overpayment yields a
// negative balance (customer credit), which is kept as is.
func CalculateCustomerDueCents(invoicedCents, paidCents float64, cfg RoundingConfig) (int64, error) {
	if err := requireCents(cfg); err != nil {
		return 0, err
	}
	if !isFinite(invoicedCents) || !isFinite(paidCents) {
		return 0, ErrNonFiniteInput
	}
	diff := invoicedCents - paidCents
	if !isFinite(diff) {
		return 0, ErrAmountOverflow
	}
	return toCents(Round(diff, cfg))
}
