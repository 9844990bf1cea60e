package billing

import "errors"

var (
	// ErrNonFiniteInput indicates a NaN or infinite monetary or quantity value.
	ErrNonFiniteInput = errors.New("billing: monetary values must be finite numbers")
	// ErrAmountOverflow indicates a cent amount or sum outside the int64 range.
	ErrAmountOverflow = errors.New("billing: amount exceeds the representable cent range")
	// ErrInvalidSequence indicates a negative invoice sequence.
	ErrInvalidSequence = errors.New("billing: sequence must be a non-negative number")
	// ErrInvalidRounding indicates a rounding configuration unusable for cent arithmetic.
	ErrInvalidRounding = errors.New("billing: rounding must operate on cent values (decimals=0)")
	// ErrUnknownRoundingMode indicates an unsupported rounding mode.
	ErrUnknownRoundingMode = errors.New("billing: unknown rounding mode")
	// ErrInvalidTaxRate indicates a tax rate outside [0,1].
	ErrInvalidTaxRate = errors.New("billing: tax rate must be between 0 and 1")
	// ErrUnknownStatus indicates an unsupported invoice status.
	ErrUnknownStatus = errors.New("billing: unknown invoice status")
)
