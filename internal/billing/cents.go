package billing

import (
	"fmt"
	"math"
)

// Float bounds of int64. 2^63 itself is not representable as int64.
const (
	minCentsFloat = -9223372036854775808.0
	maxCentsFloat = 9223372036854775808.0
)

// toCents converts an already rounded float cent amount to int64.
func toCents(v float64) (int64, error) {
	if !isFinite(v) {
		return 0, ErrNonFiniteInput
	}
	if v < minCentsFloat || v >= maxCentsFloat {
		return 0, fmt.Errorf("%w: %v", ErrAmountOverflow, v)
	}
	return int64(v), nil
}

func addCents(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("%w: %d + %d", ErrAmountOverflow, a, b)
	}
	return sum, nil
}

func subCents(a, b int64) (int64, error) {
	if b == math.MinInt64 {
		if a >= 0 {
			return 0, fmt.Errorf("%w: %d - %d", ErrAmountOverflow, a, b)
		}
		return a - b, nil
	}
	return addCents(a, -b)
}
