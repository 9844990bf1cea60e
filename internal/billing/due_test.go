package billing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCalculateCustomerDueCents(t *testing.T) {
	due, err := CalculateCustomerDueCents(10050, 9950.4, RoundingConfig{})
	require.NoError(t, err)
	require.Equal(t, int64(100), due)

	due, err = CalculateCustomerDueCents(10050, 9950, RoundingConfig{})
	require.NoError(t, err)
	require.Equal(t, int64(100), due)

	due, err = CalculateCustomerDueCents(5000, 7500, RoundingConfig{})
	require.NoError(t, err)
	require.Equal(t, int64(-2500), due)
}

func TestCalculateCustomerDueCentsRejects(t *testing.T) {
	_, err := CalculateCustomerDueCents(100, 50, RoundingConfig{Decimals: 2})
	require.ErrorIs(t, err, ErrInvalidRounding)

	_, err = CalculateCustomerDueCents(math.NaN(), 50, RoundingConfig{})
	require.ErrorIs(t, err, ErrNonFiniteInput)

	_, err = CalculateCustomerDueCents(1e20, 0, RoundingConfig{})
	require.ErrorIs(t, err, ErrAmountOverflow)

	_, err = CalculateCustomerDueCents(-math.MaxFloat64, math.MaxFloat64, RoundingConfig{})
	require.ErrorIs(t, err, ErrAmountOverflow)
}
