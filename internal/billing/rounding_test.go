package billing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundModes(t *testing.T) {
	cases := []struct {
		name     string
		value    float64
		cfg      RoundingConfig
		expected float64
	}{
		{"half-even positive", 1.235, RoundingConfig{Decimals: 2, Mode: RoundHalfEven}, 1.24},
		{"half-even negative", -1.235, RoundingConfig{Decimals: 2, Mode: RoundHalfEven}, -1.24},
		{"half-up exact half", 1.235, RoundingConfig{Decimals: 2, Mode: RoundHalfUp}, 1.24},
		{"half-down exact half", 1.235, RoundingConfig{Decimals: 2, Mode: RoundHalfDown}, 1.23},
		{"truncate", 1.239, RoundingConfig{Decimals: 2, Mode: RoundTruncate}, 1.23},
		{"ceil negative", -1.231, RoundingConfig{Decimals: 2, Mode: RoundCeil}, -1.23},
		{"floor positive", 1.239, RoundingConfig{Decimals: 2, Mode: RoundFloor}, 1.23},
		{"binary noise below half", 2.675, RoundingConfig{Decimals: 2, Mode: RoundHalfUp}, 2.68},
		{"binary noise half-down", 2.675, RoundingConfig{Decimals: 2, Mode: RoundHalfDown}, 2.67},
		{"half-even zero tie", 0.5, RoundingConfig{Mode: RoundHalfEven}, 0},
		{"half-even one tie", 1.5, RoundingConfig{Mode: RoundHalfEven}, 2},
		{"half-even two tie", 2.5, RoundingConfig{Mode: RoundHalfEven}, 2},
		{"half-even negative tie", -2.5, RoundingConfig{Mode: RoundHalfEven}, -2},
		{"half-up tie", 2.5, RoundingConfig{Mode: RoundHalfUp}, 3},
		{"half-up negative tie", -0.5, RoundingConfig{Mode: RoundHalfUp}, -1},
		{"half-down tie", 2.5, RoundingConfig{Mode: RoundHalfDown}, 2},
		{"half-down negative tie", -2.5, RoundingConfig{Mode: RoundHalfDown}, -2},
		{"ceil positive", 1.2, RoundingConfig{Mode: RoundCeil}, 2},
		{"ceil negative integer", -1.8, RoundingConfig{Mode: RoundCeil}, -1},
		{"floor negative", -1.2, RoundingConfig{Mode: RoundFloor}, -2},
		{"truncate negative", -1.8, RoundingConfig{Mode: RoundTruncate}, -1},
		{"zero value config", 3.5, RoundingConfig{}, 4},
		{"integral untouched", 42, RoundingConfig{Mode: RoundCeil}, 42},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, Round(tc.value, tc.cfg))
		})
	}
}

func TestHalfUpAndHalfDownOnlyDisagreeOnTies(t *testing.T) {
	for _, value := range []float64{2.4, 2.6, -2.4, -2.6, 10.49, 10.51} {
		up := Round(value, RoundingConfig{Mode: RoundHalfUp})
		down := Round(value, RoundingConfig{Mode: RoundHalfDown})
		require.Equal(t, up, down, "value %v", value)
	}
	require.NotEqual(t,
		Round(2.5, RoundingConfig{Mode: RoundHalfUp}),
		Round(2.5, RoundingConfig{Mode: RoundHalfDown}),
	)
}

func TestRoundIsIdempotent(t *testing.T) {
	values := []float64{0, 0.5, 1.005, 1.235, -1.235, 2.675, 99.995, -1234.5678, 1e6 + 0.125}
	for _, mode := range RoundingModes() {
		for _, decimals := range []int{0, 1, 2, 3} {
			cfg := RoundingConfig{Decimals: decimals, Mode: mode}
			for _, value := range values {
				once := Round(value, cfg)
				require.Equal(t, once, Round(once, cfg), "mode=%s decimals=%d value=%v", mode, decimals, value)
			}
		}
	}
}

func TestRoundNonFiniteIsReturned(t *testing.T) {
	require.True(t, math.IsNaN(Round(math.NaN(), RoundingConfig{})))
	require.True(t, math.IsInf(Round(math.Inf(1), RoundingConfig{}), 1))
}

func TestRoundFallsBackForBadConfig(t *testing.T) {
	require.Equal(t, 2.0, Round(2.5, RoundingConfig{Decimals: -3, Mode: "BOGUS"}))
}

func TestRoundToCents(t *testing.T) {
	cents, err := RoundToCents(1234.5, DefaultRounding())
	require.NoError(t, err)
	require.Equal(t, int64(1234), cents)

	_, err = RoundToCents(1.5, RoundingConfig{Decimals: 2})
	require.ErrorIs(t, err, ErrInvalidRounding)

	_, err = RoundToCents(math.Inf(-1), DefaultRounding())
	require.ErrorIs(t, err, ErrNonFiniteInput)
}

func TestParseRoundingMode(t *testing.T) {
	mode, err := ParseRoundingMode(" half_up ")
	require.NoError(t, err)
	require.Equal(t, RoundHalfUp, mode)

	mode, err = ParseRoundingMode("")
	require.NoError(t, err)
	require.Equal(t, RoundHalfEven, mode)

	_, err = ParseRoundingMode("bankers")
	require.ErrorIs(t, err, ErrUnknownRoundingMode)
}

func TestRoundingConfigValidate(t *testing.T) {
	require.NoError(t, RoundingConfig{}.Validate())
	require.ErrorIs(t, RoundingConfig{Decimals: -1}.Validate(), ErrInvalidRounding)
	require.ErrorIs(t, RoundingConfig{Mode: "UP"}.Validate(), ErrUnknownRoundingMode)
}
