package billing

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// RoundingMode selects the strategy used when a value has a fractional part.
type RoundingMode string

const (
	// RoundHalfUp rounds exact ties away from zero.
	RoundHalfUp RoundingMode = "HALF_UP"
	// RoundHalfDown rounds exact ties toward zero.
	RoundHalfDown RoundingMode = "HALF_DOWN"
	// RoundHalfEven rounds exact ties to the nearest even integer.
	RoundHalfEven RoundingMode = "HALF_EVEN"
	// RoundCeil rounds toward positive infinity.
	RoundCeil RoundingMode = "CEIL"
	// RoundFloor rounds toward negative infinity.
	RoundFloor RoundingMode = "FLOOR"
	// RoundTruncate drops the fractional part.
	RoundTruncate RoundingMode = "TRUNCATE"
)

// DefaultRoundingMode is used when no mode is configured.
const DefaultRoundingMode = RoundHalfEven

// normalizePlaces is the 1e-9 grid every scaled value is snapped to before inspection.
const normalizePlaces = 9

var (
	one  = decimal.NewFromInt(1)
	two  = decimal.NewFromInt(2)
	half = decimal.New(5, -1)
	// tieEpsilon sits below the normalization grid, so on normalized values a
	// tie is an exact .5 fraction.
	tieEpsilon = decimal.New(1, -10)
)

// RoundingModes lists every supported mode.
func RoundingModes() []RoundingMode {
	return []RoundingMode{RoundHalfUp, RoundHalfDown, RoundHalfEven, RoundCeil, RoundFloor, RoundTruncate}
}

// Valid reports whether m is a supported mode. The empty mode is valid and means the default.
func (m RoundingMode) Valid() bool {
	if m == "" {
		return true
	}
	for _, candidate := range RoundingModes() {
		if m == candidate {
			return true
		}
	}
	return false
}

// ParseRoundingMode resolves a case-insensitive mode name. Blank input yields the default.
func ParseRoundingMode(raw string) (RoundingMode, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(raw))
	if trimmed == "" {
		return DefaultRoundingMode, nil
	}
	mode := RoundingMode(trimmed)
	if !mode.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRoundingMode, raw)
	}
	return mode, nil
}

// RoundingConfig controls Round. The zero value rounds to integers with HALF_EVEN.
type RoundingConfig struct {
	Decimals int          `json:"decimals"`
	Mode     RoundingMode `json:"mode"`
}

// DefaultRounding returns the cent-level configuration used for invoices and dues.
func DefaultRounding() RoundingConfig {
	return RoundingConfig{Decimals: 0, Mode: DefaultRoundingMode}
}

// Validate checks the configuration is usable by Round.
func (c RoundingConfig) Validate() error {
	if c.Decimals < 0 {
		return fmt.Errorf("%w: decimals %d", ErrInvalidRounding, c.Decimals)
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRoundingMode, c.Mode)
	}
	return nil
}

func (c RoundingConfig) resolved() RoundingConfig {
	if c.Decimals < 0 {
		c.Decimals = 0
	}
	if c.Mode == "" || !c.Mode.Valid() {
		c.Mode = DefaultRoundingMode
	}
	return c
}

// requireCents rejects configurations that would leave fractional cents behind.
func requireCents(c RoundingConfig) error {
	if c.Decimals != 0 {
		return fmt.Errorf("%w: got decimals=%d", ErrInvalidRounding, c.Decimals)
	}
	if !c.Mode.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownRoundingMode, c.Mode)
	}
	return nil
}

// Round rounds value to cfg.Decimals places using cfg.Mode.
//
// The value is scaled by 10^decimals and snapped to a 1e-9 grid before its
// fractional part is inspected, so representation noise such as
// 1.235*100 == 123.50000000000001 is still classified as a tie. Negative
// decimals are treated as zero and an unknown mode falls back to HALF_EVEN.
// Non-finite input is returned unchanged.
func Round(value float64, cfg RoundingConfig) float64 {
	if !isFinite(value) {
		return value
	}
	cfg = cfg.resolved()
	scaled := value * math.Pow10(cfg.Decimals)
	if !isFinite(scaled) {
		return scaled
	}
	rounded := roundScaled(normalize(scaled), cfg.Mode)
	out, _ := rounded.Shift(-int32(cfg.Decimals)).Round(normalizePlaces).Float64()
	return out
}

// RoundToCents rounds a cent amount to an integer number of cents.
func RoundToCents(value float64, cfg RoundingConfig) (int64, error) {
	if err := requireCents(cfg); err != nil {
		return 0, err
	}
	if !isFinite(value) {
		return 0, ErrNonFiniteInput
	}
	return toCents(Round(value, cfg))
}

func normalize(scaled float64) decimal.Decimal {
	return decimal.NewFromFloat(scaled).Round(normalizePlaces)
}

func roundScaled(n decimal.Decimal, mode RoundingMode) decimal.Decimal {
	if n.IsInteger() {
		return n
	}
	switch mode {
	case RoundTruncate:
		return n.Truncate(0)
	case RoundCeil:
		return n.Ceil()
	case RoundFloor:
		return n.Floor()
	}

	abs := n.Abs()
	floorAbs := abs.Floor()
	ceilAbs := floorAbs.Add(one)
	distance := abs.Sub(floorAbs).Sub(half)

	var picked decimal.Decimal
	switch {
	case distance.GreaterThan(tieEpsilon):
		picked = ceilAbs
	case distance.LessThan(tieEpsilon.Neg()):
		picked = floorAbs
	case mode == RoundHalfUp:
		picked = ceilAbs
	case mode == RoundHalfDown:
		picked = floorAbs
	default:
		picked = floorAbs
		if !floorAbs.Mod(two).IsZero() {
			picked = ceilAbs
		}
	}
	if n.Sign() < 0 {
		return picked.Neg()
	}
	return picked
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
