package billing

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultInvoicePrefix starts every generated invoice number.
	DefaultInvoicePrefix = "INV"
	// DefaultSequencePadding is the minimum width of the sequence part.
	DefaultSequencePadding = 4
	// DefaultSeriesLayout renders the series date as YYYYMM.
	DefaultSeriesLayout = "200601"
)

// InvoiceNumberConfig controls how invoice numbers are rendered. Zero fields take
// the defaults: prefix INV, a UTC YYYYMM date part and a padding of 4 digits.
type InvoiceNumberConfig struct {
	Prefix          string
	DateFormatter   func(time.Time) string
	SequencePadding int
}

// LayoutFormatter renders the series date part in UTC using a Go time layout.
func LayoutFormatter(layout string) func(time.Time) string {
	if layout == "" {
		layout = DefaultSeriesLayout
	}
	return func(t time.Time) string {
		return t.UTC().Format(layout)
	}
}

func defaultDateFormatter(t time.Time) string {
	utc := t.UTC()
	return fmt.Sprintf("%04d%02d", utc.Year(), int(utc.Month()))
}

func (c InvoiceNumberConfig) resolved() InvoiceNumberConfig {
	if c.Prefix == "" {
		c.Prefix = DefaultInvoicePrefix
	}
	if c.DateFormatter == nil {
		c.DateFormatter = defaultDateFormatter
	}
	if c.SequencePadding <= 0 {
		c.SequencePadding = DefaultSequencePadding
	}
	return c
}

// SeriesKey returns the prefix of an invoice series, e.g. INV-202402. The key
// partitions the sequence counter by period.
func SeriesKey(date time.Time, cfg InvoiceNumberConfig) string {
	cfg = cfg.resolved()
	return cfg.Prefix + "-" + cfg.DateFormatter(date)
}

// BuildInvoiceNumber renders the invoice number for sequence within the series of date.
// It does not pick the sequence; callers supply the value following the last persisted one.
func BuildInvoiceNumber(sequence int64, date time.Time, cfg InvoiceNumberConfig) (string, error) {
	if sequence < 0 {
		return "", fmt.Errorf("%w: got %d", ErrInvalidSequence, sequence)
	}
	cfg = cfg.resolved()
	return fmt.Sprintf("%s-%0*d", SeriesKey(date, cfg), cfg.SequencePadding, sequence), nil
}

// ParseSequence extracts the sequence from a number belonging to seriesKey.
func ParseSequence(number, seriesKey string) (int64, bool) {
	digits, ok := strings.CutPrefix(number, seriesKey+"-")
	if !ok || digits == "" {
		return 0, false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return seq, true
}
