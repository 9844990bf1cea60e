package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/billing/internal/billing"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.AppAddr)
	require.Equal(t, "HALF_EVEN", cfg.RoundingMode)
	require.Equal(t, 3, cfg.InvoiceNumberRetries)
	require.Equal(t, 5*time.Minute, cfg.ReportCacheTTL)
	require.False(t, cfg.IsProduction())
	require.Equal(t, billing.RoundingConfig{Mode: billing.RoundHalfEven}, cfg.Rounding())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("BILLING_ROUNDING_MODE", "floor")
	t.Setenv("INVOICE_PREFIX", "BILL")
	t.Setenv("INVOICE_SEQUENCE_PADDING", "5")
	t.Setenv("PG_MAX_CONNS", "25")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.True(t, cfg.IsProduction())
	require.Equal(t, int32(25), cfg.PGMaxConns)
	require.Equal(t, billing.RoundFloor, cfg.Rounding().Mode)

	number, err := billing.BuildInvoiceNumber(7, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), cfg.Numbering())
	require.NoError(t, err)
	require.Equal(t, "BILL-202403-00007", number)
}

func TestLoadConfigRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		key  string
		val  string
		want string
	}{
		{"rounding mode", "BILLING_ROUNDING_MODE", "BANKERS", "BILLING_ROUNDING_MODE"},
		{"padding", "INVOICE_SEQUENCE_PADDING", "-1", "INVOICE_SEQUENCE_PADDING"},
		{"retries", "INVOICE_NUMBER_RETRIES", "0", "INVOICE_NUMBER_RETRIES"},
		{"rate limit", "RATE_LIMIT_PER_MINUTE", "0", "RATE_LIMIT_PER_MINUTE"},
		{"not a number", "INVOICE_NUMBER_RETRIES", "three", "INVOICE_NUMBER_RETRIES"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv(tc.key, tc.val)
			_, err := LoadConfig()
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestRefreshTestMode(t *testing.T) {
	t.Setenv("BILLING_TEST_MODE", "true")
	RefreshTestMode()
	require.True(t, InTestMode())

	t.Setenv("BILLING_TEST_MODE", "0")
	RefreshTestMode()
	require.False(t, InTestMode())
}
