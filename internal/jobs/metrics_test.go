package jobmetrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestTrackerOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	require.NoError(t, m.Track("reports:warmup").End(nil))

	boom := errors.New("db down")
	require.Same(t, boom, m.Track("reports:warmup").End(boom))

	skip := fmt.Errorf("%w: bad payload", asynq.SkipRetry)
	require.ErrorIs(t, m.Track("reports:invalidate").End(skip), asynq.SkipRetry)

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reports:warmup", StatusSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reports:warmup", StatusFailure)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("reports:invalidate", StatusSkipped)))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("reports:warmup")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.failures.WithLabelValues("reports:invalidate")))
	require.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("reports:warmup")))
}

func TestInFlightGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	tracker := m.Track("reports:warmup")
	require.Equal(t, 1.0, testutil.ToFloat64(m.inFlight.WithLabelValues("reports:warmup")))
	_ = tracker.End(nil)
	require.Equal(t, 0.0, testutil.ToFloat64(m.inFlight.WithLabelValues("reports:warmup")))
}

func TestReportWarmed(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.ReportWarmed("dues")
	m.ReportWarmed("dues")
	m.ReportWarmed("")
	require.Equal(t, 2.0, testutil.ToFloat64(m.warmed.WithLabelValues("dues")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	err := errors.New("x")
	require.Same(t, err, m.Track("reports:warmup").End(err))
	m.ReportWarmed("dues")
}
