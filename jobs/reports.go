package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/odyssey-erp/billing/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ReportWarmer rebuilds the default reports into the cache.
type ReportWarmer interface {
	Warmup(ctx context.Context) ([]string, error)
}

// ReportInvalidator drops every cached report.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ReportsJob handles the report cache tasks.
type ReportsJob struct {
	Warmer      ReportWarmer
	Invalidator ReportInvalidator
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
	Timeout     time.Duration
}

// NewReportsJob wires dependencies for the report task handlers.
func NewReportsJob(warmer ReportWarmer, invalidator ReportInvalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportsJob {
	return &ReportsJob{
		Warmer:      warmer,
		Invalidator: invalidator,
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     2 * time.Minute,
	}
}

// HandleWarmup processes TaskReportsWarmup.
func (j *ReportsJob) HandleWarmup(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Warmer == nil {
		return errors.New("reports warmup: handler not configured")
	}
	tracker := j.metrics().Track(TaskReportsWarmup)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	payload, err := decodeReportsPayload(t)
	if err != nil {
		return err
	}

	logger := j.logger(TaskReportsWarmup).With(slog.String("reason", payload.Reason))
	logger.Info("starting reports warmup")
	start := time.Now()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	warmed, err := j.Warmer.Warmup(ctx)
	for _, report := range warmed {
		j.metrics().ReportWarmed(report)
	}
	if err != nil {
		logger.Error("reports warmup", slog.Int("warmed", len(warmed)), slog.Any("error", err))
		return err
	}

	logger.Info("completed reports warmup", slog.Int("warmed", len(warmed)), slog.Duration("duration", time.Since(start)))
	return nil
}

// HandleInvalidate processes TaskReportsInvalidate.
func (j *ReportsJob) HandleInvalidate(ctx context.Context, t *asynq.Task) (resultErr error) {
	if j == nil || j.Invalidator == nil {
		return errors.New("reports invalidate: handler not configured")
	}
	tracker := j.metrics().Track(TaskReportsInvalidate)
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	payload, err := decodeReportsPayload(t)
	if err != nil {
		return err
	}

	if err := j.Invalidator.Invalidate(ctx); err != nil {
		j.logger(TaskReportsInvalidate).Error("reports invalidate", slog.Any("error", err))
		return err
	}
	j.logger(TaskReportsInvalidate).Info("report cache invalidated", slog.String("reason", payload.Reason))
	return nil
}

// Handlers returns the task registrations served by the worker.
func (j *ReportsJob) Handlers() []TaskHandler {
	return []TaskHandler{
		{Type: TaskReportsWarmup, Handler: j.HandleWarmup},
		{Type: TaskReportsInvalidate, Handler: j.HandleInvalidate},
	}
}

func (j *ReportsJob) logger(job string) *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", job))
	}
	return slog.Default().With(slog.String("job", job))
}

func (j *ReportsJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
