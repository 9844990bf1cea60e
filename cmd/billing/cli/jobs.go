package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/billing/jobs"
)

type taskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

type queueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	ListScheduledTasks(queue string, opts ...asynq.ListOption) ([]*asynq.TaskInfo, error)
	Close() error
}

// JobsCLI wraps manual management helpers for Asynq jobs.
type JobsCLI struct {
	client    taskEnqueuer
	inspector queueInspector
}

// NewJobsCLI initialises the CLI helpers against the given Redis connection.
func NewJobsCLI(redisOpts asynq.RedisClientOpt) *JobsCLI {
	return &JobsCLI{
		client:    asynq.NewClient(redisOpts),
		inspector: asynq.NewInspector(redisOpts),
	}
}

// Close releases underlying resources.
func (c *JobsCLI) Close() error {
	var err error
	if c.inspector != nil {
		if closeErr := c.inspector.Close(); closeErr != nil {
			err = closeErr
		}
	}
	if c.client != nil {
		if closeErr := c.client.Close(); closeErr != nil {
			err = closeErr
		}
	}
	return err
}

// Trigger enqueues a supported job by name.
func (c *JobsCLI) Trigger(ctx context.Context, name, reason string) (*asynq.TaskInfo, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("jobs cli: client not configured")
	}
	task, err := jobs.NewTask(name, reason)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(ctx, task, asynq.Queue(jobs.QueueDefault), asynq.MaxRetry(3))
}

// QueueStats summarises the current queue state.
type QueueStats struct {
	Queue     string `json:"queue"`
	Pending   int    `json:"pending"`
	Active    int    `json:"active"`
	Scheduled int    `json:"scheduled"`
	Retry     int    `json:"retry"`
}

// InspectQueue reports the queue metrics for the default queue.
func (c *JobsCLI) InspectQueue(ctx context.Context) (QueueStats, error) {
	if c == nil || c.inspector == nil {
		return QueueStats{}, errors.New("jobs cli: inspector not configured")
	}
	info, err := c.inspector.GetQueueInfo(jobs.QueueDefault)
	if err != nil {
		return QueueStats{}, err
	}
	stats := QueueStats{Queue: jobs.QueueDefault}
	if info != nil {
		stats.Pending = int(info.Pending)
		stats.Active = int(info.Active)
		stats.Scheduled = int(info.Scheduled)
		stats.Retry = int(info.Retry)
	}
	return stats, nil
}

// ListScheduled returns scheduled task infos for observability.
func (c *JobsCLI) ListScheduled(ctx context.Context, size int) ([]*asynq.TaskInfo, error) {
	if c == nil || c.inspector == nil {
		return nil, errors.New("jobs cli: inspector not configured")
	}
	if size <= 0 {
		size = 10
	}
	return c.inspector.ListScheduledTasks(jobs.QueueDefault, asynq.PageSize(size), asynq.Page(1))
}

// TriggerOptions defines the flags of the jobs trigger command.
type TriggerOptions struct {
	Task       string
	Reason     string
	JSONOutput bool
	Stdout     io.Writer
}

// TriggerCommand enqueues opts.Task and prints the enqueued task id.
func (c *JobsCLI) TriggerCommand(ctx context.Context, opts TriggerOptions) error {
	info, err := c.Trigger(ctx, opts.Task, opts.Reason)
	if err != nil {
		return fmt.Errorf("jobs trigger: %w", err)
	}
	if opts.JSONOutput {
		return json.NewEncoder(opts.Stdout).Encode(map[string]string{
			"id":    info.ID,
			"task":  info.Type,
			"queue": info.Queue,
		})
	}
	_, err = fmt.Fprintf(opts.Stdout, "enqueued %s id=%s queue=%s\n", info.Type, info.ID, info.Queue)
	return err
}

// StatsOptions defines the flags of the jobs stats command.
type StatsOptions struct {
	Scheduled  int
	JSONOutput bool
	Stdout     io.Writer
}

// StatsCommand prints the default queue counters and the next scheduled tasks.
func (c *JobsCLI) StatsCommand(ctx context.Context, opts StatsOptions) error {
	stats, err := c.InspectQueue(ctx)
	if err != nil {
		return fmt.Errorf("jobs stats: %w", err)
	}
	var scheduled []*asynq.TaskInfo
	if opts.Scheduled > 0 {
		scheduled, err = c.ListScheduled(ctx, opts.Scheduled)
		if err != nil {
			return fmt.Errorf("jobs stats: %w", err)
		}
	}

	if opts.JSONOutput {
		type scheduledTask struct {
			ID   string `json:"id"`
			Type string `json:"type"`
			At   string `json:"at"`
		}
		out := struct {
			QueueStats
			Upcoming []scheduledTask `json:"upcoming"`
		}{QueueStats: stats, Upcoming: []scheduledTask{}}
		for _, task := range scheduled {
			out.Upcoming = append(out.Upcoming, scheduledTask{ID: task.ID, Type: task.Type, At: task.NextProcessAt.UTC().Format("2006-01-02T15:04:05Z")})
		}
		return json.NewEncoder(opts.Stdout).Encode(out)
	}

	tw := tabwriter.NewWriter(opts.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "QUEUE\tPENDING\tACTIVE\tSCHEDULED\tRETRY\n")
	_, _ = fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\n", stats.Queue, stats.Pending, stats.Active, stats.Scheduled, stats.Retry)
	for _, task := range scheduled {
		_, _ = fmt.Fprintf(tw, "next\t%s\t%s\t%s\t\n", task.Type, task.ID, task.NextProcessAt.UTC().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
