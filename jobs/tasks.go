package jobs

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskReportsWarmup rebuilds the default reports into the cache.
	TaskReportsWarmup = "reports:warmup"
	// TaskReportsInvalidate bumps the report cache version.
	TaskReportsInvalidate = "reports:invalidate"
	// ReportsWarmupCron is the schedule of TaskReportsWarmup.
	ReportsWarmupCron = "*/30 * * * *"
)

// ReportsPayload describes why a report task was enqueued.
type ReportsPayload struct {
	Reason string `json:"reason"`
}

// NewReportsWarmupTask constructs an Asynq task for the report warmup.
func NewReportsWarmupTask(reason string) (*asynq.Task, error) {
	return newReportsTask(TaskReportsWarmup, reason)
}

// NewReportsInvalidateTask constructs an Asynq task for a cache invalidation.
func NewReportsInvalidateTask(reason string) (*asynq.Task, error) {
	return newReportsTask(TaskReportsInvalidate, reason)
}

func newReportsTask(taskType, reason string) (*asynq.Task, error) {
	if reason == "" {
		reason = "manual"
	}
	body, err := json.Marshal(ReportsPayload{Reason: reason})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(taskType, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

var taskBuilders = map[string]func(reason string) (*asynq.Task, error){
	TaskReportsWarmup:     NewReportsWarmupTask,
	TaskReportsInvalidate: NewReportsInvalidateTask,
}

// NewTask builds the named task, for callers that only know the task type.
func NewTask(taskType, reason string) (*asynq.Task, error) {
	build, ok := taskBuilders[taskType]
	if !ok {
		return nil, fmt.Errorf("jobs: unknown task %q (known: %v)", taskType, TaskTypes())
	}
	return build(reason)
}

// TaskTypes lists the task types the worker handles.
func TaskTypes() []string {
	out := make([]string, 0, len(taskBuilders))
	for name := range taskBuilders {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func decodeReportsPayload(t *asynq.Task) (ReportsPayload, error) {
	var payload ReportsPayload
	if len(t.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}
	return payload, nil
}
