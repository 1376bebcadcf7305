package metrics

import (
	"time"

	"github.com/cuemby/burrow/pkg/types"
)

// TaskObserver records the start and completion of background task
// runs. The hook pipeline calls it around every run.
type TaskObserver struct{}

// NewTaskObserver returns an observer backed by the package collectors.
func NewTaskObserver() *TaskObserver {
	return &TaskObserver{}
}

// ObserveTaskStarted counts a run start.
func (o *TaskObserver) ObserveTaskStarted(taskName types.TaskName) {
	TasksStartedTotal.WithLabelValues(string(taskName)).Inc()
}

// ObserveTaskDone counts a run completion and records its duration. A
// nil error code is recorded under an empty label.
func (o *TaskObserver) ObserveTaskDone(taskName types.TaskName, status types.Status, duration time.Duration, errorCode *types.ErrorCode) {
	code := ""
	if errorCode != nil {
		code = errorCode.String()
	}
	TasksDoneTotal.WithLabelValues(string(taskName), string(status), code).Inc()
	TaskDuration.WithLabelValues(string(taskName), string(status)).Observe(duration.Seconds())
}

// NopTaskObserver discards all observations. Used where metrics are not
// wired, e.g. some tests.
type NopTaskObserver struct{}

func (NopTaskObserver) ObserveTaskStarted(types.TaskName) {}

func (NopTaskObserver) ObserveTaskDone(types.TaskName, types.Status, time.Duration, *types.ErrorCode) {
}
