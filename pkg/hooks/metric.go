package hooks

import (
	"context"
	"time"

	"github.com/cuemby/burrow/pkg/types"
)

// Observer receives the start and the outcome of every task run. The
// prometheus-backed implementation lives in pkg/metrics.
type Observer interface {
	ObserveTaskStarted(taskName types.TaskName)
	ObserveTaskDone(taskName types.TaskName, status types.Status, duration time.Duration, errorCode *types.ErrorCode)
}

// MetricHook records a start observation before the body and a done
// observation with status, error code and duration after it. A run
// that left no result is recorded as UNKNOWN.
type MetricHook struct {
	observer Observer
}

// NewMetricHook builds the hook over an observer.
func NewMetricHook(observer Observer) *MetricHook {
	return &MetricHook{observer: observer}
}

func (h *MetricHook) Before(_ context.Context, tc *TaskContext) error {
	h.observer.ObserveTaskStarted(tc.TaskName)
	tc.startedAt = time.Now()
	return nil
}

func (h *MetricHook) After(_ context.Context, tc *TaskContext) error {
	duration := time.Since(tc.startedAt)

	status := types.StatusUnknown
	var errorCode *types.ErrorCode
	if tc.Result != nil {
		status = tc.Result.Status()
		errorCode = tc.Result.ErrorCode()
	}

	h.observer.ObserveTaskDone(tc.TaskName, status, duration, errorCode)
	return nil
}
