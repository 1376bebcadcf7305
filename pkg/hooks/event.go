package hooks

import (
	"context"

	"github.com/cuemby/burrow/pkg/events"
)

// EventHook broadcasts a zero-progress "Task started" update before the
// body runs, and the terminal event projected from the result after it.
// The started event fires unconditionally so late subscribers can tell
// the task exists before any progress is reported. No terminal event is
// emitted when the run left no result.
type EventHook struct {
	producer events.Producer
}

// NewEventHook builds the hook over a producer.
func NewEventHook(producer events.Producer) *EventHook {
	return &EventHook{producer: producer}
}

func (h *EventHook) Before(ctx context.Context, tc *TaskContext) error {
	return h.producer.Broadcast(ctx, events.UpdatedEvent{
		Task:    tc.TaskID,
		Current: 0,
		Total:   0,
		Message: "Task started",
	})
}

func (h *EventHook) After(ctx context.Context, tc *TaskContext) error {
	if tc.Result == nil {
		return nil
	}
	return h.producer.Broadcast(ctx, tc.Result.BroadcastEvent(tc.TaskID))
}
