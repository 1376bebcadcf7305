package task

import (
	"context"

	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/types"
)

// Args is the typed argument payload of a task. Concrete argument
// structs carry json tags; revival decodes the persisted body into them
// strictly, rejecting unknown keys.
type Args interface {
	// Validate checks the decoded arguments beyond what the JSON shape
	// guarantees.
	Validate() error
}

// Result is the handler-defined outcome of a successful run.
type Result interface {
	// Message renders the result for the terminal broadcast event.
	Message() string
}

// EmptyResult is the result of tasks that produce no meaningful output.
type EmptyResult struct{}

func (EmptyResult) Message() string {
	return "Task completed successfully"
}

// Reporter lets a handler publish progress while it runs. Progress does
// not flow through the result model; it is broadcast immediately.
type Reporter interface {
	Report(ctx context.Context, current, total float64, message string) error
}

// NopReporter discards progress. Used by handlers under test.
type NopReporter struct{}

func (NopReporter) Report(context.Context, float64, float64, string) error {
	return nil
}

// EventReporter publishes progress as bgtask_updated events for one
// task.
type EventReporter struct {
	producer events.Producer
	taskID   types.TaskID
}

// NewEventReporter builds a reporter bound to a task id.
func NewEventReporter(producer events.Producer, taskID types.TaskID) *EventReporter {
	return &EventReporter{producer: producer, taskID: taskID}
}

func (r *EventReporter) Report(ctx context.Context, current, total float64, message string) error {
	return r.producer.Broadcast(ctx, events.UpdatedEvent{
		Task:    r.taskID,
		Current: current,
		Total:   total,
		Message: message,
	})
}

// Handler executes one kind of background task. Handlers are stateless
// between invocations; everything a run needs arrives in its arguments.
type Handler interface {
	// Name returns the task name this handler serves.
	Name() types.TaskName

	// NewArgs returns a fresh zero value of the handler's argument
	// type for the revival decode to fill.
	NewArgs() Args

	// Execute runs the task. Cancellation arrives through the context;
	// the runner maps it to a cancelled result.
	Execute(ctx context.Context, reporter Reporter, args Args) (Result, error)
}
