package events

import (
	"fmt"

	"github.com/cuemby/burrow/pkg/types"
)

// Event names on the broadcast channel.
const (
	NameUpdated        = "bgtask_updated"
	NameDone           = "bgtask_done"
	NameCancelled      = "bgtask_cancelled"
	NameFailed         = "bgtask_failed"
	NamePartialSuccess = "bgtask_partial_success"
	NameAlreadyDone    = "bgtask_already_done"
)

// Event is a background task broadcast event. Terminal events carry the
// task id and a short message; progress events additionally carry
// current/total counters.
type Event interface {
	// EventName returns the wire name of the event.
	EventName() string

	// TaskID returns the id of the task the event belongs to.
	TaskID() types.TaskID

	// Status returns the task status the event implies.
	Status() types.Status

	// Serialize renders the event payload as an ordered tuple for
	// transport.
	Serialize() []any
}

// CacheID derives the broadcast cache key for a task.
func CacheID(taskID types.TaskID) string {
	return "bgtask:" + taskID.String()
}

// UpdatedEvent reports task progress. It is also broadcast once with
// zero progress when a task starts, so late subscribers can tell the
// task exists before any progress is reported.
type UpdatedEvent struct {
	Task    types.TaskID
	Current float64
	Total   float64
	Message string
}

func (e UpdatedEvent) EventName() string    { return NameUpdated }
func (e UpdatedEvent) TaskID() types.TaskID { return e.Task }
func (e UpdatedEvent) Status() types.Status { return types.StatusUpdated }

func (e UpdatedEvent) Serialize() []any {
	return []any{e.Task.String(), e.Current, e.Total, e.Message}
}

// DoneEvent reports successful completion.
type DoneEvent struct {
	Task    types.TaskID
	Message string
}

func (e DoneEvent) EventName() string    { return NameDone }
func (e DoneEvent) TaskID() types.TaskID { return e.Task }
func (e DoneEvent) Status() types.Status { return types.StatusDone }

func (e DoneEvent) Serialize() []any {
	return []any{e.Task.String(), e.Message}
}

// CancelledEvent reports cooperative cancellation.
type CancelledEvent struct {
	Task    types.TaskID
	Message string
}

func (e CancelledEvent) EventName() string    { return NameCancelled }
func (e CancelledEvent) TaskID() types.TaskID { return e.Task }
func (e CancelledEvent) Status() types.Status { return types.StatusCancelled }

func (e CancelledEvent) Serialize() []any {
	return []any{e.Task.String(), e.Message}
}

// FailedEvent reports a failed run.
type FailedEvent struct {
	Task    types.TaskID
	Message string
}

func (e FailedEvent) EventName() string    { return NameFailed }
func (e FailedEvent) TaskID() types.TaskID { return e.Task }
func (e FailedEvent) Status() types.Status { return types.StatusFailed }

func (e FailedEvent) Serialize() []any {
	return []any{e.Task.String(), e.Message}
}

// PartialSuccessEvent reports completion where some sub-operations
// failed. The status projects to DONE until clients understand the
// partial-success status.
type PartialSuccessEvent struct {
	Task    types.TaskID
	Message string
	Errors  []string
}

func (e PartialSuccessEvent) EventName() string    { return NamePartialSuccess }
func (e PartialSuccessEvent) TaskID() types.TaskID { return e.Task }
func (e PartialSuccessEvent) Status() types.Status { return types.StatusDone }

func (e PartialSuccessEvent) Serialize() []any {
	return []any{e.Task.String(), e.Message, e.Errors}
}

// AlreadyDoneEvent is synthesized for a subscriber that attaches after
// the task reached a terminal state. It never crosses the wire:
// serializing or deserializing one is a programmer error.
type AlreadyDoneEvent struct {
	Task       types.TaskID
	TaskStatus types.Status
	Message    string
}

func (e AlreadyDoneEvent) EventName() string    { return NameAlreadyDone }
func (e AlreadyDoneEvent) TaskID() types.TaskID { return e.Task }
func (e AlreadyDoneEvent) Status() types.Status { return e.TaskStatus }

func (e AlreadyDoneEvent) Serialize() []any {
	panic("events: AlreadyDoneEvent must not be serialized")
}

// Deserialize reconstructs an event from its wire name and payload
// tuple. Deserializing bgtask_already_done panics: that event is only
// ever synthesized locally.
func Deserialize(name string, values []any) (Event, error) {
	switch name {
	case NameUpdated:
		if len(values) != 4 {
			return nil, fmt.Errorf("events: %s expects 4 values, got %d", name, len(values))
		}
		id, err := parseTaskID(values[0])
		if err != nil {
			return nil, err
		}
		current, err := parseFloat(values[1])
		if err != nil {
			return nil, err
		}
		total, err := parseFloat(values[2])
		if err != nil {
			return nil, err
		}
		return UpdatedEvent{Task: id, Current: current, Total: total, Message: parseString(values[3])}, nil

	case NameDone, NameCancelled, NameFailed:
		if len(values) != 2 {
			return nil, fmt.Errorf("events: %s expects 2 values, got %d", name, len(values))
		}
		id, err := parseTaskID(values[0])
		if err != nil {
			return nil, err
		}
		message := parseString(values[1])
		switch name {
		case NameDone:
			return DoneEvent{Task: id, Message: message}, nil
		case NameCancelled:
			return CancelledEvent{Task: id, Message: message}, nil
		default:
			return FailedEvent{Task: id, Message: message}, nil
		}

	case NamePartialSuccess:
		if len(values) != 3 {
			return nil, fmt.Errorf("events: %s expects 3 values, got %d", name, len(values))
		}
		id, err := parseTaskID(values[0])
		if err != nil {
			return nil, err
		}
		errs, err := parseStrings(values[2])
		if err != nil {
			return nil, err
		}
		return PartialSuccessEvent{Task: id, Message: parseString(values[1]), Errors: errs}, nil

	case NameAlreadyDone:
		panic("events: AlreadyDoneEvent must not be deserialized")

	default:
		return nil, fmt.Errorf("events: unknown event name %q", name)
	}
}

func parseTaskID(v any) (types.TaskID, error) {
	s, ok := v.(string)
	if !ok {
		return types.TaskID{}, fmt.Errorf("events: task id must be a string, got %T", v)
	}
	id, err := types.ParseTaskID(s)
	if err != nil {
		return types.TaskID{}, fmt.Errorf("events: bad task id %q: %w", s, err)
	}
	return id, nil
}

func parseFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("events: expected number, got %T", v)
	}
}

func parseString(v any) string {
	s, _ := v.(string)
	return s
}

func parseStrings(v any) ([]string, error) {
	switch list := v.(type) {
	case []string:
		return list, nil
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("events: expected string list element, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("events: expected string list, got %T", v)
	}
}
