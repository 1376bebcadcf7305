package task

import (
	"errors"
	"fmt"

	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/types"
)

// TaskResult is the terminal outcome of one runner execution. Each
// variant projects to a status, an optional error code, and a terminal
// broadcast event.
type TaskResult interface {
	// Status returns the task status this result implies.
	Status() types.Status

	// ErrorCode returns the structured error code, or nil on success.
	ErrorCode() *types.ErrorCode

	// BroadcastEvent projects the result to its terminal event.
	BroadcastEvent(taskID types.TaskID) events.Event
}

// SuccessResult carries the handler-defined result value.
type SuccessResult struct {
	Result Result
}

func (r SuccessResult) Status() types.Status {
	return types.StatusDone
}

func (r SuccessResult) ErrorCode() *types.ErrorCode {
	return nil
}

func (r SuccessResult) BroadcastEvent(taskID types.TaskID) events.Event {
	message := "Task completed successfully"
	if r.Result != nil {
		message = r.Result.Message()
	}
	return events.DoneEvent{Task: taskID, Message: message}
}

// CancelledResult records cooperative cancellation.
type CancelledResult struct {
	Message string
}

func (r CancelledResult) Status() types.Status {
	return types.StatusCancelled
}

func (r CancelledResult) ErrorCode() *types.ErrorCode {
	code := types.CancelledErrorCode()
	return &code
}

func (r CancelledResult) BroadcastEvent(taskID types.TaskID) events.Event {
	message := r.Message
	if message == "" {
		message = "Task cancelled"
	}
	return events.CancelledEvent{Task: taskID, Message: message}
}

// FailedResult wraps the error that escaped the handler. The error's
// own code is preserved when it carries one.
type FailedResult struct {
	Err error
}

func (r FailedResult) Status() types.Status {
	return types.StatusFailed
}

func (r FailedResult) ErrorCode() *types.ErrorCode {
	var coded types.CodedError
	if errors.As(r.Err, &coded) {
		code := coded.ErrorCode()
		return &code
	}
	code := types.InternalErrorCode()
	return &code
}

func (r FailedResult) BroadcastEvent(taskID types.TaskID) events.Event {
	return events.FailedEvent{Task: taskID, Message: fmt.Sprintf("%v", r.Err)}
}

// PartialSuccessResult records completion where some sub-operations
// failed. The status projects to DONE until clients understand
// partial success; the variant stays distinct so the projection can
// change without touching callers.
type PartialSuccessResult struct {
	Message string
	Errors  []string
}

func (r PartialSuccessResult) Status() types.Status {
	return types.StatusDone
}

func (r PartialSuccessResult) ErrorCode() *types.ErrorCode {
	return nil
}

func (r PartialSuccessResult) BroadcastEvent(taskID types.TaskID) events.Event {
	return events.PartialSuccessEvent{Task: taskID, Message: r.Message, Errors: r.Errors}
}
