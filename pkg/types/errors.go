package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the background task core.
var (
	// ErrTaskNotFound indicates the task metadata key is absent from
	// the KV store.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidMetadata indicates persisted task metadata could not be
	// deserialized. Callers treat such records as unrecoverable.
	ErrInvalidMetadata = errors.New("invalid task metadata")

	// ErrNotRegistered indicates no handler is registered for a task
	// name in this process.
	ErrNotRegistered = errors.New("task handler not registered")
)

// Error code components used in broadcast results and metrics.
const (
	ErrorDomainBgtask = "BGTASK"

	ErrorOperationExecute = "EXECUTE"

	ErrorDetailCanceled      = "CANCELED"
	ErrorDetailInternalError = "INTERNAL_ERROR"
	ErrorDetailNotFound      = "NOT_FOUND"
)

// ErrorCode is a (domain, operation, detail) triple describing where and
// how an operation failed.
type ErrorCode struct {
	Domain    string
	Operation string
	Detail    string
}

// String renders the triple as "DOMAIN/OPERATION/DETAIL".
func (c ErrorCode) String() string {
	return c.Domain + "/" + c.Operation + "/" + c.Detail
}

// CancelledErrorCode is the code attached to cancelled task results.
func CancelledErrorCode() ErrorCode {
	return ErrorCode{
		Domain:    ErrorDomainBgtask,
		Operation: ErrorOperationExecute,
		Detail:    ErrorDetailCanceled,
	}
}

// InternalErrorCode is the generic code for failures that carry no
// structured code of their own.
func InternalErrorCode() ErrorCode {
	return ErrorCode{
		Domain:    ErrorDomainBgtask,
		Operation: ErrorOperationExecute,
		Detail:    ErrorDetailInternalError,
	}
}

// CodedError is implemented by errors that carry a structured error
// code. Failed task results preserve the code when present.
type CodedError interface {
	error
	ErrorCode() ErrorCode
}

// BgtaskError is a plain CodedError implementation for the task core.
type BgtaskError struct {
	Code    ErrorCode
	Message string
}

// NewBgtaskError builds a BgtaskError with the given detail and message.
func NewBgtaskError(detail, format string, args ...any) *BgtaskError {
	return &BgtaskError{
		Code: ErrorCode{
			Domain:    ErrorDomainBgtask,
			Operation: ErrorOperationExecute,
			Detail:    detail,
		},
		Message: fmt.Sprintf(format, args...),
	}
}

func (e *BgtaskError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the structured code.
func (e *BgtaskError) ErrorCode() ErrorCode {
	return e.Code
}
