package types

import (
	"time"

	"github.com/google/uuid"
)

// TaskID uniquely identifies a background task for its whole lifetime,
// including retries and hand-offs between servers.
type TaskID uuid.UUID

// NewTaskID generates a random task ID.
func NewTaskID() TaskID {
	return TaskID(uuid.New())
}

// ParseTaskID parses a task ID from its canonical string form.
func ParseTaskID(s string) (TaskID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return TaskID{}, err
	}
	return TaskID(id), nil
}

// String returns the canonical UUID string form.
func (id TaskID) String() string {
	return uuid.UUID(id).String()
}

// MarshalText implements encoding.TextMarshaler.
func (id TaskID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *TaskID) UnmarshalText(data []byte) error {
	parsed, err := uuid.ParseBytes(data)
	if err != nil {
		return err
	}
	*id = TaskID(parsed)
	return nil
}

// ServerID identifies a single manager process instance.
type ServerID string

// ServerType is the coarse class of a server process. A server belongs
// to exactly one type.
type ServerType string

const (
	ServerTypeManager         ServerType = "manager"
	ServerTypeAgentController ServerType = "agent-controller"
)

// TaskName is a label from the closed set of registered task kinds.
// Unknown names are rejected at submit and at revive.
type TaskName string

const (
	TaskCloneVFolder  TaskName = "clone_vfolder"
	TaskDeleteVFolder TaskName = "delete_vfolder"
	TaskPushImage     TaskName = "push_image"
)

// Status represents the observable state of a background task.
type Status string

const (
	StatusStarted        Status = "bgtask_started"
	StatusUpdated        Status = "bgtask_updated"
	StatusDone           Status = "bgtask_done"
	StatusCancelled      Status = "bgtask_cancelled"
	StatusFailed         Status = "bgtask_failed"
	StatusPartialSuccess Status = "bgtask_partial_success"
	StatusUnknown        Status = "bgtask_unknown"
)

// Finished reports whether the status is terminal.
func (s Status) Finished() bool {
	switch s {
	case StatusDone, StatusCancelled, StatusFailed, StatusPartialSuccess:
		return true
	}
	return false
}

// Now returns the current wall clock as fractional seconds since the
// Unix epoch, the timestamp representation used in task metadata.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
