package types

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// TaskMetadata is the persisted descriptor of a background task. It is
// treated as an immutable value: mutations such as reclaim or heartbeat
// produce a new value which is written back as a whole.
type TaskMetadata struct {
	TaskID     TaskID         `json:"task_id"`
	TaskName   TaskName       `json:"task_name"`
	Body       map[string]any `json:"body"`
	ServerID   ServerID       `json:"server_id"`
	ServerType ServerType     `json:"server_type"`
	Tags       []string       `json:"tags"`

	RetryCount int     `json:"retry_count"`
	MaxRetries int     `json:"max_retries"`
	TTLSeconds int64   `json:"ttl_seconds"`
	CreatedAt  float64 `json:"created_at"`
	UpdatedAt  float64 `json:"updated_at"`
}

// NewTaskMetadata builds metadata for a freshly submitted task with the
// default retry and TTL settings.
func NewTaskMetadata(name TaskName, body map[string]any, serverID ServerID, serverType ServerType, tags []string) TaskMetadata {
	now := Now()
	if tags == nil {
		tags = []string{}
	}
	if body == nil {
		body = map[string]any{}
	}
	return TaskMetadata{
		TaskID:     NewTaskID(),
		TaskName:   name,
		Body:       body,
		ServerID:   serverID,
		ServerType: serverType,
		Tags:       tags,
		RetryCount: 0,
		MaxRetries: DefaultMaxRetries,
		TTLSeconds: int64(DefaultTaskTTL.Seconds()),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Reclaimed returns a copy claimed by the given server with the retry
// counter advanced and the heartbeat refreshed.
func (m TaskMetadata) Reclaimed(serverID ServerID, now float64) TaskMetadata {
	m.ServerID = serverID
	m.RetryCount++
	m.UpdatedAt = now
	return m
}

// Touched returns a copy with the heartbeat timestamp refreshed.
func (m TaskMetadata) Touched(now float64) TaskMetadata {
	m.UpdatedAt = now
	return m
}

// RetriesExhausted reports whether the task may not be reclaimed again.
func (m TaskMetadata) RetriesExhausted() bool {
	return m.RetryCount >= m.MaxRetries
}

// ToJSON serializes the metadata for the KV store.
func (m TaskMetadata) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// taskMetadataWire mirrors TaskMetadata with pointer fields so that
// absent required keys can be told apart from zero values.
type taskMetadataWire struct {
	TaskID     *TaskID         `json:"task_id"`
	TaskName   *TaskName       `json:"task_name"`
	Body       *map[string]any `json:"body"`
	ServerID   *ServerID       `json:"server_id"`
	ServerType ServerType      `json:"server_type"`
	Tags       []string        `json:"tags"`
	RetryCount int             `json:"retry_count"`
	MaxRetries int             `json:"max_retries"`
	TTLSeconds int64           `json:"ttl_seconds"`
	CreatedAt  float64         `json:"created_at"`
	UpdatedAt  float64         `json:"updated_at"`
}

// ParseTaskMetadata deserializes metadata read from the KV store. The
// decode is strict: unknown keys, type mismatches, and missing required
// fields all yield ErrInvalidMetadata.
func ParseTaskMetadata(data []byte) (TaskMetadata, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()

	var wire taskMetadataWire
	if err := dec.Decode(&wire); err != nil {
		return TaskMetadata{}, fmt.Errorf("%w: %v", ErrInvalidMetadata, err)
	}
	switch {
	case wire.TaskID == nil:
		return TaskMetadata{}, fmt.Errorf("%w: missing task_id", ErrInvalidMetadata)
	case wire.TaskName == nil:
		return TaskMetadata{}, fmt.Errorf("%w: missing task_name", ErrInvalidMetadata)
	case wire.Body == nil:
		return TaskMetadata{}, fmt.Errorf("%w: missing body", ErrInvalidMetadata)
	case wire.ServerID == nil:
		return TaskMetadata{}, fmt.Errorf("%w: missing server_id", ErrInvalidMetadata)
	}

	tags := wire.Tags
	if tags == nil {
		tags = []string{}
	}
	return TaskMetadata{
		TaskID:     *wire.TaskID,
		TaskName:   *wire.TaskName,
		Body:       *wire.Body,
		ServerID:   *wire.ServerID,
		ServerType: wire.ServerType,
		Tags:       tags,
		RetryCount: wire.RetryCount,
		MaxRetries: wire.MaxRetries,
		TTLSeconds: wire.TTLSeconds,
		CreatedAt:  wire.CreatedAt,
		UpdatedAt:  wire.UpdatedAt,
	}, nil
}
