package runner

import (
	"context"
	"sync"

	"github.com/cuemby/burrow/pkg/types"
)

// Handle tracks one in-flight task run. Cancelling it delivers a
// cooperative cancellation signal to the handler.
type Handle struct {
	taskID types.TaskID
	cancel context.CancelFunc
	done   chan struct{}
}

// TaskID returns the id of the task this handle runs.
func (h *Handle) TaskID() types.TaskID {
	return h.taskID
}

// Cancel requests cooperative cancellation of the run.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done is closed when the run has fully finished, including hook
// unwinding.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the run finishes or ctx expires.
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Map is the in-process index of outstanding task handles, shared by
// the submitter and the recovery loop. It is a lookup cache, not a
// source of truth: authoritative task state lives in the KV store.
type Map struct {
	mu    sync.Mutex
	tasks map[types.TaskID]*Handle
}

// NewMap creates an empty handle map.
func NewMap() *Map {
	return &Map{
		tasks: make(map[types.TaskID]*Handle),
	}
}

// Put inserts a handle, returning the handle it replaced, if any. A
// replaced handle is by construction either finished or orphaned by a
// crashed owner.
func (m *Map) Put(h *Handle) *Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	prev := m.tasks[h.taskID]
	m.tasks[h.taskID] = h
	return prev
}

// Get returns the handle for a task id, if present.
func (m *Map) Get(id types.TaskID) (*Handle, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h, ok := m.tasks[id]
	return h, ok
}

// Remove deletes the entry for id only while it still points at h, so
// a finished run never evicts the handle that replaced it.
func (m *Map) Remove(id types.TaskID, h *Handle) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tasks[id] == h {
		delete(m.tasks, id)
	}
}

// Len returns the number of tracked handles.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Handles returns a snapshot of all tracked handles.
func (m *Map) Handles() []*Handle {
	m.mu.Lock()
	defer m.mu.Unlock()

	handles := make([]*Handle, 0, len(m.tasks))
	for _, h := range m.tasks {
		handles = append(handles, h)
	}
	return handles
}
