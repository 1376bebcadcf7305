package hooks

import (
	"context"

	"github.com/cuemby/burrow/pkg/registry"
)

// UnregisterHook deletes the task from the registry once the run has
// finished, whatever the outcome. It composes innermost: the registry
// entry is gone before the terminal event reaches subscribers, so a
// subscriber reacting to the event never observes the finished task as
// still registered.
type UnregisterHook struct {
	registry *registry.Registry
}

// NewUnregisterHook builds the hook over a registry.
func NewUnregisterHook(reg *registry.Registry) *UnregisterHook {
	return &UnregisterHook{registry: reg}
}

func (h *UnregisterHook) Before(context.Context, *TaskContext) error {
	return nil
}

func (h *UnregisterHook) After(ctx context.Context, tc *TaskContext) error {
	return h.registry.DeleteTask(ctx, tc.TaskID)
}
