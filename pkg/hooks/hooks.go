package hooks

import (
	"context"
	"time"

	"github.com/cuemby/burrow/pkg/task"
	"github.com/cuemby/burrow/pkg/types"
)

// TaskContext travels through the hook pipeline around one task run.
// The runner populates Result before the pipeline unwinds so post
// phases observe the outcome.
type TaskContext struct {
	TaskName types.TaskName
	TaskID   types.TaskID
	Result   task.TaskResult

	// startedAt is stamped by the metric hook's pre phase.
	startedAt time.Time
}

// Hook wraps a task run with a pre and a post phase. The pipeline
// guarantees that every hook whose pre phase ran has its post phase run
// in reverse order, even when the body fails or panics. Post-phase
// errors are logged and swallowed by the pipeline; they never mask the
// task's own result.
type Hook interface {
	// Before runs before the task body. An error aborts the run;
	// already-entered hooks still unwind.
	Before(ctx context.Context, tc *TaskContext) error

	// After runs after the task body, in reverse registration order.
	After(ctx context.Context, tc *TaskContext) error
}
