package hooks

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/cuemby/burrow/pkg/log"
)

// Pipeline composes hooks around a task body. Pre phases run in
// declared order, post phases in reverse, with the same guarantee as
// nested try/finally blocks: a failing or panicking body never skips
// the post phase of a hook whose pre phase ran.
type Pipeline struct {
	hooks  []Hook
	logger zerolog.Logger
}

// NewPipeline builds a pipeline over the given hooks, outermost first.
func NewPipeline(hooks ...Hook) *Pipeline {
	return &Pipeline{
		hooks:  hooks,
		logger: log.WithComponent("hook-pipeline"),
	}
}

// Run executes body inside the hook stack. The body's error is
// returned after all entered hooks have unwound; a pre-phase error
// aborts the run without invoking the body.
func (p *Pipeline) Run(ctx context.Context, tc *TaskContext, body func(ctx context.Context) error) (err error) {
	entered := 0

	defer func() {
		// Post phases run on a context detached from the body's
		// cancellation, so a cancelled run still unwinds its side effects.
		unwindCtx := context.WithoutCancel(ctx)
		for i := entered - 1; i >= 0; i-- {
			if hookErr := p.hooks[i].After(unwindCtx, tc); hookErr != nil {
				p.logger.Warn().
					Err(hookErr).
					Str("task_id", tc.TaskID.String()).
					Str("hook", fmt.Sprintf("%T", p.hooks[i])).
					Msg("Hook post phase failed")
			}
		}
	}()

	for _, hook := range p.hooks {
		if hookErr := hook.Before(ctx, tc); hookErr != nil {
			return fmt.Errorf("hook %T pre phase failed: %w", hook, hookErr)
		}
		entered++
	}

	return body(ctx)
}
