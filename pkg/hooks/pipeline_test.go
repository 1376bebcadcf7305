package hooks

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/burrow/pkg/task"
	"github.com/cuemby/burrow/pkg/types"
)

// traceHook records the order of its phases into a shared trace.
type traceHook struct {
	name      string
	trace     *[]string
	beforeErr error
	afterErr  error
}

func (h *traceHook) Before(context.Context, *TaskContext) error {
	*h.trace = append(*h.trace, h.name+".before")
	return h.beforeErr
}

func (h *traceHook) After(context.Context, *TaskContext) error {
	*h.trace = append(*h.trace, h.name+".after")
	return h.afterErr
}

func newContext() *TaskContext {
	return &TaskContext{TaskName: types.TaskCloneVFolder, TaskID: types.NewTaskID()}
}

func TestPipelineOrdering(t *testing.T) {
	var trace []string
	p := NewPipeline(
		&traceHook{name: "h1", trace: &trace},
		&traceHook{name: "h2", trace: &trace},
		&traceHook{name: "h3", trace: &trace},
	)

	err := p.Run(context.Background(), newContext(), func(context.Context) error {
		trace = append(trace, "body")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"h1.before", "h2.before", "h3.before",
		"body",
		"h3.after", "h2.after", "h1.after",
	}, trace)
}

func TestPipelineUnwindsOnBodyError(t *testing.T) {
	var trace []string
	p := NewPipeline(
		&traceHook{name: "h1", trace: &trace},
		&traceHook{name: "h2", trace: &trace},
	)

	bodyErr := errors.New("body failed")
	err := p.Run(context.Background(), newContext(), func(context.Context) error {
		return bodyErr
	})
	assert.ErrorIs(t, err, bodyErr)
	assert.Equal(t, []string{"h1.before", "h2.before", "h2.after", "h1.after"}, trace)
}

func TestPipelineUnwindsOnBodyPanic(t *testing.T) {
	var trace []string
	p := NewPipeline(
		&traceHook{name: "h1", trace: &trace},
		&traceHook{name: "h2", trace: &trace},
	)

	assert.Panics(t, func() {
		_ = p.Run(context.Background(), newContext(), func(context.Context) error {
			panic("boom")
		})
	})
	assert.Equal(t, []string{"h1.before", "h2.before", "h2.after", "h1.after"}, trace)
}

func TestPipelineAbortsOnPreFailure(t *testing.T) {
	var trace []string
	p := NewPipeline(
		&traceHook{name: "h1", trace: &trace},
		&traceHook{name: "h2", trace: &trace, beforeErr: errors.New("pre failed")},
		&traceHook{name: "h3", trace: &trace},
	)

	bodyRan := false
	err := p.Run(context.Background(), newContext(), func(context.Context) error {
		bodyRan = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, bodyRan)

	// h1 entered, so only h1 unwinds; h2's own post does not run.
	assert.Equal(t, []string{"h1.before", "h2.before", "h1.after"}, trace)
}

func TestPipelineSwallowsPostErrors(t *testing.T) {
	var trace []string
	p := NewPipeline(
		&traceHook{name: "h1", trace: &trace},
		&traceHook{name: "h2", trace: &trace, afterErr: errors.New("post failed")},
		&traceHook{name: "h3", trace: &trace},
	)

	tc := newContext()
	err := p.Run(context.Background(), tc, func(context.Context) error {
		tc.Result = task.SuccessResult{}
		return nil
	})
	require.NoError(t, err)

	// Every post phase ran despite h2's failure, and the result survived.
	assert.Equal(t, []string{
		"h1.before", "h2.before", "h3.before",
		"h3.after", "h2.after", "h1.after",
	}, trace)
	assert.Equal(t, task.SuccessResult{}, tc.Result)
}
