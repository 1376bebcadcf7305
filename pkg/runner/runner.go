package runner

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/hooks"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/registry"
	"github.com/cuemby/burrow/pkg/task"
	"github.com/cuemby/burrow/pkg/types"
)

// Config holds runner tunables.
type Config struct {
	// HeartbeatInterval is how often a running task rewrites its
	// heartbeat timestamp.
	HeartbeatInterval time.Duration
}

// DefaultConfig returns the deployment defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatInterval: types.DefaultHeartbeatInterval,
	}
}

// Runner executes background tasks inside the hook pipeline. It never
// lets an error escape a run: every outcome is captured in the task
// context's result and projected to subscribers by the hooks.
type Runner struct {
	registry *registry.Registry
	handlers *task.HandlerRegistry
	producer events.Producer
	observer hooks.Observer
	tasks    *Map
	cfg      Config
	logger   zerolog.Logger
}

// New wires a runner over its collaborators. Started handles are
// registered in tasks and removed when their run finishes.
func New(reg *registry.Registry, handlers *task.HandlerRegistry, producer events.Producer, observer hooks.Observer, tasks *Map, cfg Config) *Runner {
	return &Runner{
		registry: reg,
		handlers: handlers,
		producer: producer,
		observer: observer,
		tasks:    tasks,
		cfg:      cfg,
		logger:   log.WithComponent("task-runner"),
	}
}

func (r *Runner) pipeline() *hooks.Pipeline {
	return hooks.NewPipeline(
		hooks.NewMetricHook(r.observer),
		hooks.NewEventHook(r.producer),
		hooks.NewUnregisterHook(r.registry),
	)
}

// Start launches a run for a persisted task id and returns its handle.
// Used at revival and by the recovery loop.
func (r *Runner) Start(id types.TaskID) *Handle {
	return r.spawn(id, func(ctx context.Context) {
		r.Run(ctx, id)
	})
}

// StartNew launches a run for a freshly submitted task whose arguments
// are already typed.
func (r *Runner) StartNew(m types.TaskMetadata, args task.Args) *Handle {
	return r.spawn(m.TaskID, func(ctx context.Context) {
		r.runBody(ctx, m, func(ctx context.Context, reporter task.Reporter) (task.Result, error) {
			return r.handlers.ExecuteNewTask(ctx, reporter, m.TaskName, args)
		})
	})
}

func (r *Runner) spawn(id types.TaskID, run func(ctx context.Context)) *Handle {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handle{
		taskID: id,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	r.tasks.Put(h)

	go func() {
		defer close(h.done)
		defer cancel()
		defer r.tasks.Remove(id, h)
		run(ctx)
	}()
	return h
}

// Run executes a persisted task synchronously: it fetches the metadata,
// revives the handler arguments from the stored body, and drives the
// run through the hook pipeline.
func (r *Runner) Run(ctx context.Context, id types.TaskID) {
	m, err := r.registry.GetTask(ctx, id)
	if err != nil {
		r.logger.Error().Err(err).Str("task_id", id.String()).Msg("Cannot run task without metadata")
		return
	}

	r.runBody(ctx, m, func(ctx context.Context, reporter task.Reporter) (task.Result, error) {
		return r.handlers.ReviveTask(ctx, reporter, m.TaskName, m.Body)
	})
}

// Fail records a terminal failed result for a task through the full
// hook pipeline without invoking its handler. The recovery loop uses
// this for tasks whose retries are exhausted.
func (r *Runner) Fail(ctx context.Context, m types.TaskMetadata, cause error) {
	tc := &hooks.TaskContext{TaskName: m.TaskName, TaskID: m.TaskID}
	_ = r.pipeline().Run(ctx, tc, func(context.Context) error {
		tc.Result = task.FailedResult{Err: cause}
		return nil
	})
}

type invokeFunc func(ctx context.Context, reporter task.Reporter) (task.Result, error)

func (r *Runner) runBody(ctx context.Context, m types.TaskMetadata, invoke invokeFunc) {
	logger := r.logger.With().
		Str("task_id", m.TaskID.String()).
		Str("task_name", string(m.TaskName)).
		Logger()

	stopHeartbeat := r.startHeartbeat(m.TaskID, logger)
	defer stopHeartbeat()

	reporter := task.NewEventReporter(r.producer, m.TaskID)
	tc := &hooks.TaskContext{TaskName: m.TaskName, TaskID: m.TaskID}

	_ = r.pipeline().Run(ctx, tc, func(ctx context.Context) error {
		result, err := invoke(ctx, reporter)
		switch {
		case err == nil:
			tc.Result = task.SuccessResult{Result: result}
		case errors.Is(err, context.Canceled):
			tc.Result = task.CancelledResult{}
			logger.Info().Msg("Task cancelled")
		default:
			tc.Result = task.FailedResult{Err: err}
			logger.Error().Err(err).Msg("Task failed")
		}
		return nil
	})
}

// startHeartbeat launches the heartbeat emitter goroutine and returns
// the function that stops it and waits for it to exit. Heartbeats use a
// background context: a cancelled run still heartbeats until its hooks
// finish unwinding.
func (r *Runner) startHeartbeat(id types.TaskID, logger zerolog.Logger) func() {
	stopCh := make(chan struct{})
	doneCh := make(chan struct{})

	go func() {
		defer close(doneCh)

		ticker := time.NewTicker(r.cfg.HeartbeatInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := r.registry.UpdateHeartbeat(context.Background(), id); err != nil {
					metrics.HeartbeatFailuresTotal.Inc()
					logger.Warn().Err(err).Msg("Heartbeat write failed")
				}
			case <-stopCh:
				return
			}
		}
	}()

	return func() {
		close(stopCh)
		<-doneCh
	}
}
