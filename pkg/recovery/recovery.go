package recovery

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/registry"
	"github.com/cuemby/burrow/pkg/runner"
	"github.com/cuemby/burrow/pkg/types"
)

// Config holds recovery tunables.
type Config struct {
	// CheckInterval is the sleep between sweeps.
	CheckInterval time.Duration

	// RetryTTL is the staleness threshold: a task whose heartbeat is
	// older than this is reclaimed. Independent from the heartbeat key
	// TTL.
	RetryTTL time.Duration
}

// DefaultConfig returns the deployment defaults.
func DefaultConfig() Config {
	return Config{
		CheckInterval: types.DefaultRecoveryInterval,
		RetryTTL:      types.DefaultHeartbeatThreshold,
	}
}

// Recovery periodically sweeps this server's owner set and its server
// type's group set, reclaiming tasks whose heartbeat has gone stale.
// One long-lived loop runs per server.
type Recovery struct {
	registry   *registry.Registry
	runner     *runner.Runner
	serverID   types.ServerID
	serverType types.ServerType
	cfg        Config
	logger     zerolog.Logger

	// now is replaceable by tests.
	now func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a recovery loop for this server.
func New(reg *registry.Registry, run *runner.Runner, serverID types.ServerID, serverType types.ServerType, cfg Config) *Recovery {
	return &Recovery{
		registry:   reg,
		runner:     run,
		serverID:   serverID,
		serverType: serverType,
		cfg:        cfg,
		logger:     log.WithComponent("task-recovery"),
		now:        time.Now,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start begins the recovery loop.
func (r *Recovery) Start() {
	go r.run()
}

// Stop stops the loop and waits for the in-flight sweep to finish.
func (r *Recovery) Stop() {
	close(r.stopCh)
	<-r.doneCh
	r.logger.Info().Msg("Recovery loop stopped")
}

func (r *Recovery) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.cfg.CheckInterval)
	defer ticker.Stop()

	r.logger.Info().
		Str("server_id", string(r.serverID)).
		Str("server_type", string(r.serverType)).
		Dur("check_interval", r.cfg.CheckInterval).
		Msg("Recovery loop started")

	for {
		select {
		case <-ticker.C:
			if err := r.Sweep(context.Background()); err != nil {
				// Log error but continue
				r.logger.Error().Err(err).Msg("Recovery sweep failed")
			}
		case <-r.stopCh:
			return
		}
	}
}

// ShouldRetry reports whether a task whose last heartbeat is ts is
// stale at now: true iff more than ttl has elapsed since ts.
func ShouldRetry(ts float64, ttl time.Duration, now time.Time) bool {
	nowSeconds := float64(now.UnixNano()) / float64(time.Second)
	return nowSeconds-ts > ttl.Seconds()
}

// Sweep performs one recovery pass over the union of this server's
// owner set and its server type's group set.
func (r *Recovery) Sweep(ctx context.Context) error {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.RecoveryCycleDuration)
		metrics.RecoveryCyclesTotal.Inc()
	}()

	serverTasks, err := r.registry.ServerTasks(ctx, r.serverID)
	if err != nil {
		return err
	}
	groupTasks, err := r.registry.ServerTypeTasks(ctx, r.serverType)
	if err != nil {
		return err
	}

	seen := make(map[types.TaskID]bool, len(serverTasks)+len(groupTasks))
	union := make([]types.TaskID, 0, len(serverTasks)+len(groupTasks))
	for _, id := range append(serverTasks, groupTasks...) {
		if !seen[id] {
			seen[id] = true
			union = append(union, id)
		}
	}

	heartbeats, err := r.registry.Heartbeats(ctx, union)
	if err != nil {
		return err
	}

	now := r.now()
	for id, ts := range heartbeats {
		if !ShouldRetry(ts, r.cfg.RetryTTL, now) {
			continue
		}
		if err := r.reclaim(ctx, id); err != nil {
			r.logger.Error().Err(err).Str("task_id", id.String()).Msg("Failed to reclaim stale task")
		}
	}

	// Ids missing from the heartbeat read either vanished or cannot be
	// parsed; unparsable records are dropped as unrecoverable.
	for _, id := range union {
		if _, ok := heartbeats[id]; ok {
			continue
		}
		if _, err := r.registry.GetTask(ctx, id); errors.Is(err, types.ErrInvalidMetadata) {
			if err := r.reclaim(ctx, id); err != nil {
				r.logger.Error().Err(err).Str("task_id", id.String()).Msg("Failed to drop unparsable task")
			}
		}
	}
	return nil
}

// reclaim takes over one stale task: it rewrites the owner, advances
// the retry counter and starts a new runner, or fails the task
// terminally when its retries are exhausted.
func (r *Recovery) reclaim(ctx context.Context, id types.TaskID) error {
	m, err := r.registry.GetTask(ctx, id)
	switch {
	case errors.Is(err, types.ErrTaskNotFound):
		r.logger.Warn().Str("task_id", id.String()).Msg("Stale task metadata not found, skipping retry")
		return nil
	case errors.Is(err, types.ErrInvalidMetadata):
		// Unrecoverable record; drop it so the sweep converges.
		r.logger.Warn().Str("task_id", id.String()).Msg("Dropping task with unparsable metadata")
		metrics.UnrecoverableTasksTotal.Inc()
		return r.registry.DeleteTask(ctx, id)
	case err != nil:
		return err
	}

	if m.RetriesExhausted() {
		r.logger.Warn().
			Str("task_id", id.String()).
			Str("task_name", string(m.TaskName)).
			Int("retry_count", m.RetryCount).
			Msg("Task retries exhausted, failing terminally")
		metrics.TasksExhaustedTotal.WithLabelValues(string(m.TaskName)).Inc()
		r.runner.Fail(ctx, m, types.NewBgtaskError(
			types.ErrorDetailInternalError,
			"task failed after %d retries", m.RetryCount,
		))
		return nil
	}

	reclaimed := m.Reclaimed(r.serverID, float64(r.now().UnixNano())/float64(time.Second))
	if err := r.registry.UpdateTask(ctx, reclaimed); err != nil {
		return err
	}
	if err := r.registry.AddServerTask(ctx, r.serverID, id); err != nil {
		return err
	}

	r.logger.Info().
		Str("task_id", id.String()).
		Str("task_name", string(m.TaskName)).
		Str("previous_server", string(m.ServerID)).
		Int("retry_count", reclaimed.RetryCount).
		Msg("Reclaimed stale task")
	metrics.TasksReclaimedTotal.WithLabelValues(string(m.TaskName)).Inc()

	// The runner registers its handle in the shared task map, replacing
	// any handle left behind by the previous owner.
	r.runner.Start(id)
	return nil
}
