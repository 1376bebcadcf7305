package manager

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/metrics"
	"github.com/cuemby/burrow/pkg/recovery"
	"github.com/cuemby/burrow/pkg/registry"
	"github.com/cuemby/burrow/pkg/runner"
	"github.com/cuemby/burrow/pkg/storage"
	"github.com/cuemby/burrow/pkg/task"
	"github.com/cuemby/burrow/pkg/types"
)

// Config holds the settings of one manager process.
type Config struct {
	ServerID   types.ServerID   `yaml:"server_id"`
	ServerType types.ServerType `yaml:"server_type"`

	TaskTTL           time.Duration `yaml:"task_ttl"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	HeartbeatTTL      time.Duration `yaml:"heartbeat_ttl"`
	RetryTTL          time.Duration `yaml:"retry_ttl"`
	RecoveryInterval  time.Duration `yaml:"recovery_interval"`
	MaxRetries        int           `yaml:"max_retries"`
}

// DefaultConfig returns the deployment defaults for a manager server.
func DefaultConfig(serverID types.ServerID) Config {
	return Config{
		ServerID:          serverID,
		ServerType:        types.ServerTypeManager,
		TaskTTL:           types.DefaultTaskTTL,
		HeartbeatInterval: types.DefaultHeartbeatInterval,
		HeartbeatTTL:      types.DefaultHeartbeatTTL,
		RetryTTL:          types.DefaultHeartbeatThreshold,
		RecoveryInterval:  types.DefaultRecoveryInterval,
		MaxRetries:        types.DefaultMaxRetries,
	}
}

// Manager owns the background task subsystem of one server: the
// registry over the shared store, the handler registry, the event
// broker, the runner and the recovery loop.
type Manager struct {
	cfg      Config
	store    storage.Store
	registry *registry.Registry
	handlers *task.HandlerRegistry
	broker   *events.Broker
	tasks    *runner.Map
	runner   *runner.Runner
	recovery *recovery.Recovery
	logger   zerolog.Logger
}

// New wires the subsystem over a connected store.
func New(cfg Config, store storage.Store) *Manager {
	broker := events.NewBroker()
	tasks := runner.NewMap()
	handlers := task.NewHandlerRegistry()

	reg := registry.New(store, registry.Config{
		HeartbeatTTL: cfg.HeartbeatTTL,
	})
	run := runner.New(reg, handlers, broker, metrics.NewTaskObserver(), tasks, runner.Config{
		HeartbeatInterval: cfg.HeartbeatInterval,
	})
	rec := recovery.New(reg, run, cfg.ServerID, cfg.ServerType, recovery.Config{
		CheckInterval: cfg.RecoveryInterval,
		RetryTTL:      cfg.RetryTTL,
	})

	return &Manager{
		cfg:      cfg,
		store:    store,
		registry: reg,
		handlers: handlers,
		broker:   broker,
		tasks:    tasks,
		runner:   run,
		recovery: rec,
		logger:   log.WithComponent("manager"),
	}
}

// RegisterHandler adds a task handler to this server's registry.
func (m *Manager) RegisterHandler(h task.Handler) {
	m.handlers.Register(h)
}

// Start launches the recovery loop.
func (m *Manager) Start() {
	m.recovery.Start()
	m.logger.Info().
		Str("server_id", string(m.cfg.ServerID)).
		Str("server_type", string(m.cfg.ServerType)).
		Msg("Background task manager started")
}

// Submit registers a new background task and schedules it on this
// server. It returns the assigned task id; the caller observes progress
// and completion on the broadcast channel.
func (m *Manager) Submit(ctx context.Context, name types.TaskName, args task.Args, tags ...string) (types.TaskID, error) {
	if _, err := m.handlers.Get(name); err != nil {
		return types.TaskID{}, err
	}
	if err := args.Validate(); err != nil {
		return types.TaskID{}, fmt.Errorf("invalid arguments for task %q: %w", name, err)
	}

	body, err := task.DecodeBody(args)
	if err != nil {
		return types.TaskID{}, err
	}

	md := types.NewTaskMetadata(name, body, m.cfg.ServerID, m.cfg.ServerType, tags)
	md.MaxRetries = m.cfg.MaxRetries
	md.TTLSeconds = int64(m.cfg.TaskTTL.Seconds())

	if err := m.registry.SaveTask(ctx, md); err != nil {
		return types.TaskID{}, fmt.Errorf("failed to register task %s: %w", md.TaskID, err)
	}

	m.runner.StartNew(md, args)

	m.logger.Info().
		Str("task_id", md.TaskID.String()).
		Str("task_name", string(name)).
		Msg("Submitted background task")
	return md.TaskID, nil
}

// Subscribe attaches an event subscriber to the broker.
func (m *Manager) Subscribe() events.Subscriber {
	return m.broker.Subscribe()
}

// Unsubscribe detaches a subscriber.
func (m *Manager) Unsubscribe(sub events.Subscriber) {
	m.broker.Unsubscribe(sub)
}

// AlreadyDone synthesizes the catch-up event for a task that reached a
// terminal state before the caller subscribed.
func (m *Manager) AlreadyDone(taskID types.TaskID) (events.AlreadyDoneEvent, bool) {
	return m.broker.AlreadyDone(taskID)
}

// Handlers exposes the handler registry.
func (m *Manager) Handlers() *task.HandlerRegistry {
	return m.handlers
}

// Registry exposes the task registry, e.g. for status queries.
func (m *Manager) Registry() *registry.Registry {
	return m.registry
}

// OngoingTasks returns the number of runs in flight on this server.
func (m *Manager) OngoingTasks() int {
	return m.tasks.Len()
}

// Shutdown stops the recovery loop, cancels in-flight runs, and waits
// for them to unwind their hook pipelines or for ctx to expire.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.recovery.Stop()

	handles := m.tasks.Handles()
	for _, h := range handles {
		h.Cancel()
	}

	g, waitCtx := errgroup.WithContext(ctx)
	for _, h := range handles {
		h := h
		g.Go(func() error {
			return h.Wait(waitCtx)
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("shutdown wait: %w", err)
	}

	m.logger.Info().Int("drained", len(handles)).Msg("Background task manager stopped")
	return nil
}
