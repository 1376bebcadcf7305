package registry

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/cuemby/burrow/pkg/log"
	"github.com/cuemby/burrow/pkg/storage"
	"github.com/cuemby/burrow/pkg/types"
)

// Key prefixes in the shared store.
const (
	taskKeyPrefix        = "bgtask:task"
	serverKeyPrefix      = "bgtask:server"
	serverGroupKeyPrefix = "bgtask:server_group"
	heartbeatKeyPrefix   = "bgtask:heartbeat"
)

// Config holds registry tunables.
type Config struct {
	// HeartbeatTTL is applied to metadata rewritten by heartbeats and
	// to the dedicated heartbeat keys.
	HeartbeatTTL time.Duration
}

// DefaultConfig returns the deployment defaults.
func DefaultConfig() Config {
	return Config{
		HeartbeatTTL: types.DefaultHeartbeatTTL,
	}
}

// Registry persists task metadata in the shared store and maintains the
// per-server and per-server-type index sets. It is the authoritative
// record of outstanding background tasks; the in-process runner map is
// only a lookup cache.
type Registry struct {
	store  storage.Store
	cfg    Config
	logger zerolog.Logger
}

// New creates a registry over the given store.
func New(store storage.Store, cfg Config) *Registry {
	return &Registry{
		store:  store,
		cfg:    cfg,
		logger: log.WithComponent("task-registry"),
	}
}

func taskKey(id types.TaskID) string {
	return taskKeyPrefix + ":" + id.String()
}

func serverKey(id types.ServerID) string {
	return serverKeyPrefix + ":" + string(id)
}

func serverGroupKey(t types.ServerType) string {
	return serverGroupKeyPrefix + ":" + string(t)
}

func heartbeatKey(id types.TaskID) string {
	return heartbeatKeyPrefix + ":" + id.String()
}

// SaveTask writes the metadata and adds the task to both index sets,
// refreshing the sets' TTLs. Membership is idempotent, so a crashed and
// repeated save converges.
func (r *Registry) SaveTask(ctx context.Context, m types.TaskMetadata) error {
	data, err := m.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize task %s: %w", m.TaskID, err)
	}

	ttl := time.Duration(m.TTLSeconds) * time.Second
	if err := r.store.Set(ctx, taskKey(m.TaskID), string(data), ttl); err != nil {
		return err
	}

	groupKey := serverGroupKey(m.ServerType)
	if err := r.store.SetAdd(ctx, groupKey, m.TaskID.String()); err != nil {
		return err
	}
	if err := r.store.Expire(ctx, groupKey, ttl); err != nil {
		return err
	}

	ownerKey := serverKey(m.ServerID)
	if err := r.store.SetAdd(ctx, ownerKey, m.TaskID.String()); err != nil {
		return err
	}
	if err := r.store.Expire(ctx, ownerKey, ttl); err != nil {
		return err
	}

	r.logger.Debug().
		Str("task_id", m.TaskID.String()).
		Str("task_name", string(m.TaskName)).
		Str("server_id", string(m.ServerID)).
		Str("server_type", string(m.ServerType)).
		Msg("Registered task")
	return nil
}

// GetTask reads a task's metadata. It returns ErrTaskNotFound for an
// absent key and ErrInvalidMetadata for a record that cannot be parsed.
func (r *Registry) GetTask(ctx context.Context, id types.TaskID) (types.TaskMetadata, error) {
	data, ok, err := r.store.Get(ctx, taskKey(id))
	if err != nil {
		return types.TaskMetadata{}, err
	}
	if !ok {
		return types.TaskMetadata{}, fmt.Errorf("task %s: %w", id, types.ErrTaskNotFound)
	}

	m, err := types.ParseTaskMetadata([]byte(data))
	if err != nil {
		return types.TaskMetadata{}, fmt.Errorf("task %s: %w", id, err)
	}
	return m, nil
}

// UpdateTask overwrites the metadata record. Index sets are not touched;
// a reclaim pairs this with AddServerTask on the new owner.
func (r *Registry) UpdateTask(ctx context.Context, m types.TaskMetadata) error {
	data, err := m.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize task %s: %w", m.TaskID, err)
	}

	ttl := time.Duration(m.TTLSeconds) * time.Second
	if err := r.store.Set(ctx, taskKey(m.TaskID), string(data), ttl); err != nil {
		return err
	}

	r.logger.Debug().
		Str("task_id", m.TaskID.String()).
		Int("retry_count", m.RetryCount).
		Int("max_retries", m.MaxRetries).
		Msg("Updated task")
	return nil
}

// AddServerTask adds the task to a server's owner set. Used when a
// reclaim moves ownership.
func (r *Registry) AddServerTask(ctx context.Context, serverID types.ServerID, id types.TaskID) error {
	key := serverKey(serverID)
	if err := r.store.SetAdd(ctx, key, id.String()); err != nil {
		return err
	}
	return r.store.Expire(ctx, key, types.DefaultTaskTTL)
}

// DeleteTask removes the task from both index sets and deletes its
// metadata and heartbeat keys. The metadata is read first to learn the
// owning server and type; a crash between steps leaves at most an
// orphan set entry, which recovery revalidates before acting on.
// Deleting an absent task is not an error.
func (r *Registry) DeleteTask(ctx context.Context, id types.TaskID) error {
	m, err := r.GetTask(ctx, id)
	switch {
	case err == nil:
		if err := r.store.SetRemove(ctx, serverGroupKey(m.ServerType), id.String()); err != nil {
			return err
		}
		if err := r.store.SetRemove(ctx, serverKey(m.ServerID), id.String()); err != nil {
			return err
		}
	case errors.Is(err, types.ErrTaskNotFound), errors.Is(err, types.ErrInvalidMetadata):
		// Nothing to unindex; fall through to key deletion.
	default:
		return err
	}

	if err := r.store.Delete(ctx, taskKey(id), heartbeatKey(id)); err != nil {
		return err
	}

	r.logger.Debug().Str("task_id", id.String()).Msg("Removed task")
	return nil
}

// ServerTasks returns the ids in a server's owner set.
func (r *Registry) ServerTasks(ctx context.Context, serverID types.ServerID) ([]types.TaskID, error) {
	return r.taskSet(ctx, serverKey(serverID))
}

// ServerTypeTasks returns the ids in a server type's group set.
func (r *Registry) ServerTypeTasks(ctx context.Context, serverType types.ServerType) ([]types.TaskID, error) {
	return r.taskSet(ctx, serverGroupKey(serverType))
}

func (r *Registry) taskSet(ctx context.Context, key string) ([]types.TaskID, error) {
	members, err := r.store.SetMembers(ctx, key)
	if err != nil {
		return nil, err
	}

	ids := make([]types.TaskID, 0, len(members))
	for _, member := range members {
		id, err := types.ParseTaskID(member)
		if err != nil {
			r.logger.Warn().Str("member", member).Str("key", key).Msg("Skipping malformed task id in index set")
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// UpdateHeartbeat refreshes the task's updated_at timestamp, rewriting
// the metadata with the heartbeat TTL and mirroring the timestamp into
// the dedicated heartbeat key for bulk reads. A missing task is logged
// and skipped.
func (r *Registry) UpdateHeartbeat(ctx context.Context, id types.TaskID) error {
	m, err := r.GetTask(ctx, id)
	if err != nil {
		if errors.Is(err, types.ErrTaskNotFound) {
			r.logger.Warn().Str("task_id", id.String()).Msg("Cannot update heartbeat for non-existent task")
			return nil
		}
		return err
	}

	now := types.Now()
	touched := m.Touched(now)
	data, err := touched.ToJSON()
	if err != nil {
		return fmt.Errorf("failed to serialize task %s: %w", id, err)
	}

	if err := r.store.Set(ctx, taskKey(id), string(data), r.cfg.HeartbeatTTL); err != nil {
		return err
	}
	return r.store.MSetWithTTL(ctx, map[string]string{
		heartbeatKey(id): strconv.FormatFloat(now, 'f', -1, 64),
	}, r.cfg.HeartbeatTTL)
}

// Heartbeats returns the last updated_at per task, derived from the
// metadata records. Absent or unparsable records are omitted.
func (r *Registry) Heartbeats(ctx context.Context, ids []types.TaskID) (map[types.TaskID]float64, error) {
	if len(ids) == 0 {
		return map[types.TaskID]float64{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = taskKey(id)
	}

	values, err := r.store.MGet(ctx, keys...)
	if err != nil {
		return nil, err
	}

	result := make(map[types.TaskID]float64, len(values))
	for i, id := range ids {
		data, ok := values[keys[i]]
		if !ok {
			continue
		}
		m, err := types.ParseTaskMetadata([]byte(data))
		if err != nil {
			r.logger.Warn().Str("task_id", id.String()).Msg("Skipping unparsable task metadata in heartbeat read")
			continue
		}
		result[id] = m.UpdatedAt
	}
	return result, nil
}
