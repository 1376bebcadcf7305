package registry

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/burrow/pkg/storage"
	"github.com/cuemby/burrow/pkg/types"
)

func newTestRegistry(t *testing.T) (*Registry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := storage.NewRedisStoreFromClient(client)
	t.Cleanup(func() { _ = store.Close() })
	return New(store, DefaultConfig()), mr
}

func testMetadata() types.TaskMetadata {
	return types.NewTaskMetadata(
		types.TaskCloneVFolder,
		map[string]any{"src": "a", "dst": "b"},
		"server-1",
		types.ServerTypeManager,
		nil,
	)
}

func TestSaveAndGetTask(t *testing.T) {
	reg, mr := newTestRegistry(t)
	ctx := context.Background()
	m := testMetadata()

	require.NoError(t, reg.SaveTask(ctx, m))

	got, err := reg.GetTask(ctx, m.TaskID)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	// Metadata key carries the task TTL.
	ttl := mr.TTL("bgtask:task:" + m.TaskID.String())
	assert.Equal(t, types.DefaultTaskTTL, ttl)
}

func TestSaveTaskIndexesBothSets(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	m := testMetadata()

	require.NoError(t, reg.SaveTask(ctx, m))

	serverTasks, err := reg.ServerTasks(ctx, m.ServerID)
	require.NoError(t, err)
	assert.Contains(t, serverTasks, m.TaskID)

	groupTasks, err := reg.ServerTypeTasks(ctx, m.ServerType)
	require.NoError(t, err)
	assert.Contains(t, groupTasks, m.TaskID)
}

func TestGetTaskNotFound(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.GetTask(context.Background(), types.NewTaskID())
	assert.ErrorIs(t, err, types.ErrTaskNotFound)
}

func TestGetTaskMalformed(t *testing.T) {
	reg, mr := newTestRegistry(t)
	id := types.NewTaskID()
	require.NoError(t, mr.Set("bgtask:task:"+id.String(), "{broken"))

	_, err := reg.GetTask(context.Background(), id)
	assert.ErrorIs(t, err, types.ErrInvalidMetadata)
}

func TestUpdateTaskLeavesSetsAlone(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	m := testMetadata()
	require.NoError(t, reg.SaveTask(ctx, m))

	updated := m.Reclaimed("server-2", types.Now())
	require.NoError(t, reg.UpdateTask(ctx, updated))

	got, err := reg.GetTask(ctx, m.TaskID)
	require.NoError(t, err)
	assert.Equal(t, types.ServerID("server-2"), got.ServerID)
	assert.Equal(t, 1, got.RetryCount)

	// The old owner set is untouched; the caller pairs the update
	// with AddServerTask on the new owner.
	oldOwner, err := reg.ServerTasks(ctx, "server-1")
	require.NoError(t, err)
	assert.Contains(t, oldOwner, m.TaskID)

	require.NoError(t, reg.AddServerTask(ctx, "server-2", m.TaskID))
	newOwner, err := reg.ServerTasks(ctx, "server-2")
	require.NoError(t, err)
	assert.Contains(t, newOwner, m.TaskID)
}

func TestDeleteTaskRemovesEverything(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	m := testMetadata()
	require.NoError(t, reg.SaveTask(ctx, m))

	require.NoError(t, reg.DeleteTask(ctx, m.TaskID))

	_, err := reg.GetTask(ctx, m.TaskID)
	assert.ErrorIs(t, err, types.ErrTaskNotFound)

	serverTasks, err := reg.ServerTasks(ctx, m.ServerID)
	require.NoError(t, err)
	assert.NotContains(t, serverTasks, m.TaskID)

	groupTasks, err := reg.ServerTypeTasks(ctx, m.ServerType)
	require.NoError(t, err)
	assert.NotContains(t, groupTasks, m.TaskID)
}

func TestDeleteTaskIdempotent(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()
	m := testMetadata()
	require.NoError(t, reg.SaveTask(ctx, m))

	require.NoError(t, reg.DeleteTask(ctx, m.TaskID))
	require.NoError(t, reg.DeleteTask(ctx, m.TaskID))

	// Deleting a task that never existed is fine too.
	require.NoError(t, reg.DeleteTask(ctx, types.NewTaskID()))
}

func TestDeleteTaskDropsMalformedRecord(t *testing.T) {
	reg, mr := newTestRegistry(t)
	id := types.NewTaskID()
	require.NoError(t, mr.Set("bgtask:task:"+id.String(), "{broken"))

	require.NoError(t, reg.DeleteTask(context.Background(), id))
	assert.False(t, mr.Exists("bgtask:task:"+id.String()))
}

func TestEmptySetsYieldNoTasks(t *testing.T) {
	reg, _ := newTestRegistry(t)
	ctx := context.Background()

	serverTasks, err := reg.ServerTasks(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, serverTasks)

	groupTasks, err := reg.ServerTypeTasks(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, groupTasks)
}

func TestUpdateHeartbeat(t *testing.T) {
	reg, mr := newTestRegistry(t)
	ctx := context.Background()
	m := testMetadata()
	m.UpdatedAt = types.Now() - 1000
	require.NoError(t, reg.SaveTask(ctx, m))

	require.NoError(t, reg.UpdateHeartbeat(ctx, m.TaskID))

	got, err := reg.GetTask(ctx, m.TaskID)
	require.NoError(t, err)
	assert.Greater(t, got.UpdatedAt, m.UpdatedAt)

	// Metadata now carries the heartbeat TTL and the dedicated
	// heartbeat key mirrors the timestamp.
	assert.Equal(t, types.DefaultHeartbeatTTL, mr.TTL("bgtask:task:"+m.TaskID.String()))
	assert.True(t, mr.Exists("bgtask:heartbeat:"+m.TaskID.String()))
	assert.Equal(t, types.DefaultHeartbeatTTL, mr.TTL("bgtask:heartbeat:"+m.TaskID.String()))
}

func TestUpdateHeartbeatMissingTask(t *testing.T) {
	reg, _ := newTestRegistry(t)

	// Missing task is logged and skipped, not an error.
	require.NoError(t, reg.UpdateHeartbeat(context.Background(), types.NewTaskID()))
}

func TestHeartbeats(t *testing.T) {
	reg, mr := newTestRegistry(t)
	ctx := context.Background()

	m1 := testMetadata()
	m2 := testMetadata()
	m2.UpdatedAt = m1.UpdatedAt - 3600
	require.NoError(t, reg.SaveTask(ctx, m1))
	require.NoError(t, reg.SaveTask(ctx, m2))

	// One id with no record, one with an unparsable record.
	missing := types.NewTaskID()
	broken := types.NewTaskID()
	require.NoError(t, mr.Set("bgtask:task:"+broken.String(), "{broken"))

	heartbeats, err := reg.Heartbeats(ctx, []types.TaskID{m1.TaskID, m2.TaskID, missing, broken})
	require.NoError(t, err)

	assert.Len(t, heartbeats, 2)
	assert.Equal(t, m1.UpdatedAt, heartbeats[m1.TaskID])
	assert.Equal(t, m2.UpdatedAt, heartbeats[m2.TaskID])
}

func TestHeartbeatsEmptyInput(t *testing.T) {
	reg, _ := newTestRegistry(t)

	heartbeats, err := reg.Heartbeats(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, heartbeats)
}

func TestSetTTLRefreshedOnSave(t *testing.T) {
	reg, mr := newTestRegistry(t)
	ctx := context.Background()
	m := testMetadata()
	require.NoError(t, reg.SaveTask(ctx, m))

	assert.Equal(t, types.DefaultTaskTTL, mr.TTL("bgtask:server:server-1"))
	assert.Equal(t, types.DefaultTaskTTL, mr.TTL("bgtask:server_group:manager"))

	// A later save with a longer TTL refreshes the sets.
	m2 := testMetadata()
	m2.TTLSeconds = int64((48 * time.Hour).Seconds())
	require.NoError(t, reg.SaveTask(ctx, m2))
	assert.Equal(t, 48*time.Hour, mr.TTL("bgtask:server:server-1"))
}
