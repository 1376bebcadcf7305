package manager

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/burrow/pkg/events"
	"github.com/cuemby/burrow/pkg/storage"
	"github.com/cuemby/burrow/pkg/task"
	"github.com/cuemby/burrow/pkg/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := storage.NewRedisStoreFromClient(client)
	t.Cleanup(func() { _ = store.Close() })

	mgr := New(DefaultConfig("server-1"), store)
	mgr.RegisterHandler(&task.CloneVFolderHandler{Chunks: 2})
	mgr.RegisterHandler(&task.DeleteVFolderHandler{})
	return mgr
}

// waitTerminal blocks until a terminal event for taskID arrives.
func waitTerminal(t *testing.T, sub events.Subscriber, taskID types.TaskID) events.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case event := <-sub:
			if event.TaskID() == taskID && event.Status().Finished() {
				return event
			}
		case <-deadline:
			t.Fatal("timed out waiting for terminal event")
		}
	}
}

func TestSubmitRunsTask(t *testing.T) {
	mgr := newTestManager(t)
	sub := mgr.Subscribe()
	defer mgr.Unsubscribe(sub)

	id, err := mgr.Submit(context.Background(), types.TaskCloneVFolder, &task.CloneVFolderArgs{Src: "a", Dst: "b"}, "tenant-a")
	require.NoError(t, err)

	event := waitTerminal(t, sub, id)
	assert.Equal(t, events.NameDone, event.EventName())

	// The registry entry is removed before the terminal event fires.
	_, err = mgr.Registry().GetTask(context.Background(), id)
	assert.ErrorIs(t, err, types.ErrTaskNotFound)
}

func TestSubmitUnknownTaskName(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.Submit(context.Background(), types.TaskPushImage, &task.PushImageArgs{ImageRef: "x", Registry: "r"})
	assert.ErrorIs(t, err, types.ErrNotRegistered)
}

func TestSubmitInvalidArgs(t *testing.T) {
	mgr := newTestManager(t)

	_, err := mgr.Submit(context.Background(), types.TaskCloneVFolder, &task.CloneVFolderArgs{Src: "a", Dst: "a"})
	assert.Error(t, err)
	assert.Equal(t, 0, mgr.OngoingTasks())
}

func TestAlreadyDoneAfterCompletion(t *testing.T) {
	mgr := newTestManager(t)
	sub := mgr.Subscribe()

	id, err := mgr.Submit(context.Background(), types.TaskDeleteVFolder, &task.DeleteVFolderArgs{VFolderID: "vf-1"})
	require.NoError(t, err)
	waitTerminal(t, sub, id)
	mgr.Unsubscribe(sub)

	// A late subscriber learns the final status from the synthesized
	// catch-up event.
	event, ok := mgr.AlreadyDone(id)
	require.True(t, ok)
	assert.Equal(t, types.StatusDone, event.Status())
}

// parkedHandler blocks until cancelled, for shutdown tests.
type parkedHandler struct {
	started chan struct{}
}

func (h *parkedHandler) Name() types.TaskName { return types.TaskPushImage }
func (h *parkedHandler) NewArgs() task.Args   { return &task.PushImageArgs{} }

func (h *parkedHandler) Execute(ctx context.Context, _ task.Reporter, _ task.Args) (task.Result, error) {
	close(h.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestShutdownDrainsInFlightTasks(t *testing.T) {
	mgr := newTestManager(t)
	handler := &parkedHandler{started: make(chan struct{})}
	mgr.RegisterHandler(handler)
	mgr.Start()

	sub := mgr.Subscribe()
	defer mgr.Unsubscribe(sub)

	id, err := mgr.Submit(context.Background(), types.TaskPushImage, &task.PushImageArgs{ImageRef: "x", Registry: "r"})
	require.NoError(t, err)
	<-handler.started
	assert.Equal(t, 1, mgr.OngoingTasks())

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, mgr.Shutdown(shutdownCtx))

	// The cancelled run still produced its terminal event.
	event := waitTerminal(t, sub, id)
	assert.Equal(t, events.NameCancelled, event.EventName())
	assert.Equal(t, 0, mgr.OngoingTasks())
}
