package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuemby/burrow/pkg/types"
)

func TestBrokerDeliversToSubscribers(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	id := types.NewTaskID()
	require.NoError(t, broker.Broadcast(context.Background(), UpdatedEvent{Task: id, Message: "Task started"}))

	event := <-sub
	assert.Equal(t, NameUpdated, event.EventName())
	assert.Equal(t, id, event.TaskID())
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe()

	assert.Equal(t, 1, broker.SubscriberCount())
	broker.Unsubscribe(sub)
	assert.Equal(t, 0, broker.SubscriberCount())

	_, open := <-sub
	assert.False(t, open)

	// Unsubscribing twice must not panic.
	broker.Unsubscribe(sub)
}

func TestBrokerLastEvent(t *testing.T) {
	broker := NewBroker()
	ctx := context.Background()
	id := types.NewTaskID()

	_, ok := broker.LastEvent(id)
	assert.False(t, ok)

	require.NoError(t, broker.Broadcast(ctx, UpdatedEvent{Task: id, Current: 1, Total: 2}))
	require.NoError(t, broker.Broadcast(ctx, DoneEvent{Task: id, Message: "ok"}))

	last, ok := broker.LastEvent(id)
	require.True(t, ok)
	assert.Equal(t, DoneEvent{Task: id, Message: "ok"}, last)
}

func TestBrokerAlreadyDone(t *testing.T) {
	broker := NewBroker()
	ctx := context.Background()
	id := types.NewTaskID()

	// No events yet: nothing to synthesize.
	_, ok := broker.AlreadyDone(id)
	assert.False(t, ok)

	// A progress event is not terminal.
	require.NoError(t, broker.Broadcast(ctx, UpdatedEvent{Task: id}))
	_, ok = broker.AlreadyDone(id)
	assert.False(t, ok)

	require.NoError(t, broker.Broadcast(ctx, CancelledEvent{Task: id, Message: "Task cancelled"}))

	event, ok := broker.AlreadyDone(id)
	require.True(t, ok)
	assert.Equal(t, types.StatusCancelled, event.Status())
	assert.Equal(t, "Task cancelled", event.Message)
	assert.Equal(t, id, event.TaskID())
}

func TestBrokerSkipsFullSubscribers(t *testing.T) {
	broker := NewBroker()
	sub := broker.Subscribe()
	defer broker.Unsubscribe(sub)

	id := types.NewTaskID()
	// Overflow the subscriber buffer; Broadcast must not block.
	for i := 0; i < cap(sub)+10; i++ {
		require.NoError(t, broker.Broadcast(context.Background(), UpdatedEvent{Task: id, Current: float64(i)}))
	}
	assert.Len(t, sub, cap(sub))
}
