package events

import (
	"context"
	"sync"

	"github.com/cuemby/burrow/pkg/types"
)

// Producer is the broadcast capability the task core depends on.
type Producer interface {
	Broadcast(ctx context.Context, event Event) error
}

// Subscriber is a channel that receives events
type Subscriber chan Event

// Broker distributes task events to in-process subscribers and keeps the
// last event per task so late subscribers can learn the final status.
type Broker struct {
	mu          sync.RWMutex
	subscribers map[Subscriber]bool
	lastEvents  map[string]Event
}

// NewBroker creates a new event broker
func NewBroker() *Broker {
	return &Broker{
		subscribers: make(map[Subscriber]bool),
		lastEvents:  make(map[string]Event),
	}
}

// Subscribe creates a new subscription and returns a channel
func (b *Broker) Subscribe() Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := make(Subscriber, 50) // Buffer per subscriber
	b.subscribers[sub] = true
	return sub
}

// Unsubscribe removes a subscription
func (b *Broker) Unsubscribe(sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[sub] {
		delete(b.subscribers, sub)
		close(sub)
	}
}

// Broadcast records the event under the task's cache id and delivers it
// to all subscribers. Subscribers with full buffers are skipped.
func (b *Broker) Broadcast(_ context.Context, event Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastEvents[CacheID(event.TaskID())] = event

	for sub := range b.subscribers {
		select {
		case sub <- event:
		default:
			// Subscriber buffer full, skip
		}
	}
	return nil
}

// LastEvent returns the most recent event broadcast for a task.
func (b *Broker) LastEvent(taskID types.TaskID) (Event, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	event, ok := b.lastEvents[CacheID(taskID)]
	return event, ok
}

// AlreadyDone synthesizes the catch-up event for a subscriber that
// attaches after the task finished. It returns false when the task has
// no cached terminal event.
func (b *Broker) AlreadyDone(taskID types.TaskID) (AlreadyDoneEvent, bool) {
	last, ok := b.LastEvent(taskID)
	if !ok || !last.Status().Finished() {
		return AlreadyDoneEvent{}, false
	}

	message := ""
	switch e := last.(type) {
	case DoneEvent:
		message = e.Message
	case CancelledEvent:
		message = e.Message
	case FailedEvent:
		message = e.Message
	case PartialSuccessEvent:
		message = e.Message
	}

	return AlreadyDoneEvent{
		Task:       taskID,
		TaskStatus: last.Status(),
		Message:    message,
	}, true
}

// SubscriberCount returns the number of active subscribers
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subscribers)
}
