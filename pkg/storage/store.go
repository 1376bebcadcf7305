package storage

import (
	"context"
	"time"
)

// Store defines the key-value operations the task core requires from the
// shared store. Values are strings, sets are unordered string sets, and
// every write can carry a TTL. Operations are atomic per key; no
// multi-key transactions are assumed.
type Store interface {
	// Set writes value under key with the given TTL. A zero TTL leaves
	// the key without expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error

	// Get reads the value under key. The boolean is false when the key
	// is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// MGet reads multiple keys at once; absent keys are omitted from
	// the result map.
	MGet(ctx context.Context, keys ...string) (map[string]string, error)

	// Delete removes the given keys. Deleting absent keys is not an
	// error.
	Delete(ctx context.Context, keys ...string) error

	// SetAdd adds members to the set under key. An empty member list is
	// a no-op.
	SetAdd(ctx context.Context, key string, members ...string) error

	// SetRemove removes members from the set under key. Removing
	// non-members or passing an empty list is not an error.
	SetRemove(ctx context.Context, key string, members ...string) error

	// SetMembers returns all members of the set under key; an absent
	// set yields an empty slice.
	SetMembers(ctx context.Context, key string) ([]string, error)

	// Expire refreshes the TTL of an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error

	// MSetWithTTL writes every entry with the given TTL. Each key is
	// written with its expiry in one operation; atomicity across keys
	// is not guaranteed.
	MSetWithTTL(ctx context.Context, entries map[string]string, ttl time.Duration) error

	// Close releases the underlying connections.
	Close() error
}
