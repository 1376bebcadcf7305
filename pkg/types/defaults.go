package types

import "time"

// Default tunables for the background task core. All of these are
// overridable through component configs; the values match the cluster
// deployment defaults.
const (
	// DefaultTaskTTL bounds how long task metadata and index sets live
	// in the KV store without a refresh.
	DefaultTaskTTL = 24 * time.Hour

	// DefaultHeartbeatInterval is how often a running task rewrites its
	// updated_at timestamp.
	DefaultHeartbeatInterval = 10 * time.Minute

	// DefaultHeartbeatThreshold is the staleness threshold: a task whose
	// last heartbeat is older than this is eligible for reclaim.
	DefaultHeartbeatThreshold = 30 * time.Minute

	// DefaultHeartbeatTTL is the TTL on the dedicated heartbeat keys,
	// guaranteeing cleanup of orphaned entries.
	DefaultHeartbeatTTL = time.Hour

	// DefaultRecoveryInterval is the sleep between recovery sweeps.
	DefaultRecoveryInterval = time.Minute

	// DefaultMaxRetries bounds how many times a task may be reclaimed
	// before it is failed terminally.
	DefaultMaxRetries = 3
)
