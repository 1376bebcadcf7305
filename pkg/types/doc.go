/*
Package types holds the shared domain types of the background task subsystem.

TaskMetadata is the persisted task descriptor. It is treated as an
immutable value: reclaim and heartbeat produce new values that are
written back whole, never mutated in place. Parsing is strict —
missing required fields, unknown keys and type mismatches all surface
as ErrInvalidMetadata.

The package also defines the task and server identifiers, the status
enumeration, the (domain, operation, detail) error codes, and the
default tunables for TTLs, heartbeats and retries.
*/
package types
