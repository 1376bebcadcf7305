/*
Package registry persists background task metadata in the shared key-value store.

The registry is the authoritative record of outstanding tasks across
the whole cluster. Every server reads and writes it through the same
narrow store interface; there is no in-memory state to synchronize.

# Key layout

	bgtask:task:{task_id}               TaskMetadata JSON
	bgtask:server:{server_id}           set of task ids owned by a server
	bgtask:server_group:{server_type}   set of task ids known to a server type
	bgtask:heartbeat:{task_id}          last heartbeat as float seconds

Metadata carries the task TTL; both index sets have their TTL
refreshed on every save so they outlive their newest member. The
dedicated heartbeat key is an optimization for bulk reads — the
updated_at field inside the metadata stays authoritative.

# Crash tolerance

Deletion removes set memberships before the metadata key. A crash
between the steps leaves at most an orphan set entry, which the
recovery sweep revalidates against the metadata before acting, so the
orphan is harmless and eventually expires. Set adds and removes are
idempotent; repeating a half-finished save converges.

Records that fail to parse are surfaced as ErrInvalidMetadata so
callers can treat them as unrecoverable and delete them.
*/
package registry
