/*
Package recovery detects and reclaims background tasks stranded by crashed servers.

Every server runs one recovery loop. The loop periodically samples the
heartbeats of the tasks indexed under this server and under this
server's type, and takes over any task whose heartbeat has gone stale.
Work submitted to a server that later dies is therefore resumed
elsewhere without operator intervention.

# Architecture

The loop wakes on a fixed interval (60 seconds by default), reads both
index sets from the shared store, and checks each task's last
heartbeat:

	┌────────────────────────────────────────────────────────────┐
	│                     Recovery Sweep                         │
	│                   (Every 60 seconds)                       │
	└────────────────┬───────────────────────────────────────────┘
	                 │
	    ┌────────────┴────────────┐
	    │                         │
	    ▼                         ▼
	┌──────────────────┐   ┌──────────────────────┐
	│ bgtask:server:ID │   │ bgtask:server_group: │
	│   (owner set)    │   │  TYPE  (group set)   │
	└───────┬──────────┘   └──────────┬───────────┘
	        │                         │
	        └──────────┬──────────────┘
	                   ▼
	          read heartbeats (updated_at)
	                   │
	                   ▼
	          now - updated_at > retry TTL?
	              │                │
	           no │                │ yes
	              ▼                ▼
	            skip            reclaim

# Staleness

A task is stale when its last heartbeat is older than the retry TTL
(30 minutes by default). Running tasks rewrite updated_at every
heartbeat interval, so a stale heartbeat means the owning server
stopped making progress: it crashed, lost its store connection, or was
killed mid-run.

The retry TTL is deliberately independent from the TTL on the
heartbeat keys themselves. The former decides when another server
steps in; the latter only bounds how long orphaned keys survive.

# Reclaiming

For each stale task the sweep:

 1. Re-reads the metadata. A vanished record is skipped; an
    unparsable one is deleted outright, since no handler could ever
    revive it.
 2. Fails the task terminally when retry_count has reached
    max_retries, emitting the terminal failed event through the same
    hook pipeline a normal run uses.
 3. Otherwise rewrites the record with retry_count+1 and this server
    as the owner, adds the task to this server's owner set, and
    starts a fresh runner.

The new runner's handle replaces whatever handle the previous owner
left in the in-process task map. By the staleness definition that
handle is dead or orphaned, so nothing live is discarded.

Errors inside a sweep are logged and do not stop the loop; the next
sweep retries from the current store state. Stop waits for the
in-flight sweep before returning.
*/
package recovery
