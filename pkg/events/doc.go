/*
Package events defines the background task broadcast events and the in-process broker.

Subscribers observe a task's life as a stream of events keyed by the
task id: bgtask_updated for progress, then exactly one terminal event
(bgtask_done, bgtask_cancelled, bgtask_failed or
bgtask_partial_success) per completed run.

The broker also caches the last event per task. A subscriber that
attaches after the task finished asks for an AlreadyDoneEvent, a
locally synthesized catch-up carrying the final status. That event
never crosses the wire: Serialize and Deserialize panic on it, because
reaching either is a programmer error.

Events serialize to ordered tuples for transport; Deserialize
reconstructs them by event name.
*/
package events
