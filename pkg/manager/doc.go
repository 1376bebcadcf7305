/*
Package manager wires the background task subsystem of one server.

The manager owns the registry over the shared store, the handler
registry, the event broker, the runner and the recovery loop. Submit
assigns a task id, persists the metadata indexed under this server and
its type, and schedules the run; callers then follow the task on the
broadcast channel.

Shutdown stops the recovery loop first, then cancels in-flight runs
and waits for their hook pipelines to unwind, bounded by the caller's
context.
*/
package manager
