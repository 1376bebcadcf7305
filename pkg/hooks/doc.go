/*
Package hooks wraps task runs with composable pre/post phases.

A hook is a pair of callbacks around one task execution. The pipeline
nests them like try/finally blocks: pre phases run in declared order,
post phases in reverse, and a hook whose pre phase ran always gets its
post phase — including when the body fails, is cancelled, or panics.

The standard composition, outermost first:

	┌─ MetricHook ───────────────────────────────┐
	│  pre: count start, note wall clock         │
	│ ┌─ EventHook ──────────────────────────┐   │
	│ │  pre: broadcast "Task started"       │   │
	│ │ ┌─ UnregisterHook ───────────────┐   │   │
	│ │ │  pre: no-op                    │   │   │
	│ │ │        ... task body ...       │   │   │
	│ │ │  post: delete from registry    │   │   │
	│ │ └────────────────────────────────┘   │   │
	│ │  post: broadcast terminal event      │   │
	│ └──────────────────────────────────────┘   │
	│  post: record duration, status, error code │
	└────────────────────────────────────────────┘

The runner populates the context's Result before the stack unwinds, so
every post phase observes the outcome. A post phase that fails is
logged at warning level and skipped over; it can neither mask the
task's result nor prevent the remaining post phases from running.
*/
package hooks
