/*
Package task defines task handlers, their typed arguments, and run results.

Each task name maps to one Handler. A handler declares its argument
type and executes with either freshly typed arguments (a new
submission) or arguments revived from the raw body persisted in the
store. Revival is strict: unknown keys, type mismatches and failed
validation reject the body as invalid metadata rather than running the
handler on garbage.

The TaskResult sum type captures how a run ended — Success, Cancelled,
Failed or PartialSuccess — and projects each outcome to a status, an
optional error code, and the terminal broadcast event.

Handlers report progress through the Reporter capability; progress
never flows through results.

The built-in handlers (clone_vfolder, delete_vfolder, push_image)
cover the operations the cluster manager dispatches today.
*/
package task
