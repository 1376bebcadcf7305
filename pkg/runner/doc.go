/*
Package runner executes background tasks inside the hook pipeline.

A runner run resolves the task's handler, launches the heartbeat
emitter, and invokes the handler body within the hook stack. The run
never raises: every outcome — the handler's return value, cooperative
cancellation, any failure including an unregistered handler — is
captured as a TaskResult on the pipeline context, so the hooks always
observe how the run ended.

The heartbeat emitter rewrites the task's updated_at on a fixed
interval for as long as the run is alive. It is what keeps the
recovery loops on other servers from reclaiming a healthy task.

Handles for in-flight runs live in a shared Map keyed by task id. The
map is a lookup cache for cancellation and draining; the KV store
remains the source of truth.
*/
package runner
