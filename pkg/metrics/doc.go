/*
Package metrics exposes Prometheus metrics and health endpoints.

Collectors cover task runs (starts, completions by status and error
code, durations), heartbeat failures, and the recovery loop (sweep
count and duration, reclaims, retry exhaustions). TaskObserver adapts
the collectors to the hook pipeline's observer interface.

The package also carries the process health checker backing the
/health, /ready and /live endpoints of the serve command.
*/
package metrics
