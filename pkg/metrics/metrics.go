package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Task execution metrics
	TasksStartedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_bgtask_started_total",
			Help: "Total number of background task runs started by task name",
		},
		[]string{"task_name"},
	)

	TasksDoneTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_bgtask_done_total",
			Help: "Total number of background task runs finished by task name, status and error code",
		},
		[]string{"task_name", "status", "error_code"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "burrow_bgtask_duration_seconds",
			Help:    "Background task run duration in seconds by task name and status",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300, 600, 1800, 3600}, // 100ms to 1h
		},
		[]string{"task_name", "status"},
	)

	HeartbeatFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_bgtask_heartbeat_failures_total",
			Help: "Total number of failed heartbeat writes",
		},
	)

	// Recovery metrics
	RecoveryCyclesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_recovery_cycles_total",
			Help: "Total number of recovery sweeps completed",
		},
	)

	RecoveryCycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "burrow_recovery_cycle_duration_seconds",
			Help:    "Time taken for a recovery sweep in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	TasksReclaimedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_bgtask_reclaimed_total",
			Help: "Total number of stale tasks reclaimed by this server by task name",
		},
		[]string{"task_name"},
	)

	TasksExhaustedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "burrow_bgtask_retries_exhausted_total",
			Help: "Total number of tasks failed terminally after exhausting retries",
		},
		[]string{"task_name"},
	)

	UnrecoverableTasksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "burrow_bgtask_unrecoverable_total",
			Help: "Total number of task records dropped because their metadata could not be parsed",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(TasksStartedTotal)
	prometheus.MustRegister(TasksDoneTotal)
	prometheus.MustRegister(TaskDuration)
	prometheus.MustRegister(HeartbeatFailuresTotal)
	prometheus.MustRegister(RecoveryCyclesTotal)
	prometheus.MustRegister(RecoveryCycleDuration)
	prometheus.MustRegister(TasksReclaimedTotal)
	prometheus.MustRegister(TasksExhaustedTotal)
	prometheus.MustRegister(UnrecoverableTasksTotal)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer is a helper for timing operations
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	duration := time.Since(t.start).Seconds()
	histogram.Observe(duration)
}

// ObserveDurationVec records the duration to a histogram vec with labels
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	duration := time.Since(t.start).Seconds()
	histogram.WithLabelValues(labels...).Observe(duration)
}

// Duration returns the elapsed time since timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
