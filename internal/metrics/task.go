package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	TaskRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_runs_total",
			Help:      "Task executions by outcome",
		},
		[]string{"task", "status"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Task execution time in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"task"},
	)

	ProbeFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_probe_failures_total",
			Help:      "Vector store endpoints that refused the reachability probe",
		},
		[]string{"endpoint"},
	)
)

var taskMetricsRegistered bool

// RegisterTaskMetrics registers pipeline metrics with the default registry.
// Safe to call more than once.
func RegisterTaskMetrics() {
	if taskMetricsRegistered {
		return
	}
	prometheus.MustRegister(TaskRunsTotal, TaskDuration, ProbeFailuresTotal)
	taskMetricsRegistered = true
}
