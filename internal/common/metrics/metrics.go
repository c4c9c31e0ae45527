// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BuildsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_builds_total",
			Help: "Total number of template builds by outcome",
		},
		[]string{"status", "error_kind"},
	)

	BuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "template_build_duration_seconds",
			Help:    "Duration of template builds in seconds",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"status"},
	)

	ComponentsGenerated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_components_generated_total",
			Help: "Total number of components generated by kind",
		},
		[]string{"kind"},
	)

	ComponentsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "template_components_skipped_total",
			Help: "Total number of template components skipped during generation",
		},
		[]string{"reason"},
	)

	TerminalWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "template_build_terminal_write_failures_total",
			Help: "Builds whose terminal status could not be persisted after all retries",
		},
	)

	BuildsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "template_builds_in_progress",
			Help: "Number of template builds currently running",
		},
	)

	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)
)
