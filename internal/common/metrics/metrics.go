// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
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

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	PayoutRowsScanned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "payout_rows_scanned",
			Help:    "Snapshot rows scanned per payout check",
			Buckets: prometheus.ExponentialBuckets(100, 4, 8),
		},
	)

	PayoutMalformedRows = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payout_malformed_rows_total",
			Help: "Stored rows skipped because a predicate would not parse",
		},
	)

	PayoutNoMatch = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "payout_no_match_total",
			Help: "Payout checks that completed with zero eligible rows",
		},
	)

	ProjectionCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "projection_cache_requests_total",
			Help: "Projection cache lookups by outcome",
		},
		[]string{"outcome"},
	)
)
