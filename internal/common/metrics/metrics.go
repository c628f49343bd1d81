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

	AssistantTurns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Conversation turns by intent kind and query type",
		},
		[]string{"kind", "query_type"},
	)

	AssistantResolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_resolutions_total",
			Help: "Query turns by evidence source (filtered, cached, recent)",
		},
		[]string{"resolution"},
	)

	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meeting_store_query_duration_seconds",
			Help:    "Duration of meeting store queries",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend"},
	)

	StoreQueryRows = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "meeting_store_query_rows",
			Help:    "Rows returned per meeting store query",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 200},
		},
		[]string{"backend"},
	)

	StoreCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "meeting_store_cache_lookups_total",
			Help: "Result cache lookups by outcome (hit, miss, error)",
		},
		[]string{"outcome"},
	)

	GenerationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "textgen_failures_total",
			Help: "Text generation calls that failed after retries",
		},
		[]string{"generator"},
	)
)
