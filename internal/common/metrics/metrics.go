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

	QuadrantClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoring_quadrant_classifications_total",
			Help: "Number of quadrant classifications by resulting quadrant",
		},
		[]string{"quadrant"},
	)

	GovernanceActivations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "governance_activation_decisions_total",
			Help: "Number of activation evaluations by outcome",
		},
		[]string{"can_activate"},
	)

	ScoreCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "score_cache_lookups_total",
			Help: "Score cache lookups by result",
		},
		[]string{"result"},
	)

	EngineConfigReloads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "engine_config_reloads_total",
			Help: "Engine rule configuration reloads by outcome",
		},
		[]string{"outcome"},
	)
)
