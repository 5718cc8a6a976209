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

	CurationOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_curation_outcomes_total",
			Help: "Curation requests by outcome (curated, fallback, exhausted, error)",
		},
		[]string{"outcome"},
	)

	ClassifierRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_classifier_rejections_total",
			Help: "Passages rejected as reference noise, by first matching rule",
		},
		[]string{"rule"},
	)

	FlashcardsGenerated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "prism_flashcards_generated_total",
			Help: "Flashcards returned to students",
		},
	)

	ClarificationTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_clarification_transitions_total",
			Help: "Clarification state machine transitions",
		},
		[]string{"from", "to"},
	)

	WebSearchResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prism_web_search_results_total",
			Help: "Ranked web results returned",
		},
		[]string{"time_sensitive"},
	)
)
