// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MessagesProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_messages_processed_total",
			Help: "Total number of customer messages processed, by response type and source",
		},
		[]string{"response_type", "source"},
	)

	PipelineFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_pipeline_failures_total",
			Help: "Messages that fell back to the human handoff response",
		},
		[]string{"stage"},
	)

	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "support_pipeline_duration_seconds",
			Help:    "Duration of one full pipeline pass",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"response_type"},
	)

	IntegrationCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_integration_calls_total",
			Help: "Capability calls made by the dispatcher, by outcome",
		},
		[]string{"integration", "action", "outcome"},
	)

	AIClassifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_ai_classifications_total",
			Help: "AI-assisted classification attempts, by outcome",
		},
		[]string{"outcome"},
	)

	ConversationContexts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "support_conversation_contexts",
			Help: "Live conversation contexts held in memory",
		},
	)

	EscalationAlerts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "support_escalation_alerts_total",
			Help: "Escalation alerts sent, by channel and outcome",
		},
		[]string{"channel", "outcome"},
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
)

const (
	OutcomeFound    = "found"
	OutcomeNotFound = "not_found"
	OutcomeFailed   = "failed"
	OutcomeSkipped  = "skipped"
	OutcomeSuccess  = "success"
)
