package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the audit pipeline. All methods are
// nil-safe so tests can run without a registry.
type Metrics struct {
	// Completed audits by letter grade
	AuditsCompleted *prometheus.CounterVec

	// Pipeline runs that terminated in Rejected or Failed
	AuditsAborted *prometheus.CounterVec

	// Stage fallback activations by stage
	StageFallbacks *prometheus.CounterVec

	// Full pipeline latency
	PipelineLatency prometheus.Histogram
}

// New creates a Metrics instance with all pipeline metrics registered.
func New() *Metrics {
	return &Metrics{
		AuditsCompleted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finaudit_audits_completed_total",
			Help: "Completed audits by letter grade",
		}, []string{"grade"}),

		AuditsAborted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finaudit_audits_aborted_total",
			Help: "Pipeline runs that terminated before completion, by terminal state",
		}, []string{"state"}),

		StageFallbacks: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "finaudit_stage_fallback_total",
			Help: "Stage executions that committed their fallback result, by stage",
		}, []string{"stage"}),

		PipelineLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "finaudit_pipeline_duration_seconds",
			Help:    "Duration of a full pipeline run",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
	}
}

// IncrementCompleted records a completed audit.
func (m *Metrics) IncrementCompleted(grade string) {
	if m != nil {
		m.AuditsCompleted.WithLabelValues(grade).Inc()
	}
}

// IncrementAborted records a pipeline run ending in a terminal abort state.
func (m *Metrics) IncrementAborted(state string) {
	if m != nil {
		m.AuditsAborted.WithLabelValues(state).Inc()
	}
}

// IncrementFallback records a stage committing its fallback result.
func (m *Metrics) IncrementFallback(stage string) {
	if m != nil {
		m.StageFallbacks.WithLabelValues(stage).Inc()
	}
}

// ObservePipelineLatency records the duration of a full pipeline run.
func (m *Metrics) ObservePipelineLatency(d time.Duration) {
	if m != nil {
		m.PipelineLatency.Observe(d.Seconds())
	}
}
