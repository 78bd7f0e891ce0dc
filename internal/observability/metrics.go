package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MomentsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moments",
		Name:      "submitted_total",
		Help:      "Total number of moments accepted at intake",
	}, []string{"kind"})

	PipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moments",
		Name:      "pipeline_runs_total",
		Help:      "Pipeline runs by terminal status",
	}, []string{"status"})

	StepDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moments",
		Name:      "step_duration_seconds",
		Help:      "Duration of enrichment pipeline steps",
		Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
	}, []string{"step"})

	StepFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "moments",
		Name:      "step_fallbacks_total",
		Help:      "Enrichment steps that degraded to their fallback value",
	}, []string{"step", "reason"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "moments",
		Name:      "queue_depth",
		Help:      "Number of pending pipeline tasks in queue",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "moments",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	WSConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "moments",
		Name:      "ws_connections",
		Help:      "Number of active WebSocket connections",
	})
)

// Fallback records a step that substituted its degraded value.
func Fallback(step, reason string) {
	StepFallbacks.WithLabelValues(step, reason).Inc()
}
