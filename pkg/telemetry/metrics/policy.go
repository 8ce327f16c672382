package metrics

import (
	"time"

	"htem/fanc/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// PolicyMetrics tracks engine decisions.
//
// Metrics:
//   - fanc_policy_decisions_total: decisions by operation, table and outcome
//   - fanc_policy_decision_duration_seconds: decision duration by operation
type PolicyMetrics struct {
	decisionsTotal   *prometheus.CounterVec
	decisionDuration *prometheus.HistogramVec
}

// NewPolicyMetrics creates and registers policy metrics with the provided registry.
func NewPolicyMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *PolicyMetrics {
	pm := &PolicyMetrics{
		decisionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: "policy",
				Name:      "decisions_total",
				Help:      "Total number of policy decisions",
			},
			[]string{"operation", "table", "outcome"},
		),

		decisionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: "policy",
				Name:      "decision_duration_seconds",
				Help:      "Duration of policy decisions in seconds, including the annotation fetch",
				Buckets:   cfg.DurationBuckets,
			},
			[]string{"operation"},
		),
	}

	registry.MustRegister(pm.decisionsTotal, pm.decisionDuration)
	return pm
}

// RecordDecision records one decision.
func (pm *PolicyMetrics) RecordDecision(operation, table, outcome string, duration time.Duration) {
	pm.decisionsTotal.WithLabelValues(operation, table, outcome).Inc()
	pm.decisionDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
