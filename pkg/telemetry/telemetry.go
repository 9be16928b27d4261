// Package telemetry implements the performance_metrics background task
// (spec.md §5) using github.com/prometheus/client_golang, the pack's
// metrics library. No example repo exercises client_golang in source (it
// appears only in go.mod), so the gauge/counter wiring here follows the
// library's own documented usage rather than a specific teacher file —
// see DESIGN.md.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every gauge/counter this module publishes on its
// performance_metrics sweep (spec.md §5: "metrics collection (~1 min)").
type Metrics struct {
	registry *prometheus.Registry

	TrackedAgents       prometheus.Gauge
	QuarantinedAgents   prometheus.Gauge
	AuditBufferDepth    prometheus.Gauge
	IntegrityFailures   prometheus.Counter
	PersistFailures     prometheus.Counter
	AccessDecisions     *prometheus.CounterVec
	ConflictResolutions *prometheus.CounterVec
	DecisionDuration    prometheus.Histogram
}

// New registers and returns a fresh Metrics set on its own registry, so an
// embedding application can expose it however it likes (its own /metrics
// endpoint, a push gateway, or nothing at all).
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		TrackedAgents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trustmesh",
			Name:      "tracked_agents",
			Help:      "Number of agents with a trust score in memory.",
		}),
		QuarantinedAgents: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trustmesh",
			Name:      "quarantined_agents",
			Help:      "Number of agents currently quarantined.",
		}),
		AuditBufferDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "trustmesh",
			Name:      "audit_buffer_depth",
			Help:      "Number of audit entries currently buffered awaiting flush.",
		}),
		IntegrityFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trustmesh",
			Name:      "integrity_failures_total",
			Help:      "Audit entries that failed signature or checksum verification.",
		}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "trustmesh",
			Name:      "persist_failures_total",
			Help:      "Audit flush attempts that failed to persist.",
		}),
		AccessDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trustmesh",
			Name:      "access_decisions_total",
			Help:      "evaluate_access outcomes by allowed/denied and risk level.",
		}, []string{"allowed", "risk_level"}),
		ConflictResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trustmesh",
			Name:      "conflict_resolutions_total",
			Help:      "KV conflict resolutions by strategy.",
		}, []string{"strategy"}),
		DecisionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "trustmesh",
			Name:      "decision_duration_seconds",
			Help:      "Wall-clock time spent inside evaluate_access.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.TrackedAgents,
		m.QuarantinedAgents,
		m.AuditBufferDepth,
		m.IntegrityFailures,
		m.PersistFailures,
		m.AccessDecisions,
		m.ConflictResolutions,
		m.DecisionDuration,
	)
	return m
}

// Registry exposes the underlying registry so an embedding application can
// hand it to an HTTP handler (promhttp.HandlerFor) if it wants to.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// RecordAccessDecision implements spec.md §4.6's audit trail counterpart
// in metric form.
func (m *Metrics) RecordAccessDecision(allowed bool, riskLevel string) {
	m.AccessDecisions.WithLabelValues(boolLabel(allowed), riskLevel).Inc()
}

// RecordConflictResolution tallies one resolution by the strategy that
// produced it.
func (m *Metrics) RecordConflictResolution(strategy string) {
	m.ConflictResolutions.WithLabelValues(strategy).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
