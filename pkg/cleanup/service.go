// Package cleanup runs the six idempotent background sweeps spec.md §5
// lists plus a seventh reconciliation sweep over pending adaptive actions,
// each on its own ticker, each safe to miss a tick. Grounded on
// tarsy's pkg/cleanup.Service Start/Stop/run shape — generalized from two
// fixed retention jobs to seven independently-scheduled sweeps spanning
// trust, compliance, network segments, metrics, audit retention,
// threat intelligence, and pending-action reconciliation.
package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/trustmesh/pkg/anomaly"
	"github.com/codeready-toolchain/trustmesh/pkg/audit"
	"github.com/codeready-toolchain/trustmesh/pkg/events"
	"github.com/codeready-toolchain/trustmesh/pkg/identity"
	"github.com/codeready-toolchain/trustmesh/pkg/respond"
	"github.com/codeready-toolchain/trustmesh/pkg/telemetry"
	"github.com/codeready-toolchain/trustmesh/pkg/trust"
	"github.com/codeready-toolchain/trustmesh/pkg/ttlstore"
)

// Config sets each sweep's interval, defaulting to the approximate
// cadences spec.md §5 names.
type Config struct {
	TrustUpdateInterval       time.Duration
	ComplianceInterval        time.Duration
	SegmentValidationInterval time.Duration
	MetricsInterval           time.Duration
	AuditRetentionInterval    time.Duration
	ThreatIntelInterval       time.Duration
	ReconciliationInterval    time.Duration
	PendingActionTTL          time.Duration
}

// DefaultConfig matches spec.md §5's stated cadences.
func DefaultConfig() Config {
	return Config{
		TrustUpdateInterval:       5 * time.Minute,
		ComplianceInterval:        10 * time.Minute,
		SegmentValidationInterval: 30 * time.Minute,
		MetricsInterval:           time.Minute,
		AuditRetentionInterval:    24 * time.Hour,
		ThreatIntelInterval:       4 * time.Hour,
		ReconciliationInterval:    time.Minute,
		PendingActionTTL:          5 * time.Minute,
	}
}

// Service owns every background sweep's goroutine and ticker.
type Service struct {
	cfg Config

	trustStore *trust.Store
	segments   *identity.SegmentStore
	auditSink  *audit.MemorySink
	signer     audit.Signer
	threat     *anomaly.ThreatIndicators
	indicators anomaly.IndicatorSource
	pending    *respond.PendingActionStore
	metrics    *telemetry.Metrics
	markers    *ttlstore.Store
	broker     *events.Broker

	cancels []context.CancelFunc
	done    []chan struct{}
}

// NewService wires every collaborator a sweep needs. Any collaborator may
// be nil; the sweep that needs it is skipped rather than panicking, so an
// embedding application can opt into a subset of the background tasks.
func NewService(
	cfg Config,
	trustStore *trust.Store,
	segments *identity.SegmentStore,
	auditSink *audit.MemorySink,
	signer audit.Signer,
	threat *anomaly.ThreatIndicators,
	indicators anomaly.IndicatorSource,
	pending *respond.PendingActionStore,
	metrics *telemetry.Metrics,
	markers *ttlstore.Store,
	broker *events.Broker,
) *Service {
	if cfg.TrustUpdateInterval <= 0 {
		cfg = DefaultConfig()
	}
	return &Service{
		cfg:        cfg,
		trustStore: trustStore,
		segments:   segments,
		auditSink:  auditSink,
		signer:     signer,
		threat:     threat,
		indicators: indicators,
		pending:    pending,
		metrics:    metrics,
		markers:    markers,
		broker:     broker,
	}
}

// Start launches every configured sweep as its own cancellable goroutine.
func (s *Service) Start(ctx context.Context) {
	s.launch(ctx, s.cfg.TrustUpdateInterval, s.sweepTrustUpdate)
	s.launch(ctx, s.cfg.ComplianceInterval, s.sweepCompliance)
	s.launch(ctx, s.cfg.SegmentValidationInterval, s.sweepSegmentValidation)
	s.launch(ctx, s.cfg.MetricsInterval, s.sweepMetrics)
	s.launch(ctx, s.cfg.AuditRetentionInterval, s.sweepAuditRetention)
	s.launch(ctx, s.cfg.ThreatIntelInterval, s.sweepThreatIntel)
	s.launch(ctx, s.cfg.ReconciliationInterval, s.sweepReconciliation)
	slog.Info("background sweeps started")
}

// Stop cancels every running sweep and waits for each to exit.
func (s *Service) Stop() {
	for _, cancel := range s.cancels {
		cancel()
	}
	for _, done := range s.done {
		<-done
	}
	s.cancels = nil
	s.done = nil
	slog.Info("background sweeps stopped")
}

func (s *Service) launch(parent context.Context, interval time.Duration, sweep func(context.Context)) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})
	s.cancels = append(s.cancels, cancel)
	s.done = append(s.done, done)

	go func() {
		defer close(done)
		sweep(ctx)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sweep(ctx)
			}
		}
	}()
}

// sweepTrustUpdate implements "continuous trust update (~5 min)": any
// agent whose quarantine window has lapsed is transitioned back to
// released, since IsQuarantined only honors the expiry per-query and
// never mutates the stored state on its own.
func (s *Service) sweepTrustUpdate(_ context.Context) {
	if s.trustStore == nil {
		return
	}
	released := s.trustStore.ReleaseExpired(time.Now())
	if len(released) > 0 {
		slog.Info("trust update sweep released expired quarantines", "count", len(released))
	}
}

// sweepCompliance implements "compliance sweep (~10 min)": re-verify the
// signature/checksum of every persisted audit entry, surfacing any
// tampering as an IntegrityFailures metric and a policy_violations event.
func (s *Service) sweepCompliance(_ context.Context) {
	if s.auditSink == nil || s.signer == nil {
		return
	}
	checked, failed := s.auditSink.VerifyAll(s.signer)
	if failed > 0 {
		slog.Error("compliance sweep found tampered audit entries", "checked", checked, "failed", failed)
		if s.metrics != nil {
			for i := 0; i < failed; i++ {
				s.metrics.IntegrityFailures.Inc()
			}
		}
		if s.broker != nil {
			s.broker.Publish(events.TypePolicyViolations, map[string]interface{}{
				"checked": checked,
				"failed":  failed,
			})
		}
	}
}

// sweepSegmentValidation implements "network-segment validation
// (~30 min)": re-check every segment's structural and isolation
// invariants.
func (s *Service) sweepSegmentValidation(_ context.Context) {
	if s.segments == nil {
		return
	}
	if errs := s.segments.ValidateAll(); len(errs) > 0 {
		slog.Error("network segment validation found violations", "count", len(errs))
		if s.broker != nil {
			s.broker.Publish(events.TypePolicyViolations, errs)
		}
	}
}

// sweepMetrics implements "metrics collection (~1 min)": snapshot
// in-memory gauges and publish a performance_metrics event.
func (s *Service) sweepMetrics(_ context.Context) {
	if s.metrics == nil {
		return
	}
	var tracked, quarantined int
	if s.trustStore != nil {
		agents := s.trustStore.Agents()
		tracked = len(agents)
		now := time.Now()
		for _, id := range agents {
			if s.trustStore.IsQuarantined(id, now) {
				quarantined++
			}
		}
	}
	s.metrics.TrackedAgents.Set(float64(tracked))
	s.metrics.QuarantinedAgents.Set(float64(quarantined))

	liveMarkers := 0
	if s.markers != nil {
		liveMarkers = s.markers.ItemCount()
	}

	if s.broker != nil {
		s.broker.Publish(events.TypePerformanceMetrics, map[string]interface{}{
			"tracked_agents":     tracked,
			"quarantined_agents": quarantined,
			"live_ttl_markers":   liveMarkers,
		})
	}
}

// sweepAuditRetention implements "audit retention cleanup (~24 h)":
// purge entries whose per-entry retention window has elapsed.
func (s *Service) sweepAuditRetention(_ context.Context) {
	if s.auditSink == nil {
		return
	}
	removed := s.auditSink.Purge(time.Now())
	if removed > 0 {
		slog.Info("audit retention sweep purged expired entries", "count", removed)
	}
}

// sweepThreatIntel implements "threat-intelligence refresh (~4 h)":
// reload the bad-IP/pattern set from the configured IndicatorSource.
func (s *Service) sweepThreatIntel(_ context.Context) {
	if s.threat == nil || s.indicators == nil {
		return
	}
	if err := s.threat.Reload(s.indicators); err != nil {
		slog.Error("threat intelligence refresh failed", "error", err)
	}
}

// sweepReconciliation implements spec.md §5's "Cancellation" paragraph:
// partial adaptive actions left pending by a cancelled, timed-out, or
// failed execution are swept on an interval: entries past their expiry
// are dropped and logged. They are not re-executed.
func (s *Service) sweepReconciliation(_ context.Context) {
	if s.pending == nil {
		return
	}
	expired := s.pending.Sweep(time.Now())
	if len(expired) > 0 {
		slog.Warn("reconciliation sweep found unacknowledged actions", "count", len(expired))
	}
}
