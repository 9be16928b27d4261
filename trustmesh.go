// Package trustmesh wires C1-C11 together behind the inbound API spec.md
// §6 names: evaluate_access, update_trust, policy/segment management,
// quarantine/release, log_event/query_audit/verify, and the replicated
// kv_put/kv_get/kv_observe trio. Core is the composition root; every
// subsystem package stays independently usable, but an embedding
// application normally talks to Core alone.
package trustmesh

import (
	"context"
	"crypto/rand"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/trustmesh/pkg/anomaly"
	"github.com/codeready-toolchain/trustmesh/pkg/audit"
	"github.com/codeready-toolchain/trustmesh/pkg/clock"
	"github.com/codeready-toolchain/trustmesh/pkg/cleanup"
	"github.com/codeready-toolchain/trustmesh/pkg/conflict"
	"github.com/codeready-toolchain/trustmesh/pkg/config"
	"github.com/codeready-toolchain/trustmesh/pkg/events"
	"github.com/codeready-toolchain/trustmesh/pkg/identity"
	"github.com/codeready-toolchain/trustmesh/pkg/kv"
	"github.com/codeready-toolchain/trustmesh/pkg/policy"
	"github.com/codeready-toolchain/trustmesh/pkg/respond"
	"github.com/codeready-toolchain/trustmesh/pkg/slack"
	"github.com/codeready-toolchain/trustmesh/pkg/telemetry"
	"github.com/codeready-toolchain/trustmesh/pkg/trust"
	"github.com/codeready-toolchain/trustmesh/pkg/ttlstore"
	"github.com/codeready-toolchain/trustmesh/pkg/value"
	"github.com/codeready-toolchain/trustmesh/pkg/zerotrust"
)

// Core is the single entry point an embedding application holds. Every
// field is safe for concurrent use; Core itself carries no additional
// locking since each collaborator already guards its own state.
type Core struct {
	cfg *config.Config

	Trust    *trust.Store
	Policies *policy.Store
	Segments *identity.SegmentStore
	KV       *kv.Store

	auditWriter *audit.Writer
	auditSink   *audit.MemorySink
	signer      audit.Signer

	Engine    *zerotrust.Engine
	Responder *respond.Responder

	Detector   *anomaly.Detector
	Correlator *anomaly.Correlator
	Threat     *anomaly.ThreatIndicators

	Broker  *events.Broker
	Metrics *telemetry.Metrics
	Markers *ttlstore.Store
	Slack   *slack.Service

	Cleanup *cleanup.Service

	logger *slog.Logger
}

// options collects the constructor-time overrides NewCore accepts. Every
// field is optional; an unset field falls back to a sensible default
// built from cfg, mirroring tarsy's functional-options constructors.
type options struct {
	nodeID          string
	signer          audit.Signer
	auditSink       *audit.MemorySink
	executor        respond.Executor
	notifier        respond.Notifier
	indicatorSource anomaly.IndicatorSource
	slack           *slack.Service
	kvRules         []conflict.Rule
}

// Option customizes NewCore.
type Option func(*options)

// WithNodeID sets the node id stamped on locally-originated KV clocks.
// Defaults to "trustmesh-node" when omitted.
func WithNodeID(id string) Option { return func(o *options) { o.nodeID = id } }

// WithSigner overrides the audit signer NewCore would otherwise select
// from cfg.Security.DigitalSignatures.
func WithSigner(s audit.Signer) Option { return func(o *options) { o.signer = s } }

// WithAuditSink overrides the in-process query sink. Production
// deployments that back Sink with a durable store still want queries
// served from somewhere; pass a sink that also implements the
// MemorySink-shaped query surface, or leave this unset to get the
// built-in in-memory reference sink.
func WithAuditSink(s *audit.MemorySink) Option { return func(o *options) { o.auditSink = s } }

// WithExecutor wires C6's adaptive-action executor (e.g. one backed by a
// sandbox/orchestration API). Without one, actions are acknowledged
// without being carried out.
func WithExecutor(e respond.Executor) Option { return func(o *options) { o.executor = e } }

// WithNotifier wires C6's alert_admin side channel.
func WithNotifier(n respond.Notifier) Option { return func(o *options) { o.notifier = n } }

// WithIndicatorSource wires the threat-intelligence refresh background
// task's pluggable source (spec.md §1).
func WithIndicatorSource(s anomaly.IndicatorSource) Option {
	return func(o *options) { o.indicatorSource = s }
}

// WithSlack wires C9's alert-lifecycle Slack notifications.
func WithSlack(s *slack.Service) Option { return func(o *options) { o.slack = s } }

// WithKVRules overrides the per-namespace conflict resolution rule table
// (spec.md §4.9); nil falls back to the resolver's built-in lww default.
func WithKVRules(rules []conflict.Rule) Option { return func(o *options) { o.kvRules = rules } }

// noopSigner is selected when cfg.Security.DigitalSignatures is false: it
// still participates in Seal/Verify's canonical flow so every entry
// carries a signature field, but the signature itself proves nothing.
// Checksums (security.log_integrity) are independent of this choice.
type noopSigner struct{}

func (noopSigner) Sign(*audit.Entry) (string, error)         { return "unsigned", nil }
func (noopSigner) Verify(*audit.Entry, string) (bool, error) { return true, nil }

// defaultHMACSigner mints an ephemeral random key. An embedding
// application that needs a stable, shared signing key across restarts
// must supply one explicitly via WithSigner.
func defaultHMACSigner() (audit.Signer, error) {
	key := make([]byte, audit.MinHMACKeyLength)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return audit.NewHMACSigner(key)
}

// NewCore wires every component per cfg, applying any overrides opts
// supply. cfg must not be nil; use config.Builtin() for an
// all-defaults configuration.
func NewCore(cfg *config.Config, opts ...Option) (*Core, error) {
	o := &options{nodeID: "trustmesh-node"}
	for _, opt := range opts {
		opt(o)
	}

	signer := o.signer
	if signer == nil {
		if cfg.Security.DigitalSignatures {
			s, err := defaultHMACSigner()
			if err != nil {
				return nil, err
			}
			signer = s
		} else {
			signer = noopSigner{}
		}
	}

	auditSink := o.auditSink
	if auditSink == nil {
		auditSink = audit.NewMemorySink()
	}

	writerCfg := audit.WriterConfig{
		Capacity:      cfg.Performance.BufferSize,
		FlushInterval: cfg.FlushInterval(),
	}
	auditWriter := audit.NewWriter(writerCfg, signer, auditSink)

	calc := trust.NewCalculator()
	if cfg.Trust.InitialScore > 0 {
		calc.InitialScore = cfg.Trust.InitialScore
	}
	trustStore := trust.NewStore(calc)
	policies := policy.NewStore()
	segments := identity.NewSegmentStore()
	kvStore := kv.NewStore(o.nodeID, o.kvRules)

	responder := respond.NewResponder(o.executor, o.notifier)
	engine := zerotrust.NewEngine(trustStore, policies, responder, auditWriter)

	detector := anomaly.NewDetector(anomaly.DefaultAuthFailureWindow())
	correlatorCfg := anomaly.DefaultCorrelationConfig()
	if w := cfg.CorrelationWindow(); w > 0 {
		correlatorCfg.Window = w
	}
	correlator := anomaly.NewCorrelator(correlatorCfg)
	threat, err := anomaly.NewThreatIndicators(nil, nil)
	if err != nil {
		return nil, err
	}

	broker := events.NewBroker()
	metrics := telemetry.New()
	markers := ttlstore.New(time.Hour)

	c := &Core{
		cfg:         cfg,
		Trust:       trustStore,
		Policies:    policies,
		Segments:    segments,
		KV:          kvStore,
		auditWriter: auditWriter,
		auditSink:   auditSink,
		signer:      signer,
		Engine:      engine,
		Responder:   responder,
		Detector:    detector,
		Correlator:  correlator,
		Threat:      threat,
		Broker:      broker,
		Metrics:     metrics,
		Markers:     markers,
		Slack:       o.slack,
		logger:      slog.Default().With("component", "trustmesh"),
	}

	cleanupCfg := cleanup.DefaultConfig()
	c.Cleanup = cleanup.NewService(cleanupCfg, trustStore, segments, auditSink, signer, threat,
		o.indicatorSource, responder.Pending, metrics, markers, broker)

	return c, nil
}

// Start launches the audit writer's periodic flush timer and every
// background sweep. Stop must be called to release them.
func (c *Core) Start(ctx context.Context) {
	c.auditWriter.Start(ctx)
	c.Cleanup.Start(ctx)
}

// Stop halts every background sweep and then the audit writer, in that
// order so no sweep observes a writer mid-shutdown.
func (c *Core) Stop() {
	c.Cleanup.Stop()
	c.auditWriter.Stop()
}

// EvaluateAccess implements spec.md §6's evaluate_access(agent_id,
// resource, action, partial_context). agentID and resourceType seed the
// context's actor/resource blocks; opts may override or extend any other
// field (location, device, behavior signal, metadata).
func (c *Core) EvaluateAccess(ctx context.Context, agentID, resourceType, action string, opts ...identity.Option) (*zerotrust.AccessDecision, error) {
	base := []identity.Option{
		identity.WithActor(identity.Actor{AgentID: agentID}),
		identity.WithResource(identity.ResourceBlock{Type: resourceType, Sensitivity: identity.SensitivityInternal}),
	}
	decision, err := c.Engine.EvaluateAccess(ctx, action, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	c.Broker.Publish(events.TypeAccessDecision, decision)
	c.Metrics.RecordAccessDecision(decision.Allowed, string(decision.Risk))
	c.observeFinding(ctx, anomaly.Finding{
		Timestamp: time.Now(),
		EventType: "access_decision",
		Actor:     agentID,
		Target:    resourceType,
		Outcome:   outcomeFor(decision.Allowed),
	})
	return decision, nil
}

func outcomeFor(allowed bool) string {
	if allowed {
		return "success"
	}
	return "denied"
}

// UpdateTrust implements spec.md §6's update_trust(agent_id, event).
func (c *Core) UpdateTrust(agentID string, event trust.Event) *trust.Score {
	score := c.Trust.Update(agentID, event)
	c.Broker.Publish(events.TypeTrustScoreUpdated, score)
	return score
}

// AddPolicy implements spec.md §6's add_policy(policy).
func (c *Core) AddPolicy(p *policy.Policy) error {
	if err := c.Policies.Add(p); err != nil {
		return err
	}
	c.Broker.Publish(events.TypePolicyAdded, p)
	return nil
}

// RemovePolicy implements spec.md §6's remove_policy(id).
func (c *Core) RemovePolicy(id string) bool {
	removed := c.Policies.Remove(id)
	if removed {
		c.Broker.Publish(events.TypePolicyRemoved, id)
	}
	return removed
}

// ListPolicies implements spec.md §6's list_policies().
func (c *Core) ListPolicies() []*policy.Policy {
	return c.Policies.List()
}

// CreateSegment implements spec.md §6's create_segment(segment).
func (c *Core) CreateSegment(seg *identity.NetworkSegment) error {
	if err := c.Segments.Create(seg); err != nil {
		return err
	}
	c.Broker.Publish(events.TypeSegmentCreated, seg)
	return nil
}

// ListSegments implements spec.md §6's list_segments().
func (c *Core) ListSegments() []*identity.NetworkSegment {
	return c.Segments.List()
}

// Quarantine implements spec.md §6's quarantine(agent_id, reason, ttl?),
// additionally setting a TTL marker so an embedding application can
// answer is_quarantined from persisted state, not just the in-memory
// trust store.
func (c *Core) Quarantine(ctx context.Context, agentID, reason string, ttl *time.Duration) {
	c.Engine.Quarantine(ctx, agentID, reason, ttl)
	markerTTL := time.Hour
	if ttl != nil {
		markerTTL = *ttl
	}
	c.Markers.SetQuarantine(agentID, reason, markerTTL)
	c.Broker.Publish(events.TypeAgentQuarantined, map[string]interface{}{"agent_id": agentID, "reason": reason})
}

// Release implements spec.md §6's release(agent_id).
func (c *Core) Release(ctx context.Context, agentID string) error {
	if err := c.Engine.Release(ctx, agentID); err != nil {
		return err
	}
	c.Markers.ClearQuarantine(agentID)
	c.Broker.Publish(events.TypeAgentReleased, agentID)
	return nil
}

// IsQuarantined implements spec.md §6's is_quarantined(agent_id).
func (c *Core) IsQuarantined(agentID string) bool {
	return c.Engine.IsQuarantined(agentID)
}

// LogEvent implements spec.md §6's log_event(event_type, category, actor,
// target, action, outcome, details?, options?) → log_id. action is folded
// into details under the "action" key since audit.Entry has no dedicated
// field for it. Every appended entry is also fed through C9's real-time
// monitoring pipeline.
func (c *Core) LogEvent(ctx context.Context, eventType string, category audit.Category, actor, target, action string, outcome audit.Outcome, details map[string]interface{}) (string, error) {
	if details == nil {
		details = make(map[string]interface{}, 1)
	}
	if action != "" {
		details["action"] = action
	}
	entry := audit.New(eventType, category, actor, target, outcome, details)
	if err := c.auditWriter.Append(ctx, entry); err != nil {
		return "", err
	}
	c.Broker.Publish(events.TypeLogEntryCreated, entry.LogID)

	c.observeFinding(ctx, anomaly.Finding{
		Timestamp: entry.Timestamp,
		EventType: entry.EventType,
		Actor:     entry.Actor,
		ActorIP:   stringDetail(details, "actor_ip"),
		Target:    entry.Target,
		Outcome:   string(entry.Outcome),
		Details:   details,
	})
	return entry.LogID, nil
}

func stringDetail(details map[string]interface{}, key string) string {
	if v, ok := details[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// QueryAudit implements spec.md §6's query_audit(filters).
func (c *Core) QueryAudit(q audit.Query) audit.QueryResult {
	return c.auditSink.Query(q)
}

// Verify implements spec.md §6's verify(entry) → { valid, issues },
// gating the checksum check on security.log_integrity and the signature
// check on security.digital_signatures — a disabled gate is reported as
// already satisfied rather than silently skipped, so valid stays true
// when neither integrity feature is turned on.
func (c *Core) Verify(entry *audit.Entry) (bool, []string) {
	var issues []string
	if c.cfg.Security.LogIntegrity && audit.Checksum(entry) != entry.Checksum {
		issues = append(issues, "checksum_mismatch")
	}
	if c.cfg.Security.DigitalSignatures {
		ok, err := c.signer.Verify(entry, entry.Signature)
		switch {
		case err != nil:
			issues = append(issues, "signature_verification_error")
		case !ok:
			issues = append(issues, "signature_invalid")
		}
	}
	return len(issues) == 0, issues
}

// KVPut implements spec.md §6's kv_put(ns, key, value) → clock_snapshot.
func (c *Core) KVPut(ns, key string, v value.Value) *clock.Clock {
	return c.KV.Put(ns, key, v)
}

// KVGet implements spec.md §6's kv_get(ns, key) → value?.
func (c *Core) KVGet(ns, key string) (value.Value, bool) {
	return c.KV.Get(ns, key)
}

// KVObserve implements spec.md §6's kv_observe(peer_update) →
// conflict_result?.
func (c *Core) KVObserve(u kv.PeerUpdate) *conflict.Resolution {
	res := c.KV.Observe(u)
	if res != nil {
		c.Metrics.RecordConflictResolution(res.Strategy)
	}
	return res
}

// observeFinding feeds one Finding through the detector, correlator, and
// threat-indicator check (spec.md §4.8), and on any resulting
// SecurityAlert runs the fixed auto-response action list, publishes a
// security_alert event, and notifies Slack if configured. Best-effort:
// never returns an error to the caller that triggered the underlying
// audit entry.
func (c *Core) observeFinding(ctx context.Context, f anomaly.Finding) {
	alerts := []*anomaly.SecurityAlert{
		c.Detector.Observe(f),
		c.Correlator.Observe(f),
		c.Threat.Check(f),
	}
	for _, alert := range alerts {
		if alert == nil {
			continue
		}
		anomaly.AutoRespond(ctx, responderExecutorAdapter{c.Responder}, alert)
		c.Broker.Publish(events.TypeSecurityAlert, alert)
		c.Slack.NotifyAlertRaised(ctx, alert)
		c.logger.Warn("security alert raised", "alert_id", alert.ID, "type", alert.Type, "severity", alert.Severity)
	}
}

// responderExecutorAdapter lets C9's alert auto-response share C6's
// Executor instead of requiring its own, since both simply carry out a
// named action against an agent.
type responderExecutorAdapter struct {
	r *respond.Responder
}

func (a responderExecutorAdapter) Execute(ctx context.Context, agentID, action string) error {
	if a.r == nil || a.r.Executor == nil {
		return nil
	}
	return a.r.Executor.Execute(ctx, agentID, respond.Action(action))
}
