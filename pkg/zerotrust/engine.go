// Package zerotrust implements the zero-trust decision service (spec.md
// §4.6, component C7): the orchestration entry point that ties together
// the security context, trust calculator, risk assessor, policy engine,
// adaptive responder, and audit log into one evaluate_access call.
package zerotrust

import (
	"context"
	"log/slog"
	"time"

	"github.com/codeready-toolchain/trustmesh/pkg/audit"
	"github.com/codeready-toolchain/trustmesh/pkg/identity"
	"github.com/codeready-toolchain/trustmesh/pkg/policy"
	"github.com/codeready-toolchain/trustmesh/pkg/respond"
	"github.com/codeready-toolchain/trustmesh/pkg/risk"
	trusterrors "github.com/codeready-toolchain/trustmesh/pkg/shared/errors"
	"github.com/codeready-toolchain/trustmesh/pkg/trust"
)

// DefaultDecisionTimeout bounds a single evaluate_access call (spec.md §4.6).
const DefaultDecisionTimeout = 30 * time.Second

// AccessDecision is the return value of EvaluateAccess (spec.md §3).
type AccessDecision struct {
	RequestID     string
	Allowed       bool
	Reason        string
	Trust         float64
	Risk          risk.Level
	PolicyMatches []string
	Restrictions  []string
}

// failSecureDecision is returned verbatim on any internal error (spec.md
// §4.6's failure mode).
func failSecureDecision(requestID string) *AccessDecision {
	return &AccessDecision{
		RequestID:     requestID,
		Allowed:       false,
		Reason:        "evaluation error — failing secure",
		Trust:         0,
		Risk:          risk.LevelCritical,
		PolicyMatches: nil,
	}
}

// Engine wires C2 (context), C3 (trust), C4 (risk), C5 (policy), C6
// (respond), and C8 (audit) behind the evaluate_access entry point.
type Engine struct {
	Trust           *trust.Store
	Policies        *policy.Store
	Responder       *respond.Responder
	Audit           *audit.Writer
	DecisionTimeout time.Duration

	logger *slog.Logger
}

// NewEngine builds an Engine from its collaborators. trustStore, policies,
// and auditWriter must be non-nil; responder may be nil (adaptive actions
// are then skipped and nothing is recorded for them).
func NewEngine(trustStore *trust.Store, policies *policy.Store, responder *respond.Responder, auditWriter *audit.Writer) *Engine {
	return &Engine{
		Trust:           trustStore,
		Policies:        policies,
		Responder:       responder,
		Audit:           auditWriter,
		DecisionTimeout: DefaultDecisionTimeout,
		logger:          slog.Default().With("component", "zerotrust"),
	}
}

// EvaluateAccess runs the spec.md §4.6 algorithm: build context, load
// trust, assess risk, evaluate policy, determine adaptive response, compose
// the decision, fire adaptive actions, and audit every logical step.
func (e *Engine) EvaluateAccess(ctx context.Context, action string, opts ...identity.Option) (*AccessDecision, error) {
	ctx, cancel := context.WithTimeout(ctx, e.decisionTimeout())
	defer cancel()

	// Step 1: build complete context (identity.New fills defaults and
	// mints a fresh request id).
	secCtx := identity.New(opts...)

	decision, err := e.evaluate(ctx, action, secCtx)
	if err != nil {
		e.auditSecurityEvent(ctx, secCtx, err)
		return failSecureDecision(secCtx.RequestID), nil
	}
	return decision, nil
}

func (e *Engine) evaluate(ctx context.Context, action string, secCtx *identity.SecurityContext) (*AccessDecision, error) {
	now := time.Now()
	e.audit(ctx, "evaluation_requested", secCtx.Actor.AgentID, secCtx.Resource.Type, audit.OutcomeSuccess, map[string]interface{}{
		"request_id": secCtx.RequestID,
		"action":     action,
	})

	// Quarantine is an absolute veto (spec.md §4.6): it overrides trust,
	// risk, and policy entirely, even an explicit allow policy.
	if e.IsQuarantined(secCtx.Actor.AgentID) {
		out := &AccessDecision{
			RequestID: secCtx.RequestID,
			Allowed:   false,
			Reason:    "agent is quarantined",
			Risk:      risk.LevelCritical,
		}
		e.auditDecision(ctx, secCtx, out)
		return out, nil
	}

	// Step 2: load or initialize trust score; compute a contextual-adjusted
	// copy (never persisted — see pkg/trust.Calculator.ContextualOverall).
	score := e.Trust.Get(secCtx.Actor.AgentID)
	contextualTrust := e.Trust.ContextualOverall(secCtx.Actor.AgentID, secCtx.Actor.Location, now)
	e.audit(ctx, "trust_snapshot", secCtx.Actor.AgentID, secCtx.Resource.Type, audit.OutcomeSuccess, map[string]interface{}{
		"overall":          score.Overall,
		"contextual_trust": contextualTrust,
		"state":            string(score.State),
	})

	// Step 3: compute risk assessment.
	assessment := risk.Assess(secCtx, score, now)
	e.audit(ctx, "risk_assessed", secCtx.Actor.AgentID, secCtx.Resource.Type, audit.OutcomeSuccess, map[string]interface{}{
		"level": string(assessment.Level),
		"score": assessment.Score,
	})

	// Step 4: evaluate policies.
	policyDecision := e.Policies.Evaluate(secCtx, score, assessment)
	matchedIDs := policyMatchIDs(policyDecision)
	e.audit(ctx, "policy_matched", secCtx.Actor.AgentID, secCtx.Resource.Type, audit.OutcomeSuccess, map[string]interface{}{
		"matched":      matchedIDs,
		"default_deny": policyDecision.DefaultDeny,
	})

	// Step 5: determine adaptive response.
	response := respond.Plan(assessment.Level)

	// Step 6: compose decision. Critical risk vetoes any allow.
	allowed := policyDecision.Action.Allow && assessment.Level != risk.LevelCritical
	reason := policyDecision.Action.Reason
	if assessment.Level == risk.LevelCritical && policyDecision.Action.Allow {
		reason = "critical risk vetoes policy allow"
	}
	out := &AccessDecision{
		RequestID:     secCtx.RequestID,
		Allowed:       allowed,
		Reason:        reason,
		Trust:         contextualTrust,
		Risk:          assessment.Level,
		PolicyMatches: matchedIDs,
		Restrictions:  policyDecision.Action.Restrictions,
	}
	e.auditDecision(ctx, secCtx, out)

	// Step 7: execute adaptive actions, fire-and-forget but logged.
	if e.Responder != nil {
		ids := e.Responder.Apply(ctx, secCtx.Actor.AgentID, response, now)
		for i, id := range ids {
			e.audit(ctx, "action_executed", secCtx.Actor.AgentID, secCtx.Resource.Type, audit.OutcomeSuccess, map[string]interface{}{
				"action":     string(response.Actions[i]),
				"pending_id": id,
			})
		}
	}

	return out, nil
}

func (e *Engine) decisionTimeout() time.Duration {
	if e.DecisionTimeout <= 0 {
		return DefaultDecisionTimeout
	}
	return e.DecisionTimeout
}

func policyMatchIDs(d policy.Decision) []string {
	if d.Matched == nil {
		return nil
	}
	return []string{d.Matched.ID}
}

func (e *Engine) audit(ctx context.Context, eventType, actor, target string, outcome audit.Outcome, details map[string]interface{}) {
	if e.Audit == nil {
		return
	}
	entry := audit.New(eventType, audit.CategoryOther, actor, target, outcome, details)
	if err := e.Audit.Append(ctx, entry); err != nil {
		e.logger.Error("failed to append audit entry", "event_type", eventType, "error", err)
	}
}

func (e *Engine) auditDecision(ctx context.Context, secCtx *identity.SecurityContext, d *AccessDecision) {
	outcome := audit.OutcomeSuccess
	if !d.Allowed {
		outcome = audit.OutcomeDenied
	}
	e.audit(ctx, "access_decision", secCtx.Actor.AgentID, secCtx.Resource.Type, outcome, map[string]interface{}{
		"allowed":        d.Allowed,
		"reason":         d.Reason,
		"risk_level":     string(d.Risk),
		"policy_matches": d.PolicyMatches,
	})
}

func (e *Engine) auditSecurityEvent(ctx context.Context, secCtx *identity.SecurityContext, cause error) {
	if e.Audit == nil {
		return
	}
	entry := audit.New("access_decision", audit.CategorySecurityEvent, secCtx.Actor.AgentID, secCtx.Resource.Type, audit.OutcomeError, map[string]interface{}{
		"error": cause.Error(),
	})
	if err := e.Audit.Append(ctx, entry); err != nil {
		e.logger.Error("failed to append fail-secure audit entry", "error", err)
	}
}

// Quarantine records a time-bounded quarantine marker, applies a
// security_incident/negative trust update, and emits an audit entry
// (spec.md §4.6).
func (e *Engine) Quarantine(ctx context.Context, agentID, reason string, ttl *time.Duration) {
	var until *time.Time
	if ttl != nil {
		t := time.Now().Add(*ttl)
		until = &t
	}
	e.Trust.Quarantine(agentID, reason, until)
	e.Trust.Update(agentID, trust.Event{Type: trust.EventSecurityIncident, Outcome: trust.OutcomeNegative, Reason: reason})
	e.audit(ctx, "quarantine", agentID, "", audit.OutcomeSuccess, map[string]interface{}{"reason": reason})
}

// Release issues a small positive compliance update and clears quarantine.
func (e *Engine) Release(ctx context.Context, agentID string) error {
	if err := e.Trust.Release(agentID); err != nil {
		return trusterrors.Wrap(trusterrors.KindEvaluation, "release failed", err)
	}
	e.Trust.Update(agentID, trust.Event{Type: trust.EventCompliance, Outcome: trust.OutcomePositive, Reason: "released from quarantine"})
	e.audit(ctx, "release", agentID, "", audit.OutcomeSuccess, nil)
	return nil
}

// IsQuarantined is an O(1) lookup against the trust store's per-agent
// state (spec.md §4.6).
func (e *Engine) IsQuarantined(agentID string) bool {
	return e.Trust.IsQuarantined(agentID, time.Now())
}
