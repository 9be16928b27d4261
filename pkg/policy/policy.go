// Package policy implements the policy engine (spec.md §4.4, component C5):
// a priority-ordered set of policies, each guarded by a short-circuiting
// condition predicate, with a hard default-deny when nothing matches.
package policy

import (
	"sort"

	"github.com/codeready-toolchain/trustmesh/pkg/identity"
	"github.com/codeready-toolchain/trustmesh/pkg/risk"
	trusterrors "github.com/codeready-toolchain/trustmesh/pkg/shared/errors"
	"github.com/codeready-toolchain/trustmesh/pkg/trust"
)

// Action is the verdict a matching Policy produces.
type Action struct {
	Allow        bool
	Restrictions []string
	Reason       string
}

// hasHardBlock reports whether "hard-block" appears among Restrictions.
func (a Action) hasHardBlock() bool {
	for _, r := range a.Restrictions {
		if r == "hard-block" {
			return true
		}
	}
	return false
}

// Condition is the predicate guarding a Policy. Every non-empty field is
// evaluated in order and short-circuits on the first failure (spec.md
// §4.4): risk level, agent type, network segment, then any additional
// user-defined predicates.
type Condition struct {
	RiskLevels      []risk.Level
	AgentTypes      []string
	NetworkSegments []string
	Predicates      []Predicate
}

// Predicate is a user-defined extension point evaluated against the
// request's SecurityContext fields — the same (context, trust, risk)
// inputs the built-in clauses see, expressed as an opaque callback so
// callers can back it with a rego.Evaluator (see rego.go) or a plain Go
// closure.
type Predicate func(ctx *identity.SecurityContext, score *trust.Score, assessment *risk.Assessment) (bool, bool)

// Matches evaluates the condition's clauses in spec.md §4.4's fixed order,
// short-circuiting on the first failing clause. A clause referencing a
// context field that's absent is "not matched", never implicitly matched.
func (c Condition) Matches(ctx *identity.SecurityContext, score *trust.Score, assessment *risk.Assessment) bool {
	if len(c.RiskLevels) > 0 {
		if assessment == nil || !levelIn(assessment.Level, c.RiskLevels) {
			return false
		}
	}
	if len(c.AgentTypes) > 0 {
		v, ok := ctx.Field("actor.agent_type")
		if !ok || !stringIn(v.(string), c.AgentTypes) {
			return false
		}
	}
	if len(c.NetworkSegments) > 0 {
		v, ok := ctx.Field("actor.source_segment")
		if !ok || !stringIn(v.(string), c.NetworkSegments) {
			return false
		}
	}
	for _, pred := range c.Predicates {
		matched, present := pred(ctx, score, assessment)
		if !present || !matched {
			return false
		}
	}
	return true
}

func levelIn(l risk.Level, set []risk.Level) bool {
	for _, v := range set {
		if v == l {
			return true
		}
	}
	return false
}

func stringIn(s string, set []string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}

// Policy is one priority-ordered rule in the engine (spec.md §3 Policy).
type Policy struct {
	ID        string
	Name      string
	Enabled   bool
	Priority  int // 0-100, higher wins
	Condition Condition
	Action    Action
}

// Validate enforces spec.md §4.4's add-time checks: id and name non-empty,
// priority in range, and action internally consistent.
func (p *Policy) Validate() error {
	if p.ID == "" {
		return trusterrors.New(trusterrors.KindPolicyValidation, "policy id is required")
	}
	if p.Name == "" {
		return trusterrors.New(trusterrors.KindPolicyValidation, "policy name is required")
	}
	if p.Priority < 0 || p.Priority > 100 {
		return trusterrors.New(trusterrors.KindPolicyValidation, "policy priority must be in [0,100]")
	}
	if p.Action.Allow && p.Action.hasHardBlock() {
		return trusterrors.New(trusterrors.KindPolicyValidation, "policy action cannot both allow and hard-block")
	}
	return nil
}

// Decision is the outcome of Evaluate: either a matched policy's action, or
// the hard default-deny.
type Decision struct {
	Matched    *Policy
	Action     Action
	DefaultDeny bool
}

var defaultDenyAction = Action{
	Allow:        false,
	Restrictions: []string{"hard-block"},
	Reason:       "no enabled policy matched; default-deny applies",
}

// Evaluate gathers enabled policies, filters to those whose condition
// matches, and picks the highest-priority match, breaking ties by
// lexicographically smallest id (spec.md §4.4). With no matches the hard
// default-deny applies.
func Evaluate(policies []*Policy, ctx *identity.SecurityContext, score *trust.Score, assessment *risk.Assessment) Decision {
	var candidates []*Policy
	for _, p := range policies {
		if !p.Enabled {
			continue
		}
		if p.Condition.Matches(ctx, score, assessment) {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return Decision{Action: defaultDenyAction, DefaultDeny: true}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].ID < candidates[j].ID
	})
	winner := candidates[0]
	return Decision{Matched: winner, Action: winner.Action}
}
