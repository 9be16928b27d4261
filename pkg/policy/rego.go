package policy

import (
	"context"

	"github.com/open-policy-agent/opa/v1/rego"

	"github.com/codeready-toolchain/trustmesh/pkg/identity"
	"github.com/codeready-toolchain/trustmesh/pkg/risk"
	"github.com/codeready-toolchain/trustmesh/pkg/trust"
)

// RegoPredicate compiles a rego module into a Predicate, satisfying spec.md
// §4.4's "additional user-defined predicates over context fields" clause
// without inventing a bespoke expression language: operators write the
// predicate as a rego rule, and the module evaluates it with the current
// (context, trust, risk) triple bound as input.
type RegoPredicate struct {
	query rego.PreparedEvalQuery
}

// NewRegoPredicate compiles module (a rego policy exposing a boolean rule
// at allowQuery, e.g. "data.trustmesh.allow") once at construction time, so
// repeated Eval calls only pay for evaluation, not compilation.
func NewRegoPredicate(ctx context.Context, allowQuery, module string) (*RegoPredicate, error) {
	r := rego.New(
		rego.Query(allowQuery),
		rego.Module("predicate.rego", module),
	)
	prepared, err := r.PrepareForEval(ctx)
	if err != nil {
		return nil, err
	}
	return &RegoPredicate{query: prepared}, nil
}

// Predicate adapts the compiled rego query into the Predicate signature
// Condition.Matches expects. A rego evaluation error or an undefined
// result is treated as "not present" — per spec.md §4.4's missing-field
// rule, an indeterminate predicate must never be taken as a match.
func (p *RegoPredicate) Predicate() Predicate {
	return func(secCtx *identity.SecurityContext, score *trust.Score, assessment *risk.Assessment) (matched bool, present bool) {
		input := regoInput(secCtx, score, assessment)
		results, err := p.query.Eval(context.Background(), rego.EvalInput(input))
		if err != nil || len(results) == 0 || len(results[0].Expressions) == 0 {
			return false, false
		}
		allowed, ok := results[0].Expressions[0].Value.(bool)
		if !ok {
			return false, false
		}
		return allowed, true
	}
}

func regoInput(ctx *identity.SecurityContext, score *trust.Score, assessment *risk.Assessment) map[string]interface{} {
	input := map[string]interface{}{}
	if ctx != nil {
		input["actor"] = map[string]interface{}{
			"agent_id":       ctx.Actor.AgentID,
			"agent_type":     ctx.Actor.AgentType,
			"source_segment": ctx.Actor.SourceSegment,
			"ip":             ctx.Actor.IP,
			"location":       ctx.Actor.Location,
			"device":         ctx.Actor.Device,
		}
		input["identity"] = map[string]interface{}{
			"verified":    ctx.Identity.Verified,
			"method":      ctx.Identity.Method,
			"trust_level": ctx.Identity.TrustLevel,
		}
		input["behavior"] = map[string]interface{}{
			"pattern_label": ctx.Behavior.PatternLabel,
			"anomaly_score": ctx.Behavior.AnomalyScore,
		}
		input["resource"] = map[string]interface{}{
			"type":           ctx.Resource.Type,
			"classification": ctx.Resource.Classification,
			"owner":          ctx.Resource.Owner,
			"sensitivity":    string(ctx.Resource.Sensitivity),
		}
	}
	if score != nil {
		input["trust"] = map[string]interface{}{
			"overall": score.Overall,
			"state":   string(score.State),
		}
	}
	if assessment != nil {
		input["risk"] = map[string]interface{}{
			"level": string(assessment.Level),
			"score": assessment.Score,
		}
	}
	return input
}
