// Package risk implements the risk assessor (spec.md §4.3, component C4):
// a deterministic, pure function of a SecurityContext and a TrustScore that
// builds a list of risk factors, aggregates them, and derives mitigations
// and recommendations.
package risk

import (
	"sort"
	"time"

	"github.com/codeready-toolchain/trustmesh/pkg/identity"
	"github.com/codeready-toolchain/trustmesh/pkg/trust"
)

// Level is the discrete risk band an Assessment falls into.
type Level string

const (
	LevelVeryLow  Level = "very_low"
	LevelLow      Level = "low"
	LevelMedium   Level = "medium"
	LevelHigh     Level = "high"
	LevelVeryHigh Level = "very_high"
	LevelCritical Level = "critical"
)

// Severity classifies an individual RiskFactor.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Factor is one contributing reason for a risk Assessment (spec.md §3
// RiskAssessment.risk_factors).
type Factor struct {
	Type        string
	Severity    Severity
	Description string
	Score       float64
	Mitigated   bool
}

// Assessment is the full output of Assess (spec.md §3 RiskAssessment):
// ephemeral, valid only until Deadline, never cached across it.
type Assessment struct {
	Level           Level
	Score           float64
	Factors         []Factor
	Mitigations     []string
	Recommendations []string
	Confidence      float64
	Deadline        time.Time
}

// validityWindow is how long an Assessment is considered fresh before a
// caller must re-evaluate rather than reuse it (spec.md §4.3).
const validityWindow = 5 * time.Minute

// anomalyThreshold is the behavior-anomaly-score cutoff above which a
// behavior risk factor is raised (spec.md §4.3).
const anomalyThreshold = 0.7

// lowTrustThreshold is the overall-trust cutoff below which a trust risk
// factor is raised (spec.md §4.3).
const lowTrustThreshold = 0.3

// Assess is a deterministic function of ctx and score: same inputs always
// produce the same Factors, Score, and Level (spec.md §4.3's "deterministic
// function" invariant). now is threaded in explicitly so the function
// itself never reaches for the wall clock.
func Assess(ctx *identity.SecurityContext, score *trust.Score, now time.Time) *Assessment {
	factors := buildFactors(ctx, score)
	agg := aggregate(factors)
	level := levelFor(agg)

	return &Assessment{
		Level:           level,
		Score:           agg,
		Factors:         factors,
		Mitigations:     mitigationsFor(factors),
		Recommendations: recommendationsFor(factors),
		Confidence:      confidenceFor(factors),
		Deadline:        now.Add(validityWindow),
	}
}

func buildFactors(ctx *identity.SecurityContext, score *trust.Score) []Factor {
	var factors []Factor

	if ctx != nil && !ctx.Identity.Verified {
		factors = append(factors, Factor{
			Type:        "identity",
			Severity:    SeverityHigh,
			Description: "actor identity is not verified",
			Score:       0.8,
		})
	}

	if ctx != nil && ctx.Behavior.AnomalyScore > anomalyThreshold {
		factors = append(factors, Factor{
			Type:        "behavior",
			Severity:    SeverityMedium,
			Description: "behavior anomaly score exceeds threshold",
			Score:       0.6,
		})
	}

	if score != nil && score.Overall < lowTrustThreshold {
		factors = append(factors, Factor{
			Type:        "identity",
			Severity:    SeverityHigh,
			Description: "overall trust score is below the low-trust threshold",
			Score:       0.9,
		})
	}

	return factors
}

// aggregate is the arithmetic mean of factor scores, or 0 for no factors
// (spec.md §4.3).
func aggregate(factors []Factor) float64 {
	if len(factors) == 0 {
		return 0
	}
	var sum float64
	for _, f := range factors {
		sum += f.Score
	}
	return sum / float64(len(factors))
}

// levelFor applies spec.md §4.3's threshold bands, each with an inclusive
// lower bound.
func levelFor(score float64) Level {
	switch {
	case score >= 0.9:
		return LevelCritical
	case score >= 0.7:
		return LevelVeryHigh
	case score >= 0.5:
		return LevelHigh
	case score >= 0.3:
		return LevelMedium
	case score >= 0.1:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

var mitigationByFactorType = map[string]string{
	"identity": "verify actor identity through a stronger authentication factor",
	"behavior": "flag the session for enhanced behavioral monitoring",
}

func mitigationsFor(factors []Factor) []string {
	return dedupInOrder(factors, func(f Factor) string {
		return mitigationByFactorType[f.Type]
	})
}

var recommendationByFactorType = map[string]string{
	"identity": "require re-authentication before granting further access",
	"behavior": "review recent activity for this agent",
}

func recommendationsFor(factors []Factor) []string {
	return dedupInOrder(factors, func(f Factor) string {
		return recommendationByFactorType[f.Type]
	})
}

func dedupInOrder(factors []Factor, pick func(Factor) string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, f := range factors {
		v := pick(f)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// confidenceFor is lower when no factors are present (nothing to weigh the
// assessment against) and otherwise rises with the number of corroborating
// factors, capped at 1.
func confidenceFor(factors []Factor) float64 {
	if len(factors) == 0 {
		return 0.5
	}
	c := 0.6 + 0.1*float64(len(factors))
	if c > 1 {
		c = 1
	}
	return c
}
