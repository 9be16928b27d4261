package conflict

import (
	"fmt"

	"github.com/codeready-toolchain/trustmesh/pkg/clock"
	"github.com/codeready-toolchain/trustmesh/pkg/value"
)

// Strategy is a pure function from a conflicting (local, remote) pair (and
// an optional common ancestor) to a Resolution. Implementations must not
// read or write any state outside their arguments (spec.md §4.9: "All
// strategies must be pure w.r.t. their inputs").
type Strategy func(local, remote ConflictValue, ancestor *ConflictValue) Resolution

// Name identifies a built-in strategy for rule selection.
type Name string

const (
	StrategyLWW          Name = "lww"
	StrategyMVR          Name = "mvr"
	StrategyPriority     Name = "priority"
	StrategyUnion        Name = "union"
	StrategyIntersection Name = "intersection"
	StrategySemantic     Name = "semantic"
	StrategyOperational  Name = "operational"
)

// Strategies is the built-in registry, keyed by Name.
var Strategies = map[Name]Strategy{
	StrategyLWW:          LWW,
	StrategyMVR:          MVR,
	StrategyPriority:     Priority,
	StrategyUnion:        Union,
	StrategyIntersection: Intersection,
	StrategySemantic:     Semantic,
	StrategyOperational:  Operational,
}

// LWW implements spec.md §4.9's lww strategy: vector-clock comparison
// breaks the tie outright; a true concurrent write falls back to the
// later wall-clock timestamp.
func LWW(local, remote ConflictValue, _ *ConflictValue) Resolution {
	if local.Clock != nil && remote.Clock != nil {
		switch local.Clock.Compare(remote.Clock) {
		case clock.After:
			return Resolution{Strategy: string(StrategyLWW), Value: local.Value, Confidence: 0.9, Reasoning: "local clock is causally after remote"}
		case clock.Before:
			return Resolution{Strategy: string(StrategyLWW), Value: remote.Value, Confidence: 0.9, Reasoning: "remote clock is causally after local"}
		}
	}
	if local.Timestamp.After(remote.Timestamp) {
		return Resolution{Strategy: string(StrategyLWW), Value: local.Value, Confidence: 0.7, Reasoning: "concurrent clocks, local has the later timestamp"}
	}
	return Resolution{Strategy: string(StrategyLWW), Value: remote.Value, Confidence: 0.7, Reasoning: "concurrent clocks, remote has the later or equal timestamp"}
}

// MVR implements spec.md §4.9's mvr strategy: keep both, flag for manual
// review.
func MVR(local, remote ConflictValue, _ *ConflictValue) Resolution {
	return Resolution{
		Strategy:     string(StrategyMVR),
		Value:        local.Value,
		Alternatives: []value.Value{remote.Value},
		Confidence:   0.5,
		Reasoning:    "multiple concurrent versions retained for manual review",
		ManualReview: true,
	}
}

func metadataPriority(v ConflictValue) int {
	if v.Metadata == nil {
		return 5
	}
	if p, ok := v.Metadata["priority"].(int); ok {
		return p
	}
	return 5
}

// Priority implements spec.md §4.9's priority strategy: higher
// metadata.priority wins (default 5); ties are flagged for manual review.
func Priority(local, remote ConflictValue, _ *ConflictValue) Resolution {
	lp, rp := metadataPriority(local), metadataPriority(remote)
	switch {
	case lp > rp:
		return Resolution{Strategy: string(StrategyPriority), Value: local.Value, Confidence: 0.9, Reasoning: fmt.Sprintf("local priority %d beats remote priority %d", lp, rp)}
	case rp > lp:
		return Resolution{Strategy: string(StrategyPriority), Value: remote.Value, Confidence: 0.9, Reasoning: fmt.Sprintf("remote priority %d beats local priority %d", rp, lp)}
	default:
		return Resolution{
			Strategy:     string(StrategyPriority),
			Value:        local.Value,
			Alternatives: []value.Value{remote.Value},
			Confidence:   0.5,
			Reasoning:    "equal priority; manual review required",
			ManualReview: true,
		}
	}
}

// Union implements spec.md §4.9's union strategy for arrays; falls back to
// lww for any other kind.
func Union(local, remote ConflictValue, ancestor *ConflictValue) Resolution {
	la, lok := local.Value.Array()
	ra, rok := remote.Value.Array()
	if !lok || !rok {
		return fallbackScalar(StrategyUnion, local, remote, ancestor)
	}
	merged := dedupValues(append(append([]value.Value{}, la...), ra...))
	return Resolution{Strategy: string(StrategyUnion), Value: value.Array(merged...), Confidence: 0.8, Reasoning: "union of both arrays, deduplicated"}
}

// Intersection implements spec.md §4.9's intersection strategy for arrays;
// falls back to lww for any other kind.
func Intersection(local, remote ConflictValue, ancestor *ConflictValue) Resolution {
	la, lok := local.Value.Array()
	ra, rok := remote.Value.Array()
	if !lok || !rok {
		return fallbackScalar(StrategyIntersection, local, remote, ancestor)
	}
	var out []value.Value
	for _, a := range la {
		for _, b := range ra {
			if value.Equal(a, b) {
				out = append(out, a)
				break
			}
		}
	}
	return Resolution{Strategy: string(StrategyIntersection), Value: value.Array(out...), Confidence: 0.8, Reasoning: "intersection of both arrays"}
}

func fallbackScalar(name Name, local, remote ConflictValue, ancestor *ConflictValue) Resolution {
	r := LWW(local, remote, ancestor)
	r.Strategy = string(name)
	r.Reasoning = "non-array/set values; fell back to lww — " + r.Reasoning
	return r
}

func dedupValues(vs []value.Value) []value.Value {
	var out []value.Value
	for _, v := range vs {
		dup := false
		for _, existing := range out {
			if value.Equal(existing, v) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, v)
		}
	}
	return out
}

// Semantic implements spec.md §4.9's semantic strategy: a recursive,
// kind-aware merge with schema-hint overrides in metadata.schema_hint.
func Semantic(local, remote ConflictValue, _ *ConflictValue) Resolution {
	hint, _ := local.Metadata["schema_hint"].(string)
	if hint == "" {
		hint, _ = remote.Metadata["schema_hint"].(string)
	}
	merged := semanticMerge(local.Value, remote.Value, hint)
	return Resolution{Strategy: string(StrategySemantic), Value: merged, Confidence: 0.75, Reasoning: "recursive semantic merge" + hintSuffix(hint)}
}

func hintSuffix(hint string) string {
	if hint == "" {
		return ""
	}
	return fmt.Sprintf(" (schema hint: %s)", hint)
}

func semanticMerge(a, b value.Value, hint string) value.Value {
	switch hint {
	case "prefer_local":
		return a
	case "prefer_remote":
		return b
	}

	if a.Kind() != b.Kind() {
		return b // structural mismatch under semantic merge: remote wins
	}

	switch a.Kind() {
	case value.KindObject:
		ao, _ := a.Object()
		bo, _ := b.Object()
		out := make(map[string]value.Value, len(ao)+len(bo))
		for k, v := range ao {
			out[k] = v
		}
		for k, bv := range bo {
			if av, ok := out[k]; ok {
				out[k] = semanticMerge(av, bv, hint)
			} else {
				out[k] = bv
			}
		}
		return value.Object(out)
	case value.KindArray:
		aa, _ := a.Array()
		ba, _ := b.Array()
		return value.Array(dedupValues(append(append([]value.Value{}, aa...), ba...))...)
	case value.KindString:
		as, _ := a.String()
		bs, _ := b.String()
		return value.String(mergeStrings(as, bs))
	case value.KindInt:
		ai, _ := a.Int()
		bi, _ := b.Int()
		switch hint {
		case "sum":
			return value.Int(ai + bi)
		case "max":
			return value.Int(maxInt64(ai, bi))
		case "min":
			return value.Int(minInt64(ai, bi))
		default:
			return value.Float(float64(ai+bi) / 2)
		}
	case value.KindFloat:
		af, _ := a.Float()
		bf, _ := b.Float()
		switch hint {
		case "sum":
			return value.Float(af + bf)
		case "max":
			return value.Float(maxFloat(af, bf))
		case "min":
			return value.Float(minFloat(af, bf))
		default:
			return value.Float((af + bf) / 2)
		}
	default:
		return b
	}
}

// mergeStrings implements spec.md §4.9's string semantic merge: longest
// common prefix+suffix with the differing middle concatenated.
func mergeStrings(a, b string) string {
	prefixLen := commonPrefixLen(a, b)
	suffixLen := commonSuffixLen(a[prefixLen:], b[prefixLen:])
	prefix := a[:prefixLen]
	suffix := a[len(a)-suffixLen:]
	if suffixLen == 0 {
		suffix = ""
	}
	midA := a[prefixLen : len(a)-suffixLen]
	midB := b[prefixLen : len(b)-suffixLen]
	return prefix + midA + midB + suffix
}

func commonPrefixLen(a, b string) int {
	n := minInt(len(a), len(b))
	i := 0
	for i < n && a[i] == b[i] {
		i++
	}
	return i
}

func commonSuffixLen(a, b string) int {
	n := minInt(len(a), len(b))
	i := 0
	for i < n && a[len(a)-1-i] == b[len(b)-1-i] {
		i++
	}
	return i
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
