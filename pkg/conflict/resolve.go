package conflict

import (
	"log/slog"

	"github.com/google/uuid"

	"github.com/codeready-toolchain/trustmesh/pkg/value"
)

// Resolve implements spec.md §4.9 step 4: classify the conflict, select a
// rule for the given key, run its strategy, and return the Resolution.
// A panic out of the selected strategy is treated as a strategy failure
// and falls back to lww at reduced
// confidence (0.5), flagged for manual review — strategies are pure
// functions but must never be allowed to take the whole resolution path
// down with them.
func Resolve(key string, local, remote ConflictValue, ancestor *ConflictValue, rules []Rule) *Resolution {
	rule := SelectRule(rules, key, local, remote)

	if identical(local, remote) {
		return &Resolution{
			ID:         uuid.NewString(),
			Strategy:   string(rule.Strategy),
			Value:      local.Value,
			Confidence: 1.0,
			Reasoning:  "local and remote are identical; no conflict to resolve",
		}
	}

	class := Classify(local, remote)
	res := runStrategySafely(rule.Strategy, local, remote, ancestor)
	res.ID = uuid.NewString()
	res.Reasoning = string(class) + ": " + res.Reasoning
	return &res
}

// identical reports whether local and remote carry the same value and, when
// both carry a vector clock, causally equal clocks (spec.md §8.8: resolving
// (X, X) must return X at confidence 1.0 regardless of which strategy a
// rule would otherwise select).
func identical(local, remote ConflictValue) bool {
	if !value.Equal(local.Value, remote.Value) {
		return false
	}
	if local.Clock != nil && remote.Clock != nil {
		return local.Clock.Equal(remote.Clock)
	}
	return local.Clock == nil && remote.Clock == nil
}

func runStrategySafely(name Name, local, remote ConflictValue, ancestor *ConflictValue) (result Resolution) {
	strategy, ok := Strategies[name]
	if !ok {
		strategy = LWW
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("conflict strategy panicked, falling back to lww", "strategy", name, "recover", r)
			result = LWW(local, remote, ancestor)
			result.Confidence = 0.5
			result.ManualReview = true
			result.Reasoning = "strategy panicked; fell back to lww — " + result.Reasoning
		}
	}()
	result = strategy(local, remote, ancestor)
	return result
}
