package conflict

import (
	"sort"
	"strings"
)

// Condition is a single predicate a Rule checks against the conflicting
// pair before it is considered a match (spec.md §4.9 step 2).
type Condition func(local, remote ConflictValue) bool

// Rule selects a Strategy for conflicts whose key matches KeyPattern and
// whose Conditions all hold.
type Rule struct {
	ID         string
	KeyPattern string // "*" matches any key; otherwise a key prefix
	Strategy   Name
	Priority   int
	Enabled    bool
	Conditions []Condition
}

// matches reports whether the rule applies to a conflict on the given key
// between the given values.
func (r Rule) matches(key string, local, remote ConflictValue) bool {
	if !r.Enabled {
		return false
	}
	if r.KeyPattern != "*" && !strings.HasPrefix(key, r.KeyPattern) {
		return false
	}
	for _, cond := range r.Conditions {
		if !cond(local, remote) {
			return false
		}
	}
	return true
}

// defaultRule is used whenever no configured rule matches a conflict.
var defaultRule = Rule{ID: "default", KeyPattern: "*", Strategy: StrategyLWW, Priority: 0, Enabled: true}

// SelectRule implements spec.md §4.9 step 2: the highest-priority enabled
// rule whose key pattern and conditions match wins; ties break on the
// lexicographically smaller rule id. Falls back to the built-in default
// rule (lww) when nothing matches.
func SelectRule(rules []Rule, key string, local, remote ConflictValue) Rule {
	var candidates []Rule
	for _, r := range rules {
		if r.matches(key, local, remote) {
			candidates = append(candidates, r)
		}
	}
	if len(candidates) == 0 {
		return defaultRule
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Priority != candidates[j].Priority {
			return candidates[i].Priority > candidates[j].Priority
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0]
}
