package clock

import (
	"sort"
	"time"
)

// PruneConfig bounds how aggressively Prune trims non-owner entries,
// matching spec.md §4.1's "Pruning config".
type PruneConfig struct {
	MaxAge       time.Duration // entries not seen within MaxAge are dropped
	MaxSize      int           // if still over this many entries, drop oldest
	PruneInterval time.Duration // how often a caller should invoke Prune
	KeepRecentN  int           // always retain at least the N most-recently-seen
}

// DefaultPruneConfig returns a conservative standalone pruning
// configuration for a vector clock. Its values are independent of
// pkg/config's clock_prune defaults.
func DefaultPruneConfig() PruneConfig {
	return PruneConfig{
		MaxAge:        24 * time.Hour,
		MaxSize:       256,
		PruneInterval: 10 * time.Minute,
		KeepRecentN:   16,
	}
}

// Prune drops non-owner entries older than cfg.MaxAge, then — if still
// over cfg.MaxSize — drops the oldest non-owner entries, always retaining
// the cfg.KeepRecentN most-recently-seen non-owner entries and the owner's
// own entry (spec.md §3 invariant (e)).
func (c *Clock) Prune(cfg PruneConfig) {
	now := time.Now()

	type agentAge struct {
		agent string
		seen  time.Time
	}
	var candidates []agentAge
	for agent, e := range c.entries {
		if agent == c.owner {
			continue
		}
		candidates = append(candidates, agentAge{agent, e.lastSeen})
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].seen.After(candidates[j].seen)
	})

	keep := make(map[string]bool, len(candidates))
	for i, ca := range candidates {
		if i < cfg.KeepRecentN {
			keep[ca.agent] = true
			continue
		}
		if cfg.MaxAge > 0 && now.Sub(ca.seen) > cfg.MaxAge {
			continue // drop: too old
		}
		keep[ca.agent] = true
	}

	// If still over MaxSize, drop oldest non-owner entries beyond the cap,
	// but never below KeepRecentN.
	if cfg.MaxSize > 0 {
		kept := make([]agentAge, 0, len(keep))
		for _, ca := range candidates {
			if keep[ca.agent] {
				kept = append(kept, ca)
			}
		}
		total := len(kept) + 1 // +1 for owner entry
		if total > cfg.MaxSize {
			excess := total - cfg.MaxSize
			for i := len(kept) - 1; i >= 0 && excess > 0; i-- {
				idxFromNewest := i
				if idxFromNewest < cfg.KeepRecentN {
					break
				}
				delete(keep, kept[i].agent)
				excess--
			}
		}
	}

	for agent := range c.entries {
		if agent == c.owner {
			continue
		}
		if !keep[agent] {
			delete(c.entries, agent)
		}
	}
}
