// Package trust implements the per-agent trust calculator (spec.md §4.2,
// component C3): a multi-component trust score, event-driven deltas,
// contextual adjustment, a bounded history, and the new -> observed ->
// trusted <-> watchlist -> quarantined -> released state machine.
package trust

import "time"

// historyCap is the maximum number of history entries kept per agent
// (spec.md §3: "bounded history (<=100 entries)").
const historyCap = 100

// historyTrimTo is the number of entries left after the 50 oldest are
// dropped from a full history, amortizing the cost of trimming across many
// updates (spec.md §4.2: "if >100, front is dropped by 50").
const historyTrimTo = historyCap - 50

// State is the per-agent trust lifecycle state (spec.md §4.2).
type State string

const (
	StateNew         State = "new"
	StateObserved    State = "observed"
	StateTrusted     State = "trusted"
	StateWatchlist   State = "watchlist"
	StateQuarantined State = "quarantined"
	StateReleased    State = "released"
)

// Components holds the seven sub-scores spec.md §3 names, each in [0,1].
type Components struct {
	Identity   float64
	Behavior   float64
	Location   float64
	Device     float64
	Network    float64
	Compliance float64
	Reputation float64
}

// Overall computes the aggregate score as the plain (unweighted) mean of
// the seven components, clamped to [0,1] — a deterministic function of the
// components as the invariant requires.
func (c Components) Overall() float64 {
	sum := c.Identity + c.Behavior + c.Location + c.Device + c.Network + c.Compliance + c.Reputation
	return clamp(sum / 7)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// HistoryEntry records one update to a TrustScore.
type HistoryEntry struct {
	Timestamp          time.Time
	Score              float64
	Reason             string
	ContributingFactors []string
}

// Score is the full per-agent trust aggregate (spec.md §3 TrustScore).
type Score struct {
	AgentID          string
	Overall          float64
	Components       Components
	PositiveFactors  []string
	NegativeFactors  []string
	UnknownFactors   []string
	History          []HistoryEntry
	State            State
	QuarantineReason string
	QuarantineUntil  *time.Time
}

// NewScore returns the initial score for a previously unknown agent:
// 0.5 overall (spec.md §4.2's default, also configurable via
// config.Config.Trust.InitialScore through Calculator), "new_agent" as a
// negative factor, and behavior_pattern/location_history as unknown
// factors, state "new".
func NewScore(agentID string, initial float64) *Score {
	c := Components{
		Identity:   initial,
		Behavior:   initial,
		Location:   initial,
		Device:     initial,
		Network:    initial,
		Compliance: initial,
		Reputation: initial,
	}
	return &Score{
		AgentID:         agentID,
		Overall:         c.Overall(),
		Components:      c,
		NegativeFactors: []string{"new_agent"},
		UnknownFactors:  []string{"behavior_pattern", "location_history"},
		State:           StateNew,
	}
}

// Clone returns a deep copy, so callers handed a snapshot can't mutate the
// calculator's internal state.
func (s *Score) Clone() *Score {
	cp := *s
	cp.PositiveFactors = append([]string(nil), s.PositiveFactors...)
	cp.NegativeFactors = append([]string(nil), s.NegativeFactors...)
	cp.UnknownFactors = append([]string(nil), s.UnknownFactors...)
	cp.History = append([]HistoryEntry(nil), s.History...)
	if s.QuarantineUntil != nil {
		until := *s.QuarantineUntil
		cp.QuarantineUntil = &until
	}
	return &cp
}

func (s *Score) appendHistory(reason string, factors []string) {
	s.History = append(s.History, HistoryEntry{
		Timestamp:           time.Now(),
		Score:               s.Overall,
		Reason:              reason,
		ContributingFactors: append([]string(nil), factors...),
	})
	if len(s.History) > historyCap {
		s.History = append([]HistoryEntry(nil), s.History[historyCap-historyTrimTo:]...)
	}
}

func (s *Score) recompute() {
	s.Overall = s.Components.Overall()
}
