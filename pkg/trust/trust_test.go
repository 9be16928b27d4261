package trust

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScoreDefaults(t *testing.T) {
	s := NewScore("agent-1", 0.5)
	assert.Equal(t, 0.5, s.Overall)
	assert.Equal(t, StateNew, s.State)
	assert.Contains(t, s.NegativeFactors, "new_agent")
	assert.Contains(t, s.UnknownFactors, "behavior_pattern")
	assert.Contains(t, s.UnknownFactors, "location_history")
}

func TestApplyPositiveAuthenticationIncreasesIdentity(t *testing.T) {
	s := NewScore("a", 0.5)
	s.apply(Event{Type: EventAuthentication, Outcome: OutcomePositive})
	assert.InDelta(t, 0.6, s.Components.Identity, 1e-9)
	assert.Contains(t, s.PositiveFactors, "authentication")
}

func TestApplyNegativeSecurityIncidentLargeDrop(t *testing.T) {
	s := NewScore("a", 0.5)
	s.apply(Event{Type: EventSecurityIncident, Outcome: OutcomeNegative})
	assert.InDelta(t, 0.2, s.Components.Reputation, 1e-9)
	assert.Contains(t, s.NegativeFactors, "security_incident")
}

func TestApplyClampsAtBounds(t *testing.T) {
	s := NewScore("a", 0.95)
	for i := 0; i < 5; i++ {
		s.apply(Event{Type: EventAuthentication, Outcome: OutcomePositive})
	}
	assert.Equal(t, 1.0, s.Components.Identity)

	low := NewScore("b", 0.05)
	for i := 0; i < 5; i++ {
		low.apply(Event{Type: EventSecurityIncident, Outcome: OutcomeNegative})
	}
	assert.Equal(t, 0.0, low.Components.Reputation)
}

func TestHistoryTrimsAtCap(t *testing.T) {
	s := NewScore("a", 0.5)
	for i := 0; i < historyCap+10; i++ {
		s.apply(Event{Type: EventBehavior, Outcome: OutcomeNeutral})
	}
	assert.LessOrEqual(t, len(s.History), historyCap)
	// The 101st entry drops the oldest 50, leaving 51; 9 more follow.
	assert.Equal(t, historyCap+10-50, len(s.History))
}

func TestCloneIsDeep(t *testing.T) {
	s := NewScore("a", 0.5)
	s.apply(Event{Type: EventBehavior, Outcome: OutcomePositive})
	cp := s.Clone()
	cp.PositiveFactors[0] = "mutated"
	cp.History[0].Reason = "mutated"
	assert.NotEqual(t, cp.PositiveFactors[0], s.PositiveFactors[0])
	assert.NotEqual(t, cp.History[0].Reason, s.History[0].Reason)
}

func TestStateMachineNewToObservedToTrusted(t *testing.T) {
	// Authentication only moves the identity component, so the overall mean
	// must start at 0.7 for it to stay at or above the trusted threshold.
	s := NewScore("a", 0.7)
	assert.Equal(t, StateNew, s.State)

	s.apply(Event{Type: EventAuthentication, Outcome: OutcomePositive})
	assert.Equal(t, StateObserved, s.State)

	for i := 0; i < 5; i++ {
		s.apply(Event{Type: EventAuthentication, Outcome: OutcomePositive})
	}
	assert.Equal(t, StateTrusted, s.State)
}

func TestStateMachineDropsToWatchlistOnNegativeBelowThreshold(t *testing.T) {
	s := NewScore("a", 0.3)
	s.State = StateObserved
	s.apply(Event{Type: EventSecurityIncident, Outcome: OutcomeNegative})
	assert.Equal(t, StateWatchlist, s.State)
}

func TestQuarantineAndRelease(t *testing.T) {
	s := NewScore("a", 0.5)
	until := time.Now().Add(time.Hour)
	s.Quarantine("suspicious burst", &until)
	assert.Equal(t, StateQuarantined, s.State)
	assert.True(t, s.IsQuarantined(time.Now()))
	assert.False(t, s.IsQuarantined(until.Add(time.Minute)))

	require.NoError(t, s.Release())
	assert.Equal(t, StateReleased, s.State)
	assert.Nil(t, s.QuarantineUntil)

	err := s.Release()
	assert.Error(t, err)
}

func TestQuarantineOverridesAdvanceState(t *testing.T) {
	s := NewScore("a", 0.5)
	s.Quarantine("manual hold", nil)
	s.apply(Event{Type: EventAuthentication, Outcome: OutcomePositive})
	assert.Equal(t, StateQuarantined, s.State, "explicit quarantine must not be overridden by ordinary updates")
}

type alwaysTrusted struct{}

func (alwaysTrusted) IsTrustedLocation(string, string) bool { return true }

func TestContextualOverallIsCopyOnly(t *testing.T) {
	calc := NewCalculator()
	calc.LocationChecker = alwaysTrusted{}
	calc.BusinessHoursStart, calc.BusinessHoursEnd = 0, 24

	s := NewScore("a", 0.5)
	before := s.Overall
	adjusted := calc.ContextualOverall(s, "office", time.Now())

	assert.InDelta(t, before+0.07, adjusted, 1e-9)
	assert.Equal(t, before, s.Overall, "contextual adjustment must never mutate the stored score")
}

func TestContextualOverallNoTrustedLocationsByDefault(t *testing.T) {
	calc := NewCalculator()
	s := NewScore("a", 0.5)
	adjusted := calc.ContextualOverall(s, "anywhere", time.Date(2024, 1, 1, 3, 0, 0, 0, time.UTC))
	assert.Equal(t, s.Overall, adjusted)
}

func TestStoreUpdateIsPerAgentIsolated(t *testing.T) {
	store := NewStore(nil)
	store.Update("agent-a", Event{Type: EventAuthentication, Outcome: OutcomeNegative})
	a := store.Get("agent-a")
	b := store.Get("agent-b")
	assert.Less(t, a.Overall, b.Overall)
}

func TestStoreQuarantineRelease(t *testing.T) {
	store := NewStore(nil)
	store.Quarantine("agent-a", "manual", nil)
	assert.True(t, store.IsQuarantined("agent-a", time.Now()))
	require.NoError(t, store.Release("agent-a"))
	assert.False(t, store.IsQuarantined("agent-a", time.Now()))
}

func TestStoreAgentsListsTrackedIDs(t *testing.T) {
	store := NewStore(nil)
	store.Get("x")
	store.Get("y")
	assert.ElementsMatch(t, []string{"x", "y"}, store.Agents())
}

func TestStoreReleaseExpiredReleasesOnlyLapsedQuarantines(t *testing.T) {
	store := NewStore(nil)
	now := time.Date(2026, 7, 31, 12, 0, 0, 0, time.UTC)

	past := now.Add(-time.Minute)
	store.Quarantine("expired-agent", "ttl", &past)

	future := now.Add(time.Hour)
	store.Quarantine("active-agent", "ttl", &future)

	store.Quarantine("indefinite-agent", "manual", nil)

	released := store.ReleaseExpired(now)
	assert.ElementsMatch(t, []string{"expired-agent"}, released)

	assert.False(t, store.IsQuarantined("expired-agent", now))
	assert.Equal(t, StateReleased, store.Get("expired-agent").State)
	assert.True(t, store.IsQuarantined("active-agent", now))
	assert.True(t, store.IsQuarantined("indefinite-agent", now))
}
