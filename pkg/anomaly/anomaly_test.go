package anomaly

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectorRaisesOnThresholdFailures(t *testing.T) {
	d := NewDetector(WindowConfig{Window: time.Minute, Threshold: 3})
	now := time.Now()

	var alert *SecurityAlert
	for i := 0; i < 3; i++ {
		alert = d.Observe(Finding{Timestamp: now.Add(time.Duration(i) * time.Second), EventType: "authentication", Actor: "a", Outcome: "failure"})
	}
	require.NotNil(t, alert)
	assert.Equal(t, "authentication_failure", alert.Type)
	assert.Equal(t, SeverityMedium, alert.Severity)
}

func TestDetectorIgnoresEventsOutsideWindow(t *testing.T) {
	d := NewDetector(WindowConfig{Window: time.Minute, Threshold: 2})
	now := time.Now()
	assert.Nil(t, d.Observe(Finding{Timestamp: now, EventType: "authentication", Actor: "a", Outcome: "failure"}))
	assert.NotNil(t, d.Observe(Finding{Timestamp: now.Add(30 * time.Second), EventType: "authentication", Actor: "a", Outcome: "failure"}))
}

func TestDetectorIgnoresNonAuthEvents(t *testing.T) {
	d := NewDetector(WindowConfig{Window: time.Minute, Threshold: 1})
	assert.Nil(t, d.Observe(Finding{EventType: "access_decision", Actor: "a", Outcome: "failure", Timestamp: time.Now()}))
}

func TestCorrelatorRaisesIntrusionAttempt(t *testing.T) {
	c := NewCorrelator(CorrelationConfig{Window: time.Minute, Threshold: 2})
	now := time.Now()
	assert.Nil(t, c.Observe(Finding{Timestamp: now, Actor: "a", ActorIP: "1.2.3.4", Outcome: "failure"}))
	alert := c.Observe(Finding{Timestamp: now.Add(time.Second), Actor: "a", ActorIP: "1.2.3.4", Outcome: "failure"})
	require.NotNil(t, alert)
	assert.Equal(t, "intrusion_attempt", alert.Type)
}

func TestThreatIndicatorsBadIP(t *testing.T) {
	ind, err := NewThreatIndicators([]string{"9.9.9.9"}, nil)
	require.NoError(t, err)
	alert := ind.Check(Finding{ActorIP: "9.9.9.9", Actor: "a"})
	require.NotNil(t, alert)
	assert.Equal(t, SeverityHigh, alert.Severity)
}

func TestThreatIndicatorsPattern(t *testing.T) {
	ind, err := NewThreatIndicators(nil, []string{`^bot-.*`})
	require.NoError(t, err)
	alert := ind.Check(Finding{Actor: "bot-123"})
	require.NotNil(t, alert)
}

func TestThreatIndicatorsDetailTag(t *testing.T) {
	ind, err := NewThreatIndicators(nil, nil)
	require.NoError(t, err)
	alert := ind.Check(Finding{Actor: "a", Details: map[string]interface{}{"sql_injection": true}})
	require.NotNil(t, alert)
	assert.Equal(t, SeverityCritical, alert.Severity)
}

func TestThreatIndicatorsNoMatch(t *testing.T) {
	ind, err := NewThreatIndicators([]string{"9.9.9.9"}, nil)
	require.NoError(t, err)
	assert.Nil(t, ind.Check(Finding{ActorIP: "1.1.1.1", Actor: "a"}))
}

func TestThreatIndicatorsReloadReplacesCriteria(t *testing.T) {
	ind, err := NewThreatIndicators([]string{"9.9.9.9"}, nil)
	require.NoError(t, err)

	require.NoError(t, ind.Reload(StaticIndicatorSource{BadIPs: []string{"8.8.8.8"}}))

	assert.Nil(t, ind.Check(Finding{ActorIP: "9.9.9.9", Actor: "a"}))
	alert := ind.Check(Finding{ActorIP: "8.8.8.8", Actor: "a"})
	require.NotNil(t, alert)
}

func TestThreatIndicatorsReloadRejectsBadPatternWithoutLosingOldCriteria(t *testing.T) {
	ind, err := NewThreatIndicators([]string{"9.9.9.9"}, nil)
	require.NoError(t, err)

	err = ind.Reload(StaticIndicatorSource{Patterns: []string{"("}})
	assert.Error(t, err)

	alert := ind.Check(Finding{ActorIP: "9.9.9.9", Actor: "a"})
	require.NotNil(t, alert, "reload failure must not clear the previous bad-IP set")
}

func TestAlertLifecycleTransitions(t *testing.T) {
	a := NewAlert("x", SeverityHigh, "actor", "target", "desc")
	assert.Equal(t, StatusOpen, a.Status)

	assert.True(t, a.Transition(StatusInvestigating))
	assert.False(t, a.Transition(StatusResolved), "cannot skip mitigated")
	assert.True(t, a.Transition(StatusMitigated))
	assert.True(t, a.Transition(StatusResolved))
}

func TestAlertLifecycleFalsePositiveFromOpen(t *testing.T) {
	a := NewAlert("x", SeverityLow, "actor", "target", "desc")
	assert.True(t, a.Transition(StatusFalsePositive))
}

func TestAutoResponseActionsTable(t *testing.T) {
	assert.Equal(t, []string{"block_agent", "notify_admin", "escalate"}, AutoResponseActions(SeverityCritical))
	assert.Equal(t, []string{"rate_limit", "notify_admin"}, AutoResponseActions(SeverityHigh))
	assert.Nil(t, AutoResponseActions(SeverityMedium))
	assert.Nil(t, AutoResponseActions(SeverityLow))
}

type recordingExecutor struct{ calls []string }

func (e *recordingExecutor) Execute(_ context.Context, agentID, action string) error {
	e.calls = append(e.calls, agentID+":"+action)
	return nil
}

func TestAutoRespondRecordsActions(t *testing.T) {
	exec := &recordingExecutor{}
	alert := NewAlert("x", SeverityCritical, "agent-1", "t", "d")
	AutoRespond(context.Background(), exec, alert)
	assert.Equal(t, []string{"block_agent", "notify_admin", "escalate"}, alert.AutoResponded)
	assert.Len(t, exec.calls, 3)
}
