package ttlstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetAndCheckQuarantine(t *testing.T) {
	s := New(time.Minute)
	s.SetQuarantine("agent-1", "manual review", 0)

	reason, ok := s.IsQuarantined("agent-1")
	require.True(t, ok)
	assert.Equal(t, "manual review", reason)
}

func TestQuarantineExpiresAfterTTL(t *testing.T) {
	s := New(time.Minute)
	s.SetQuarantine("agent-1", "short", 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	_, ok := s.IsQuarantined("agent-1")
	assert.False(t, ok)
}

func TestClearQuarantineRemovesMarker(t *testing.T) {
	s := New(time.Minute)
	s.SetQuarantine("agent-1", "reason", 0)
	s.ClearQuarantine("agent-1")

	_, ok := s.IsQuarantined("agent-1")
	assert.False(t, ok)
}

func TestEnhancedMonitoringSetAndCheck(t *testing.T) {
	s := New(time.Minute)
	assert.False(t, s.IsEnhancedMonitoring("agent-2"))
	s.SetEnhancedMonitoring("agent-2", 0)
	assert.True(t, s.IsEnhancedMonitoring("agent-2"))
}

func TestItemCountReflectsLiveMarkers(t *testing.T) {
	s := New(time.Minute)
	assert.Equal(t, 0, s.ItemCount())
	s.SetQuarantine("agent-1", "x", 0)
	s.SetEnhancedMonitoring("agent-2", 0)
	assert.Equal(t, 2, s.ItemCount())
}
