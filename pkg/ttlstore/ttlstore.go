// Package ttlstore implements the TTL-keyed marker store spec.md §6's
// "Persisted state layout" names: quarantine markers keyed by
// quarantine:<agent_id> and enhanced-monitoring markers keyed by
// enhanced_monitoring:<agent_id>, both with a TTL. Wraps
// github.com/patrickmn/go-cache, the pack's TTL-cache library, rather
// than hand-rolling expiry bookkeeping.
package ttlstore

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const (
	quarantinePrefix         = "quarantine:"
	enhancedMonitoringPrefix = "enhanced_monitoring:"

	// defaultCleanupInterval controls how often go-cache sweeps expired
	// entries out of its internal map.
	defaultCleanupInterval = 10 * time.Minute
)

// Store holds TTL-bounded markers for agent state that can be checked
// quickly without consulting the trust store's quarantine field directly.
// trustmesh.Core sets and clears quarantine markers; the cleanup metrics
// sweep reports how many markers are live.
type Store struct {
	cache *gocache.Cache
}

// New returns an empty Store. defaultTTL is used by SetQuarantine/
// SetEnhancedMonitoring when the caller passes a zero duration.
func New(defaultTTL time.Duration) *Store {
	return &Store{cache: gocache.New(defaultTTL, defaultCleanupInterval)}
}

func ttlOrDefault(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		return gocache.DefaultExpiration
	}
	return ttl
}

// SetQuarantine marks agentID quarantined for ttl (or the store's default
// if ttl is zero).
func (s *Store) SetQuarantine(agentID, reason string, ttl time.Duration) {
	s.cache.Set(quarantinePrefix+agentID, reason, ttlOrDefault(ttl))
}

// IsQuarantined reports whether agentID currently has a live quarantine
// marker, and if so its reason.
func (s *Store) IsQuarantined(agentID string) (string, bool) {
	v, ok := s.cache.Get(quarantinePrefix + agentID)
	if !ok {
		return "", false
	}
	return v.(string), true
}

// ClearQuarantine removes agentID's quarantine marker, if any.
func (s *Store) ClearQuarantine(agentID string) {
	s.cache.Delete(quarantinePrefix + agentID)
}

// SetEnhancedMonitoring marks agentID for enhanced monitoring for ttl (or
// the store's default if ttl is zero). The adaptive responder's
// enhance_monitoring action does not call it; callers set it directly.
func (s *Store) SetEnhancedMonitoring(agentID string, ttl time.Duration) {
	s.cache.Set(enhancedMonitoringPrefix+agentID, true, ttlOrDefault(ttl))
}

// IsEnhancedMonitoring reports whether agentID currently has a live
// enhanced-monitoring marker.
func (s *Store) IsEnhancedMonitoring(agentID string) bool {
	_, ok := s.cache.Get(enhancedMonitoringPrefix + agentID)
	return ok
}

// ItemCount returns the number of live (non-expired) markers, used by the
// metrics sweep.
func (s *Store) ItemCount() int {
	return s.cache.ItemCount()
}
