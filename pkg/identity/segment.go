package identity

import "fmt"

// SegmentType classifies a NetworkSegment's purpose (spec.md §3).
type SegmentType string

const (
	SegmentProduction  SegmentType = "production"
	SegmentStaging     SegmentType = "staging"
	SegmentDevelopment SegmentType = "development"
	SegmentIsolated    SegmentType = "isolated"
	SegmentQuarantine  SegmentType = "quarantine"
)

// TrafficPolicy names an allowed direction of traffic between segments.
type TrafficPolicy struct {
	FromSegmentID string
	Allowed       bool
}

// NetworkSegment is a logical zone with allowed agent types and isolation
// rules (spec.md §3).
type NetworkSegment struct {
	ID              string
	Name            string
	Type            SegmentType
	AllowedAgentTypes []string
	SecurityLevel   int
	IsolationRules  []string
	TrafficPolicies []TrafficPolicy
	MonitoringLevel string
}

// AllowsInboundFrom enforces spec.md §3's NetworkSegment invariants:
//   - a quarantine segment denies all outbound to non-quarantine segments
//     (checked from the sender's side via AllowsOutboundTo)
//   - a production segment denies inbound from development/staging
//
// Any explicit TrafficPolicies entry for the source segment overrides the
// type-based defaults below.
func (s *NetworkSegment) AllowsInboundFrom(source *NetworkSegment) bool {
	for _, p := range s.TrafficPolicies {
		if p.FromSegmentID == source.ID {
			return p.Allowed
		}
	}
	if s.Type == SegmentProduction && (source.Type == SegmentDevelopment || source.Type == SegmentStaging) {
		return false
	}
	return true
}

// AllowsOutboundTo enforces the quarantine-segment outbound restriction:
// a quarantine segment may only send to other quarantine segments.
func (s *NetworkSegment) AllowsOutboundTo(dest *NetworkSegment) bool {
	if s.Type == SegmentQuarantine && dest.Type != SegmentQuarantine {
		return false
	}
	return dest.AllowsInboundFrom(s)
}

// Validate checks the structural invariants a NetworkSegment must satisfy
// before being added to a SegmentStore.
func (s *NetworkSegment) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("network segment: id is required")
	}
	if s.Name == "" {
		return fmt.Errorf("network segment: name is required")
	}
	switch s.Type {
	case SegmentProduction, SegmentStaging, SegmentDevelopment, SegmentIsolated, SegmentQuarantine:
	default:
		return fmt.Errorf("network segment %q: invalid type %q", s.ID, s.Type)
	}
	return nil
}
