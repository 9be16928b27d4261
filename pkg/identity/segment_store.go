package identity

import (
	"fmt"
	"sync"
)

// SegmentStore holds NetworkSegments. Reads never block: every mutation
// builds a fresh map and swaps it in under a short-held lock, matching the
// "read-mostly, copy-on-write on update" shared-resource policy in
// spec.md §5.
type SegmentStore struct {
	mu       sync.Mutex
	segments map[string]*NetworkSegment
}

// NewSegmentStore creates an empty store.
func NewSegmentStore() *SegmentStore {
	return &SegmentStore{segments: make(map[string]*NetworkSegment)}
}

// Create validates and adds a segment, replacing any existing one with the
// same id.
func (s *SegmentStore) Create(seg *NetworkSegment) error {
	if err := seg.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make(map[string]*NetworkSegment, len(s.segments)+1)
	for k, v := range s.segments {
		next[k] = v
	}
	next[seg.ID] = seg
	s.segments = next
	return nil
}

// Get returns a segment by id.
func (s *SegmentStore) Get(id string) (*NetworkSegment, bool) {
	s.mu.Lock()
	snapshot := s.segments
	s.mu.Unlock()
	seg, ok := snapshot[id]
	return seg, ok
}

// List returns a snapshot of all segments. The returned slice shares no
// backing storage with future mutations.
func (s *SegmentStore) List() []*NetworkSegment {
	s.mu.Lock()
	snapshot := s.segments
	s.mu.Unlock()
	out := make([]*NetworkSegment, 0, len(snapshot))
	for _, seg := range snapshot {
		out = append(out, seg)
	}
	return out
}

// ValidateAll re-checks every stored segment's structural invariants plus
// the quarantine-segment outbound restriction against every other
// segment, implementing the "network-segment validation (~30 min)"
// background task (spec.md §5). It returns one error per violation found;
// a nil slice means every segment is consistent.
func (s *SegmentStore) ValidateAll() []error {
	segments := s.List()

	var errs []error
	for _, seg := range segments {
		if err := seg.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, seg := range segments {
		if seg.Type != SegmentQuarantine {
			continue
		}
		for _, other := range segments {
			if other.ID == seg.ID || other.Type == SegmentQuarantine {
				continue
			}
			if seg.AllowsOutboundTo(other) {
				errs = append(errs, fmt.Errorf(
					"network segment %q: quarantine segment must not allow outbound to non-quarantine segment %q",
					seg.ID, other.ID))
			}
		}
	}
	return errs
}
