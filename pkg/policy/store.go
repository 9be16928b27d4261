package policy

import (
	"sync"

	"github.com/codeready-toolchain/trustmesh/pkg/identity"
	"github.com/codeready-toolchain/trustmesh/pkg/risk"
	"github.com/codeready-toolchain/trustmesh/pkg/trust"
)

// Store holds the policy set behind copy-on-write semantics (spec.md §5):
// reads (Evaluate, List) take a cheap snapshot reference and never block
// writers, writers rebuild the slice and swap it in under a short lock.
type Store struct {
	mu       sync.Mutex
	policies []*Policy
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{}
}

// Add validates and appends a policy, replacing any existing policy with
// the same id.
func (s *Store) Add(p *Policy) error {
	if err := p.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]*Policy, 0, len(s.policies)+1)
	for _, existing := range s.policies {
		if existing.ID == p.ID {
			continue
		}
		next = append(next, existing)
	}
	next = append(next, p)
	s.policies = next
	return nil
}

// Remove drops a policy by id. Returns false if no such policy existed.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]*Policy, 0, len(s.policies))
	removed := false
	for _, existing := range s.policies {
		if existing.ID == id {
			removed = true
			continue
		}
		next = append(next, existing)
	}
	s.policies = next
	return removed
}

// snapshot returns the current policy slice. Safe to range over without
// holding the lock: writers always build a fresh slice rather than mutate
// in place.
func (s *Store) snapshot() []*Policy {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.policies
}

// List returns every policy currently in the store.
func (s *Store) List() []*Policy {
	snap := s.snapshot()
	out := make([]*Policy, len(snap))
	copy(out, snap)
	return out
}

// Evaluate runs Evaluate against the store's current snapshot.
func (s *Store) Evaluate(ctx *identity.SecurityContext, score *trust.Score, assessment *risk.Assessment) Decision {
	return Evaluate(s.snapshot(), ctx, score, assessment)
}
