package trust

import (
	"sync"
	"time"
)

// agentLock pairs a Score with the mutex that serializes updates to it,
// mirroring tarsy's pkg/session manager: one lock per tracked entity rather
// than one lock for the whole store, so concurrent agents never contend.
type agentLock struct {
	mu    sync.Mutex
	score *Score
}

// Store holds one Score per agent behind per-agent locks (spec.md §5:
// "per-agent serialized trust updates"). The map itself is guarded by a
// separate RWMutex so lookups of different agents never block each other
// beyond the brief map access.
type Store struct {
	calc *Calculator

	mapMu sync.RWMutex
	byID  map[string]*agentLock
}

// NewStore returns an empty Store using calc to mint new agents' scores.
// A nil calc falls back to NewCalculator()'s defaults.
func NewStore(calc *Calculator) *Store {
	if calc == nil {
		calc = NewCalculator()
	}
	return &Store{calc: calc, byID: make(map[string]*agentLock)}
}

func (s *Store) lockFor(agentID string) *agentLock {
	s.mapMu.RLock()
	l, ok := s.byID[agentID]
	s.mapMu.RUnlock()
	if ok {
		return l
	}

	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	if l, ok = s.byID[agentID]; ok {
		return l
	}
	l = &agentLock{score: s.calc.New(agentID)}
	s.byID[agentID] = l
	return l
}

// Get returns a snapshot of an agent's score, creating it at the initial
// score if unseen.
func (s *Store) Get(agentID string) *Score {
	l := s.lockFor(agentID)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.score.Clone()
}

// Update applies e to agentID's score under that agent's lock and returns
// the post-update snapshot.
func (s *Store) Update(agentID string, e Event) *Score {
	l := s.lockFor(agentID)
	l.mu.Lock()
	defer l.mu.Unlock()
	s.calc.Update(l.score, e)
	return l.score.Clone()
}

// ContextualOverall computes a context-adjusted overall score for agentID
// without mutating its stored score.
func (s *Store) ContextualOverall(agentID, location string, now time.Time) float64 {
	l := s.lockFor(agentID)
	l.mu.Lock()
	defer l.mu.Unlock()
	return s.calc.ContextualOverall(l.score, location, now)
}

// Quarantine moves agentID into the quarantined state.
func (s *Store) Quarantine(agentID, reason string, until *time.Time) {
	l := s.lockFor(agentID)
	l.mu.Lock()
	defer l.mu.Unlock()
	l.score.Quarantine(reason, until)
}

// Release moves agentID out of quarantine.
func (s *Store) Release(agentID string) error {
	l := s.lockFor(agentID)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.score.Release()
}

// IsQuarantined reports agentID's current quarantine status.
func (s *Store) IsQuarantined(agentID string, now time.Time) bool {
	l := s.lockFor(agentID)
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.score.IsQuarantined(now)
}

// Agents returns every tracked agent id, in no particular order.
func (s *Store) Agents() []string {
	s.mapMu.RLock()
	defer s.mapMu.RUnlock()
	out := make([]string, 0, len(s.byID))
	for id := range s.byID {
		out = append(out, id)
	}
	return out
}

// ReleaseExpired transitions every agent whose quarantine window has
// lapsed (QuarantineUntil set and in the past) from StateQuarantined back
// to StateReleased, and returns the released agent ids. IsQuarantined
// already honors an expiry when answering a single query, but the
// underlying State field otherwise stays StateQuarantined forever unless
// something calls Release — this is the "continuous trust update
// (~5 min)" background task's job (spec.md §5).
func (s *Store) ReleaseExpired(now time.Time) []string {
	var released []string
	for _, id := range s.Agents() {
		l := s.lockFor(id)
		l.mu.Lock()
		expired := l.score.State == StateQuarantined &&
			l.score.QuarantineUntil != nil &&
			now.After(*l.score.QuarantineUntil)
		if expired {
			_ = l.score.Release()
			released = append(released, id)
		}
		l.mu.Unlock()
	}
	return released
}
