package kv

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/codeready-toolchain/trustmesh/pkg/clock"
	"github.com/codeready-toolchain/trustmesh/pkg/conflict"
	"github.com/codeready-toolchain/trustmesh/pkg/value"
)

// namespacedKey is the map key a Store uses internally, pairing a
// namespace and a key so two namespaces never collide on the same key
// string.
type namespacedKey struct {
	ns  string
	key string
}

// keyLock pairs an Entry with the mutex that serializes puts/observes
// against it, mirroring pkg/trust.agentLock: one lock per key, not one
// lock for the whole store.
type keyLock struct {
	mu    sync.Mutex
	entry *Entry
}

// Store holds one Entry per (namespace, key) behind per-key locks
// (spec.md §5: "KV entries: per-key lock; global reader lock on namespace
// listing"). NodeID stamps every locally-originated clock.
type Store struct {
	NodeID string
	Rules  []conflict.Rule

	mapMu sync.RWMutex
	byKey map[namespacedKey]*keyLock
}

// NewStore returns an empty Store whose local writes are stamped with
// nodeID. rules, if non-nil, is passed to the conflict resolver on every
// concurrent Observe; nil falls back to the resolver's built-in default
// rule (lww).
func NewStore(nodeID string, rules []conflict.Rule) *Store {
	return &Store{NodeID: nodeID, Rules: rules, byKey: make(map[namespacedKey]*keyLock)}
}

func (s *Store) lockFor(ns, key string) *keyLock {
	nk := namespacedKey{ns: ns, key: key}

	s.mapMu.RLock()
	l, ok := s.byKey[nk]
	s.mapMu.RUnlock()
	if ok {
		return l
	}

	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	if l, ok = s.byKey[nk]; ok {
		return l
	}
	l = &keyLock{entry: &Entry{Namespace: ns, Key: key}}
	s.byKey[nk] = l
	return l
}

// Put implements spec.md §4.10's put: advances the local clock for key,
// stores the new value, and returns the resulting clock snapshot.
func (s *Store) Put(ns, key string, v value.Value) *clock.Clock {
	l := s.lockFor(ns, key)
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.entry.Current.Clock
	if c == nil {
		c = clock.New(s.NodeID)
	}
	c.Increment()
	l.entry.pushHistory(l.entry.Current)
	l.entry.Current = conflict.ConflictValue{Value: v, Clock: c, Timestamp: time.Now()}
	l.entry.Tombstone = false
	l.entry.DeletedAt = nil
	return c.Clone()
}

// Get implements spec.md §4.10's get. Tombstoned keys report absent.
func (s *Store) Get(ns, key string) (value.Value, bool) {
	l := s.lockFor(ns, key)
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.entry.Tombstone || l.entry.Current.Clock == nil {
		return value.Null(), false
	}
	return l.entry.Current.Value, true
}

// PeerUpdate is an incoming value observed from another node, as would
// arrive over the peer-sync wire format (spec.md §6).
type PeerUpdate struct {
	Namespace string
	Key       string
	Value     conflict.ConflictValue
}

// Observe implements spec.md §4.10's observe: compares the peer's clock
// against the local one and either discards, replaces, no-ops, or invokes
// the conflict resolver, returning the resolution only when one ran.
func (s *Store) Observe(u PeerUpdate) *conflict.Resolution {
	l := s.lockFor(u.Namespace, u.Key)
	l.mu.Lock()
	defer l.mu.Unlock()

	local := l.entry.Current
	if local.Clock == nil {
		l.entry.Current = u.Value
		return nil
	}

	switch local.Clock.Compare(u.Value.Clock) {
	case clock.Before:
		l.entry.pushHistory(local)
		l.entry.Current = u.Value
		l.entry.Tombstone = false
		return nil
	case clock.After, clock.Equal:
		return nil
	default: // concurrent
		key := u.Namespace + "." + u.Key
		res := conflict.Resolve(key, local, u.Value, nil, s.Rules)
		merged := local.Clock.Clone()
		merged.Merge(u.Value.Clock)
		l.entry.pushHistory(local)
		l.entry.Current = conflict.ConflictValue{Value: res.Value, Clock: merged, Timestamp: time.Now()}
		l.entry.Tombstone = false
		return res
	}
}

// Delete implements spec.md §4.10's delete: a tombstone value with its own
// clock tick, per §4.1's pruning rule that the clock entry for a deleted
// key is retained even once the value itself is later dropped.
func (s *Store) Delete(ns, key string) *clock.Clock {
	l := s.lockFor(ns, key)
	l.mu.Lock()
	defer l.mu.Unlock()

	c := l.entry.Current.Clock
	if c == nil {
		c = clock.New(s.NodeID)
	}
	c.Increment()
	l.entry.pushHistory(l.entry.Current)
	l.entry.Current = conflict.ConflictValue{Value: value.Null(), Clock: c, Timestamp: time.Now()}
	l.entry.Tombstone = true
	now := time.Now()
	l.entry.DeletedAt = &now
	return c.Clone()
}

// List implements spec.md §4.10's list: every non-tombstoned key in ns
// whose key has the given prefix, sorted for deterministic output. Holds
// only the store's map lock, never a per-key lock, so it never blocks
// concurrent puts (spec.md §5: "global reader lock on namespace listing").
func (s *Store) List(ns, prefix string) []string {
	s.mapMu.RLock()
	defer s.mapMu.RUnlock()

	var out []string
	for nk, l := range s.byKey {
		if nk.ns != ns || !strings.HasPrefix(nk.key, prefix) {
			continue
		}
		l.mu.Lock()
		tombstoned := l.entry.Tombstone
		l.mu.Unlock()
		if !tombstoned {
			out = append(out, nk.key)
		}
	}
	sort.Strings(out)
	return out
}

// tombstoneGraceExpired reports whether a tombstoned entry's grace period
// has elapsed as of now, used by the reconciliation sweep to decide when a
// tombstone may be fully removed (spec.md §4.10: "until a configurable
// grace period after all known peers have acknowledged them").
func (e *Entry) tombstoneGraceExpired(now time.Time, grace time.Duration) bool {
	return e.Tombstone && e.DeletedAt != nil && now.Sub(*e.DeletedAt) >= grace
}

// Sweep removes tombstones whose grace period has elapsed, retaining the
// key's clock entry per §4.1's "pruning rules apply" carve-out — the
// Entry's own clock, not the deleted value, survives this sweep.
func (s *Store) Sweep(now time.Time, grace time.Duration) int {
	s.mapMu.RLock()
	locks := make([]*keyLock, 0, len(s.byKey))
	for _, l := range s.byKey {
		locks = append(locks, l)
	}
	s.mapMu.RUnlock()

	removed := 0
	for _, l := range locks {
		l.mu.Lock()
		if l.entry.tombstoneGraceExpired(now, grace) {
			l.entry.Current.Value = value.Null()
			l.entry.History = nil
			removed++
		}
		l.mu.Unlock()
	}
	return removed
}
