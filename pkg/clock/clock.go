// Package clock implements vector clocks for causal ordering between
// agents (spec.md §4.1, component C1): comparison, merge, pruning, and a
// JSON/binary codec pair.
package clock

import (
	"sort"
	"time"
)

// Order is the result of comparing two vector clocks.
type Order int

const (
	Equal Order = iota
	Before
	After
	Concurrent
)

func (o Order) String() string {
	switch o {
	case Equal:
		return "equal"
	case Before:
		return "before"
	case After:
		return "after"
	case Concurrent:
		return "concurrent"
	default:
		return "unknown"
	}
}

// entry tracks a peer's counter plus the last time this clock observed an
// update for that peer, used by Prune.
type entry struct {
	counter  uint64
	lastSeen time.Time
}

// Clock is a mapping from agent id to a nonnegative counter, owned by a
// single agent. Only the owner's own entry is ever incremented locally; all
// other entries only move forward via Update/Merge/ApplyDeltas. A Clock is
// not safe for concurrent use without external synchronization — callers
// that share one across goroutines (pkg/trust, pkg/kv) hold their own lock.
type Clock struct {
	owner   string
	entries map[string]*entry
	version uint64
}

// New creates a clock owned by owner, starting at counter 0 for every
// agent (including itself).
func New(owner string) *Clock {
	return &Clock{
		owner:   owner,
		entries: make(map[string]*entry),
	}
}

// Owner returns the owning agent id.
func (c *Clock) Owner() string { return c.owner }

// Version returns the clock's local monotonically increasing version
// number, bumped on every mutating operation (Increment, Merge,
// ApplyDeltas that change something).
func (c *Clock) Version() uint64 { return c.version }

// Value returns the counter for agent, 0 if never observed.
func (c *Clock) Value(agent string) uint64 {
	if e, ok := c.entries[agent]; ok {
		return e.counter
	}
	return 0
}

// Agents returns all agent ids that have an entry, sorted. The owner is
// included once it has an entry (after its first Increment, Update or
// Merge); a fresh clock returns none.
func (c *Clock) Agents() []string {
	agents := make([]string, 0, len(c.entries))
	for a := range c.entries {
		agents = append(agents, a)
	}
	sort.Strings(agents)
	return agents
}

func (c *Clock) touch(agent string, counter uint64, seen time.Time) {
	e, ok := c.entries[agent]
	if !ok {
		e = &entry{}
		c.entries[agent] = e
	}
	e.counter = counter
	if seen.After(e.lastSeen) {
		e.lastSeen = seen
	}
}

// Increment bumps the owner's own counter by one. Invariant (a): the
// owning agent's entry only ever increases.
func (c *Clock) Increment() {
	cur := c.Value(c.owner)
	c.touch(c.owner, cur+1, time.Now())
	c.version++
}

// Update sets the counter for agent to n, unless n <= the current value
// (no-op), per spec.md §4.1. Updating the owner's own entry downward is
// always a no-op by the same rule; updating it upward is permitted (e.g.
// restoring state after a restart) but callers should prefer Increment for
// local progress.
func (c *Clock) Update(agent string, n uint64) {
	if n <= c.Value(agent) {
		return
	}
	c.touch(agent, n, time.Now())
	c.version++
}

// Merge takes the componentwise maximum of c and other, then increments the
// owner's own counter. Returns c for chaining.
func (c *Clock) Merge(other *Clock) *Clock {
	now := time.Now()
	for _, agent := range other.Agents() {
		ov := other.Value(agent)
		if ov > c.Value(agent) {
			c.touch(agent, ov, now)
		} else if _, ok := c.entries[agent]; !ok {
			c.touch(agent, 0, now)
		}
	}
	c.Increment()
	return c
}

// ComponentwiseMax returns a fresh, unowned map of the componentwise
// maximum of a and b's entries, used by merge-commutativity tests — it
// never increments anything, unlike Merge.
func ComponentwiseMax(a, b *Clock) map[string]uint64 {
	out := make(map[string]uint64)
	for _, agent := range a.Agents() {
		out[agent] = a.Value(agent)
	}
	for _, agent := range b.Agents() {
		if b.Value(agent) > out[agent] {
			out[agent] = b.Value(agent)
		}
	}
	return out
}

// Compare returns how c relates causally to other: Before if c happened
// before other, After if other happened before c, Equal if every agent
// matches, Concurrent otherwise.
func (c *Clock) Compare(other *Clock) Order {
	agents := unionAgents(c, other)
	selfLess, selfGreater := false, false
	for _, a := range agents {
		cv, ov := c.Value(a), other.Value(a)
		if cv < ov {
			selfLess = true
		} else if cv > ov {
			selfGreater = true
		}
	}
	switch {
	case !selfLess && !selfGreater:
		return Equal
	case selfLess && !selfGreater:
		return Before
	case selfGreater && !selfLess:
		return After
	default:
		return Concurrent
	}
}

func unionAgents(a, b *Clock) []string {
	set := make(map[string]struct{})
	for _, x := range a.Agents() {
		set[x] = struct{}{}
	}
	for _, x := range b.Agents() {
		set[x] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for x := range set {
		out = append(out, x)
	}
	sort.Strings(out)
	return out
}

// Delta holds a single agent's counter value, used by Delta/ApplyDeltas.
type Delta struct {
	Agent   string
	Counter uint64
}

// Delta returns the entries where c is strictly ahead of other — the
// minimal set of updates needed to bring other up to date with c.
func (c *Clock) Delta(other *Clock) []Delta {
	var deltas []Delta
	for _, a := range c.Agents() {
		if cv := c.Value(a); cv > other.Value(a) {
			deltas = append(deltas, Delta{Agent: a, Counter: cv})
		}
	}
	return deltas
}

// ApplyDeltas applies a list of deltas via Update (so each is a no-op
// unless it actually advances the agent's counter). Does not increment the
// owner's own counter — applying someone else's deltas is not "local
// progress" by this clock's owner.
func (c *Clock) ApplyDeltas(deltas []Delta) {
	for _, d := range deltas {
		c.Update(d.Agent, d.Counter)
	}
}

// Clone returns a deep copy of c, same owner, same version.
func (c *Clock) Clone() *Clock {
	cp := New(c.owner)
	cp.version = c.version
	for agent, e := range c.entries {
		cp.entries[agent] = &entry{counter: e.counter, lastSeen: e.lastSeen}
	}
	return cp
}

// Equal reports whether c and other have identical agent->counter maps
// (owner and version are not part of equality, matching spec.md §3
// invariant (c): "equality is by full map").
func (c *Clock) Equal(other *Clock) bool {
	if len(c.entries) != len(other.entries) {
		return false
	}
	for agent, e := range c.entries {
		oe, ok := other.entries[agent]
		if !ok || oe.counter != e.counter {
			return false
		}
	}
	return true
}
