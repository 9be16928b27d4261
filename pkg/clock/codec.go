package clock

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	coreerrors "github.com/codeready-toolchain/trustmesh/pkg/shared/errors"
)

// jsonClock is the wire shape for JSON encoding: agent ids sorted so two
// structurally-equal clocks always serialize to the same bytes.
type jsonClock struct {
	Owner   string            `json:"owner"`
	Version uint64            `json:"version"`
	Entries map[string]uint64 `json:"entries"`
}

// MarshalJSON renders the clock with agent ids sorted, per spec.md §4.1.
func (c *Clock) MarshalJSON() ([]byte, error) {
	entries := make(map[string]uint64, len(c.entries))
	for agent, e := range c.entries {
		entries[agent] = e.counter
	}
	return json.Marshal(jsonClock{Owner: c.owner, Version: c.version, Entries: entries})
}

// UnmarshalJSON restores a clock from its JSON form. lastSeen is reset to
// the zero time for every entry; callers that need age-based pruning
// immediately after decode should Update() entries to refresh lastSeen.
func (c *Clock) UnmarshalJSON(data []byte) error {
	var wire jsonClock
	if err := json.Unmarshal(data, &wire); err != nil {
		return coreerrors.Wrap(coreerrors.KindBadClockFormat, "invalid vector clock JSON", err)
	}
	c.owner = wire.Owner
	c.version = wire.Version
	c.entries = make(map[string]*entry, len(wire.Entries))
	for agent, counter := range wire.Entries {
		c.entries[agent] = &entry{counter: counter}
	}
	return nil
}

// SortedAgentCounters returns (agent, counter) pairs sorted by agent id,
// used by the binary encoder, which needs an explicit, stable iteration
// order. The JSON encoder does not call it; Go's map marshaling already
// sorts the keys.
func (c *Clock) SortedAgentCounters() []Delta {
	agents := c.Agents()
	out := make([]Delta, len(agents))
	for i, a := range agents {
		out[i] = Delta{Agent: a, Counter: c.Value(a)}
	}
	return out
}

// hashAgentID implements spec.md §4.1's compact binary codec hash: a 32-bit
// FNV-1a digest of the agent id. This intentionally discards the original
// id — the binary form is wire-economy only, for contexts where ids are
// derivable from surrounding context (spec.md §4.1).
func hashAgentID(agent string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(agent))
	return h.Sum32()
}

// MarshalBinary encodes the clock as: u32 count, then count pairs of
// <agent-hash u32, counter u32>, big-endian. The owner id is not part of
// the encoding; callers that need it must carry it out of band.
func (c *Clock) MarshalBinary() ([]byte, error) {
	pairs := c.SortedAgentCounters()
	buf := make([]byte, 4+8*len(pairs))
	binary.BigEndian.PutUint32(buf[0:4], uint32(len(pairs)))
	off := 4
	for _, p := range pairs {
		if p.Counter > 0xFFFFFFFF {
			return nil, coreerrors.New(coreerrors.KindBadClockFormat,
				fmt.Sprintf("counter for %s exceeds 32 bits in binary codec", p.Agent))
		}
		binary.BigEndian.PutUint32(buf[off:off+4], hashAgentID(p.Agent))
		binary.BigEndian.PutUint32(buf[off+4:off+8], uint32(p.Counter))
		off += 8
	}
	return buf, nil
}

// HashedClock is the result of decoding a binary clock: agent ids have
// been replaced by their 32-bit hash, per the wire-economy tradeoff
// spec.md §9 describes. The owner is not recoverable from binary form.
type HashedClock struct {
	Counters map[uint32]uint64
}

// UnmarshalBinaryHashed decodes the compact binary form without attempting
// to recover original agent ids. Per spec.md §9's Open Question — this
// module keeps the hashed codec for wire economy but rejects on hash
// collision rather than silently merging two different agents' counters
// under one bucket: if two distinct hash values would need to occupy the
// same bucket that is impossible by construction (the wire form is keyed
// by hash already), so the collision this guards against is the *decode*
// side mapping a hash back to more than one agent id — which can only
// happen when the caller supplies a hint table. See DecodeWithHints.
func UnmarshalBinaryHashed(data []byte) (*HashedClock, error) {
	if len(data) < 4 {
		return nil, coreerrors.New(coreerrors.KindBadClockFormat, "binary clock too short for count header")
	}
	count := binary.BigEndian.Uint32(data[0:4])
	want := 4 + 8*int(count)
	if len(data) != want {
		return nil, coreerrors.New(coreerrors.KindBadClockFormat, "binary clock length does not match header count")
	}
	out := &HashedClock{Counters: make(map[uint32]uint64, count)}
	off := 4
	for i := uint32(0); i < count; i++ {
		h := binary.BigEndian.Uint32(data[off : off+4])
		ctr := binary.BigEndian.Uint32(data[off+4 : off+8])
		if existing, ok := out.Counters[h]; ok && existing != uint64(ctr) {
			return nil, coreerrors.New(coreerrors.KindBadClockFormat,
				fmt.Sprintf("duplicate hash bucket %d with conflicting counters in single payload", h))
		}
		out.Counters[h] = uint64(ctr)
		off += 8
	}
	return out, nil
}

// ErrClockHashCollision is returned by DecodeWithHints when two distinct
// known agent ids hash to the same 32-bit bucket.
var ErrClockHashCollision = coreerrors.New(coreerrors.KindBadClockFormat, "agent id hash collision in binary vector clock")

// DecodeWithHints resolves a HashedClock back into a named Clock given a
// caller-supplied set of candidate agent ids (e.g. known cluster members).
// If two distinct candidate ids hash to the same bucket present in data,
// decoding fails with ErrClockHashCollision rather than guessing — this is
// the implementer decision called for by spec.md §9's Open Question on the
// binary codec's collision risk.
func DecodeWithHints(data []byte, owner string, knownAgents []string) (*Clock, error) {
	hashed, err := UnmarshalBinaryHashed(data)
	if err != nil {
		return nil, err
	}

	hashToAgents := make(map[uint32][]string)
	for _, agent := range knownAgents {
		h := hashAgentID(agent)
		hashToAgents[h] = append(hashToAgents[h], agent)
	}
	for h := range hashed.Counters {
		if agents := hashToAgents[h]; len(agents) > 1 {
			sort.Strings(agents)
			return nil, fmt.Errorf("%w: hash %d maps to %v", ErrClockHashCollision, h, agents)
		}
	}

	c := New(owner)
	for h, counter := range hashed.Counters {
		agents := hashToAgents[h]
		if len(agents) == 0 {
			continue // unknown agent — caller's hint set didn't cover it, drop silently
		}
		c.touch(agents[0], counter, time.Time{})
	}
	return c, nil
}
