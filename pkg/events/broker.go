// Package events implements the outbound event broker (spec.md §6): an
// in-process publish/subscribe fan-out for every event type this module
// emits, so that embedding applications can attach subscribers without
// this module taking a dependency on any particular transport. Grounded
// on the teacher's pkg/events.ConnectionManager fan-out idiom (a
// map-keyed subscriber registry behind a RWMutex, broadcasting to every
// matching subscriber) with the WebSocket/Postgres NOTIFY transport
// stripped out — this module is an embeddable library, not a service, so
// it has no connections to manage and no cross-pod channel to bridge.
package events

import (
	"sync"
	"time"
)

// Type identifies one of the outbound event kinds named in spec.md §6.
type Type string

const (
	TypeAccessDecision       Type = "access_decision"
	TypeTrustScoreUpdated    Type = "trust_score_updated"
	TypePolicyAdded          Type = "policy_added"
	TypePolicyRemoved        Type = "policy_removed"
	TypeSegmentCreated       Type = "segment_created"
	TypeAgentQuarantined     Type = "agent_quarantined"
	TypeAgentReleased        Type = "agent_released"
	TypeLogEntryCreated      Type = "log_entry_created"
	TypeSecurityAlert        Type = "security_alert"
	TypeExternalAlert        Type = "external_alert"
	TypeContextsCleaned      Type = "contexts_cleaned"
	TypePerformanceMetrics   Type = "performance_metrics"
	TypeBlockAgent           Type = "block_agent"
	TypeRateLimit            Type = "rate_limit"
	TypeNotifyAdmin          Type = "notify_admin"
	TypeEscalate             Type = "escalate"
	TypePolicyViolations     Type = "policy_violations"
)

// Event is one published occurrence: a type tag, the payload, and the
// time it was published.
type Event struct {
	Type      Type
	Payload   interface{}
	Published time.Time
}

// subscriberBufferSize bounds how many unconsumed events a slow
// subscriber may accumulate before Publish starts dropping its oldest
// pending event, so one stalled subscriber can never block publishers.
const subscriberBufferSize = 64

// subscription is one registered subscriber: the channel it reads from
// and the set of types it cares about (nil/empty means all types).
type subscription struct {
	id      uint64
	ch      chan Event
	types   map[Type]bool
}

func (s *subscription) wants(t Type) bool {
	if len(s.types) == 0 {
		return true
	}
	return s.types[t]
}

// Broker is the map-keyed subscriber registry behind a RWMutex that
// Publish fans out to, mirroring the teacher's ConnectionManager.channels
// structure.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	nextID uint64
}

// NewBroker returns an empty Broker.
func NewBroker() *Broker {
	return &Broker{subs: make(map[uint64]*subscription)}
}

// Subscription is a handle returned by Subscribe; Events delivers
// published events and Close stops delivery and releases the handle.
type Subscription struct {
	broker *Broker
	id     uint64
	ch     chan Event
}

// Events returns the channel this subscription receives events on.
func (s *Subscription) Events() <-chan Event { return s.ch }

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.broker.mu.Lock()
	defer s.broker.mu.Unlock()
	if _, ok := s.broker.subs[s.id]; ok {
		delete(s.broker.subs, s.id)
		close(s.ch)
	}
}

// Subscribe registers a new subscriber. If types is empty, the
// subscriber receives every published event; otherwise only events whose
// Type is in the set.
func (b *Broker) Subscribe(types ...Type) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	set := make(map[Type]bool, len(types))
	for _, t := range types {
		set[t] = true
	}
	sub := &subscription{id: id, ch: make(chan Event, subscriberBufferSize), types: set}
	b.subs[id] = sub
	return &Subscription{broker: b, id: id, ch: sub.ch}
}

// Publish fans out an event to every matching subscriber. Delivery is
// non-blocking: a subscriber whose buffer is full has its oldest pending
// event dropped to make room, rather than stalling the publisher — this
// module's decision path must never block on a slow subscriber.
func (b *Broker) Publish(t Type, payload interface{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	evt := Event{Type: t, Payload: payload, Published: time.Now()}
	for _, sub := range b.subs {
		if !sub.wants(t) {
			continue
		}
		select {
		case sub.ch <- evt:
		default:
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- evt:
			default:
			}
		}
	}
}

// SubscriberCount reports how many subscriptions are currently active,
// used by tests.
func (b *Broker) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
