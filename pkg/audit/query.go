package audit

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemorySink is a simple in-process Sink with a query API (spec.md §4.7:
// "filtering by time range, event type, severity, actor, target, outcome,
// regulation, with pagination"). Production deployments back Sink with a
// durable store instead; this module treats that store as an external
// collaborator and ships only the contract plus this reference
// implementation for tests and local use.
type MemorySink struct {
	mu      sync.Mutex
	entries []*Entry
}

// NewMemorySink returns an empty MemorySink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Persist appends entries, implementing Sink.
func (s *MemorySink) Persist(_ context.Context, entries []*Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entries...)
	return nil
}

// Query describes a filtered, paginated read over the audit log.
type Query struct {
	Since      time.Time
	Until      time.Time
	EventType  string
	Severity   Severity
	Actor      string
	Target     string
	Outcome    Outcome
	Regulation Regulation

	Offset int
	Limit  int
}

// QueryResult is one page of matching entries plus the total match count,
// so callers can compute further pages without re-querying.
type QueryResult struct {
	Entries []*Entry
	Total   int
}

// Query filters and paginates over all persisted entries, sorted oldest
// first by sequence.
func (s *MemorySink) Query(q Query) QueryResult {
	s.mu.Lock()
	snapshot := make([]*Entry, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.Unlock()

	sort.Slice(snapshot, func(i, j int) bool { return snapshot[i].Sequence < snapshot[j].Sequence })

	var matched []*Entry
	for _, e := range snapshot {
		if matches(e, q) {
			matched = append(matched, e)
		}
	}

	total := len(matched)
	offset := q.Offset
	if offset > total {
		offset = total
	}
	end := total
	if q.Limit > 0 && offset+q.Limit < end {
		end = offset + q.Limit
	}
	return QueryResult{Entries: matched[offset:end], Total: total}
}

func matches(e *Entry, q Query) bool {
	if !q.Since.IsZero() && e.Timestamp.Before(q.Since) {
		return false
	}
	if !q.Until.IsZero() && e.Timestamp.After(q.Until) {
		return false
	}
	if q.EventType != "" && e.EventType != q.EventType {
		return false
	}
	if q.Severity != "" && e.Severity != q.Severity {
		return false
	}
	if q.Actor != "" && e.Actor != q.Actor {
		return false
	}
	if q.Target != "" && e.Target != q.Target {
		return false
	}
	if q.Outcome != "" && e.Outcome != q.Outcome {
		return false
	}
	if q.Regulation != "" && !regulationIn(e.Regulations, q.Regulation) {
		return false
	}
	return true
}

func regulationIn(regs []Regulation, target Regulation) bool {
	for _, r := range regs {
		if r == target {
			return true
		}
	}
	return false
}

// Purge drops every entry whose per-entry retention window (Entry.
// RetentionDays, derived at creation per spec.md §4.7's precedence table)
// has elapsed as of now, implementing the "audit retention cleanup
// (~24 h)" background task (spec.md §5). It returns the number of
// entries removed.
func (s *MemorySink) Purge(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.entries[:0]
	removed := 0
	for _, e := range s.entries {
		expiry := e.Timestamp.AddDate(0, 0, e.RetentionDays)
		if now.After(expiry) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	s.entries = kept
	return removed
}

// VerifyAll re-checks every persisted entry's signature/checksum against
// signer, implementing the "compliance sweep (~10 min)" background task's
// tamper-detection pass (spec.md §5, §4.7). It returns the number of
// entries checked and the number that failed verification.
func (s *MemorySink) VerifyAll(signer Signer) (checked, failed int) {
	s.mu.Lock()
	snapshot := make([]*Entry, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.Unlock()

	for _, e := range snapshot {
		checked++
		if err := Verify(e, signer); err != nil {
			failed++
		}
	}
	return checked, failed
}
