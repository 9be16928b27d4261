// Package kv implements the replicated key/value store (spec.md §4.10,
// component C11): namespaced entries stamped with vector clocks, peer
// update ingestion with clock-order-aware conflict handling, tombstoned
// deletes, and bounded version history.
package kv

import (
	"time"

	"github.com/codeready-toolchain/trustmesh/pkg/conflict"
)

const maxHistoryVersions = 10

// Entry is one namespaced key's current value plus a bounded trail of
// prior versions, kept for diagnostics and manual-review resolutions.
type Entry struct {
	Namespace string
	Key       string
	Current   conflict.ConflictValue
	History   []conflict.ConflictValue
	Tombstone bool
	DeletedAt *time.Time
}

func (e *Entry) pushHistory(prev conflict.ConflictValue) {
	e.History = append(e.History, prev)
	if len(e.History) > maxHistoryVersions {
		e.History = e.History[len(e.History)-maxHistoryVersions:]
	}
}
