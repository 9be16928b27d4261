package audit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codeready-toolchain/trustmesh/pkg/value"
)

// canonicalizeFields builds the common field set shared by both canonical
// forms below, with signature/checksum left for the caller to fill in.
func canonicalizeFields(e *Entry, signature, checksum string) string {
	fields := map[string]value.Value{
		"log_id":         value.String(e.LogID),
		"sequence":       value.Int(int64(e.Sequence)),
		"timestamp":      value.String(e.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z")),
		"event_type":     value.String(e.EventType),
		"category":       value.String(string(e.Category)),
		"actor":          value.String(e.Actor),
		"target":         value.String(e.Target),
		"outcome":        value.String(string(e.Outcome)),
		"severity":       value.String(string(e.Severity)),
		"retention_days": value.Int(int64(e.RetentionDays)),
		"regulations":    value.Array(regulationValues(e.Regulations)),
		"details":        value.FromGo(e.Details),
		"signature":      value.String(signature),
		"checksum":       value.String(checksum),
	}
	return value.Canonical(value.Object(fields))
}

// canonicalize builds the deterministic textual representation signed by a
// Signer, with both Signature and Checksum blanked (spec.md §4.7: "compute
// signature ... over a canonical JSON serialization of the entry with
// signature and checksum set to empty strings").
func canonicalize(e *Entry) string {
	return canonicalizeFields(e, "", "")
}

// canonicalizeForChecksum builds the form SHA-256 is computed over: only
// Checksum is blanked, so the checksum also covers the real Signature value
// (spec.md §4.7: "checksum = SHA-256(canonical-serialize(entry with
// checksum empty))" — signature is left in place).
func canonicalizeForChecksum(e *Entry) string {
	return canonicalizeFields(e, e.Signature, "")
}

func regulationValues(regs []Regulation) []value.Value {
	names := make([]string, len(regs))
	for i, r := range regs {
		names[i] = string(r)
	}
	sort.Strings(names)
	out := make([]value.Value, len(names))
	for i, n := range names {
		out[i] = value.String(n)
	}
	return out
}

// debugString is a human-readable one-liner used in logs, never in the
// signed form.
func debugString(e *Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d] %s/%s actor=%s outcome=%s sev=%s", e.LogID, e.Sequence, e.EventType, e.Category, e.Actor, e.Outcome, e.Severity)
	return b.String()
}
