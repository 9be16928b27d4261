// Package audit implements the tamper-evident audit log writer (spec.md
// §4.7, component C8): structured entries with derived severity,
// applicable regulations, and retention, canonically serialized and
// signed/checksummed for integrity, buffered and flushed to a pluggable
// Sink.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Severity is the derived urgency of an audit entry.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Regulation names a compliance regime an entry may be subject to.
type Regulation string

const (
	RegulationGDPR   Regulation = "GDPR"
	RegulationSOX    Regulation = "SOX"
	RegulationHIPAA  Regulation = "HIPAA"
	RegulationPCIDSS Regulation = "PCI-DSS"
)

// Outcome is whether the audited operation succeeded, failed, or was
// denied.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeError   Outcome = "error"
	OutcomeDenied  Outcome = "denied"
)

// Category groups an entry for regulation/retention derivation.
type Category string

const (
	CategoryData          Category = "data"
	CategoryFinancial     Category = "financial"
	CategoryHealth        Category = "health"
	CategoryPayment       Category = "payment"
	CategorySecurityEvent Category = "security_event"
	CategoryCompliance    Category = "compliance"
	CategoryOther         Category = "other"
)

// Entry is one record in the tamper-evident audit log (spec.md §3
// AuditLogEntry). Signature is computed over the entry with both Signature
// and Checksum blanked; Checksum is computed with only Checksum blanked, so
// it also covers Signature. Seal sets both.
type Entry struct {
	LogID       string
	Sequence    uint64
	Timestamp   time.Time
	EventType   string
	Category    Category
	Actor       string
	Target      string
	Outcome     Outcome
	Severity    Severity
	Regulations []Regulation
	RetentionDays int
	Details     map[string]interface{}
	Signature   string
	Checksum    string
}

// New builds an Entry with a fresh log id and current timestamp, deriving
// Severity, Regulations, and RetentionDays if the caller leaves them at
// their zero value. Sequence is assigned by the Writer, not here.
func New(eventType string, category Category, actor, target string, outcome Outcome, details map[string]interface{}) *Entry {
	e := &Entry{
		LogID:     uuid.New().String(),
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		Category:  category,
		Actor:     actor,
		Target:    target,
		Outcome:   outcome,
		Details:   details,
	}
	e.Severity = deriveSeverity(e)
	e.Regulations = deriveRegulations(e)
	e.RetentionDays = deriveRetentionDays(e)
	return e
}

// deriveSeverity implements spec.md §4.7's severity table.
func deriveSeverity(e *Entry) Severity {
	failed := e.Outcome == OutcomeFailure || e.Outcome == OutcomeError
	switch {
	case failed && e.Category == CategorySecurityEvent:
		return SeverityCritical
	case failed && e.EventType == "authentication":
		return SeverityError
	case e.Outcome == OutcomeDenied:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// deriveRegulations maps an entry's category to the regulations it falls
// under; the event type does not affect the result.
func deriveRegulations(e *Entry) []Regulation {
	var regs []Regulation
	switch e.Category {
	case CategoryData:
		regs = append(regs, RegulationGDPR)
	case CategoryFinancial:
		regs = append(regs, RegulationSOX)
	case CategoryHealth:
		regs = append(regs, RegulationHIPAA)
	case CategoryPayment:
		regs = append(regs, RegulationPCIDSS)
	}
	return regs
}

const (
	defaultRetentionDays       = 365
	longRetentionDays          = 2555 // ~7 years
)

var retentionByCategory = map[Category]int{
	CategorySecurityEvent: longRetentionDays,
	CategoryCompliance:    longRetentionDays,
}

var retentionByEventType = map[string]int{}

// deriveRetentionDays implements spec.md §4.7's retention precedence:
// per-category map, else per-event-type map, else the default (with
// security_event/compliance defaulting to ~7 years).
func deriveRetentionDays(e *Entry) int {
	if d, ok := retentionByCategory[e.Category]; ok {
		return d
	}
	if d, ok := retentionByEventType[e.EventType]; ok {
		return d
	}
	return defaultRetentionDays
}
