package anomaly

import (
	"time"

	"github.com/google/uuid"
)

// Status is a SecurityAlert's position in the investigation lifecycle
// (spec.md §4.8): open -> investigating -> {mitigated -> resolved |
// false_positive}.
type Status string

const (
	StatusOpen          Status = "open"
	StatusInvestigating Status = "investigating"
	StatusMitigated     Status = "mitigated"
	StatusResolved      Status = "resolved"
	StatusFalsePositive Status = "false_positive"
)

// validTransitions enumerates the only allowed next statuses from each
// current status.
var validTransitions = map[Status][]Status{
	StatusOpen:          {StatusInvestigating, StatusFalsePositive},
	StatusInvestigating: {StatusMitigated, StatusFalsePositive},
	StatusMitigated:     {StatusResolved},
}

// SecurityAlert is one finding raised by the detector, correlator, or
// threat-indicator check (spec.md §3).
type SecurityAlert struct {
	ID          string
	Type        string
	Severity    Severity
	Actor       string
	Target      string
	Description string
	CreatedAt   time.Time
	Status      Status
	AutoResponded []string
}

// NewAlert creates an open SecurityAlert.
func NewAlert(alertType string, severity Severity, actor, target, description string) *SecurityAlert {
	return &SecurityAlert{
		ID:          uuid.New().String(),
		Type:        alertType,
		Severity:    severity,
		Actor:       actor,
		Target:      target,
		Description: description,
		CreatedAt:   time.Now(),
		Status:      StatusOpen,
	}
}

// Transition moves the alert to next, rejecting any transition not in
// validTransitions.
func (a *SecurityAlert) Transition(next Status) bool {
	for _, allowed := range validTransitions[a.Status] {
		if allowed == next {
			a.Status = next
			return true
		}
	}
	return false
}

// AutoResponseActions returns spec.md §4.8's fixed auto-response actions
// for alerts at or above high severity; nil for lower severities (log
// only).
func AutoResponseActions(severity Severity) []string {
	switch severity {
	case SeverityCritical:
		return []string{"block_agent", "notify_admin", "escalate"}
	case SeverityHigh:
		return []string{"rate_limit", "notify_admin"}
	default:
		return nil
	}
}
