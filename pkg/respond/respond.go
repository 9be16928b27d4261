// Package respond implements the adaptive responder (spec.md §4.5,
// component C6): a deterministic map from risk level to an ordered action
// list and response duration, with side-effect actions executed once each
// and tracked as pending until they succeed; a failed action is not
// re-executed.
package respond

import (
	"time"

	"github.com/codeready-toolchain/trustmesh/pkg/risk"
)

// Action is one step an AdaptiveResponse can carry out. Each is
// side-effect-only: it never changes the access decision itself, only the
// agent's subsequent monitoring/trust posture.
type Action string

const (
	ActionQuarantine             Action = "quarantine"
	ActionAlertAdmin             Action = "alert_admin"
	ActionEnhanceMonitoring      Action = "enhance_monitoring"
	ActionRequireReauthentication Action = "require_reauthentication"
	ActionRestrictCapabilities   Action = "restrict_capabilities"
)

// Response is the ordered action plan for a given risk level (spec.md §3
// AdaptiveResponse).
type Response struct {
	Level    risk.Level
	Actions  []Action
	Duration time.Duration
}

// planByLevel is the deterministic table in spec.md §4.5.
var planByLevel = map[risk.Level]Response{
	risk.LevelCritical: {
		Actions:  []Action{ActionQuarantine, ActionAlertAdmin, ActionEnhanceMonitoring},
		Duration: 60 * time.Minute,
	},
	risk.LevelVeryHigh: {
		Actions:  []Action{ActionRequireReauthentication, ActionRestrictCapabilities, ActionAlertAdmin},
		Duration: 30 * time.Minute,
	},
	risk.LevelHigh: {
		Actions:  []Action{ActionEnhanceMonitoring, ActionRequireReauthentication},
		Duration: 15 * time.Minute,
	},
	risk.LevelMedium: {
		Actions:  []Action{ActionEnhanceMonitoring},
		Duration: 5 * time.Minute,
	},
	risk.LevelLow: {
		Duration: time.Minute,
	},
	risk.LevelVeryLow: {
		Duration: time.Minute,
	},
}

// Plan returns the deterministic action plan for a risk level.
func Plan(level risk.Level) Response {
	r, ok := planByLevel[level]
	if !ok {
		return Response{Level: level, Duration: time.Minute}
	}
	r.Level = level
	return r
}
