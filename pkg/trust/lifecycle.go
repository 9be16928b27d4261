package trust

import (
	"fmt"
	"time"

	trusterrors "github.com/codeready-toolchain/trustmesh/pkg/shared/errors"
)

// Quarantine moves score into StateQuarantined, recording the reason and an
// optional expiry. Quarantine is always an explicit action — it never
// happens implicitly from Update (see advanceState).
func (s *Score) Quarantine(reason string, until *time.Time) {
	s.State = StateQuarantined
	s.QuarantineReason = reason
	s.QuarantineUntil = until
	s.appendHistory("quarantined: "+reason, []string{"quarantine"})
}

// Release moves a quarantined score to StateReleased, clearing the
// quarantine fields. Releasing a score that isn't quarantined is a no-op
// error, not silently ignored, so callers can't paper over a bad state
// transition.
func (s *Score) Release() error {
	if s.State != StateQuarantined {
		return trusterrors.New(trusterrors.KindEvaluation, fmt.Sprintf("agent %s is not quarantined", s.AgentID))
	}
	s.State = StateReleased
	s.QuarantineReason = ""
	s.QuarantineUntil = nil
	s.appendHistory("released from quarantine", []string{"release"})
	return nil
}

// IsQuarantined reports whether the score is currently under quarantine,
// honoring an expiry if one was set.
func (s *Score) IsQuarantined(now time.Time) bool {
	if s.State != StateQuarantined {
		return false
	}
	if s.QuarantineUntil != nil && now.After(*s.QuarantineUntil) {
		return false
	}
	return true
}
