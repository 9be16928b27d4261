package trust

import "time"

// TrustedLocationChecker decides whether an agent's current location is one
// of its established trusted locations. The default implementation treats
// no location as trusted (the Open Question decision recorded in
// DESIGN.md): contextual bonuses stay inert until a caller wires a real
// location history source.
type TrustedLocationChecker interface {
	IsTrustedLocation(agentID, location string) bool
}

// noTrustedLocations is the zero-value TrustedLocationChecker.
type noTrustedLocations struct{}

func (noTrustedLocations) IsTrustedLocation(string, string) bool { return false }

// Calculator applies events to Scores and computes contextual adjustments.
// It holds no per-agent state itself — Store owns that — so a Calculator
// can be shared across every agent's score.
type Calculator struct {
	InitialScore   float64
	LocationChecker TrustedLocationChecker
	BusinessHoursStart int // 0-23, inclusive
	BusinessHoursEnd   int // 0-23, exclusive
}

// NewCalculator returns a Calculator with spec.md §4.2 defaults: an initial
// score of 0.5 and business hours 9-17 in whatever timezone the caller's
// clock source reports.
func NewCalculator() *Calculator {
	return &Calculator{
		InitialScore:       0.5,
		LocationChecker:    noTrustedLocations{},
		BusinessHoursStart: 9,
		BusinessHoursEnd:   17,
	}
}

// New returns the initial Score for a never-before-seen agent.
func (c *Calculator) New(agentID string) *Score {
	return NewScore(agentID, c.InitialScore)
}

// Update applies an event to score in place (spec.md §4.2's event-driven
// delta update), returning the resulting overall score for convenience.
func (c *Calculator) Update(score *Score, e Event) float64 {
	score.apply(e)
	return score.Overall
}

// ContextualOverall computes a context-adjusted overall score WITHOUT
// mutating score — spec.md §4.2 is explicit that location/time bonuses are
// "copy only, never persisted": they influence a single access decision,
// not the agent's durable trust history.
func (c *Calculator) ContextualOverall(score *Score, location string, now time.Time) float64 {
	adjusted := score.Overall
	if location != "" && c.locationChecker().IsTrustedLocation(score.AgentID, location) {
		adjusted += 0.05
	}
	if c.isBusinessHours(now) {
		adjusted += 0.02
	}
	return clamp(adjusted)
}

func (c *Calculator) locationChecker() TrustedLocationChecker {
	if c.LocationChecker == nil {
		return noTrustedLocations{}
	}
	return c.LocationChecker
}

func (c *Calculator) isBusinessHours(now time.Time) bool {
	h := now.Hour()
	if c.BusinessHoursStart == c.BusinessHoursEnd {
		return false
	}
	return h >= c.BusinessHoursStart && h < c.BusinessHoursEnd
}
