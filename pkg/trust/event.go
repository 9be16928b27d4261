package trust

// EventType classifies what kind of signal a trust Event carries
// (spec.md §4.2).
type EventType string

const (
	EventAuthentication    EventType = "authentication"
	EventBehavior          EventType = "behavior"
	EventCompliance        EventType = "compliance"
	EventSecurityIncident  EventType = "security_incident"
)

// Outcome classifies whether an Event reflects well or poorly on the agent.
type Outcome string

const (
	OutcomePositive Outcome = "positive"
	OutcomeNegative Outcome = "negative"
	OutcomeNeutral  Outcome = "neutral"
)

// Event is the input to Calculator.Update (spec.md §4.2).
type Event struct {
	Type    EventType
	Outcome Outcome
	Details map[string]interface{}
	Reason  string
}

// delta describes how much to move which component for a given
// (type, outcome) pair. Magnitudes match spec.md §4.2's documented
// ranges; exact values are implementer-adjustable but must preserve the
// specified signs and orders of magnitude.
type delta struct {
	component *float64 // bound per-call to the right Components field
	amount    float64
}

// componentFor returns a pointer to the Components field this event type
// primarily affects.
func componentFor(c *Components, t EventType) *float64 {
	switch t {
	case EventAuthentication:
		return &c.Identity
	case EventBehavior:
		return &c.Behavior
	case EventCompliance:
		return &c.Compliance
	case EventSecurityIncident:
		return &c.Reputation
	default:
		return &c.Behavior
	}
}

// amountFor returns the signed delta magnitude for a (type, outcome) pair.
func amountFor(t EventType, o Outcome) float64 {
	var positive, negative float64
	switch t {
	case EventAuthentication:
		positive, negative = 0.1, 0.2
	case EventBehavior:
		positive, negative = 0.05, 0.1
	case EventCompliance:
		positive, negative = 0.05, 0.15
	case EventSecurityIncident:
		positive, negative = 0.1, 0.3
	default:
		positive, negative = 0.05, 0.1
	}
	switch o {
	case OutcomePositive:
		return positive
	case OutcomeNegative:
		return -negative
	default:
		return 0
	}
}

// apply mutates s in place per the event, clamping both the affected
// component and the overall score to [0,1], and appends one history entry
// (spec.md §4.2: "History gets one entry").
func (s *Score) apply(e Event) {
	comp := componentFor(&s.Components, e.Type)
	*comp = clamp(*comp + amountFor(e.Type, e.Outcome))
	s.recompute()

	factor := string(e.Type)
	switch e.Outcome {
	case OutcomePositive:
		s.PositiveFactors = appendUnique(s.PositiveFactors, factor)
	case OutcomeNegative:
		s.NegativeFactors = appendUnique(s.NegativeFactors, factor)
	}

	reason := e.Reason
	if reason == "" {
		reason = string(e.Type) + "/" + string(e.Outcome)
	}
	s.appendHistory(reason, []string{factor})
	s.advanceState(e)
}

func appendUnique(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

// advanceState drives the new -> observed -> trusted <-> watchlist state
// machine (spec.md §4.2) from ordinary update traffic. Quarantine/release
// are driven explicitly (see lifecycle.go), never by this path.
func (s *Score) advanceState(e Event) {
	if s.State == StateQuarantined || s.State == StateReleased {
		return // explicit transitions only
	}
	if s.State == StateNew {
		s.State = StateObserved
		return
	}
	switch {
	case e.Outcome == OutcomeNegative && s.Overall < 0.4:
		s.State = StateWatchlist
	case s.Overall >= 0.7:
		s.State = StateTrusted
	case s.State == StateWatchlist && s.Overall >= 0.5:
		s.State = StateObserved
	}
}
