package anomaly

import (
	"regexp"
	"sync"
)

// threatTags are the detail-field tags spec.md §4.8 names explicitly.
var threatTags = []string{"sql_injection", "xss", "path_traversal", "command_injection"}

// IndicatorSource supplies the raw material for a threat-indicator
// refresh (spec.md §5 "threat-intelligence refresh (~4 h)"): a bad-IP
// list and a set of regex pattern strings. Swapping the source lets the
// background runner pull from a file, an HTTP feed, or a static list
// without ThreatIndicators knowing which.
type IndicatorSource interface {
	Indicators() (badIPs []string, patterns []string, err error)
}

// StaticIndicatorSource is an IndicatorSource fixed at construction time,
// the reference implementation spec.md §1 requires ("only the indicator
// interface matters").
type StaticIndicatorSource struct {
	BadIPs   []string
	Patterns []string
}

// Indicators implements IndicatorSource.
func (s StaticIndicatorSource) Indicators() ([]string, []string, error) {
	return s.BadIPs, s.Patterns, nil
}

// ThreatIndicators holds the configured matching criteria for the
// threat-indicator check (spec.md §4.8). Reload swaps the criteria
// atomically, so Check never observes a half-updated set.
type ThreatIndicators struct {
	mu       sync.RWMutex
	badIPs   map[string]bool
	patterns []*regexp.Regexp
}

// NewThreatIndicators builds a ThreatIndicators from a bad-IP list and a
// set of regex pattern strings, compiling each pattern once.
func NewThreatIndicators(badIPs []string, patterns []string) (*ThreatIndicators, error) {
	t := &ThreatIndicators{}
	if err := t.apply(badIPs, patterns); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ThreatIndicators) apply(badIPs []string, patterns []string) error {
	set := make(map[string]bool, len(badIPs))
	for _, ip := range badIPs {
		set[ip] = true
	}
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return err
		}
		compiled = append(compiled, re)
	}
	t.mu.Lock()
	t.badIPs = set
	t.patterns = compiled
	t.mu.Unlock()
	return nil
}

// Reload pulls a fresh bad-IP/pattern set from source and swaps it in. A
// malformed pattern from the source leaves the previous criteria in
// place rather than partially applying the refresh.
func (t *ThreatIndicators) Reload(source IndicatorSource) error {
	badIPs, patterns, err := source.Indicators()
	if err != nil {
		return err
	}
	return t.apply(badIPs, patterns)
}

// Check runs the three threat-indicator matches spec.md §4.8 lists: a
// bad-IP hit, a regex match against actor or target, or a known attack tag
// in the finding's details.
func (t *ThreatIndicators) Check(f Finding) *SecurityAlert {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.badIPs[f.ActorIP] {
		return NewAlert("threat_indicator", SeverityHigh, f.Actor, f.Target, "actor IP matched the bad-IP set")
	}
	for _, re := range t.patterns {
		if re.MatchString(f.Actor) || re.MatchString(f.Target) {
			return NewAlert("threat_indicator", SeverityHigh, f.Actor, f.Target, "actor/target matched a threat pattern")
		}
	}
	for _, tag := range threatTags {
		if v, ok := f.Details[tag]; ok {
			if b, isBool := v.(bool); !isBool || b {
				return NewAlert("threat_indicator", SeverityCritical, f.Actor, f.Target, "finding details tagged "+tag)
			}
		}
	}
	return nil
}
