// Package identity holds the SecurityContext value type (spec.md §3,
// component C2) and the actor/target/resource descriptors it is built
// from. A SecurityContext is created once per request and never mutated —
// every field is set at construction time.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// Sensitivity classifies a resource's data sensitivity.
type Sensitivity string

const (
	SensitivityPublic       Sensitivity = "public"
	SensitivityInternal     Sensitivity = "internal"
	SensitivityConfidential Sensitivity = "confidential"
	SensitivityRestricted   Sensitivity = "restricted"
)

// Actor describes the agent making a request.
type Actor struct {
	AgentID       string
	AgentType     string
	SourceSegment string
	IP            string
	Location      string
	Device        string
}

// IdentityBlock carries how the actor's identity was established.
type IdentityBlock struct {
	Verified     bool
	Method       string
	Certificates []string
	TrustLevel   string
}

// BehaviorBlock carries behavioral signal for the current request.
type BehaviorBlock struct {
	PatternLabel string
	AnomalyScore float64 // [0,1]
	RiskFactors  []string
}

// ResourceBlock describes the thing being accessed.
type ResourceBlock struct {
	Type           string
	Classification string
	Owner          string
	Sensitivity    Sensitivity
}

// SecurityContext is the immutable request-scoped value every ZTE
// component reads from. Construct with New; fields are never mutated
// afterward.
type SecurityContext struct {
	RequestID string
	Timestamp time.Time
	Actor     Actor
	Identity  IdentityBlock
	Behavior  BehaviorBlock
	Resource  ResourceBlock
	Metadata  map[string]interface{}
}

// Option customizes a SecurityContext at construction time.
type Option func(*SecurityContext)

// WithRequestID overrides the generated request id (tests, replay).
func WithRequestID(id string) Option {
	return func(c *SecurityContext) { c.RequestID = id }
}

// WithTimestamp overrides the generated timestamp (tests, replay).
func WithTimestamp(ts time.Time) Option {
	return func(c *SecurityContext) { c.Timestamp = ts }
}

// WithActor sets the actor block.
func WithActor(a Actor) Option {
	return func(c *SecurityContext) { c.Actor = a }
}

// WithIdentity sets the identity block.
func WithIdentity(i IdentityBlock) Option {
	return func(c *SecurityContext) { c.Identity = i }
}

// WithBehavior sets the behavior block.
func WithBehavior(b BehaviorBlock) Option {
	return func(c *SecurityContext) { c.Behavior = b }
}

// WithResource sets the resource block.
func WithResource(r ResourceBlock) Option {
	return func(c *SecurityContext) { c.Resource = r }
}

// WithMetadata sets free-form metadata.
func WithMetadata(m map[string]interface{}) Option {
	return func(c *SecurityContext) { c.Metadata = m }
}

// New builds a complete SecurityContext, filling missing fields with safe
// defaults (spec.md §4.6 step 1: "fill missing fields with safe defaults;
// generate a fresh request id"). A fresh request id and current timestamp
// are always generated first, then overridable by options — so tests can
// still pin them via WithRequestID/WithTimestamp for determinism.
func New(opts ...Option) *SecurityContext {
	c := &SecurityContext{
		RequestID: uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Resource:  ResourceBlock{Sensitivity: SensitivityInternal},
		Metadata:  make(map[string]interface{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.Metadata == nil {
		c.Metadata = make(map[string]interface{})
	}
	return c
}

// Field looks up a well-known dotted field path on the context for use by
// policy condition matching (spec.md §4.4). Returns ok=false for any path
// not recognized or any optional sub-field that is empty — policy.Condition
// treats that as "missing", never as implicitly matching.
func (c *SecurityContext) Field(path string) (interface{}, bool) {
	switch path {
	case "actor.agent_id":
		return nonEmpty(c.Actor.AgentID)
	case "actor.agent_type":
		return nonEmpty(c.Actor.AgentType)
	case "actor.source_segment":
		return nonEmpty(c.Actor.SourceSegment)
	case "actor.ip":
		return nonEmpty(c.Actor.IP)
	case "actor.location":
		return nonEmpty(c.Actor.Location)
	case "actor.device":
		return nonEmpty(c.Actor.Device)
	case "identity.verified":
		return c.Identity.Verified, true
	case "identity.method":
		return nonEmpty(c.Identity.Method)
	case "identity.trust_level":
		return nonEmpty(c.Identity.TrustLevel)
	case "behavior.pattern_label":
		return nonEmpty(c.Behavior.PatternLabel)
	case "behavior.anomaly_score":
		return c.Behavior.AnomalyScore, true
	case "resource.type":
		return nonEmpty(c.Resource.Type)
	case "resource.classification":
		return nonEmpty(c.Resource.Classification)
	case "resource.owner":
		return nonEmpty(c.Resource.Owner)
	case "resource.sensitivity":
		return nonEmpty(string(c.Resource.Sensitivity))
	default:
		if v, ok := c.Metadata[path]; ok {
			return v, true
		}
		return nil, false
	}
}

func nonEmpty(s string) (interface{}, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}
