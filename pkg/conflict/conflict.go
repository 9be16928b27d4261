// Package conflict implements the conflict resolver (spec.md §4.9,
// component C10): classification of a conflicting (local, remote) value
// pair, rule-based strategy selection, and a set of pure-function
// resolution strategies (lww, mvr, priority, union/intersection, semantic
// merge, operational transform).
package conflict

import (
	"time"

	"github.com/codeready-toolchain/trustmesh/pkg/clock"
	"github.com/codeready-toolchain/trustmesh/pkg/value"
)

// ConflictValue is one side of a conflicting write (spec.md §3).
type ConflictValue struct {
	Value     value.Value
	Clock     *clock.Clock
	Timestamp time.Time
	Metadata  map[string]interface{}
}

// Class is the diagnostic category a conflict is sorted into before a
// strategy is chosen (spec.md §4.9 step 1).
type Class string

const (
	ClassConcurrentWrite Class = "concurrent_write"
	ClassStructural      Class = "structural"
	ClassSemantic        Class = "semantic"
	ClassReadWrite        Class = "read_write"
)

// identifierFields are the object keys Classify treats as "critical
// identifier fields" for the semantic class (spec.md §4.9: "critical
// identifier fields differ").
var identifierFields = []string{"id", "key", "owner", "type"}

// Classify implements spec.md §4.9 step 1.
func Classify(local, remote ConflictValue) Class {
	if local.Clock != nil && remote.Clock != nil && local.Clock.Compare(remote.Clock) == clock.Concurrent {
		return ClassConcurrentWrite
	}
	if local.Value.Kind() != remote.Value.Kind() {
		return ClassStructural
	}
	if local.Value.Kind() == value.KindObject && structuralShapeDiffers(local.Value, remote.Value) {
		return ClassStructural
	}
	if local.Value.Kind() == value.KindObject && identifiersDiffer(local.Value, remote.Value) {
		return ClassSemantic
	}
	return ClassReadWrite
}

func structuralShapeDiffers(a, b value.Value) bool {
	ao, _ := a.Object()
	bo, _ := b.Object()
	if len(ao) != len(bo) {
		return true
	}
	for k := range ao {
		if _, ok := bo[k]; !ok {
			return true
		}
	}
	return false
}

func identifiersDiffer(a, b value.Value) bool {
	ao, _ := a.Object()
	bo, _ := b.Object()
	for _, field := range identifierFields {
		av, aok := ao[field]
		bv, bok := bo[field]
		if aok != bok {
			continue
		}
		if aok && bok && !value.Equal(av, bv) {
			return true
		}
	}
	return false
}

// Resolution is the full output of Resolve (spec.md §4.9 step 4).
type Resolution struct {
	ID                string
	Strategy          string
	Value             value.Value
	Confidence        float64
	Reasoning         string
	AppliedTransforms []Transform
	Alternatives      []value.Value
	ManualReview      bool
}
