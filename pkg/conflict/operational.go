package conflict

import "github.com/codeready-toolchain/trustmesh/pkg/value"

// TransformOp is the kind of edit a Transform represents.
type TransformOp string

const (
	TransformInsert  TransformOp = "insert"
	TransformDelete  TransformOp = "delete"
	TransformRetain  TransformOp = "retain"
	TransformReplace TransformOp = "replace"
)

// Transform is one operation in an operational-transform resolution
// (spec.md §4.9 step 3): a position in the string with the content
// inserted, deleted, or retained there.
type Transform struct {
	Op      TransformOp
	Offset  int
	Content string
}

// maxTransformsBeforeManualReview caps how large an edit script can get
// before Operational gives up and flags the result for manual review
// (spec.md §4.9: "an excessive number of operations").
const maxTransformsBeforeManualReview = 10

// Operational implements spec.md §4.9's operational-transform strategy: a
// diff-based sequence of insert/delete/retain operations from a common
// ancestor, applied in priority-then-timestamp order with a running
// offset. Falls back to lww when either side isn't a string or no
// ancestor is available.
func Operational(local, remote ConflictValue, ancestor *ConflictValue) Resolution {
	ls, lok := local.Value.String()
	rs, rok := remote.Value.String()
	if !lok || !rok || ancestor == nil {
		return fallbackScalar(StrategyOperational, local, remote, ancestor)
	}
	as, aok := ancestor.Value.String()
	if !aok {
		return fallbackScalar(StrategyOperational, local, remote, ancestor)
	}

	localOps := diffTransforms(as, ls)
	remoteOps := diffTransforms(as, rs)

	first, second := localOps, remoteOps
	base := ls
	if applyRemoteFirst(local, remote) {
		first, second = remoteOps, localOps
		base = rs
	}

	result := base
	applied := append([]Transform{}, first...)
	for _, t := range second {
		// Shift the op by the net length change of the already-applied
		// side's edits at or before its ancestor offset.
		shift := 0
		for _, f := range first {
			if f.Offset > t.Offset {
				continue
			}
			switch f.Op {
			case TransformInsert:
				shift += len(f.Content)
			case TransformDelete:
				shift -= len(f.Content)
			}
		}
		t.Offset += shift
		result, t = applyTransform(result, t)
		applied = append(applied, t)
	}

	review := len(applied) >= maxTransformsBeforeManualReview
	return Resolution{
		Strategy:          string(StrategyOperational),
		Value:             value.String(result),
		Confidence:        confidenceFor(review),
		Reasoning:         "merged via operational transform from common ancestor",
		AppliedTransforms: applied,
		ManualReview:      review,
	}
}

func confidenceFor(manualReview bool) float64 {
	if manualReview {
		return 0.4
	}
	return 0.8
}

// applyRemoteFirst decides ordering per spec.md §4.9: higher
// metadata.priority applies first; ties break on the earlier timestamp.
func applyRemoteFirst(local, remote ConflictValue) bool {
	lp, rp := metadataPriority(local), metadataPriority(remote)
	if lp != rp {
		return rp > lp
	}
	return remote.Timestamp.Before(local.Timestamp)
}

// diffTransforms computes a minimal insert/delete/retain script turning
// `from` into `to`, using a common-prefix/common-suffix diff — sufficient
// for the single-edit-region case this strategy targets.
func diffTransforms(from, to string) []Transform {
	prefixLen := commonPrefixLen(from, to)
	suffixLen := commonSuffixLen(from[prefixLen:], to[prefixLen:])

	var ops []Transform
	if prefixLen > 0 {
		ops = append(ops, Transform{Op: TransformRetain, Offset: 0, Content: from[:prefixLen]})
	}
	delMid := from[prefixLen : len(from)-suffixLen]
	insMid := to[prefixLen : len(to)-suffixLen]
	if delMid != "" {
		ops = append(ops, Transform{Op: TransformDelete, Offset: prefixLen, Content: delMid})
	}
	if insMid != "" {
		ops = append(ops, Transform{Op: TransformInsert, Offset: prefixLen, Content: insMid})
	}
	if suffixLen > 0 {
		ops = append(ops, Transform{Op: TransformRetain, Offset: len(from) - suffixLen, Content: from[len(from)-suffixLen:]})
	}
	return ops
}

// applyTransform applies a single edit op against the current merged
// string at the op's offset, which the caller has already shifted by the
// length change of previously-applied ops; offsets past the end are
// clamped.
func applyTransform(current string, t Transform) (string, Transform) {
	offset := t.Offset
	if offset > len(current) {
		offset = len(current)
	}
	switch t.Op {
	case TransformInsert:
		return current[:offset] + t.Content + current[offset:], t
	case TransformDelete:
		end := offset + len(t.Content)
		if end > len(current) {
			end = len(current)
		}
		return current[:offset] + current[end:], t
	case TransformReplace:
		end := offset + len(t.Content)
		if end > len(current) {
			end = len(current)
		}
		return current[:offset] + t.Content + current[end:], t
	default: // retain
		return current, t
	}
}
