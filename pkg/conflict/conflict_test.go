package conflict

import (
	"testing"
	"time"

	"github.com/codeready-toolchain/trustmesh/pkg/clock"
	"github.com/codeready-toolchain/trustmesh/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockAt(owner string, vals map[string]uint64) *clock.Clock {
	c := clock.New(owner)
	for agent, n := range vals {
		c.Update(agent, n)
	}
	return c
}

func TestClassifyConcurrentWrite(t *testing.T) {
	local := ConflictValue{Value: value.String("a"), Clock: clockAt("x", map[string]uint64{"x": 2, "y": 1})}
	remote := ConflictValue{Value: value.String("b"), Clock: clockAt("y", map[string]uint64{"x": 1, "y": 2})}
	assert.Equal(t, ClassConcurrentWrite, Classify(local, remote))
}

func TestClassifyStructuralKindMismatch(t *testing.T) {
	local := ConflictValue{Value: value.String("a")}
	remote := ConflictValue{Value: value.Int(1)}
	assert.Equal(t, ClassStructural, Classify(local, remote))
}

func TestClassifyStructuralShapeMismatch(t *testing.T) {
	local := ConflictValue{Value: value.Object(map[string]value.Value{"id": value.String("1")})}
	remote := ConflictValue{Value: value.Object(map[string]value.Value{"id": value.String("1"), "extra": value.Bool(true)})}
	assert.Equal(t, ClassStructural, Classify(local, remote))
}

func TestClassifySemanticIdentifierDiffers(t *testing.T) {
	local := ConflictValue{Value: value.Object(map[string]value.Value{"id": value.String("1"), "name": value.String("a")})}
	remote := ConflictValue{Value: value.Object(map[string]value.Value{"id": value.String("2"), "name": value.String("a")})}
	assert.Equal(t, ClassSemantic, Classify(local, remote))
}

func TestClassifyReadWriteFallback(t *testing.T) {
	local := ConflictValue{Value: value.Object(map[string]value.Value{"id": value.String("1"), "name": value.String("a")})}
	remote := ConflictValue{Value: value.Object(map[string]value.Value{"id": value.String("1"), "name": value.String("b")})}
	assert.Equal(t, ClassReadWrite, Classify(local, remote))
}

func TestLWWPrefersCausallyLaterClock(t *testing.T) {
	local := ConflictValue{Value: value.String("a"), Clock: clockAt("x", map[string]uint64{"x": 2})}
	remote := ConflictValue{Value: value.String("b"), Clock: clockAt("y", map[string]uint64{"x": 1})}
	res := LWW(local, remote, nil)
	assert.Equal(t, value.String("a"), res.Value)
	assert.Equal(t, 0.9, res.Confidence)
}

func TestLWWFallsBackToTimestampWhenConcurrent(t *testing.T) {
	now := time.Now()
	local := ConflictValue{Value: value.String("a"), Timestamp: now.Add(time.Minute)}
	remote := ConflictValue{Value: value.String("b"), Timestamp: now}
	res := LWW(local, remote, nil)
	assert.Equal(t, value.String("a"), res.Value)
	assert.Equal(t, 0.7, res.Confidence)
}

func TestMVRReturnsBothAndFlagsManualReview(t *testing.T) {
	local := ConflictValue{Value: value.String("a")}
	remote := ConflictValue{Value: value.String("b")}
	res := MVR(local, remote, nil)
	assert.True(t, res.ManualReview)
	assert.Equal(t, value.String("a"), res.Value)
	assert.Equal(t, []value.Value{value.String("b")}, res.Alternatives)
}

func TestPriorityPicksHigherMetadataPriority(t *testing.T) {
	local := ConflictValue{Value: value.String("a"), Metadata: map[string]interface{}{"priority": 9}}
	remote := ConflictValue{Value: value.String("b"), Metadata: map[string]interface{}{"priority": 3}}
	res := Priority(local, remote, nil)
	assert.Equal(t, value.String("a"), res.Value)
	assert.False(t, res.ManualReview)
}

func TestPriorityTieRequiresManualReview(t *testing.T) {
	local := ConflictValue{Value: value.String("a")}
	remote := ConflictValue{Value: value.String("b")}
	res := Priority(local, remote, nil)
	assert.True(t, res.ManualReview)
}

func TestUnionDeduplicatesArrayElements(t *testing.T) {
	local := ConflictValue{Value: value.Array(value.Int(1), value.Int(2))}
	remote := ConflictValue{Value: value.Array(value.Int(2), value.Int(3))}
	res := Union(local, remote, nil)
	arr, ok := res.Value.Array()
	require.True(t, ok)
	assert.Len(t, arr, 3)
}

func TestIntersectionKeepsOnlySharedElements(t *testing.T) {
	local := ConflictValue{Value: value.Array(value.Int(1), value.Int(2))}
	remote := ConflictValue{Value: value.Array(value.Int(2), value.Int(3))}
	res := Intersection(local, remote, nil)
	arr, ok := res.Value.Array()
	require.True(t, ok)
	assert.Equal(t, []value.Value{value.Int(2)}, arr)
}

func TestUnionFallsBackToLWWForScalars(t *testing.T) {
	now := time.Now()
	local := ConflictValue{Value: value.String("a"), Timestamp: now.Add(time.Minute)}
	remote := ConflictValue{Value: value.String("b"), Timestamp: now}
	res := Union(local, remote, nil)
	assert.Equal(t, string(StrategyUnion), res.Strategy)
	assert.Equal(t, value.String("a"), res.Value)
}

func TestSemanticMergesObjectFieldsRecursively(t *testing.T) {
	local := ConflictValue{Value: value.Object(map[string]value.Value{"a": value.Int(1)})}
	remote := ConflictValue{Value: value.Object(map[string]value.Value{"b": value.Int(2)})}
	res := Semantic(local, remote, nil)
	obj, ok := res.Value.Object()
	require.True(t, ok)
	assert.Equal(t, value.Int(1), obj["a"])
	assert.Equal(t, value.Int(2), obj["b"])
}

func TestSemanticNumericDefaultsToAverage(t *testing.T) {
	local := ConflictValue{Value: value.Int(4)}
	remote := ConflictValue{Value: value.Int(6)}
	res := Semantic(local, remote, nil)
	f, ok := res.Value.Float()
	require.True(t, ok)
	assert.Equal(t, 5.0, f)
}

func TestSemanticHonorsSumSchemaHint(t *testing.T) {
	local := ConflictValue{Value: value.Int(4), Metadata: map[string]interface{}{"schema_hint": "sum"}}
	remote := ConflictValue{Value: value.Int(6)}
	res := Semantic(local, remote, nil)
	i, ok := res.Value.Int()
	require.True(t, ok)
	assert.Equal(t, int64(10), i)
}

func TestSemanticMergesStringsByCommonAffix(t *testing.T) {
	local := ConflictValue{Value: value.String("hello world")}
	remote := ConflictValue{Value: value.String("hello there world")}
	res := Semantic(local, remote, nil)
	s, ok := res.Value.String()
	require.True(t, ok)
	assert.Contains(t, s, "hello")
	assert.Contains(t, s, "world")
}

func TestOperationalMergesNonOverlappingEdits(t *testing.T) {
	ancestor := &ConflictValue{Value: value.String("hello world")}
	local := ConflictValue{Value: value.String("hello brave world"), Timestamp: time.Now()}
	remote := ConflictValue{Value: value.String("hello world wide"), Timestamp: time.Now().Add(time.Second)}
	res := Operational(local, remote, ancestor)
	assert.Equal(t, string(StrategyOperational), res.Strategy)
	s, ok := res.Value.String()
	require.True(t, ok)
	assert.NotEmpty(t, s)
}

func TestOperationalFallsBackWithoutAncestor(t *testing.T) {
	local := ConflictValue{Value: value.String("a")}
	remote := ConflictValue{Value: value.String("b")}
	res := Operational(local, remote, nil)
	assert.Equal(t, string(StrategyOperational), res.Strategy)
}

func TestSelectRuleHighestPriorityWins(t *testing.T) {
	rules := []Rule{
		{ID: "low", KeyPattern: "*", Strategy: StrategyMVR, Priority: 1, Enabled: true},
		{ID: "high", KeyPattern: "*", Strategy: StrategyLWW, Priority: 10, Enabled: true},
	}
	r := SelectRule(rules, "agent.trust", ConflictValue{}, ConflictValue{})
	assert.Equal(t, "high", r.ID)
}

func TestSelectRuleTieBreaksLexicographically(t *testing.T) {
	rules := []Rule{
		{ID: "zzz", KeyPattern: "*", Strategy: StrategyMVR, Priority: 5, Enabled: true},
		{ID: "aaa", KeyPattern: "*", Strategy: StrategyLWW, Priority: 5, Enabled: true},
	}
	r := SelectRule(rules, "agent.trust", ConflictValue{}, ConflictValue{})
	assert.Equal(t, "aaa", r.ID)
}

func TestSelectRuleFallsBackToDefault(t *testing.T) {
	r := SelectRule(nil, "agent.trust", ConflictValue{}, ConflictValue{})
	assert.Equal(t, "default", r.ID)
	assert.Equal(t, StrategyLWW, r.Strategy)
}

func TestSelectRuleSkipsDisabledAndNonMatchingKeyPattern(t *testing.T) {
	rules := []Rule{
		{ID: "disabled", KeyPattern: "*", Strategy: StrategyMVR, Priority: 100, Enabled: false},
		{ID: "wrong-key", KeyPattern: "policy.", Strategy: StrategyMVR, Priority: 100, Enabled: true},
		{ID: "right", KeyPattern: "agent.", Strategy: StrategyLWW, Priority: 1, Enabled: true},
	}
	r := SelectRule(rules, "agent.trust", ConflictValue{}, ConflictValue{})
	assert.Equal(t, "right", r.ID)
}

func TestResolveAssignsIDAndPrefixesReasoningWithClass(t *testing.T) {
	local := ConflictValue{Value: value.String("a"), Timestamp: time.Now().Add(time.Minute)}
	remote := ConflictValue{Value: value.String("b"), Timestamp: time.Now()}
	res := Resolve("agent.trust", local, remote, nil, nil)
	assert.NotEmpty(t, res.ID)
	assert.Contains(t, res.Reasoning, string(ClassReadWrite))
}

func TestResolveIsIdempotentForEveryStrategy(t *testing.T) {
	for _, name := range []Name{
		StrategyLWW, StrategyMVR, StrategyPriority, StrategyUnion,
		StrategyIntersection, StrategySemantic, StrategyOperational,
	} {
		t.Run(string(name), func(t *testing.T) {
			v := value.String("same")
			c := clockAt("x", map[string]uint64{"x": 3})
			local := ConflictValue{Value: v, Clock: c, Timestamp: time.Now()}
			remote := ConflictValue{Value: v, Clock: c.Clone(), Timestamp: time.Now()}

			rules := []Rule{{ID: "r", KeyPattern: "*", Strategy: name, Priority: 1, Enabled: true}}
			res := Resolve("agent.trust", local, remote, nil, rules)
			assert.Equal(t, v, res.Value)
			assert.Equal(t, 1.0, res.Confidence)
		})
	}
}

func TestResolveIdempotenceRequiresEqualClocksToo(t *testing.T) {
	v := value.String("same")
	local := ConflictValue{Value: v, Clock: clockAt("x", map[string]uint64{"x": 2})}
	remote := ConflictValue{Value: v, Clock: clockAt("y", map[string]uint64{"x": 1, "y": 1})}
	res := Resolve("agent.trust", local, remote, nil, nil)
	assert.NotEqual(t, 1.0, res.Confidence)
}

func TestResolveFallsBackToLWWOnUnknownStrategy(t *testing.T) {
	rules := []Rule{{ID: "bad", KeyPattern: "*", Strategy: Name("not-a-real-strategy"), Priority: 1, Enabled: true}}
	local := ConflictValue{Value: value.String("a"), Timestamp: time.Now().Add(time.Minute)}
	remote := ConflictValue{Value: value.String("b"), Timestamp: time.Now()}
	res := Resolve("agent.trust", local, remote, nil, rules)
	assert.Equal(t, value.String("a"), res.Value)
}
