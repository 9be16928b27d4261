package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/trustmesh/pkg/identity"
	"github.com/codeready-toolchain/trustmesh/pkg/trust"
)

func TestAssessNoFactorsIsVeryLow(t *testing.T) {
	ctx := identity.New(identity.WithIdentity(identity.IdentityBlock{Verified: true}))
	score := trust.NewScore("a", 0.8)
	now := time.Now()

	a := Assess(ctx, score, now)
	require.Empty(t, a.Factors)
	assert.Equal(t, 0.0, a.Score)
	assert.Equal(t, LevelVeryLow, a.Level)
	assert.Equal(t, now.Add(5*time.Minute), a.Deadline)
}

func TestAssessUnverifiedIdentityFactor(t *testing.T) {
	ctx := identity.New(identity.WithIdentity(identity.IdentityBlock{Verified: false}))
	score := trust.NewScore("a", 0.8)

	a := Assess(ctx, score, time.Now())
	require.Len(t, a.Factors, 1)
	assert.Equal(t, "identity", a.Factors[0].Type)
	assert.Equal(t, SeverityHigh, a.Factors[0].Severity)
	assert.Equal(t, 0.8, a.Factors[0].Score)
}

func TestAssessBehaviorAnomalyFactor(t *testing.T) {
	ctx := identity.New(
		identity.WithIdentity(identity.IdentityBlock{Verified: true}),
		identity.WithBehavior(identity.BehaviorBlock{AnomalyScore: 0.9}),
	)
	score := trust.NewScore("a", 0.8)

	a := Assess(ctx, score, time.Now())
	require.Len(t, a.Factors, 1)
	assert.Equal(t, "behavior", a.Factors[0].Type)
	assert.Equal(t, SeverityMedium, a.Factors[0].Severity)
}

func TestAssessLowTrustFactor(t *testing.T) {
	ctx := identity.New(identity.WithIdentity(identity.IdentityBlock{Verified: true}))
	score := trust.NewScore("a", 0.1)

	a := Assess(ctx, score, time.Now())
	require.Len(t, a.Factors, 1)
	assert.Equal(t, "identity", a.Factors[0].Type)
	assert.Equal(t, 0.9, a.Factors[0].Score)
}

func TestAggregateIsArithmeticMean(t *testing.T) {
	ctx := identity.New(
		identity.WithIdentity(identity.IdentityBlock{Verified: false}),
		identity.WithBehavior(identity.BehaviorBlock{AnomalyScore: 0.95}),
	)
	score := trust.NewScore("a", 0.1)

	a := Assess(ctx, score, time.Now())
	require.Len(t, a.Factors, 3)
	expected := (0.8 + 0.6 + 0.9) / 3
	assert.InDelta(t, expected, a.Score, 1e-9)
}

func TestLevelThresholdBoundsAreInclusiveLower(t *testing.T) {
	cases := []struct {
		score float64
		want  Level
	}{
		{1.0, LevelCritical},
		{0.9, LevelCritical},
		{0.89, LevelVeryHigh},
		{0.7, LevelVeryHigh},
		{0.69, LevelHigh},
		{0.5, LevelHigh},
		{0.49, LevelMedium},
		{0.3, LevelMedium},
		{0.29, LevelLow},
		{0.1, LevelLow},
		{0.09, LevelVeryLow},
		{0, LevelVeryLow},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, levelFor(c.score), "score=%v", c.score)
	}
}

func TestMitigationsAndRecommendationsDeduplicated(t *testing.T) {
	ctx := identity.New(identity.WithIdentity(identity.IdentityBlock{Verified: false}))
	score := trust.NewScore("a", 0.1) // also raises an "identity" factor via trust

	a := Assess(ctx, score, time.Now())
	require.Len(t, a.Factors, 2, "both factors are type identity")
	assert.Len(t, a.Mitigations, 1, "same factor type must not duplicate mitigations")
	assert.Len(t, a.Recommendations, 1)
}

func TestDeadlineIsFiveMinutesFromNow(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	a := Assess(identity.New(), trust.NewScore("a", 0.9), now)
	assert.Equal(t, now.Add(5*time.Minute), a.Deadline)
}

func TestAssessIsDeterministic(t *testing.T) {
	ctx := identity.New(
		identity.WithIdentity(identity.IdentityBlock{Verified: false}),
		identity.WithBehavior(identity.BehaviorBlock{AnomalyScore: 0.8}),
	)
	score := trust.NewScore("a", 0.2)
	now := time.Now()

	a1 := Assess(ctx, score, now)
	a2 := Assess(ctx, score, now)
	assert.Equal(t, a1.Score, a2.Score)
	assert.Equal(t, a1.Level, a2.Level)
	assert.Equal(t, a1.Factors, a2.Factors)
}
