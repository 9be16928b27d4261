package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeready-toolchain/trustmesh/pkg/identity"
	"github.com/codeready-toolchain/trustmesh/pkg/risk"
	"github.com/codeready-toolchain/trustmesh/pkg/trust"
)

func TestValidateRequiresIDAndName(t *testing.T) {
	p := &Policy{Priority: 10}
	assert.Error(t, p.Validate())

	p.ID = "p1"
	assert.Error(t, p.Validate())

	p.Name = "policy one"
	assert.NoError(t, p.Validate())
}

func TestValidatePriorityRange(t *testing.T) {
	p := &Policy{ID: "p1", Name: "n", Priority: 101}
	assert.Error(t, p.Validate())
	p.Priority = -1
	assert.Error(t, p.Validate())
	p.Priority = 50
	assert.NoError(t, p.Validate())
}

func TestValidateRejectsAllowAndHardBlock(t *testing.T) {
	p := &Policy{ID: "p1", Name: "n", Priority: 10, Action: Action{Allow: true, Restrictions: []string{"hard-block"}}}
	assert.Error(t, p.Validate())
}

func TestConditionMissingFieldNeverMatches(t *testing.T) {
	c := Condition{AgentTypes: []string{"worker"}}
	ctx := identity.New() // no actor set
	assert.False(t, c.Matches(ctx, nil, nil))
}

func TestConditionShortCircuitsInOrder(t *testing.T) {
	called := false
	c := Condition{
		RiskLevels: []risk.Level{risk.LevelLow},
		Predicates: []Predicate{
			func(*identity.SecurityContext, *trust.Score, *risk.Assessment) (bool, bool) {
				called = true
				return true, true
			},
		},
	}
	assessment := &risk.Assessment{Level: risk.LevelCritical}
	assert.False(t, c.Matches(identity.New(), nil, assessment))
	assert.False(t, called, "predicate must not run once an earlier clause has failed")
}

func TestEvaluateDefaultDenyWithNoMatches(t *testing.T) {
	policies := []*Policy{
		{ID: "p1", Name: "n", Enabled: true, Priority: 10, Condition: Condition{AgentTypes: []string{"nope"}}},
	}
	ctx := identity.New(identity.WithActor(identity.Actor{AgentType: "worker"}))
	d := Evaluate(policies, ctx, nil, nil)
	assert.True(t, d.DefaultDeny)
	assert.False(t, d.Action.Allow)
	assert.Contains(t, d.Action.Restrictions, "hard-block")
}

func TestEvaluatePicksHighestPriority(t *testing.T) {
	ctx := identity.New(identity.WithActor(identity.Actor{AgentType: "worker"}))
	policies := []*Policy{
		{ID: "low", Name: "n", Enabled: true, Priority: 10, Condition: Condition{AgentTypes: []string{"worker"}}, Action: Action{Allow: true}},
		{ID: "high", Name: "n", Enabled: true, Priority: 90, Condition: Condition{AgentTypes: []string{"worker"}}, Action: Action{Allow: false}},
	}
	d := Evaluate(policies, ctx, nil, nil)
	require.NotNil(t, d.Matched)
	assert.Equal(t, "high", d.Matched.ID)
}

func TestEvaluateTiesBrokenLexicographically(t *testing.T) {
	ctx := identity.New(identity.WithActor(identity.Actor{AgentType: "worker"}))
	policies := []*Policy{
		{ID: "zzz", Name: "n", Enabled: true, Priority: 50, Condition: Condition{AgentTypes: []string{"worker"}}},
		{ID: "aaa", Name: "n", Enabled: true, Priority: 50, Condition: Condition{AgentTypes: []string{"worker"}}},
	}
	d := Evaluate(policies, ctx, nil, nil)
	require.NotNil(t, d.Matched)
	assert.Equal(t, "aaa", d.Matched.ID)
}

func TestEvaluateSkipsDisabledPolicies(t *testing.T) {
	ctx := identity.New(identity.WithActor(identity.Actor{AgentType: "worker"}))
	policies := []*Policy{
		{ID: "p1", Name: "n", Enabled: false, Priority: 100, Condition: Condition{AgentTypes: []string{"worker"}}, Action: Action{Allow: true}},
	}
	d := Evaluate(policies, ctx, nil, nil)
	assert.True(t, d.DefaultDeny)
}

func TestStoreAddReplacesByID(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Add(&Policy{ID: "p1", Name: "one", Priority: 1}))
	require.NoError(t, store.Add(&Policy{ID: "p1", Name: "two", Priority: 2}))
	require.Len(t, store.List(), 1)
	assert.Equal(t, "two", store.List()[0].Name)
}

func TestStoreRemove(t *testing.T) {
	store := NewStore()
	require.NoError(t, store.Add(&Policy{ID: "p1", Name: "one", Priority: 1}))
	assert.True(t, store.Remove("p1"))
	assert.False(t, store.Remove("p1"))
	assert.Empty(t, store.List())
}
