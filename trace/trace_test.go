package trace

import (
	"context"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flint-rules/flint/engine"
	"github.com/flint-rules/flint/facts"
	"github.com/flint-rules/flint/rule"
)

// fireTraced runs a sequential pass with trace hooks attached and returns
// the recorded events.
func fireTraced(t *testing.T, set *rule.Set, f facts.Store, token string) []Event {
	t.Helper()

	rec := NewMemoryRecorder()
	rh, runh := Hooks(rec, NewClock(), engine.NewFixedGenerator(token))

	eng := engine.NewSequential(engine.WithRuleHooks(rh), engine.WithRunHooks(runh))
	_, err := eng.Fire(set, f)
	require.NoError(t, err)

	events, err := rec.Events(token)
	require.NoError(t, err)
	return events
}

func TestHooks_RecordEveryTransition(t *testing.T) {
	set := rule.NewSet(
		rule.Rule{
			Name: "alpha", Priority: 1,
			When: rule.True,
			Then: []rule.Action{rule.SetFact("greeted", true)},
		},
		rule.Rule{
			Name: "beta", Priority: 2,
			When: func(context.Context, facts.Store) (bool, error) { return false, nil },
		},
	)

	events := fireTraced(t, set, facts.New(), "run-1")
	require.Len(t, events, 5)

	kinds := make([]Kind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
		assert.Equal(t, "run-1", ev.RunToken)
		assert.Equal(t, int64(i+1), ev.Seq, "seq is dense and emission-ordered")
	}
	assert.Equal(t, []Kind{KindRunStart, KindEvaluated, KindApplied, KindEvaluated, KindRunEnd}, kinds)

	assert.Equal(t, "alpha", events[1].Rule)
	assert.True(t, events[1].Triggered)
	assert.Equal(t, "beta", events[3].Rule)
	assert.False(t, events[3].Triggered)
}

func TestHooks_RecordFailures(t *testing.T) {
	set := rule.NewSet(
		rule.Rule{
			Name: "brokenCondition", Priority: 1,
			When: func(context.Context, facts.Store) (bool, error) {
				return false, errors.New("probe exploded")
			},
		},
		rule.Rule{
			Name: "brokenAction", Priority: 2,
			When: rule.True,
			Then: []rule.Action{
				func(_ context.Context, f facts.Store) (facts.Store, error) {
					return f, errors.New("action exploded")
				},
			},
		},
	)

	events := fireTraced(t, set, facts.New(), "run-err")
	require.Len(t, events, 5)

	assert.Equal(t, KindEvaluateError, events[1].Kind)
	assert.Equal(t, "brokenCondition", events[1].Rule)
	assert.Contains(t, events[1].Err, "probe exploded")

	assert.Equal(t, KindEvaluated, events[2].Kind)
	assert.Equal(t, KindFailed, events[3].Kind)
	assert.Equal(t, "brokenAction", events[3].Rule)
	assert.Contains(t, events[3].Err, "action exploded")
}

func TestHooks_FreshTokenPerPass(t *testing.T) {
	rec := NewMemoryRecorder()
	rh, runh := Hooks(rec, NewClock(), engine.NewFixedGenerator("pass-1", "pass-2"))
	eng := engine.NewSequential(engine.WithRuleHooks(rh), engine.WithRunHooks(runh))

	set := rule.NewSet(rule.Rule{Name: "r", Priority: 1, When: rule.True})

	_, err := eng.Fire(set, facts.New())
	require.NoError(t, err)
	_, err = eng.Fire(set, facts.New())
	require.NoError(t, err)

	// run_start, evaluated, applied (a triggered rule with no actions
	// still applies), run_end.
	first, err := rec.Events("pass-1")
	require.NoError(t, err)
	second, err := rec.Events("pass-2")
	require.NoError(t, err)
	assert.Len(t, first, 4)
	assert.Len(t, second, 4)

	all, err := rec.Events("")
	require.NoError(t, err)
	assert.Len(t, all, 8)
}

func TestSnapshot_Golden(t *testing.T) {
	set := rule.NewSet(
		rule.Rule{
			Name: "alpha", Priority: 1,
			When: rule.True,
			Then: []rule.Action{rule.SetFact("greeted", true)},
		},
		rule.Rule{
			Name: "beta", Priority: 2,
			When: func(context.Context, facts.Store) (bool, error) { return false, nil },
		},
	)

	events := fireTraced(t, set, facts.New(), "run-1")

	snapshot, err := Snapshot(events)
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "simple_run", snapshot)
}

func TestSnapshot_RejectsMixedRuns(t *testing.T) {
	_, err := Snapshot([]Event{
		{Seq: 1, RunToken: "a", Kind: KindRunStart},
		{Seq: 2, RunToken: "b", Kind: KindRunEnd},
	})
	assert.Error(t, err)
}

func TestMemoryRecorder_FiltersByToken(t *testing.T) {
	rec := NewMemoryRecorder()
	require.NoError(t, rec.Record(Event{Seq: 1, RunToken: "x", Kind: KindRunStart}))
	require.NoError(t, rec.Record(Event{Seq: 2, RunToken: "y", Kind: KindRunStart}))

	got, err := rec.Events("x")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "x", got[0].RunToken)
	require.NoError(t, rec.Close())
}
