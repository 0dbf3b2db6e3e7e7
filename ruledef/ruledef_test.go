package ruledef

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flint-rules/flint/engine"
	"github.com/flint-rules/flint/facts"
	"github.com/flint-rules/flint/rule"
)

const orderDoc = `
rules:
  - name: HighValueOrder
    description: applies the bulk discount
    priority: 10
    when: 'facts.orderTotal >= 1000'
    then:
      - set: discountApplied
        value: 'true'
  - name: ClearReview
    priority: 20
    when: 'facts.orderTotal < 100'
    then:
      - unset: pendingReview
`

func TestParse_ValidDocument(t *testing.T) {
	rules, err := Parse([]byte(orderDoc))
	require.NoError(t, err)
	require.Len(t, rules, 2)

	assert.Equal(t, "HighValueOrder", rules[0].Name)
	assert.Equal(t, "applies the bulk discount", rules[0].Description)
	assert.Equal(t, 10, rules[0].Priority)
	require.NotNil(t, rules[0].When)
	require.Len(t, rules[0].Then, 1)

	assert.Equal(t, "ClearReview", rules[1].Name)
	require.Len(t, rules[1].Then, 1)
}

func TestParse_ConditionEvaluatesAgainstFacts(t *testing.T) {
	rules, err := Parse([]byte(orderDoc))
	require.NoError(t, err)
	high := rules[0]

	rich, err := facts.New().With("orderTotal", 1500)
	require.NoError(t, err)
	poor, err := facts.New().With("orderTotal", 50)
	require.NoError(t, err)

	triggered, err := high.When(context.Background(), rich)
	require.NoError(t, err)
	assert.True(t, triggered)

	triggered, err = high.When(context.Background(), poor)
	require.NoError(t, err)
	assert.False(t, triggered)
}

func TestParse_MissingFactIsAConditionError(t *testing.T) {
	rules, err := Parse([]byte(orderDoc))
	require.NoError(t, err)

	_, err = rules[0].When(context.Background(), facts.New())
	assert.Error(t, err, "a reference to an absent fact fails the evaluation, not the load")
}

func TestParse_RejectsBadDocuments(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"no rules", `rules: []`},
		{"empty name", `
rules:
  - name: ""
    when: 'true'
`},
		{"missing condition", `
rules:
  - name: r
`},
		{"malformed condition", `
rules:
  - name: r
    when: 'facts.x >='
`},
		{"case-folded duplicate", `
rules:
  - name: discount
    when: 'true'
  - name: DISCOUNT
    when: 'true'
`},
		{"action with both set and unset", `
rules:
  - name: r
    when: 'true'
    then:
      - set: a
        value: '1'
        unset: b
`},
		{"set without value", `
rules:
  - name: r
    when: 'true'
    then:
      - set: a
`},
		{"unset with value", `
rules:
  - name: r
    when: 'true'
    then:
      - unset: a
        value: '1'
`},
		{"empty action", `
rules:
  - name: r
    when: 'true'
    then:
      - {}
`},
		{"malformed value", `
rules:
  - name: r
    when: 'true'
    then:
      - set: a
        value: '1 +'
`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadedRules_FireEndToEnd(t *testing.T) {
	rules, err := Parse([]byte(orderDoc))
	require.NoError(t, err)

	initial, err := facts.New().With("orderTotal", 1500)
	require.NoError(t, err)
	initial, err = initial.With("orderId", "ORD-1")
	require.NoError(t, err)

	final, err := engine.NewSequential().Fire(rule.NewSet(rules...), initial)
	require.NoError(t, err)

	require.Equal(t, 3, final.Len())
	applied, ok := facts.Get[bool](final, "discountApplied")
	require.True(t, ok)
	assert.True(t, applied)
	id, _ := facts.Get[string](final, "orderId")
	assert.Equal(t, "ORD-1", id)
	assert.True(t, final.Has("orderTotal"))
}

func TestUnsetAction(t *testing.T) {
	rules, err := Parse([]byte(`
rules:
  - name: cleanup
    when: 'facts.done'
    then:
      - unset: scratch
`))
	require.NoError(t, err)

	initial, err := facts.New().With("done", true)
	require.NoError(t, err)
	initial, err = initial.With("scratch", "tmp")
	require.NoError(t, err)

	final, err := engine.NewSequential().Fire(rule.NewSet(rules...), initial)
	require.NoError(t, err)

	assert.False(t, final.Has("scratch"))
	assert.True(t, final.Has("done"))
}

func TestLoad_ReadsFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte(orderDoc), 0o644))

	rules, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, rules, 2)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestParseFacts(t *testing.T) {
	store, err := ParseFacts([]byte("orderTotal: 1500\norderId: ORD-1\n"))
	require.NoError(t, err)

	assert.Equal(t, 2, store.Len())
	total, ok := facts.Get[int](store, "orderTotal")
	require.True(t, ok)
	assert.Equal(t, 1500, total)
}

func TestParseFacts_RejectsNullValues(t *testing.T) {
	_, err := ParseFacts([]byte("ghost: null\n"))
	require.Error(t, err)
	assert.ErrorIs(t, err, facts.ErrInvalidArgument)
}
