// Package rule defines rules and the ordered, name-deduplicated rule set
// consumed by the firing engines.
package rule

import (
	"context"

	"github.com/flint-rules/flint/facts"
)

// Condition decides whether a rule triggers against a fact store.
//
// Conditions must not mutate anything observable; the store is immutable
// and the same condition may be evaluated any number of times against the
// same store. The context is the cooperative cancellation signal of the
// enclosing run; conditions doing I/O should honor it.
type Condition func(ctx context.Context, f facts.Store) (bool, error)

// Action transforms a fact store into its successor.
//
// Actions never mutate their input; they return the next store. The context
// carries the enclosing run's cancellation signal.
type Action func(ctx context.Context, f facts.Store) (facts.Store, error)

// Rule is a named unit of inference: a condition plus an ordered list of
// actions, evaluated at a static priority.
//
// Rules are plain values built once and treated as read-only afterwards.
// How they are produced (builders, config files, hand-written literals) is
// the business of the caller; the engines only consume this shape.
//
// Lower Priority values are evaluated earlier. A nil When never triggers.
// Nil entries in Then are skipped.
type Rule struct {
	Name        string
	Description string
	Priority    int
	When        Condition
	Then        []Action
}

// True is a condition that always triggers.
func True(context.Context, facts.Store) (bool, error) {
	return true, nil
}

// SetFact returns an action binding name to value in the store it receives.
func SetFact(name string, value any) Action {
	return func(_ context.Context, f facts.Store) (facts.Store, error) {
		return f.With(name, value)
	}
}

// UnsetFact returns an action removing name from the store it receives.
func UnsetFact(name string) Action {
	return func(_ context.Context, f facts.Store) (facts.Store, error) {
		return f.Without(name), nil
	}
}
