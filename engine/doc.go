// Package engine implements the flint firing engines.
//
// Two engines share one state machine:
//
//   - Sequential makes a single pass over a rule set, threading an
//     immutable facts.Store through every triggered rule.
//   - ForwardChaining repeatedly computes the candidate subset of rules
//     whose conditions hold and delegates a Sequential pass over exactly
//     that subset, until the candidate set is empty.
//
// ARCHITECTURE:
//
// Strictly Sequential Pass:
// Rule N+1 cannot begin until rule N's condition and action sequence has
// fully resolved, because each step consumes the store produced by the
// previous one. This is a data dependency, not a tunable: rules within one
// pass are never parallelized. The pass is an explicit fold: the
// accumulator is the facts.Store, the step is evaluate-then-maybe-apply.
//
// Deterministic Ordering:
// A pass iterates the snapshot taken from the rule set at run start, sorted
// by priority ascending then name ascending. Registration during a run
// never affects that run. No randomness, no concurrency, no
// non-determinism inside a pass.
//
// Cancellation:
// Cooperative only. The context is checked at the top of each rule
// iteration and immediately before each condition and action invocation,
// never mid-hook and never preemptively. A cancelled run returns whatever
// store was committed at that moment; there is no rollback.
//
// Hooks:
// Rule-level and run-level hooks observe every transition. They run
// synchronously on the firing goroutine in registration order; a slow hook
// blocks the run, and a panicking hook is not recovered. The only hook
// that alters control flow is the BeforeEvaluate gate, which can veto a
// single rule for a single iteration.
package engine
