package engine

import (
	"context"
	"errors"

	"github.com/flint-rules/flint/facts"
	"github.com/flint-rules/flint/rule"
)

// ForwardChaining fires a rule set to fixpoint: it computes the candidate
// subset of rules whose conditions currently hold, delegates one
// Sequential pass over exactly that subset, and repeats until the
// candidate set comes up empty.
//
// There is no default bound on the number of iterations: a rule whose
// action re-creates its own trigger loops until the context is cancelled.
// Callers that want a hard bound opt in with WithMaxPasses.
type ForwardChaining struct {
	seq *Sequential
}

// NewForwardChaining builds a forward-chaining engine. It accepts the same
// options as NewSequential; the delegated passes inherit them.
func NewForwardChaining(opts ...Option) *ForwardChaining {
	return &ForwardChaining{seq: NewSequential(opts...)}
}

// Fire runs the candidate loop against f and returns the fixpoint store.
// Rule-level failures never escape; see Sequential.Fire.
func (e *ForwardChaining) Fire(set *rule.Set, f facts.Store) (facts.Store, error) {
	return e.FireContext(context.Background(), set, f)
}

// FireContext is Fire with cooperative cancellation. Cancellation aborts
// with whatever store exists at that moment.
func (e *ForwardChaining) FireContext(ctx context.Context, set *rule.Set, f facts.Store) (facts.Store, error) {
	if set == nil {
		return f, ErrNilRuleSet
	}

	// One snapshot for the whole inference run; registration during the
	// run does not affect it.
	rules := set.Rules()
	cfg := &e.seq.cfg
	log := cfg.logger

	current := f
	passes := 0
	for {
		candidates, err := e.selectCandidates(ctx, rules, current)
		if err != nil {
			return current, err
		}
		if len(candidates) == 0 {
			log.Debug("no candidate rules, inference complete", "passes", passes)
			return current, nil
		}

		if cfg.maxPasses > 0 && passes >= cfg.maxPasses {
			log.Warn("max passes reached with candidates remaining",
				"passes", passes,
				"candidates", len(candidates),
			)
			return current, &RunError{
				Code: ErrCodeMaxPasses,
				Err:  errors.New("candidate rules remain after pass bound"),
			}
		}

		log.Debug("delegating pass over candidates", "candidates", len(candidates), "pass", passes+1)
		current, err = e.seq.fireRules(ctx, candidates, current)
		if err != nil {
			return current, err
		}
		passes++
	}
}

// selectCandidates returns the ordered subsequence of rules whose
// conditions evaluate to true against f. Evaluation errors count as
// not-candidate. Selection fires no hooks; hooks observe the delegated
// pass, not the probe.
func (e *ForwardChaining) selectCandidates(ctx context.Context, rules []rule.Rule, f facts.Store) ([]rule.Rule, error) {
	threshold := e.seq.cfg.params.PriorityThreshold

	var candidates []rule.Rule
	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.Priority > threshold {
			break
		}
		triggered, err := e.seq.evaluate(ctx, r, f)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}
		if triggered {
			candidates = append(candidates, r)
		}
	}
	return candidates, nil
}

// Check delegates to the sequential engine's Check; the candidate loop
// adds nothing to a pure condition inspection.
func (e *ForwardChaining) Check(set *rule.Set, f facts.Store) (map[string]bool, error) {
	return e.seq.Check(set, f)
}

// CheckContext is Check with cooperative cancellation.
func (e *ForwardChaining) CheckContext(ctx context.Context, set *rule.Set, f facts.Store) (map[string]bool, error) {
	return e.seq.CheckContext(ctx, set, f)
}
