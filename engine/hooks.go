package engine

import (
	"github.com/flint-rules/flint/facts"
	"github.com/flint-rules/flint/rule"
)

// RuleHooks observes the per-rule transitions of a firing pass.
//
// Hooks are plain function fields; nil fields are skipped. Multiple
// RuleHooks registered on an engine are invoked in registration order.
// The engine never recovers a panicking hook — the panic propagates out of
// Fire or Check immediately and the run's committed store is lost to the
// caller.
type RuleHooks struct {
	// BeforeEvaluate gates a rule. Returning false skips the rule for
	// this iteration only; no further hooks fire for it. A nil gate
	// allows the rule.
	BeforeEvaluate func(r rule.Rule, f facts.Store) bool

	// AfterEvaluate observes a completed condition evaluation.
	AfterEvaluate func(r rule.Rule, f facts.Store, triggered bool)

	// OnEvaluateError observes a failed condition evaluation. The error
	// is a *RunError with code CONDITION_FAILED.
	OnEvaluateError func(r rule.Rule, f facts.Store, err error)

	// BeforeExecute observes a triggered rule about to run its actions.
	BeforeExecute func(r rule.Rule, f facts.Store)

	// OnSuccess observes a rule whose actions all succeeded. The store is
	// the newly committed one.
	OnSuccess func(r rule.Rule, f facts.Store)

	// OnFailure observes a failed action. The store is the one fed to the
	// failing action; the error is a *RunError with code ACTION_FAILED.
	OnFailure func(r rule.Rule, f facts.Store, err error)
}

// RunHooks observes a whole sequential pass. The forward-chaining engine
// delegates one pass per iteration of its loop, so these fire once per
// iteration, not once per overall inference run.
type RunHooks struct {
	// BeforeRun fires before the first rule of a pass is considered.
	BeforeRun func(rules []rule.Rule, f facts.Store)

	// AfterRun fires after a pass completes or stops early, with the
	// final committed store. It does not fire when the pass is aborted by
	// cancellation.
	AfterRun func(rules []rule.Rule, f facts.Store)
}

// gate runs every BeforeEvaluate hook in registration order. Any hook
// returning false vetoes the rule.
func (c *config) gate(r rule.Rule, f facts.Store) bool {
	for _, h := range c.ruleHooks {
		if h.BeforeEvaluate != nil && !h.BeforeEvaluate(r, f) {
			return false
		}
	}
	return true
}

func (c *config) notifyAfterEvaluate(r rule.Rule, f facts.Store, triggered bool) {
	for _, h := range c.ruleHooks {
		if h.AfterEvaluate != nil {
			h.AfterEvaluate(r, f, triggered)
		}
	}
}

func (c *config) notifyEvaluateError(r rule.Rule, f facts.Store, err error) {
	for _, h := range c.ruleHooks {
		if h.OnEvaluateError != nil {
			h.OnEvaluateError(r, f, err)
		}
	}
}

func (c *config) notifyBeforeExecute(r rule.Rule, f facts.Store) {
	for _, h := range c.ruleHooks {
		if h.BeforeExecute != nil {
			h.BeforeExecute(r, f)
		}
	}
}

func (c *config) notifySuccess(r rule.Rule, f facts.Store) {
	for _, h := range c.ruleHooks {
		if h.OnSuccess != nil {
			h.OnSuccess(r, f)
		}
	}
}

func (c *config) notifyFailure(r rule.Rule, f facts.Store, err error) {
	for _, h := range c.ruleHooks {
		if h.OnFailure != nil {
			h.OnFailure(r, f, err)
		}
	}
}

func (c *config) notifyBeforeRun(rules []rule.Rule, f facts.Store) {
	for _, h := range c.runHooks {
		if h.BeforeRun != nil {
			h.BeforeRun(rules, f)
		}
	}
}

func (c *config) notifyAfterRun(rules []rule.Rule, f facts.Store) {
	for _, h := range c.runHooks {
		if h.AfterRun != nil {
			h.AfterRun(rules, f)
		}
	}
}
