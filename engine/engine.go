package engine

import (
	"context"
	"log/slog"
	"math"

	"github.com/flint-rules/flint/facts"
	"github.com/flint-rules/flint/rule"
)

// Parameters holds the execution policy of a firing pass.
type Parameters struct {
	// StopOnFirstApplied stops the pass after the first rule whose
	// actions all succeed.
	StopOnFirstApplied bool

	// StopOnFirstNonTriggered stops the pass after the first rule whose
	// condition returns false or fails.
	StopOnFirstNonTriggered bool

	// StopOnFirstFailed stops the pass after the first rule whose action
	// sequence fails.
	StopOnFirstFailed bool

	// PriorityThreshold is the priority cutoff. The pass stops entirely
	// at the first rule with priority strictly greater than the
	// threshold — sound because the snapshot is sorted ascending by
	// priority, so every later rule also exceeds it.
	PriorityThreshold int
}

// DefaultParameters evaluates every rule and never stops early.
func DefaultParameters() Parameters {
	return Parameters{PriorityThreshold: math.MaxInt}
}

// config is the shared configuration of both engines.
type config struct {
	params    Parameters
	ruleHooks []RuleHooks
	runHooks  []RunHooks
	tokens    TokenGenerator
	logger    *slog.Logger
	maxPasses int
}

// Option configures an engine at construction time.
type Option func(*config)

// WithParameters replaces the whole parameter block.
func WithParameters(p Parameters) Option {
	return func(c *config) { c.params = p }
}

// WithStopOnFirstApplied stops a pass after the first applied rule.
func WithStopOnFirstApplied() Option {
	return func(c *config) { c.params.StopOnFirstApplied = true }
}

// WithStopOnFirstNonTriggered stops a pass after the first rule that does
// not trigger (condition false or condition error).
func WithStopOnFirstNonTriggered() Option {
	return func(c *config) { c.params.StopOnFirstNonTriggered = true }
}

// WithStopOnFirstFailed stops a pass after the first failed action
// sequence.
func WithStopOnFirstFailed() Option {
	return func(c *config) { c.params.StopOnFirstFailed = true }
}

// WithPriorityThreshold sets the priority cutoff; rules with priority
// strictly greater than n are never evaluated.
func WithPriorityThreshold(n int) Option {
	return func(c *config) { c.params.PriorityThreshold = n }
}

// WithRuleHooks appends rule-level hooks, invoked in registration order.
func WithRuleHooks(h RuleHooks) Option {
	return func(c *config) { c.ruleHooks = append(c.ruleHooks, h) }
}

// WithRunHooks appends run-level hooks, invoked in registration order.
func WithRunHooks(h RunHooks) Option {
	return func(c *config) { c.runHooks = append(c.runHooks, h) }
}

// WithTokens replaces the run token generator. Tests use
// NewFixedGenerator for deterministic tokens.
func WithTokens(gen TokenGenerator) Option {
	return func(c *config) { c.tokens = gen }
}

// WithLogger replaces the engine's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMaxPasses bounds a forward-chaining run to n delegated passes;
// 0 means unbounded. Ignored by Sequential.
func WithMaxPasses(n int) Option {
	return func(c *config) { c.maxPasses = n }
}

func newConfig(opts ...Option) config {
	c := config{
		params: DefaultParameters(),
		tokens: UUIDv7Generator{},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Sequential fires a rule set in a single ordered pass.
type Sequential struct {
	cfg config
}

// NewSequential builds a sequential engine.
func NewSequential(opts ...Option) *Sequential {
	return &Sequential{cfg: newConfig(opts...)}
}

// Fire runs one pass over the set against f and returns the final store.
//
// The returned error is non-nil only for a nil rule set; rule-level
// condition and action failures are reported through hooks and never
// escape.
func (e *Sequential) Fire(set *rule.Set, f facts.Store) (facts.Store, error) {
	return e.FireContext(context.Background(), set, f)
}

// FireContext is Fire with cooperative cancellation. A cancelled run
// aborts immediately, returning the store committed at that moment along
// with the context's error; there is no rollback.
func (e *Sequential) FireContext(ctx context.Context, set *rule.Set, f facts.Store) (facts.Store, error) {
	if set == nil {
		return f, ErrNilRuleSet
	}
	return e.fireRules(ctx, set.Rules(), f)
}

// fireRules runs one full pass over an already-snapshotted rule slice.
// Shared with the forward-chaining engine, which delegates one pass per
// candidate-set iteration.
func (e *Sequential) fireRules(ctx context.Context, rules []rule.Rule, f facts.Store) (facts.Store, error) {
	token := e.cfg.tokens.Generate()
	log := e.cfg.logger.With("run", token)
	log.Debug("pass starting", "rules", len(rules), "facts", f.Len())

	e.cfg.notifyBeforeRun(rules, f)

	current, err := e.pass(ctx, log, rules, f)
	if err != nil {
		// Cancellation: abort immediately, AfterRun does not fire.
		log.Debug("pass cancelled", "error", err)
		return current, err
	}

	e.cfg.notifyAfterRun(rules, current)
	log.Debug("pass finished", "facts", current.Len())
	return current, nil
}

// pass is the firing state machine: an explicit fold with the facts.Store
// as accumulator and evaluate-then-maybe-apply-rule as the step.
func (e *Sequential) pass(ctx context.Context, log *slog.Logger, rules []rule.Rule, f facts.Store) (facts.Store, error) {
	params := e.cfg.params
	current := f

	for _, r := range rules {
		if err := ctx.Err(); err != nil {
			return current, err
		}

		if r.Priority > params.PriorityThreshold {
			// Snapshot is sorted ascending by priority, so every
			// later rule exceeds the threshold too.
			log.Debug("priority threshold reached, stopping pass",
				"rule", r.Name,
				"priority", r.Priority,
				"threshold", params.PriorityThreshold,
			)
			break
		}

		if !e.cfg.gate(r, current) {
			log.Debug("rule vetoed by gate", "rule", r.Name)
			continue
		}

		triggered, err := e.evaluate(ctx, r, current)
		if err != nil {
			if ctx.Err() != nil {
				return current, ctx.Err()
			}
			runErr := &RunError{Code: ErrCodeCondition, Rule: r.Name, Err: err}
			log.Warn("condition evaluation failed", "rule", r.Name, "error", err)
			e.cfg.notifyEvaluateError(r, current, runErr)
			if params.StopOnFirstNonTriggered {
				break
			}
			continue
		}

		e.cfg.notifyAfterEvaluate(r, current, triggered)
		if !triggered {
			log.Debug("rule not triggered", "rule", r.Name)
			if params.StopOnFirstNonTriggered {
				break
			}
			continue
		}

		log.Debug("rule triggered", "rule", r.Name, "priority", r.Priority)
		e.cfg.notifyBeforeExecute(r, current)

		next, failedAt, err := e.execute(ctx, r, current)
		if err != nil {
			if ctx.Err() != nil {
				return current, ctx.Err()
			}
			runErr := &RunError{Code: ErrCodeAction, Rule: r.Name, Err: err}
			log.Error("action execution failed", "rule", r.Name, "action", failedAt, "error", err)
			// Effects of earlier actions in the chain are kept; the
			// failing action's partial effects are not.
			current = next
			e.cfg.notifyFailure(r, current, runErr)
			if params.StopOnFirstFailed {
				break
			}
			continue
		}

		current = next
		log.Info("rule applied", "rule", r.Name, "facts", current.Len())
		e.cfg.notifySuccess(r, current)
		if params.StopOnFirstApplied {
			break
		}
	}

	return current, nil
}

// evaluate runs a rule's condition with a cancellation check immediately
// before the call. A nil condition never triggers.
func (e *Sequential) evaluate(ctx context.Context, r rule.Rule, f facts.Store) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if r.When == nil {
		return false, nil
	}
	return r.When(ctx, f)
}

// execute folds a rule's actions left to right, each consuming the store
// produced by the previous one. On failure it returns the store that was
// fed to the failing action and that action's index.
func (e *Sequential) execute(ctx context.Context, r rule.Rule, f facts.Store) (facts.Store, int, error) {
	current := f
	for i, act := range r.Then {
		if act == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return current, i, err
		}
		next, err := act(ctx, current)
		if err != nil {
			return current, i, err
		}
		current = next
	}
	return current, -1, nil
}

// Check evaluates every rule's condition against the original, unmodified
// store and returns the outcomes keyed by rule name. Conditions that fail
// collapse to false. Check never executes actions and never threads facts.
//
// Gate-vetoed rules are absent from the result. Run-level hooks do not
// fire; a check is not a pass.
func (e *Sequential) Check(set *rule.Set, f facts.Store) (map[string]bool, error) {
	return e.CheckContext(context.Background(), set, f)
}

// CheckContext is Check with cooperative cancellation.
func (e *Sequential) CheckContext(ctx context.Context, set *rule.Set, f facts.Store) (map[string]bool, error) {
	if set == nil {
		return nil, ErrNilRuleSet
	}

	results := make(map[string]bool)
	for _, r := range set.Rules() {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		if r.Priority > e.cfg.params.PriorityThreshold {
			break
		}
		if !e.cfg.gate(r, f) {
			continue
		}
		triggered, err := e.evaluate(ctx, r, f)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			e.cfg.notifyEvaluateError(r, f, &RunError{Code: ErrCodeCondition, Rule: r.Name, Err: err})
			results[r.Name] = false
			continue
		}
		e.cfg.notifyAfterEvaluate(r, f, triggered)
		results[r.Name] = triggered
	}
	return results, nil
}
