package trace

import (
	"log/slog"
	"sync"
	"time"

	"github.com/flint-rules/flint/engine"
	"github.com/flint-rules/flint/facts"
	"github.com/flint-rules/flint/rule"
)

// Hooks builds the engine hooks that feed a Recorder.
//
// The returned hooks generate one run token per pass (at BeforeRun) and
// stamp every event from the clock. Register both on the engine:
//
//	rh, runh := trace.Hooks(rec, trace.NewClock(), engine.UUIDv7Generator{})
//	eng := engine.NewSequential(engine.WithRuleHooks(rh), engine.WithRunHooks(runh))
//
// Recorder errors are logged and dropped; a broken audit trail must not
// alter the engine's data flow.
func Hooks(rec Recorder, clock *Clock, gen engine.TokenGenerator) (engine.RuleHooks, engine.RunHooks) {
	w := &writer{rec: rec, clock: clock, gen: gen}

	ruleHooks := engine.RuleHooks{
		AfterEvaluate: func(r rule.Rule, _ facts.Store, triggered bool) {
			w.emit(Event{Kind: KindEvaluated, Rule: r.Name, Triggered: triggered})
		},
		OnEvaluateError: func(r rule.Rule, _ facts.Store, err error) {
			w.emit(Event{Kind: KindEvaluateError, Rule: r.Name, Err: err.Error()})
		},
		OnSuccess: func(r rule.Rule, _ facts.Store) {
			w.emit(Event{Kind: KindApplied, Rule: r.Name})
		},
		OnFailure: func(r rule.Rule, _ facts.Store, err error) {
			w.emit(Event{Kind: KindFailed, Rule: r.Name, Err: err.Error()})
		},
	}

	runHooks := engine.RunHooks{
		BeforeRun: func([]rule.Rule, facts.Store) {
			w.begin()
			w.emit(Event{Kind: KindRunStart})
		},
		AfterRun: func([]rule.Rule, facts.Store) {
			w.emit(Event{Kind: KindRunEnd})
		},
	}

	return ruleHooks, runHooks
}

// writer stamps and records events for the current run.
type writer struct {
	rec   Recorder
	clock *Clock
	gen   engine.TokenGenerator

	mu    sync.Mutex
	token string
}

// begin opens a new run: subsequent events carry a fresh token.
func (w *writer) begin() {
	token := w.gen.Generate()
	w.mu.Lock()
	w.token = token
	w.mu.Unlock()
}

func (w *writer) emit(ev Event) {
	w.mu.Lock()
	ev.RunToken = w.token
	w.mu.Unlock()

	ev.Seq = w.clock.Next()
	ev.At = time.Now().UTC()
	if err := w.rec.Record(ev); err != nil {
		slog.Error("trace record failed",
			"kind", ev.Kind,
			"rule", ev.Rule,
			"run", ev.RunToken,
			"error", err,
		)
	}
}
