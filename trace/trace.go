package trace

import (
	"sync"
	"time"
)

// Kind labels the engine transition an Event captures.
type Kind string

const (
	// KindRunStart marks the beginning of a sequential pass.
	KindRunStart Kind = "run_start"
	// KindRunEnd marks the end of a sequential pass.
	KindRunEnd Kind = "run_end"
	// KindEvaluated records a completed condition evaluation.
	KindEvaluated Kind = "evaluated"
	// KindEvaluateError records a failed condition evaluation.
	KindEvaluateError Kind = "evaluate_error"
	// KindApplied records a rule whose actions all succeeded.
	KindApplied Kind = "applied"
	// KindFailed records a rule whose action sequence failed.
	KindFailed Kind = "failed"
)

// Event is one recorded engine transition.
type Event struct {
	// Seq is the logical position of the event within its recorder.
	Seq int64
	// RunToken correlates every event of one sequential pass.
	RunToken string
	// Kind is the transition type.
	Kind Kind
	// Rule is the rule name for per-rule kinds, empty for run markers.
	Rule string
	// Triggered is meaningful only for KindEvaluated.
	Triggered bool
	// Err is the failure text for error kinds, empty otherwise.
	Err string
	// At is the wall-clock emission time. Informational only; ordering
	// is always by Seq.
	At time.Time
}

// Recorder receives trace events.
//
// Record is called synchronously from the firing goroutine; a slow
// recorder slows the run.
type Recorder interface {
	Record(ev Event) error
	// Events returns recorded events for a run token in Seq order; an
	// empty token selects every run.
	Events(runToken string) ([]Event, error)
	Close() error
}

// MemoryRecorder keeps events in memory. Suited to tests and one-shot CLI
// invocations.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
}

// NewMemoryRecorder creates an empty in-memory recorder.
func NewMemoryRecorder() *MemoryRecorder {
	return &MemoryRecorder{}
}

// Record appends the event.
func (m *MemoryRecorder) Record(ev Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// Events returns a copy of the recorded events for the token, in the
// order they were recorded.
func (m *MemoryRecorder) Events(runToken string) ([]Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Event
	for _, ev := range m.events {
		if runToken == "" || ev.RunToken == runToken {
			out = append(out, ev)
		}
	}
	return out, nil
}

// Close is a no-op.
func (m *MemoryRecorder) Close() error {
	return nil
}
