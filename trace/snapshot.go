package trace

import (
	"encoding/json"
	"fmt"
)

// snapshotEvent is the deterministic rendering of an Event: no wall-clock
// timestamp, booleans only where meaningful.
type snapshotEvent struct {
	Seq       int64  `json:"seq"`
	Kind      string `json:"kind"`
	Rule      string `json:"rule,omitempty"`
	Triggered *bool  `json:"triggered,omitempty"`
	Err       string `json:"err,omitempty"`
}

// snapshotDoc is the golden-file document for one recorded run.
type snapshotDoc struct {
	RunToken string          `json:"run_token"`
	Trace    []snapshotEvent `json:"trace"`
}

// Snapshot renders a recorded run as deterministic, indented JSON suitable
// for golden-file comparison. All events must carry the same run token.
//
// Wall-clock timestamps are excluded; with a fixed token generator and a
// fresh clock, the output is byte-stable across runs.
func Snapshot(events []Event) ([]byte, error) {
	doc := snapshotDoc{Trace: make([]snapshotEvent, 0, len(events))}

	for i, ev := range events {
		if i == 0 {
			doc.RunToken = ev.RunToken
		} else if ev.RunToken != doc.RunToken {
			return nil, fmt.Errorf("snapshot spans runs: %q and %q", doc.RunToken, ev.RunToken)
		}

		se := snapshotEvent{
			Seq:  ev.Seq,
			Kind: string(ev.Kind),
			Rule: ev.Rule,
			Err:  ev.Err,
		}
		if ev.Kind == KindEvaluated {
			triggered := ev.Triggered
			se.Triggered = &triggered
		}
		doc.Trace = append(doc.Trace, se)
	}

	return json.MarshalIndent(doc, "", "  ")
}
