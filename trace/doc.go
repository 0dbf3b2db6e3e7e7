// Package trace records the transitions of firing runs as an audit trail.
//
// Hooks produced by Hooks() plug into an engine and emit one Event per
// observed transition, stamped with a monotonic logical sequence from a
// Clock and correlated by a per-run token. Events go to a Recorder: the
// in-memory recorder serves tests and short-lived CLI invocations, the
// SQLite recorder persists runs for later inspection.
//
// Ordering is by logical sequence, never wall-clock: two events from the
// same run compare by Seq, which the single firing goroutine assigns in
// emission order.
package trace
