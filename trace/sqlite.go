package trace

import (
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteRecorder persists trace events to a SQLite database.
// Uses WAL mode so recorded runs stay readable while a run is writing.
type SQLiteRecorder struct {
	db *sql.DB
}

// OpenSQLite creates or opens a trace database at the given path and
// applies pragmas and schema. Idempotent; safe to call on an existing
// trace file.
func OpenSQLite(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to trace database: %w", err)
	}

	// SQLite allows one writer at a time; a single connection avoids
	// SQLITE_BUSY from the engine's synchronous hook calls.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteRecorder{db: db}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Record inserts one event. Re-recording the same (run_token, seq) is
// rejected by the primary key; that indicates a miswired clock.
func (s *SQLiteRecorder) Record(ev Event) error {
	_, err := s.db.Exec(
		`INSERT INTO trace_events (seq, run_token, kind, rule, triggered, err, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.Seq, ev.RunToken, string(ev.Kind), ev.Rule, boolToInt(ev.Triggered), ev.Err,
		ev.At.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert trace event seq %d: %w", ev.Seq, err)
	}
	return nil
}

// Events returns events for a run token ordered by seq; an empty token
// selects every run.
func (s *SQLiteRecorder) Events(runToken string) ([]Event, error) {
	query := `SELECT seq, run_token, kind, rule, triggered, err, at
	          FROM trace_events ORDER BY seq`
	args := []any{}
	if runToken != "" {
		query = `SELECT seq, run_token, kind, rule, triggered, err, at
		         FROM trace_events WHERE run_token = ? ORDER BY seq`
		args = append(args, runToken)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query trace events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var kind string
		var triggered int
		var at string
		if err := rows.Scan(&ev.Seq, &ev.RunToken, &kind, &ev.Rule, &triggered, &ev.Err, &at); err != nil {
			return nil, fmt.Errorf("scan trace event: %w", err)
		}
		ev.Kind = Kind(kind)
		ev.Triggered = triggered != 0
		ts, err := time.Parse(time.RFC3339Nano, at)
		if err != nil {
			return nil, fmt.Errorf("parse trace timestamp %q: %w", at, err)
		}
		ev.At = ts
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trace events: %w", err)
	}
	return events, nil
}

// Close closes the database.
func (s *SQLiteRecorder) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
