package journal

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-switch/internal/infrastructure/database"
)

// Event kinds recorded by the journal.
const (
	// KindCommand is a decoded inbound command (assert/deassert).
	KindCommand = "command"

	// KindOutput is a successful GPIO write.
	KindOutput = "output"

	// KindAction is a supervisor run-state transition.
	KindAction = "action"
)

// schema is the journal's single table. Created on Open if absent.
const schema = `
CREATE TABLE IF NOT EXISTS events (
    id      INTEGER PRIMARY KEY AUTOINCREMENT,
    ts      TEXT    NOT NULL,
    kind    TEXT    NOT NULL,
    subject TEXT    NOT NULL,
    detail  TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_ts ON events(ts);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
`

// writeTimeout bounds each insert so a wedged disk cannot stall the
// message path for long.
const writeTimeout = 2 * time.Second

// Event is one journal row.
type Event struct {
	ID      int64
	TS      time.Time
	Kind    string
	Subject string
	Detail  string
}

// Journal records routed commands, output writes, and action transitions
// to SQLite. It is an optional component; when disabled, nothing in the
// daemon constructs one.
type Journal struct {
	db *database.DB
}

// Open attaches the journal to an open database and ensures its schema.
func Open(ctx context.Context, db *database.DB) (*Journal, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Record inserts one event. Insert failures are returned for the caller
// to log; journaling never blocks routing beyond the write timeout.
func (j *Journal) Record(kind, subject, detail string) error {
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	_, err := j.db.ExecContext(ctx,
		"INSERT INTO events (ts, kind, subject, detail) VALUES (?, ?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339Nano), kind, subject, detail,
	)
	if err != nil {
		return fmt.Errorf("recording %s event: %w", kind, err)
	}
	return nil
}

// Recent returns up to limit events, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Event, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT id, ts, kind, subject, detail FROM events ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var ts string
		if err := rows.Scan(&e.ID, &ts, &e.Kind, &e.Subject, &e.Detail); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		if parsed, perr := time.Parse(time.RFC3339Nano, ts); perr == nil {
			e.TS = parsed
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}
	return events, nil
}
