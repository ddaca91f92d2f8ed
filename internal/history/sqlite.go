package history

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB implements Journal for SQLite (modernc.org/sqlite driver, CGO-free).
// Path is a filesystem path to the database file. Use ":memory:" for
// in-memory.
type DB struct {
	db *sql.DB
}

// Open opens a SQLite journal at path.
func Open(path string) (*DB, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		return nil, errors.New("empty sqlite path")
	}
	d, err := sql.Open("sqlite", p)
	if err != nil {
		return nil, err
	}
	// busy timeout helps with short concurrent locks
	_, _ = d.Exec("PRAGMA busy_timeout=3000;")
	return &DB{db: d}, nil
}

func (s *DB) EnsureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS lifecycle_event(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			daemon TEXT NOT NULL,
			type TEXT NOT NULL,
			pid INTEGER NOT NULL,
			detail TEXT NOT NULL DEFAULT '',
			occurred_at TIMESTAMP NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_lifecycle_event_daemon ON lifecycle_event(daemon);`,
		`CREATE INDEX IF NOT EXISTS idx_lifecycle_event_occurred ON lifecycle_event(occurred_at);`,
	}
	for _, q := range stmts {
		if _, err := s.db.ExecContext(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

func (s *DB) Close() error { return s.db.Close() }

func (s *DB) Append(ctx context.Context, ev Event) error {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lifecycle_event(daemon, type, pid, detail, occurred_at)
		VALUES(?, ?, ?, ?, ?);`,
		ev.Daemon, string(ev.Type), ev.PID, ev.Detail, ev.OccurredAt.UTC())
	return err
}

func (s *DB) Recent(ctx context.Context, daemon string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT daemon, type, pid, detail, occurred_at
		FROM lifecycle_event
		WHERE daemon = ?
		ORDER BY id DESC
		LIMIT ?;`, daemon, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Event
	for rows.Next() {
		var ev Event
		var typ string
		if err := rows.Scan(&ev.Daemon, &typ, &ev.PID, &ev.Detail, &ev.OccurredAt); err != nil {
			return nil, err
		}
		ev.Type = EventType(typ)
		out = append(out, ev)
	}
	return out, rows.Err()
}
