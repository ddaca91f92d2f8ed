package history

import (
	"context"
	"time"
)

// EventType labels a lifecycle transition in the journal.
type EventType string

const (
	EventStarted       EventType = "started"
	EventStopped       EventType = "stopped"
	EventSignaled      EventType = "signaled"
	EventCrashDetected EventType = "crash_detected"
	EventStillRunning  EventType = "still_running"
	EventStaleRecord   EventType = "stale_record"
)

// Event is one journal row. Detail carries free-form context such as
// the signal name or the poll attempt count.
type Event struct {
	Daemon     string
	Type       EventType
	PID        int
	Detail     string
	OccurredAt time.Time
}

// Journal is an append-only record of lifecycle transitions. All writes
// are best-effort from the controller's point of view: a failed journal
// write never blocks a lifecycle operation.
type Journal interface {
	EnsureSchema(ctx context.Context) error
	Append(ctx context.Context, ev Event) error
	Recent(ctx context.Context, daemon string, limit int) ([]Event, error)
	Close() error
}
