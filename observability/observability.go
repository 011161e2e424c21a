// Package observability records business events for operators.
//
// Automated-path failures never surface to end users; the event log plus the
// schedule's status/reason fields are the operator-facing trail.
package observability

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Schema is the event log table, usually applied to the main database.
const Schema = `
CREATE TABLE IF NOT EXISTS business_events (
    id          TEXT PRIMARY KEY,
    event_type  TEXT NOT NULL,
    tenant      TEXT NOT NULL,
    entity_type TEXT NOT NULL DEFAULT '',
    entity_id   TEXT NOT NULL DEFAULT '',
    action      TEXT NOT NULL,
    details     TEXT NOT NULL DEFAULT '',
    success     INTEGER NOT NULL DEFAULT 1,
    created_at  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_tenant ON business_events(tenant, created_at DESC);
`

// ApplySchema creates the event log table.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// Event is a domain-level occurrence worth recording.
type Event struct {
	EventType  string
	Tenant     string
	EntityType string
	EntityID   string
	Action     string
	Details    string // optional JSON
	Success    bool
}

// EventLogger writes business events. All methods are nil-receiver safe so
// callers can treat the logger as optional.
type EventLogger struct {
	db     *sql.DB
	logger *slog.Logger
	now    func() time.Time
}

// NewEventLogger creates a logger backed by db.
func NewEventLogger(db *sql.DB, logger *slog.Logger) *EventLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventLogger{db: db, logger: logger, now: time.Now}
}

// LogEvent records an event. Non-blocking contract: failures are logged via
// slog but never propagated, so a broken event store cannot fail the app.
func (l *EventLogger) LogEvent(ctx context.Context, e Event) {
	if l == nil {
		return
	}
	id := "evt_" + uuid.Must(uuid.NewV7()).String()
	success := 0
	if e.Success {
		success = 1
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO business_events (id, event_type, tenant, entity_type,
		entity_id, action, details, success, created_at)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		id, e.EventType, e.Tenant, e.EntityType, e.EntityID,
		e.Action, e.Details, success, l.now().UnixMilli())
	if err != nil {
		l.logger.Warn("observability: event write failed",
			"event_type", e.EventType, "tenant", e.Tenant, "error", err)
	}
}

// Cleanup deletes events older than retention. Returns rows removed.
func (l *EventLogger) Cleanup(ctx context.Context, retention time.Duration) (int64, error) {
	if l == nil {
		return 0, nil
	}
	cutoff := l.now().Add(-retention).UnixMilli()
	res, err := l.db.ExecContext(ctx,
		`DELETE FROM business_events WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
