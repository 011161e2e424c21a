package observability

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "modernc.org/sqlite"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := ApplySchema(db); err != nil {
		t.Fatalf("apply schema: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestLogEvent_Writes(t *testing.T) {
	// WHAT: LogEvent inserts a row with the event fields.
	db := openTestDB(t)
	l := NewEventLogger(db, nil)
	l.LogEvent(context.Background(), Event{
		EventType: "automation_run",
		Tenant:    "shop-1",
		Action:    "generate",
		Success:   true,
	})

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM business_events WHERE tenant = 'shop-1'`).Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Errorf("events: got %d, want 1", count)
	}
}

func TestLogEvent_NilLoggerSafe(t *testing.T) {
	// WHAT: A nil EventLogger is a no-op, not a panic.
	// WHY: The event trail is optional wiring.
	var l *EventLogger
	l.LogEvent(context.Background(), Event{EventType: "x", Tenant: "y", Action: "z"})
}

func TestCleanup_RemovesOldEvents(t *testing.T) {
	// WHAT: Cleanup removes events past retention and keeps newer ones.
	db := openTestDB(t)
	l := NewEventLogger(db, nil)
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	l.now = func() time.Time { return base.AddDate(0, 0, -90) }
	l.LogEvent(context.Background(), Event{EventType: "old", Tenant: "t", Action: "a"})
	l.now = func() time.Time { return base }
	l.LogEvent(context.Background(), Event{EventType: "new", Tenant: "t", Action: "a"})

	removed, err := l.Cleanup(context.Background(), 30*24*time.Hour)
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed: got %d, want 1", removed)
	}
}
