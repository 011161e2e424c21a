// Package store is the sqlite data access layer. One Store instance wraps an
// already-opened database holding all tenants; every query is tenant-scoped.
//
// Store satisfies the domain-side persistence interfaces: keywords.Source,
// topic.RecentPosts, autopilot.PostStore and autopilot.ScheduleStore.
package store

import (
	"database/sql"
	"encoding/json"
)

// Store wraps the service database.
type Store struct {
	DB *sql.DB
}

// NewStore creates a Store from an already-opened database connection.
func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// marshalStrings encodes a string slice as a JSON TEXT column value.
// Nil and empty slices both become "[]" so scans round-trip cleanly.
func marshalStrings(v []string) string {
	if len(v) == 0 {
		return "[]"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func unmarshalStrings(raw string) []string {
	if raw == "" || raw == "[]" {
		return nil
	}
	var v []string
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}
	return v
}
