package db

import (
	"database/sql"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	// An in-memory SQLite database exists per connection; keep the pool at
	// one connection so every query sees the same database.
	db.SetMaxOpenConns(1)

	t.Cleanup(func() { db.Close() })

	return db
}
