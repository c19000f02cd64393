// Package testutil provides an in-memory SQLite database mirroring the
// production schema, so storage and handler tests run without PostgreSQL.
// Production queries use ? placeholders with sqlx.Rebind, which keeps them
// valid on both engines.
package testutil

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE users (
    user_id       TEXT PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at    DATETIME NOT NULL,
    updated_at    DATETIME NOT NULL
);

CREATE TABLE tasks (
    task_id    TEXT PRIMARY KEY,
    user_id    TEXT NOT NULL,
    task_type  TEXT NOT NULL,
    input_data TEXT NOT NULL,
    status     TEXT NOT NULL DEFAULT 'PENDING',
    result     TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);
`

// NewDB opens an in-memory SQLite database with the service schema applied.
// The database is closed when the test finishes.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// A single connection keeps every query on the same in-memory database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("failed to apply schema: %v", err)
	}

	return db
}
