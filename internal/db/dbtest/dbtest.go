// Package dbtest opens migrated throwaway databases for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"

	"github.com/steemit/threads/internal/db"
)

// New returns a migrated SQLite database stored in the test's temp dir.
// Foreign keys are enforced so delete rules behave as on PostgreSQL.
func New(t testing.TB) *db.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "threads.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

	database, err := db.Open(sqlite.Open(dsn), "ERROR")
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if err := database.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return database
}
