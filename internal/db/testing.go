// Test helpers for packages needing database access. In-memory databases
// keep tests fast and isolated; cleanup happens via t.Cleanup().
package db

import (
	"testing"
)

// NewTestDB creates an in-memory techo database for testing.
// Schema migrations are applied automatically and the database is closed
// when the test completes.
func NewTestDB(t testing.TB) *DB {
	t.Helper()

	d, err := OpenInMemory()
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}

	t.Cleanup(func() {
		_ = d.Close()
	})

	return d
}
