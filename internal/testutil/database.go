package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Veraticus/spice-insight/internal/storage"
)

// SetupTestDB creates a migrated SQLite database in a temporary directory.
// It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		_ = store.Close()
	})

	return store
}
