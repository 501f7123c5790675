package storage

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"
)

func TestMigrations_Ordered(t *testing.T) {
	for i, m := range migrations {
		if m.Version != i+1 {
			t.Errorf("migration %d has version %d", i, m.Version)
		}
		if m.Description == "" {
			t.Errorf("migration %d has no description", m.Version)
		}
	}
	if last := migrations[len(migrations)-1].Version; last != ExpectedSchemaVersion {
		t.Errorf("last migration is %d, ExpectedSchemaVersion is %d", last, ExpectedSchemaVersion)
	}
}

func TestMigrations_CreateTables(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()
	ctx := context.Background()

	for _, object := range []struct {
		kind string
		name string
	}{
		{kind: "table", name: "transactions"},
		{kind: "table", name: "model_artifacts"},
		{kind: "index", name: "idx_transactions_user_date"},
		{kind: "index", name: "idx_transactions_user_category"},
		{kind: "index", name: "idx_transactions_user_source"},
	} {
		var count int
		err := store.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM sqlite_master WHERE type = ? AND name = ?`,
			object.kind, object.name,
		).Scan(&count)
		if err != nil {
			t.Fatalf("Failed to inspect schema: %v", err)
		}
		if count != 1 {
			t.Errorf("%s %s was not created", object.kind, object.name)
		}
	}
}

func TestMigrations_RejectInvalidType(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.db.Exec(`
		INSERT INTO transactions (id, user_id, hash, date, description, amount, type)
		VALUES ('x', 'u', 'h', '2024-01-01', 'd', '1', 'transfer')
	`)
	if err == nil {
		t.Error("expected CHECK constraint to reject type 'transfer'")
	}
}

func TestMigrations_RejectInvalidCategorySource(t *testing.T) {
	store, cleanup := createTestStorage(t)
	defer cleanup()

	_, err := store.db.Exec(`
		INSERT INTO transactions (id, user_id, hash, date, description, amount, type, category, category_source)
		VALUES ('x', 'u', 'h', '2024-01-01', 'd', '1', 'expense', 'Food', 'guess')
	`)
	if err == nil {
		t.Error("expected CHECK constraint to reject category_source 'guess'")
	}
}

func TestMigrations_BackfillsCategorySource(t *testing.T) {
	store, err := NewSQLiteStorage(filepath.Join(t.TempDir(), "old.db"))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	defer func() { _ = store.Close() }()
	ctx := context.Background()

	// Bring the database to the schema before category sources existed.
	for _, m := range migrations[:3] {
		tx, err := store.db.BeginTx(ctx, nil)
		if err != nil {
			t.Fatalf("Failed to begin: %v", err)
		}
		if err := m.Up(tx); err != nil {
			t.Fatalf("migration %d: %v", m.Version, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.Version)); err != nil {
			t.Fatalf("Failed to set version: %v", err)
		}
		if err := tx.Commit(); err != nil {
			t.Fatalf("Failed to commit: %v", err)
		}
	}
	_, err = store.db.Exec(`
		INSERT INTO transactions (id, user_id, hash, date, description, amount, type, category)
		VALUES ('labelled', 'u', 'h1', '2024-01-01', 'cafe', '4', 'expense', 'Food'),
		       ('bare', 'u', 'h2', '2024-01-02', 'misc', '9', 'expense', NULL)
	`)
	if err != nil {
		t.Fatalf("Failed to seed: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	for id, want := range map[string]sql.NullString{
		"labelled": {String: "predicted", Valid: true},
		"bare":     {},
	} {
		var got sql.NullString
		if err := store.db.QueryRow(`SELECT category_source FROM transactions WHERE id = ?`, id).Scan(&got); err != nil {
			t.Fatalf("Failed to read %s: %v", id, err)
		}
		if got != want {
			t.Errorf("%s: category_source = %v, want %v", id, got, want)
		}
	}
}
