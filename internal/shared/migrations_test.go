package shared

import (
	"testing"
)

func TestLoadMigrations(t *testing.T) {
	migrations, err := loadMigrations()
	if err != nil {
		t.Fatalf("failed to load migrations: %v", err)
	}

	if len(migrations) == 0 {
		t.Fatal("expected at least one migration")
	}

	for i, migration := range migrations {
		if migration.Up == "" {
			t.Errorf("migration %d has no up SQL", migration.Version)
		}
		if migration.Down == "" {
			t.Errorf("migration %d has no down SQL", migration.Version)
		}
		if i > 0 && migrations[i-1].Version >= migration.Version {
			t.Error("migrations should be sorted by version")
		}
	}
}

func TestMigrations(t *testing.T) {
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create database: %v", err)
	}
	defer db.Close()

	t.Run("RunMigrations", func(t *testing.T) {
		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		tables := []string{
			"sessions", "sessions_sequence",
			"songs", "songs_sequence",
			"favorites", "favorites_sequence",
			"schema_migrations",
		}
		for _, table := range tables {
			var name string
			err := db.QueryRow(
				"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
			).Scan(&name)
			if err != nil {
				t.Errorf("expected table %s to exist: %v", table, err)
			}
		}
	})

	t.Run("RunMigrations is idempotent", func(t *testing.T) {
		if err := RunMigrations(db); err != nil {
			t.Fatalf("second run should be a no-op: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatal(err)
		}
		if count != 1 {
			t.Errorf("expected 1 applied migration, got %d", count)
		}
	})

	t.Run("RollbackMigration", func(t *testing.T) {
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}

		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name='sessions'",
		).Scan(&name)
		if err == nil {
			t.Error("sessions table should be dropped after rollback")
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("rollback with nothing applied should fail")
		}
	})
}
