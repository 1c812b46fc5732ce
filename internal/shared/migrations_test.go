package shared

import (
	"database/sql"
	"testing"
)

func mustMemoryDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrations(t *testing.T) {
	t.Run("Applies All Versions", func(t *testing.T) {
		db := mustMemoryDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		for _, table := range []string{"cache_entries", "search_history", "schema_migrations"} {
			var name string
			err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&name)
			if err != nil {
				t.Errorf("expected table %s to exist: %v", table, err)
			}
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		db := mustMemoryDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("first run failed: %v", err)
		}
		if err := RunMigrations(db); err != nil {
			t.Fatalf("second run failed: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
			t.Fatalf("failed to count applied migrations: %v", err)
		}
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}
		if count != len(migrations) {
			t.Errorf("expected %d applied versions, got %d", len(migrations), count)
		}
	})

	t.Run("Rollback Drops Latest", func(t *testing.T) {
		db := mustMemoryDB(t)

		if err := RunMigrations(db); err != nil {
			t.Fatalf("migrate failed: %v", err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("rollback failed: %v", err)
		}

		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = 'cache_entries'").Scan(&name)
		if err == nil {
			t.Error("expected cache_entries dropped after rollback")
		}
	})

	t.Run("Rollback Without Migrations", func(t *testing.T) {
		db := mustMemoryDB(t)

		if _, err := db.Exec("CREATE TABLE schema_migrations (version INTEGER PRIMARY KEY)"); err != nil {
			t.Fatalf("setup failed: %v", err)
		}
		if err := RollbackMigration(db); err == nil {
			t.Error("expected error with nothing to roll back")
		}
	})
}

func TestStripSQLComments(t *testing.T) {
	input := "CREATE TABLE t (\n  id TEXT -- the primary key\n); -- trailing"
	out := stripSQLComments(input)
	if out != "CREATE TABLE t (\nid TEXT\n);" {
		t.Errorf("unexpected output: %q", out)
	}
}
