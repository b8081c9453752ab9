package shared

import (
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func TestMigrations(t *testing.T) {
	t.Run("LoadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) == 0 {
			t.Fatal("expected at least one embedded migration")
		}

		for i, m := range migrations {
			if m.Up == "" || m.Down == "" {
				t.Errorf("migration %d is missing up or down SQL", m.Version)
			}
			if i > 0 && migrations[i-1].Version >= m.Version {
				t.Error("migrations should be sorted by ascending version")
			}
		}
	})

	t.Run("RunMigrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM runs").Scan(&count); err != nil {
			t.Fatalf("runs table should exist after migration: %v", err)
		}
		if count != 0 {
			t.Errorf("expected empty runs table, got %d rows", count)
		}

		var seq int
		if err := db.QueryRow("SELECT value FROM runs_sequence").Scan(&seq); err != nil {
			t.Fatalf("runs_sequence should be seeded: %v", err)
		}
		if seq != 0 {
			t.Errorf("expected sequence seeded at 0, got %d", seq)
		}

		// Applying twice is a no-op.
		if err := RunMigrations(db); err != nil {
			t.Fatalf("re-running migrations should succeed: %v", err)
		}
	})

	t.Run("RollbackMigration", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback: %v", err)
		}

		if _, err := db.Exec("SELECT 1 FROM runs"); err == nil {
			t.Error("runs table should be gone after rollback")
		}

		if err := RollbackMigration(db); err == nil {
			t.Error("rolling back with nothing applied should fail")
		}
	})
}

func TestStripSQLComments(t *testing.T) {
	script := `-- leading comment
CREATE TABLE t ( -- trailing comment
	id TEXT
)`
	got := stripSQLComments(script)
	want := "CREATE TABLE t (\nid TEXT\n)"
	if got != want {
		t.Errorf("stripSQLComments() = %q, want %q", got, want)
	}
}
