package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rsclarke/goepp/internal/models"
)

func TestOpenCreatesDatabase(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestMigrationsApplied(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	tables := []string{"schema_migrations", "journal", "journal_attributes"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}
}

func TestPragmasOnEveryConnection(t *testing.T) {
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	// Holding the first connection forces the pool to open a second one.
	for i := 0; i < 2; i++ {
		conn, err := db.Conn(ctx)
		if err != nil {
			t.Fatalf("Conn failed: %v", err)
		}
		defer func() { _ = conn.Close() }()

		var fk, timeout int
		if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fk); err != nil {
			t.Fatalf("PRAGMA foreign_keys failed: %v", err)
		}
		if err := conn.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout); err != nil {
			t.Fatalf("PRAGMA busy_timeout failed: %v", err)
		}
		if fk != 1 {
			t.Errorf("connection %d: foreign keys not enabled", i)
		}
		if timeout != 5000 {
			t.Errorf("connection %d: busy_timeout = %d", i, timeout)
		}
	}
}

func TestLoadMigrations(t *testing.T) {
	got, err := loadMigrations()
	if err != nil {
		t.Fatalf("loadMigrations failed: %v", err)
	}
	if len(got) == 0 || got[0].version != 1 || got[0].name != "001_journal.sql" {
		t.Fatalf("unexpected migrations %+v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].version <= got[i-1].version {
			t.Errorf("migrations out of order: %+v", got)
		}
	}
}

func TestOpenTwiceSkipsAppliedMigrations(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	first, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = first.Close()

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 recorded migration, got %d", count)
	}
}

func TestCascadeDelete(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer func() { _ = db.Close() }()

	id, err := CreateJournalEntry(db, models.JournalEntry{OccurredAt: 1234567890, Command: "hello"})
	if err != nil {
		t.Fatalf("CreateJournalEntry failed: %v", err)
	}
	if err := SaveAttributes(db, id, map[string]any{"redacted": true}); err != nil {
		t.Fatalf("SaveAttributes failed: %v", err)
	}

	if _, err := db.Exec("DELETE FROM journal WHERE id=?", id); err != nil {
		t.Fatalf("delete entry: %v", err)
	}

	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM journal_attributes WHERE journal_id=?", id).Scan(&count)
	if err != nil {
		t.Fatalf("count attributes: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 attributes after cascade delete, got %d", count)
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     int
		wantErr  bool
	}{
		{"valid", "001_create_tables.sql", 1, false},
		{"valid large", "123_add_column.sql", 123, false},
		{"missing underscore", "001.sql", 0, true},
		{"journal", "001_journal.sql", 1, false},
		{"empty prefix", "_create_tables.sql", 0, true},
		{"non-numeric prefix", "abc_create_tables.sql", 0, true},
		{"empty string", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseVersion(tt.filename)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseVersion(%q) error = %v, wantErr %v", tt.filename, err, tt.wantErr)
				return
			}
			if got != tt.want {
				t.Errorf("parseVersion(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}
