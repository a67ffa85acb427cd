package migrations

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"drive-go/internal/database/queries"
)

const sqlite = queries.DialectSQLite

func TestMigrateUp_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Migrate up
	err := MigrateUp(db, sqlite)
	if err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Verify tables were created
	tables := []string{"folders", "folder_closure", "files", "history", "operations", "schema_migrations"}
	for _, table := range tables {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("Table %s was not created: %v", table, err)
		}
	}
}

func TestCheckDBMigrationStatus_FreshDatabase(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Fresh database should need migration
	err := CheckDBMigrationStatus(db, sqlite)
	if err == nil {
		t.Error("CheckDBMigrationStatus() expected error for fresh database, got nil")
	}

	// Error should mention needing migration
	if err.Error() != "database has no schema version (needs migration)" {
		t.Errorf("CheckDBMigrationStatus() error = %q, want error about needing migration", err.Error())
	}
}

func TestCheckDBMigrationStatus_AfterMigration(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Migrate up
	if err := MigrateUp(db, sqlite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Status should be OK now
	err := CheckDBMigrationStatus(db, sqlite)
	if err != nil {
		t.Errorf("CheckDBMigrationStatus() after migration returned error: %v", err)
	}
}

func TestMigrateUp_Idempotent(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Run migration twice
	if err := MigrateUp(db, sqlite); err != nil {
		t.Fatalf("First MigrateUp() failed: %v", err)
	}

	if err := MigrateUp(db, sqlite); err != nil {
		t.Errorf("Second MigrateUp() failed: %v (should be idempotent)", err)
	}

	// Status should still be OK
	if err := CheckDBMigrationStatus(db, sqlite); err != nil {
		t.Errorf("CheckDBMigrationStatus() after double migration returned error: %v", err)
	}
}

func TestForeignKeyConstraints(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	// Migrate
	if err := MigrateUp(db, sqlite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	// Try to insert a folder under a non-existent parent (should fail due to FK constraint)
	_, err := db.Exec(`
		INSERT INTO folders (name, owner_id, parent_id, created_at)
		VALUES ('orphan', 'alice', 999, datetime('now'))
	`)

	if err == nil {
		t.Error("Expected foreign key constraint violation, but insert succeeded")
	}
}

func TestSchema_ClosureDepthNonNegative(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db, sqlite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO folders (name, owner_id, created_at) VALUES ('Docs', 'alice', datetime('now'))"); err != nil {
		t.Fatalf("Failed to insert folder: %v", err)
	}

	_, err := db.Exec("INSERT INTO folder_closure (ancestor, descendant, depth) VALUES (1, 1, -1)")
	if err == nil {
		t.Error("Expected check constraint violation for negative depth, but insert succeeded")
	}
}

func TestSchema_ClosurePairUnique(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db, sqlite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO folders (name, owner_id, created_at) VALUES ('Docs', 'alice', datetime('now'))"); err != nil {
		t.Fatalf("Failed to insert folder: %v", err)
	}
	if _, err := db.Exec("INSERT INTO folder_closure (ancestor, descendant, depth) VALUES (1, 1, 0)"); err != nil {
		t.Fatalf("Failed to insert reflexive row: %v", err)
	}

	_, err := db.Exec("INSERT INTO folder_closure (ancestor, descendant, depth) VALUES (1, 1, 0)")
	if err == nil {
		t.Error("Expected primary key violation for duplicate closure pair, but insert succeeded")
	}
}

func TestSchema_HistoryKeyUnique(t *testing.T) {
	db := openTestDB(t)
	defer db.Close()

	if err := MigrateUp(db, sqlite); err != nil {
		t.Fatalf("MigrateUp() failed: %v", err)
	}

	if _, err := db.Exec("INSERT INTO files (name, owner_id, created_at) VALUES ('a.txt', 'alice', datetime('now'))"); err != nil {
		t.Fatalf("Failed to insert file: %v", err)
	}
	if _, err := db.Exec("INSERT INTO history (file_id, s3_key, created_at) VALUES (1, 'k1', datetime('now'))"); err != nil {
		t.Fatalf("Failed to insert history: %v", err)
	}

	_, err := db.Exec("INSERT INTO history (file_id, s3_key, created_at) VALUES (1, 'k1', datetime('now'))")
	if err == nil {
		t.Error("Expected unique constraint violation for duplicate s3_key, but insert succeeded")
	}
}

func TestPostgresMigrationsMirrorSQLite(t *testing.T) {
	sqliteFiles, err := migrationFiles.ReadDir(sourceDir(queries.DialectSQLite))
	if err != nil {
		t.Fatalf("reading sqlite migrations: %v", err)
	}
	pgFiles, err := migrationFiles.ReadDir(sourceDir(queries.DialectPostgres))
	if err != nil {
		t.Fatalf("reading postgres migrations: %v", err)
	}

	if len(sqliteFiles) != len(pgFiles) {
		t.Fatalf("sqlite has %d migration files, postgres has %d", len(sqliteFiles), len(pgFiles))
	}
	for i := range sqliteFiles {
		if sqliteFiles[i].Name() != pgFiles[i].Name() {
			t.Errorf("migration %d: sqlite %s, postgres %s", i, sqliteFiles[i].Name(), pgFiles[i].Name())
		}
	}
}

// openTestDB opens an in-memory SQLite database for testing.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	return db
}
