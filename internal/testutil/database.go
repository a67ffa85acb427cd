package testutil

import (
	"testing"

	"drive-go/internal/database"
	"drive-go/internal/drive"
)

// NewTestDatabase creates a new in-memory SQLite database with schema applied.
// A nil clock falls back to SteppingClock. The database is automatically
// closed when the test completes.
func NewTestDatabase(t *testing.T, clock drive.Clock) drive.Database {
	t.Helper()

	sqlDB, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	if _, err := sqlDB.Exec(database.Schema); err != nil {
		sqlDB.Close()
		t.Fatalf("failed to apply schema: %v", err)
	}

	if clock == nil {
		clock = SteppingClock()
	}
	db := database.NewSQLiteDatabaseFromDB(sqlDB, clock)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}
