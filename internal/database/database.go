package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"drive-go/internal/database/migrations"
	"drive-go/internal/database/queries"
	"drive-go/internal/drive"

	_ "github.com/jackc/pgx/v5/stdlib" // Postgres driver ("pgx")
	_ "github.com/mattn/go-sqlite3"    // SQLite driver
)

// SQLDatabase implements drive.Database on database/sql. The same SQL runs on
// SQLite and Postgres; queries.Dialect handles placeholder syntax.
type SQLDatabase struct {
	db      *sql.DB
	queries *queries.Queries
	dialect queries.Dialect
	path    string
	clock   drive.Clock
}

// NewSQLiteDatabase opens a SQLite database.
// path can be a file path or ":memory:" for an in-memory database.
// A nil clock defaults to drive.RealClock.
func NewSQLiteDatabase(path string, clock drive.Clock) (*SQLDatabase, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	s := newSQLDatabase(db, queries.DialectSQLite, clock)
	s.path = path
	return s, nil
}

// NewSQLiteDatabaseFromDB wraps an existing SQLite connection.
// The caller is responsible for ensuring the connection is properly configured.
func NewSQLiteDatabaseFromDB(db *sql.DB, clock drive.Clock) *SQLDatabase {
	return newSQLDatabase(db, queries.DialectSQLite, clock)
}

// NewPostgresDatabase connects to Postgres through the pgx stdlib driver.
func NewPostgresDatabase(ctx context.Context, dsn string, clock drive.Clock) (*SQLDatabase, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	return newSQLDatabase(db, queries.DialectPostgres, clock), nil
}

func newSQLDatabase(db *sql.DB, dialect queries.Dialect, clock drive.Clock) *SQLDatabase {
	if clock == nil {
		clock = drive.RealClock{}
	}
	return &SQLDatabase{
		db:      db,
		queries: queries.New(db, dialect),
		dialect: dialect,
		clock:   clock,
	}
}

// OpenConnection opens and configures a SQLite database connection.
// This is exported for use in tools and tests that need a properly configured SQLite connection.
// path can be a file path or ":memory:" for in-memory database.
func OpenConnection(path string) (*sql.DB, error) {
	// DSN parameters apply to every pooled connection.
	params := "_foreign_keys=on&_busy_timeout=5000"
	if path != ":memory:" {
		// Writers take the lock at BEGIN and queue on busy_timeout.
		params += "&_txlock=immediate"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	db, err := sql.Open("sqlite3", path+sep+params)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" {
		// Each connection to ":memory:" is a separate database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return db, nil
}

// now returns the timestamp stored in created_at columns.
func (s *SQLDatabase) now() time.Time {
	return s.clock.Now().UTC()
}

// inTx runs fn on a Queries bound to a fresh transaction and commits when fn
// succeeds. Begin and commit failures, and serialization conflicts raised by
// fn, are reported as *drive.TransactionFailure; other errors from fn are
// returned unchanged after rollback.
func (s *SQLDatabase) inTx(ctx context.Context, op string, fn func(q *queries.Queries) error) error {
	tx, err := s.db.BeginTx(ctx, s.txOptions())
	if err != nil {
		return &drive.TransactionFailure{Op: op, Err: err}
	}
	defer tx.Rollback()

	if err := fn(s.queries.WithTx(tx)); err != nil {
		if isSerializationFailure(err) {
			return &drive.TransactionFailure{Op: op, Err: err}
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return &drive.TransactionFailure{Op: op, Err: err}
	}
	return nil
}

// txOptions returns the isolation for write transactions. Postgres defaults to
// READ COMMITTED, where two concurrent moves can each pass the cycle check
// and commit a loop; SERIALIZABLE aborts one of them instead. SQLite
// serializes writers with BEGIN IMMEDIATE and ignores the level.
func (s *SQLDatabase) txOptions() *sql.TxOptions {
	if s.dialect == queries.DialectPostgres {
		return &sql.TxOptions{Isolation: sql.LevelSerializable}
	}
	return nil
}

// Path returns the SQLite file path, or "" for other backends.
func (s *SQLDatabase) Path() string {
	return s.path
}

// Dialect returns the SQL dialect of the connection.
func (s *SQLDatabase) Dialect() queries.Dialect {
	return s.dialect
}

// Migrate applies all pending migrations.
func (s *SQLDatabase) Migrate() error {
	return migrations.MigrateUp(s.db, s.dialect)
}

// CheckMigrations verifies the database schema is up-to-date.
func (s *SQLDatabase) CheckMigrations() error {
	return migrations.CheckDBMigrationStatus(s.db, s.dialect)
}

// BackupTo creates a complete copy of a SQLite database at destPath using VACUUM INTO.
func (s *SQLDatabase) BackupTo(destPath string) error {
	if s.dialect != queries.DialectSQLite {
		return fmt.Errorf("backup is only supported for sqlite databases")
	}
	_, err := s.db.Exec("VACUUM INTO ?", destPath)
	if err != nil {
		return fmt.Errorf("backing up database: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLDatabase) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Compile-time check that SQLDatabase implements drive.Database interface
var _ drive.Database = (*SQLDatabase)(nil)
