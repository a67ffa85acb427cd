package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"drive-go/internal/config"
	"drive-go/internal/drive"
)

// NewDatabaseFromConfig creates a database based on the database config type.
// instanceID names the SQLite file inside data_dir.
func NewDatabaseFromConfig(ctx context.Context, cfg config.DatabaseConfig, instanceID string, clock drive.Clock) (*SQLDatabase, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating data_dir: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, instanceID+".db")
		return NewSQLiteDatabase(dbPath, clock)
	case "memory":
		return NewSQLiteDatabase(":memory:", clock)
	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("dsn required for postgres database")
		}
		return NewPostgresDatabase(ctx, cfg.DSN, clock)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
