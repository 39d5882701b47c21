package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps a SQLite connection holding the imported station catalog and trip log.
type DB struct {
	*sql.DB
	logger *slog.Logger
}

// Open opens the dataset database at path, creating its directory and schema
// as needed. Whatever a previous import left behind is logged so a restart
// can serve it before the next refresh.
func Open(path string, logger *slog.Logger) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL lets snapshot loads read while an import transaction writes.
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_synchronous=NORMAL", path)
	sqlDB, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}

	db := &DB{DB: sqlDB, logger: logger}
	if err := db.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	stations, trips, err := db.Counts(context.Background())
	if err != nil {
		sqlDB.Close()
		return nil, err
	}
	logger.Info("database opened", "path", path, "stations", stations, "trips", trips)
	return db, nil
}
