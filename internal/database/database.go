// Package database opens atl's local SQLite file, which sits next to the
// config file so both follow the same override.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"allthingslinux/atl/internal/config"

	_ "modernc.org/sqlite"
)

const (
	dbFile      = "atl.db"
	busyTimeout = 5 * time.Second
)

var pathOverride string

// SetPath overrides the default database path. Intended for testing.
func SetPath(p string) { pathOverride = p }

// ResetPath clears the path override. Intended for testing.
func ResetPath() { pathOverride = "" }

// DefaultPath returns the database path inside config.Dir.
func DefaultPath() (string, error) {
	if pathOverride != "" {
		return pathOverride, nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("database: %w", err)
	}
	return filepath.Join(dir, dbFile), nil
}

// Open opens the SQLite database at path, creating its directory. The
// connection uses WAL journaling and waits on a locked database instead of
// failing, since an infra run and an audit query may overlap.
func Open(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("database: failed to create directory %s: %w", dir, err)
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)",
		path, busyTimeout.Milliseconds())
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("database: failed to open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), busyTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: failed to open %s: %w", path, err)
	}
	return db, nil
}
