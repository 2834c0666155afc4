package auditlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"allthingslinux/atl/internal/database"
	"allthingslinux/atl/internal/runner"
)

// Repository defines the persistence interface for audit entries.
type Repository interface {
	Save(entry *AuditEntry) error
	List(f Filter) ([]AuditEntry, error)
	Prune(olderThan time.Duration) (int64, error)
	Close() error
}

// timeLayout is fixed-width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository implements Repository backed by a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// Open creates or opens the audit repository at the default path.
func Open() (*SQLiteRepository, error) {
	path, err := database.DefaultPath()
	if err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
	}
	return OpenAt(path)
}

// OpenAt creates or opens a SQLite database at the given path.
func OpenAt(path string) (*SQLiteRepository, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, fmt.Errorf("auditlog: %w", err)
	}

	r := &SQLiteRepository{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) migrate() error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS run_log (
            id          INTEGER PRIMARY KEY AUTOINCREMENT,
            timestamp   TEXT    NOT NULL,
            command     TEXT    NOT NULL,
            args        TEXT    NOT NULL DEFAULT '',
            environment TEXT    NOT NULL DEFAULT '',
            tool        TEXT    NOT NULL DEFAULT '',
            target      TEXT    NOT NULL DEFAULT '',
            outcome     TEXT    NOT NULL DEFAULT '',
            exit_code   INTEGER NOT NULL DEFAULT 0,
            log_file    TEXT    NOT NULL DEFAULT '',
            detail      TEXT    NOT NULL DEFAULT '',
            duration_ms INTEGER NOT NULL DEFAULT 0
        );
        CREATE INDEX IF NOT EXISTS idx_run_log_timestamp ON run_log(timestamp);
        CREATE INDEX IF NOT EXISTS idx_run_log_command ON run_log(command);
        CREATE INDEX IF NOT EXISTS idx_run_log_environment ON run_log(environment);
    `
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("auditlog: migration failed: %w", err)
	}
	return nil
}

// Save inserts a new audit entry.
func (r *SQLiteRepository) Save(entry *AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	result, err := r.db.Exec(`
        INSERT INTO run_log (timestamp, command, args, environment, tool, target, outcome, exit_code, log_file, detail, duration_ms)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Timestamp.UTC().Format(timeLayout), entry.Command, entry.Args, entry.Environment,
		entry.Tool, entry.Target, entry.Outcome, entry.ExitCode, entry.LogFile, entry.Detail, entry.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("auditlog: insert failed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("auditlog: failed to get last insert ID: %w", err)
	}
	entry.ID = id
	return nil
}

const selectColumns = `SELECT id, timestamp, command, args, environment, tool, target,
               outcome, exit_code, log_file, detail, duration_ms
        FROM run_log`

// Filter narrows a List query. Zero fields match everything.
type Filter struct {
	Command     string
	Environment string
	FailedOnly  bool
	Since       time.Time
	Limit       int
}

func (f Filter) where() (string, []any) {
	var clauses []string
	var args []any
	if f.Command != "" {
		clauses = append(clauses, "command = ?")
		args = append(args, f.Command)
	}
	if f.Environment != "" {
		clauses = append(clauses, "environment = ?")
		args = append(args, f.Environment)
	}
	if f.FailedOnly {
		clauses = append(clauses, "outcome = ?")
		args = append(args, OutcomeError)
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, f.Since.UTC().Format(timeLayout))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// List returns the entries matching f, newest first. A non-positive Limit
// returns every match.
func (r *SQLiteRepository) List(f Filter) ([]AuditEntry, error) {
	where, args := f.where()
	query := selectColumns + where + ` ORDER BY timestamp DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("auditlog: query failed: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

// Prune deletes entries older than the given duration.
func (r *SQLiteRepository) Prune(olderThan time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-olderThan).Format(timeLayout)
	result, err := r.db.Exec(`DELETE FROM run_log WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("auditlog: delete failed: %w", err)
	}
	return result.RowsAffected()
}

// Close releases database resources.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func scanRows(rows *sql.Rows) ([]AuditEntry, error) {
	var entries []AuditEntry
	for rows.Next() {
		var entry AuditEntry
		var timestampStr string
		err := rows.Scan(
			&entry.ID, &timestampStr, &entry.Command, &entry.Args, &entry.Environment,
			&entry.Tool, &entry.Target, &entry.Outcome, &entry.ExitCode, &entry.LogFile,
			&entry.Detail, &entry.DurationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("auditlog: scan failed: %w", err)
		}
		entry.Timestamp, _ = time.Parse(timeLayout, timestampStr)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Track runs fn and records its outcome, duration and exit code under
// command, with metadata taken from ctx. fn's error is returned unchanged.
// A nil repo runs fn without recording. A failed Save never masks fn's
// result.
func Track(ctx context.Context, repo Repository, command string, args []string, fn func(ctx context.Context) error) error {
	if repo == nil {
		return fn(ctx)
	}

	start := time.Now()
	runErr := fn(ctx)

	meta := MetadataFromContext(ctx)
	entry := &AuditEntry{
		Timestamp:   start.UTC(),
		Command:     command,
		Args:        strings.Join(SanitizeArgs(args), " "),
		Environment: meta.Environment,
		Tool:        meta.Tool,
		Target:      meta.Target,
		LogFile:     meta.LogFile,
		Outcome:     OutcomeSuccess,
		DurationMs:  time.Since(start).Milliseconds(),
	}
	if runErr != nil {
		entry.Outcome = OutcomeError
		entry.Detail = runErr.Error()
		entry.ExitCode = 1
		var exitErr *runner.ExitError
		if errors.As(runErr, &exitErr) {
			entry.ExitCode = exitErr.ExitCode
		}
	}
	_ = repo.Save(entry)

	return runErr
}
