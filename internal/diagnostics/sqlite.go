package diagnostics

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// SQLite stores diagnostics in a local database file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path. Parent directories are created.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("diagnostics: mkdir %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("diagnostics: open db: %w", err)
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	if err := initSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("diagnostics: init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func initSQLiteSchema(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS provider_failures (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id  TEXT NOT NULL,
		query       TEXT NOT NULL,
		provider    TEXT NOT NULL,
		kind        TEXT NOT NULL,
		status_code INTEGER NOT NULL DEFAULT 0,
		message     TEXT NOT NULL,
		at          TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_provider_failures_at ON provider_failures(at)`)
	return err
}

func (s *SQLite) Close() error { return s.db.Close() }

func (s *SQLite) Record(ctx context.Context, d Diagnostic) error {
	if d.At.IsZero() {
		d.At = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO provider_failures (session_id, query, provider, kind, status_code, message, at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.SessionID, d.Query, d.Provider, d.Kind, d.StatusCode, d.Message,
		d.At.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("diagnostics: insert: %w", err)
	}
	return nil
}

func (s *SQLite) Recent(ctx context.Context, limit int) ([]Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, query, provider, kind, status_code, message, at
		 FROM provider_failures ORDER BY id DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("diagnostics: query: %w", err)
	}
	defer rows.Close()

	out := []Diagnostic{}
	for rows.Next() {
		var d Diagnostic
		var at string
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Query, &d.Provider, &d.Kind, &d.StatusCode, &d.Message, &at); err != nil {
			return nil, fmt.Errorf("diagnostics: scan: %w", err)
		}
		d.At, _ = time.Parse(time.RFC3339Nano, at)
		out = append(out, d)
	}
	return out, rows.Err()
}
