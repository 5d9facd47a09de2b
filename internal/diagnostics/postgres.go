package diagnostics

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Postgres stores diagnostics in a shared database, for deployments running
// several replicas.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates a pgx pool and runs schema migrations.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	db := &Postgres{pool: pool}
	if err := db.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("diagnostics postgres connected", slog.String("addr", config.ConnConfig.Host))
	return db, nil
}

func (db *Postgres) Close() { db.pool.Close() }

func (db *Postgres) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := db.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
	}
	return nil
}

func (db *Postgres) Record(ctx context.Context, d Diagnostic) error {
	if d.At.IsZero() {
		d.At = time.Now().UTC()
	}
	_, err := db.pool.Exec(ctx,
		`INSERT INTO provider_failures (session_id, query, provider, kind, status_code, message, at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.SessionID, d.Query, d.Provider, d.Kind, d.StatusCode, d.Message, d.At)
	if err != nil {
		return fmt.Errorf("diagnostics: insert: %w", err)
	}
	return nil
}

func (db *Postgres) Recent(ctx context.Context, limit int) ([]Diagnostic, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, query, provider, kind, status_code, message, at
		 FROM provider_failures ORDER BY at DESC, id DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("diagnostics: query: %w", err)
	}
	defer rows.Close()

	out := []Diagnostic{}
	for rows.Next() {
		var d Diagnostic
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Query, &d.Provider, &d.Kind, &d.StatusCode, &d.Message, &d.At); err != nil {
			return nil, fmt.Errorf("diagnostics: scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
