package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS translation_results (
	document_id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	target_language TEXT,
	grade TEXT,
	forced_accept BOOLEAN NOT NULL DEFAULT FALSE,
	iterations INTEGER NOT NULL DEFAULT 0,
	tier TEXT,
	attempts INTEGER NOT NULL DEFAULT 0,
	record JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_translation_results_status ON translation_results(status);

CREATE TABLE IF NOT EXISTS glossary_entries (
	id BIGSERIAL PRIMARY KEY,
	document_id TEXT NOT NULL,
	term TEXT NOT NULL,
	translation TEXT NOT NULL,
	category TEXT,
	context TEXT,
	source_reference TEXT,
	entity_category TEXT,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_glossary_entries_document_id ON glossary_entries(document_id);
`

// EnsureSchema creates the result and glossary tables.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026101901)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
