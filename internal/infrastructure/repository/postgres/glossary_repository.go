package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
)

// GlossaryRepository is an append-only glossary table.
type GlossaryRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewGlossaryRepository(db *sql.DB) *GlossaryRepository {
	return &GlossaryRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *GlossaryRepository) Append(ctx context.Context, entries []domain.GlossaryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin glossary tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	createdAt := r.now()
	for _, entry := range entries {
		_, err := tx.ExecContext(ctx, `
INSERT INTO glossary_entries (
	document_id, term, translation, category, context, source_reference, entity_category, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
`,
			entry.DocumentID, entry.Term, entry.Translation, entry.Category,
			entry.Context, entry.SourceReference, entry.EntityCategory, createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert glossary entry %q: %w", entry.Term, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit glossary tx: %w", err)
	}
	return nil
}
