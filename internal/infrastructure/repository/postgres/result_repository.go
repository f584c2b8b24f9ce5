package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
)

type ResultRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

const upsertResultQuery = `
INSERT INTO translation_results (
	document_id, status, target_language, grade, forced_accept, iterations, tier, attempts, record, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
ON CONFLICT (document_id) DO UPDATE SET
	status = EXCLUDED.status,
	target_language = EXCLUDED.target_language,
	grade = EXCLUDED.grade,
	forced_accept = EXCLUDED.forced_accept,
	iterations = EXCLUDED.iterations,
	tier = EXCLUDED.tier,
	attempts = EXCLUDED.attempts,
	record = EXCLUDED.record,
	updated_at = EXCLUDED.updated_at
`

// Accept stores the success record, replacing any earlier outcome for the document.
func (r *ResultRepository) Accept(ctx context.Context, rec domain.SuccessRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal success record: %w", err)
	}
	_, err = r.db.ExecContext(ctx, upsertResultQuery,
		rec.DocumentID, string(domain.ResultAccepted), rec.TargetLanguage, rec.Grade.String(),
		rec.ForcedAccept, rec.Iterations, "", 0, payload, r.now(),
	)
	if err != nil {
		return fmt.Errorf("upsert accepted result: %w", err)
	}
	return nil
}

func (r *ResultRepository) Reject(ctx context.Context, rec domain.FailureRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal failure record: %w", err)
	}
	_, err = r.db.ExecContext(ctx, upsertResultQuery,
		rec.DocumentID, string(domain.ResultFailed), "", "",
		false, 0, string(rec.Tier), rec.Attempts, payload, r.now(),
	)
	if err != nil {
		return fmt.Errorf("upsert failed result: %w", err)
	}
	return nil
}

func (r *ResultRepository) GetResult(ctx context.Context, documentID string) (*domain.DocumentResult, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT status, record
FROM translation_results
WHERE document_id = $1
`, documentID)

	var status string
	var raw []byte
	if err := row.Scan(&status, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrDocumentNotFound, "get result", fmt.Errorf("document %s", documentID))
		}
		return nil, fmt.Errorf("scan result: %w", err)
	}

	result := &domain.DocumentResult{DocumentID: documentID, Status: domain.ResultStatus(status)}
	switch result.Status {
	case domain.ResultAccepted:
		var rec domain.SuccessRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal success record: %w", err)
		}
		result.Success = &rec
	case domain.ResultFailed:
		var rec domain.FailureRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal failure record: %w", err)
		}
		result.Failure = &rec
	default:
		return nil, fmt.Errorf("unknown result status %q", status)
	}
	return result, nil
}
