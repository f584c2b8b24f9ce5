package ports

import (
	"context"
	"time"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
)

// Oracle is the external text-generation capability. Implementations
// return a free-text response, or a structured object when the request
// carries a schema, and may fail transiently.
type Oracle interface {
	Generate(ctx context.Context, req domain.OracleRequest) (domain.OracleResponse, error)
}

// GlossaryStore appends extracted terms to a persistent table. Rows are
// never overwritten or deduplicated.
type GlossaryStore interface {
	Append(ctx context.Context, entries []domain.GlossaryEntry) error
}

// ResultSink receives committed workflow outcomes.
type ResultSink interface {
	Accept(ctx context.Context, rec domain.SuccessRecord) error
	Reject(ctx context.Context, rec domain.FailureRecord) error
}

// ResultRepository persists outcomes and serves them back by document id.
type ResultRepository interface {
	ResultSink
	GetResult(ctx context.Context, documentID string) (*domain.DocumentResult, error)
}

// BatchQueue publishes and consumes batch submissions.
type BatchQueue interface {
	PublishBatch(ctx context.Context, batch domain.BatchSubmission) error
	SubscribeBatches(ctx context.Context, handler func(context.Context, domain.BatchSubmission) error) error
}

// DocumentLoader reads document descriptors from a corpus file.
type DocumentLoader interface {
	Load(ctx context.Context, path string) ([]domain.Document, error)
}

// BatchObserver is notified of executor progress.
type BatchObserver interface {
	StartDocument()
	FinishDocument(duration time.Duration, err error)
	ObserveAttempt(tier string, err error)
	ObserveOutcome(outcome string)
}
