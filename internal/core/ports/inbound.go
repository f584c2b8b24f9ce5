package ports

import (
	"context"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
)

// DocumentTranslator runs one document through the translation workflow.
type DocumentTranslator interface {
	Translate(ctx context.Context, doc domain.Document) (*domain.TranslationState, error)
}

// BatchRunner executes a corpus with tiered recovery.
type BatchRunner interface {
	Run(ctx context.Context, docs []domain.Document) (domain.RunSummary, error)
}

// BatchSubmitter is the inbound contract for asynchronous batch intake.
type BatchSubmitter interface {
	Submit(ctx context.Context, docs []domain.Document) (*domain.BatchSubmission, error)
}

// ResultReader is the inbound read model for committed results.
type ResultReader interface {
	GetResult(ctx context.Context, documentID string) (*domain.DocumentResult, error)
}
