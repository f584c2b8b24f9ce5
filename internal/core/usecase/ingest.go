package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/ports"
)

// SubmitBatchUseCase validates documents at intake and queues them for the
// worker.
type SubmitBatchUseCase struct {
	queue           ports.BatchQueue
	defaultLanguage string
	maxDocuments    int
}

func NewSubmitBatchUseCase(queue ports.BatchQueue, defaultLanguage string, maxDocuments int) *SubmitBatchUseCase {
	return &SubmitBatchUseCase{
		queue:           queue,
		defaultLanguage: defaultLanguage,
		maxDocuments:    maxDocuments,
	}
}

func (uc *SubmitBatchUseCase) Submit(ctx context.Context, docs []domain.Document) (*domain.BatchSubmission, error) {
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit batch", errors.New("no documents"))
	}
	if uc.maxDocuments > 0 && len(docs) > uc.maxDocuments {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit batch",
			fmt.Errorf("batch has %d documents, limit is %d", len(docs), uc.maxDocuments))
	}

	prepared := make([]domain.Document, 0, len(docs))
	for i, doc := range docs {
		doc = NormalizeDocument(doc, uc.defaultLanguage)
		if err := doc.Validate(); err != nil {
			return nil, fmt.Errorf("document %d: %w", i, err)
		}
		prepared = append(prepared, doc)
	}

	batch := &domain.BatchSubmission{
		ID:          uuid.NewString(),
		Documents:   prepared,
		SubmittedAt: time.Now().UTC(),
	}
	if err := uc.queue.PublishBatch(ctx, *batch); err != nil {
		return nil, fmt.Errorf("publish batch: %w", err)
	}
	return batch, nil
}

// NormalizeDocument trims the descriptor, fills in the default language
// and assigns an id when none was given.
func NormalizeDocument(doc domain.Document, defaultLanguage string) domain.Document {
	doc.ID = strings.TrimSpace(doc.ID)
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	doc.TargetLanguage = strings.TrimSpace(doc.TargetLanguage)
	if doc.TargetLanguage == "" {
		doc.TargetLanguage = defaultLanguage
	}
	return doc
}
