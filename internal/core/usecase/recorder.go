package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/ports"
)

// Recorder commits finished workflows. Glossary rows are appended only
// here, after every sink holds the success record, so neither an aborted
// attempt nor a failed sink write leaves rows behind.
type Recorder struct {
	glossary ports.GlossaryStore
	sinks    []ports.ResultSink
	logger   *slog.Logger
	now      func() time.Time
}

func NewRecorder(glossary ports.GlossaryStore, logger *slog.Logger, sinks ...ports.ResultSink) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{
		glossary: glossary,
		sinks:    sinks,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PendingCommit is a success record part-way through being written.
// Flushing it again only retries the writes that have not succeeded.
type PendingCommit struct {
	record   domain.SuccessRecord
	written  []bool
	glossary bool
}

func (p *PendingCommit) DocumentID() string {
	return p.record.DocumentID
}

func (r *Recorder) Prepare(state *domain.TranslationState) *PendingCommit {
	return &PendingCommit{
		record:  state.SuccessRecord(r.now()),
		written: make([]bool, len(r.sinks)),
	}
}

// Flush writes the success record to every sink that does not hold it yet,
// then appends the glossary rows.
func (r *Recorder) Flush(ctx context.Context, p *PendingCommit) error {
	rec := p.record
	for i, sink := range r.sinks {
		if p.written[i] {
			continue
		}
		if err := sink.Accept(ctx, rec); err != nil {
			return fmt.Errorf("record success for %s: %w", rec.DocumentID, err)
		}
		p.written[i] = true
	}
	if !p.glossary && r.glossary != nil && len(rec.GlossaryEntries) > 0 {
		if err := r.glossary.Append(ctx, rec.GlossaryEntries); err != nil {
			return fmt.Errorf("append glossary for %s: %w", rec.DocumentID, err)
		}
	}
	p.glossary = true

	r.logger.InfoContext(ctx, "document accepted",
		"document_id", rec.DocumentID,
		"iterations", rec.Iterations,
		"grade", rec.Grade.String(),
		"forced", rec.ForcedAccept,
		"glossary_entries", len(rec.GlossaryEntries),
	)
	return nil
}

// Reject writes the failure record to every sink, continuing past sinks
// that fail. The joined sink errors are returned.
func (r *Recorder) Reject(ctx context.Context, rec domain.FailureRecord) error {
	if rec.FailedAt.IsZero() {
		rec.FailedAt = r.now()
	}
	var errs []error
	for _, sink := range r.sinks {
		if err := sink.Reject(ctx, rec); err != nil {
			errs = append(errs, fmt.Errorf("record failure for %s: %w", rec.DocumentID, err))
		}
	}
	r.logger.WarnContext(ctx, "document failed",
		"document_id", rec.DocumentID,
		"tier", string(rec.Tier),
		"attempts", rec.Attempts,
		"error", rec.ErrorSummary,
	)
	return errors.Join(errs...)
}
