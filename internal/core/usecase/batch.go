package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/ports"
)

const (
	TierBatch      = "batch"
	TierIndividual = "individual"
	TierCommit     = "commit"

	OutcomeAccepted       = "accepted"
	OutcomeForceAccepted  = "forced_accepted"
	OutcomeFailed         = "failed"
	OutcomeRejectedIntake = "rejected"
)

type BatchConfig struct {
	BatchSize int
	// MaxAttempts counts every attempt, the first one included.
	MaxAttempts int
	RetryDelay  time.Duration
}

func DefaultBatchConfig() BatchConfig {
	return BatchConfig{BatchSize: 2, MaxAttempts: 3, RetryDelay: 5 * time.Second}
}

// BatchExecutor runs documents through a translator with tiered recovery:
// whole-batch attempts first, then per-document attempts, then a failure
// record. Batches are processed one after another.
type BatchExecutor struct {
	translator ports.DocumentTranslator
	recorder   *Recorder
	observer   ports.BatchObserver
	cfg        BatchConfig
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error
}

func NewBatchExecutor(
	translator ports.DocumentTranslator,
	recorder *Recorder,
	observer ports.BatchObserver,
	cfg BatchConfig,
	logger *slog.Logger,
) *BatchExecutor {
	def := DefaultBatchConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if observer == nil {
		observer = noopObserver{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &BatchExecutor{
		translator: translator,
		recorder:   recorder,
		observer:   observer,
		cfg:        cfg,
		logger:     logger,
		sleep:      sleepContext,
	}
}

// Run processes docs and returns the tally. Document failures, including
// commits that could not be written, are recorded and never stop the run;
// the only error returned is the context's.
func (e *BatchExecutor) Run(ctx context.Context, docs []domain.Document) (domain.RunSummary, error) {
	var summary domain.RunSummary

	valid := make([]domain.Document, 0, len(docs))
	for _, doc := range docs {
		if err := doc.Validate(); err != nil {
			e.observer.ObserveOutcome(OutcomeRejectedIntake)
			summary.Failed++
			if err := e.reject(ctx, domain.FailureRecord{
				DocumentID:   doc.ID,
				SourceText:   doc.SourceText,
				ErrorSummary: err.Error(),
				Tier:         domain.FailureAtIntake,
			}); err != nil {
				return summary, err
			}
			continue
		}
		valid = append(valid, doc)
	}

	for start := 0; start < len(valid); start += e.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		end := min(start+e.cfg.BatchSize, len(valid))
		summary.Batches++
		if err := e.runBatch(ctx, valid[start:end], &summary); err != nil {
			return summary, err
		}
	}

	e.logger.InfoContext(ctx, "run complete",
		"batches", summary.Batches,
		"accepted", summary.Accepted,
		"forced_accepted", summary.ForcedAccepted,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (e *BatchExecutor) runBatch(ctx context.Context, batch []domain.Document, summary *domain.RunSummary) error {
	var states []*domain.TranslationState
	attempts, err := e.withRetries(ctx, TierBatch, func(ctx context.Context) error {
		out, err := e.translateGroup(ctx, batch)
		if err != nil {
			return err
		}
		states = out
		return nil
	})
	if err == nil {
		if attempts > 1 {
			summary.GroupedRecoveries++
		}
		for _, state := range states {
			if err := e.commit(ctx, state, summary); err != nil {
				return err
			}
		}
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	e.logger.WarnContext(ctx, "batch attempts exhausted, retrying documents individually",
		"batch_size", len(batch),
		"attempts", attempts,
		"error", err,
	)
	for _, doc := range batch {
		var state *domain.TranslationState
		attempts, err := e.withRetries(ctx, TierIndividual, func(ctx context.Context) error {
			out, err := e.translate(ctx, doc)
			if err != nil {
				return err
			}
			state = out
			return nil
		})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			e.observer.ObserveOutcome(OutcomeFailed)
			summary.Failed++
			if err := e.reject(ctx, domain.FailureRecord{
				DocumentID:   doc.ID,
				SourceText:   doc.SourceText,
				ErrorSummary: err.Error(),
				Tier:         domain.FailureIndividually,
				Attempts:     attempts,
			}); err != nil {
				return err
			}
			continue
		}
		summary.IndividualRecoveries++
		if err := e.commit(ctx, state, summary); err != nil {
			return err
		}
	}
	return nil
}

// translateGroup runs every document of the batch concurrently. Any error
// cancels the rest and the partial results are dropped.
func (e *BatchExecutor) translateGroup(ctx context.Context, batch []domain.Document) ([]*domain.TranslationState, error) {
	states := make([]*domain.TranslationState, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	for i, doc := range batch {
		g.Go(func() error {
			state, err := e.translate(gctx, doc)
			if err != nil {
				return err
			}
			states[i] = state
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

func (e *BatchExecutor) translate(ctx context.Context, doc domain.Document) (*domain.TranslationState, error) {
	e.observer.StartDocument()
	start := time.Now()
	state, err := e.translator.Translate(ctx, doc)
	e.observer.FinishDocument(time.Since(start), err)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// withRetries calls fn up to MaxAttempts times with a fixed delay between
// attempts. Invalid input is never retried.
func (e *BatchExecutor) withRetries(ctx context.Context, tier string, fn func(context.Context) error) (int, error) {
	var err error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if attempt > 1 {
			if sleepErr := e.sleep(ctx, e.cfg.RetryDelay); sleepErr != nil {
				return attempt - 1, errors.Join(err, sleepErr)
			}
		}

		err = fn(ctx)
		e.observer.ObserveAttempt(tier, err)
		if err == nil {
			return attempt, nil
		}
		if domain.IsKind(err, domain.ErrInvalidInput) || ctx.Err() != nil {
			return attempt, err
		}
		e.logger.WarnContext(ctx, "attempt failed",
			"tier", tier,
			"attempt", attempt,
			"max_attempts", e.cfg.MaxAttempts,
			"error", err,
		)
	}
	return e.cfg.MaxAttempts, err
}

// commit writes the accepted state under the same fixed-delay policy as
// translation. A commit that still fails becomes a failure record.
func (e *BatchExecutor) commit(ctx context.Context, state *domain.TranslationState, summary *domain.RunSummary) error {
	pending := e.recorder.Prepare(state)
	attempts, err := e.withRetries(ctx, TierCommit, func(ctx context.Context) error {
		return e.recorder.Flush(ctx, pending)
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.logger.ErrorContext(ctx, "commit attempts exhausted",
			"document_id", pending.DocumentID(),
			"attempts", attempts,
			"error", err,
		)
		e.observer.ObserveOutcome(OutcomeFailed)
		summary.Failed++
		return e.reject(ctx, domain.FailureRecord{
			DocumentID:   state.DocumentID,
			SourceText:   state.Source,
			ErrorSummary: err.Error(),
			Tier:         domain.FailureAtCommit,
			Attempts:     attempts,
		})
	}
	if state.ForcedAccept {
		summary.ForcedAccepted++
		e.observer.ObserveOutcome(OutcomeForceAccepted)
	} else {
		e.observer.ObserveOutcome(OutcomeAccepted)
	}
	summary.Accepted++
	return nil
}

// reject records a failure through every sink that accepts it. Sink errors
// are logged; only cancellation is returned.
func (e *BatchExecutor) reject(ctx context.Context, rec domain.FailureRecord) error {
	if err := e.recorder.Reject(ctx, rec); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.logger.ErrorContext(ctx, "failure record not written to every sink",
			"document_id", rec.DocumentID,
			"tier", string(rec.Tier),
			"error", err,
		)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type noopObserver struct{}

func (noopObserver) StartDocument()                      {}
func (noopObserver) FinishDocument(time.Duration, error) {}
func (noopObserver) ObserveAttempt(string, error)        {}
func (noopObserver) ObserveOutcome(string)               {}
