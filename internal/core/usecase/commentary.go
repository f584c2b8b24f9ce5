package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/ports"
)

// CommentaryTranslator translates the optional commentaries of a document
// and folds them into the analysis the generator works from.
type CommentaryTranslator struct {
	oracle ports.Oracle
	logger *slog.Logger
}

func NewCommentaryTranslator(oracle ports.Oracle, logger *slog.Logger) *CommentaryTranslator {
	if logger == nil {
		logger = slog.Default()
	}
	return &CommentaryTranslator{oracle: oracle, logger: logger}
}

// FanOut launches one task per non-empty commentary slot and waits for all
// of them. The first failure cancels the remaining tasks and is returned.
func (c *CommentaryTranslator) FanOut(ctx context.Context, state *domain.TranslationState) error {
	var translations [domain.CommentarySlots]string

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(domain.CommentarySlots)
	launched := 0
	for i, slot := range state.Commentaries {
		if slot.Empty() {
			continue
		}
		state.Commentaries[i].Launched = true
		launched++

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := generateThenExtract(gctx, c.oracle, domain.OracleRequest{
				Task:   domain.TaskCommentaryTranslation,
				System: translatorSystem(state.Language),
				Prompt: buildCommentaryPrompt(state, slot.Text),
			}, state.Language)
			if err != nil {
				return fmt.Errorf("commentary %d: %w", slot.Index, err)
			}
			translations[i] = out.Translation
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for i := range state.Commentaries {
		if state.Commentaries[i].Launched {
			state.Commentaries[i].Translation = translations[i]
		}
	}
	c.logger.DebugContext(ctx, "commentary fan-out complete",
		"document_id", state.DocumentID,
		"launched", launched,
	)
	return nil
}

// Aggregate produces the analysis text. Translated commentaries are merged
// by one oracle call; with none, a zero-shot analysis is requested instead.
func (c *CommentaryTranslator) Aggregate(ctx context.Context, state *domain.TranslationState) error {
	translated := state.TranslatedCommentaries()

	req := domain.OracleRequest{
		Task:   domain.TaskAggregation,
		System: translatorSystem(state.Language),
		Prompt: buildAggregationPrompt(state, translated),
	}
	source := domain.AnalysisFromCommentary
	if len(translated) == 0 {
		req.Task = domain.TaskZeroShotAnalysis
		req.Prompt = buildZeroShotPrompt(state)
		source = domain.AnalysisZeroShot
	}

	analysis, err := generateText(ctx, c.oracle, req)
	if err != nil {
		return domain.WrapError(domain.ErrGeneration, string(req.Task), err)
	}

	state.Analysis = analysis
	state.AnalysisSource = source
	c.logger.DebugContext(ctx, "analysis ready",
		"document_id", state.DocumentID,
		"analysis_source", string(source),
		"commentaries", len(translated),
	)
	return nil
}
