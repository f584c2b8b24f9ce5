package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/ports"
)

type WorkflowConfig struct {
	Policy    AcceptancePolicy
	PlainMode PlainMode
}

// Workflow drives one document through the translation stages. A Workflow
// holds no per-document state and can translate documents concurrently.
type Workflow struct {
	commentary *CommentaryTranslator
	generator  *Generator
	evaluator  *Evaluator
	glossary   *GlossaryExtractor
	policy     AcceptancePolicy
	logger     *slog.Logger
}

func NewWorkflow(oracle ports.Oracle, cfg WorkflowConfig, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	policy := cfg.Policy
	if policy.AcceptGrade == domain.GradeUnknown {
		policy.AcceptGrade = domain.GradeGreat
	}
	if policy.MaxIterations < 0 {
		policy.MaxIterations = 0
	}
	return &Workflow{
		commentary: NewCommentaryTranslator(oracle, logger),
		generator:  NewGenerator(oracle, cfg.PlainMode, logger),
		evaluator:  NewEvaluator(oracle, logger),
		glossary:   NewGlossaryExtractor(oracle, logger),
		policy:     policy,
		logger:     logger,
	}
}

type stageFunc func(ctx context.Context, state *domain.TranslationState) (domain.Stage, error)

// transitions builds the stage table for one run.
func (w *Workflow) transitions() map[domain.Stage]stageFunc {
	return map[domain.Stage]stageFunc{
		domain.StageInit: func(context.Context, *domain.TranslationState) (domain.Stage, error) {
			return domain.StageCommentaryFanOut, nil
		},
		domain.StageCommentaryFanOut: func(ctx context.Context, state *domain.TranslationState) (domain.Stage, error) {
			return domain.StageAggregating, w.commentary.FanOut(ctx, state)
		},
		domain.StageAggregating: func(ctx context.Context, state *domain.TranslationState) (domain.Stage, error) {
			return domain.StageGenerating, w.commentary.Aggregate(ctx, state)
		},
		domain.StageGenerating: func(ctx context.Context, state *domain.TranslationState) (domain.Stage, error) {
			return domain.StageEvaluating, w.generator.Generate(ctx, state)
		},
		domain.StageEvaluating: w.evaluate,
		domain.StageRetry:      w.retry,
		domain.StageAccepted: func(context.Context, *domain.TranslationState) (domain.Stage, error) {
			return domain.StageGlossaryExtraction, nil
		},
		domain.StageGlossaryExtraction: func(ctx context.Context, state *domain.TranslationState) (domain.Stage, error) {
			return domain.StageDone, w.glossary.Extract(ctx, state)
		},
	}
}

// Translate runs the document to completion. Quality failures are
// resolved by the retry loop; oracle errors are returned to the caller.
func (w *Workflow) Translate(ctx context.Context, doc domain.Document) (*domain.TranslationState, error) {
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	state := domain.NewTranslationState(doc, w.policy.MaxIterations)
	table := w.transitions()
	for state.Stage != domain.StageDone {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		step, ok := table[state.Stage]
		if !ok {
			return nil, fmt.Errorf("no transition from stage %q", state.Stage)
		}
		next, err := step(ctx, state)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", state.Stage, err)
		}
		w.logger.DebugContext(ctx, "stage transition",
			"document_id", state.DocumentID,
			"from", string(state.Stage),
			"to", string(next),
			"iteration", state.Iteration(),
		)
		state.Stage = next
	}
	return state, nil
}

func (w *Workflow) evaluate(ctx context.Context, state *domain.TranslationState) (domain.Stage, error) {
	verdict, err := w.evaluator.Evaluate(ctx, state)
	if err != nil {
		return "", err
	}

	policy := w.policy
	policy.MaxIterations = state.MaxIterations
	switch Route(verdict, state.Iteration(), policy) {
	case DecisionAccept:
		return domain.StageAccepted, nil
	case DecisionForceAccept:
		state.ForcedAccept = true
		w.logger.InfoContext(ctx, "iteration cap reached, accepting latest candidate",
			"document_id", state.DocumentID,
			"iteration", state.Iteration(),
			"grade", verdict.Grade.String(),
		)
		return domain.StageAccepted, nil
	default:
		return domain.StageRetry, nil
	}
}

func (w *Workflow) retry(ctx context.Context, state *domain.TranslationState) (domain.Stage, error) {
	w.logger.InfoContext(ctx, "retrying translation",
		"document_id", state.DocumentID,
		"iteration", state.Iteration(),
		"grade", state.Grade.String(),
		"structural_fit", state.StructuralFit,
		"language_correct", state.LanguageCorrect,
	)
	return domain.StageGenerating, nil
}
