package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/ports"
)

// AcceptancePolicy holds the routing thresholds.
type AcceptancePolicy struct {
	MaxIterations int
	AcceptGrade   domain.Grade
}

func DefaultAcceptancePolicy() AcceptancePolicy {
	return AcceptancePolicy{MaxIterations: 3, AcceptGrade: domain.GradeGreat}
}

// Verdict is the outcome of one evaluation pass.
type Verdict struct {
	Grade           domain.Grade
	StructuralFit   bool
	LanguageCorrect bool
}

type Decision string

const (
	DecisionAccept      Decision = "accept"
	DecisionForceAccept Decision = "force_accept"
	DecisionRetry       Decision = "retry"
)

// Route maps a verdict to the next workflow step. It is pure: the same
// inputs always give the same decision.
func Route(v Verdict, iteration int, policy AcceptancePolicy) Decision {
	if v.Grade.AtLeast(policy.AcceptGrade) && v.StructuralFit && v.LanguageCorrect {
		return DecisionAccept
	}
	if iteration >= policy.MaxIterations {
		return DecisionForceAccept
	}
	return DecisionRetry
}

type Evaluator struct {
	oracle ports.Oracle
	logger *slog.Logger
}

func NewEvaluator(oracle ports.Oracle, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{oracle: oracle, logger: logger}
}

// Evaluate grades the latest candidate and appends exactly one feedback
// record. A failed language check ends the pass early.
func (e *Evaluator) Evaluate(ctx context.Context, state *domain.TranslationState) (Verdict, error) {
	candidate, ok := state.Current()
	if !ok {
		return Verdict{}, errors.New("evaluate without candidate")
	}
	pass := state.Iteration()

	// Extraction already judged the span; a negative answer there settles
	// the language gate without another call.
	var lang languageCheck
	if candidate.ExtractedInTarget {
		err := requestObject(ctx, e.oracle, domain.OracleRequest{
			Task:   domain.TaskLanguageCheck,
			Prompt: buildLanguageCheckPrompt(candidate.Text, state.Language),
			Schema: languageCheckSchema,
		}, &lang)
		if err != nil {
			return Verdict{}, err
		}
	} else {
		lang.LanguageIssues = fmt.Sprintf("extracted translation is not written in %s", state.Language)
	}
	if !lang.IsTargetLanguage {
		record := domain.FeedbackRecord{
			Pass:           pass,
			Kind:           domain.FeedbackLanguage,
			Grade:          domain.GradeBad,
			LanguageIssues: lang.LanguageIssues,
		}
		e.logger.InfoContext(ctx, "language check failed",
			"document_id", state.DocumentID,
			"iteration", pass,
			"language", state.Language,
		)
		return e.record(state, record), nil
	}

	var check verification
	err := requestObject(ctx, e.oracle, domain.OracleRequest{
		Task:   domain.TaskVerification,
		System: translatorSystem(state.Language),
		Prompt: buildVerificationPrompt(state, candidate),
		Schema: verificationSchema,
	}, &check)
	if err != nil {
		return Verdict{}, err
	}

	var eval evaluation
	err = requestObject(ctx, e.oracle, domain.OracleRequest{
		Task:   domain.TaskEvaluation,
		System: translatorSystem(state.Language),
		Prompt: buildEvaluationPrompt(state, candidate, check),
		Schema: evaluationSchema,
	}, &eval)
	if err != nil {
		return Verdict{}, err
	}
	// An unrecognised grade is an unparseable response, not bad input.
	grade, ok := domain.LookupGrade(eval.Grade)
	if !ok {
		return Verdict{}, domain.WrapError(domain.ErrTemporary, string(domain.TaskEvaluation),
			fmt.Errorf("unknown grade %q", eval.Grade))
	}

	record := domain.FeedbackRecord{
		Pass:            pass,
		Kind:            domain.FeedbackEvaluation,
		Grade:           grade,
		LanguageCorrect: eval.IsTargetLanguage,
		LanguageIssues:  eval.LanguageIssues,
		StructuralFit:   eval.FormatMatched,
		FormatIssues:    eval.FormatIssues,
		Rationale:       eval.Feedback,
		Verification: &domain.Verification{
			MatchesAnalysis:    check.MatchesAnalysis,
			MissingConcepts:    check.MissingConcepts,
			Misinterpretations: check.Misinterpretations,
			ContextAccuracy:    check.ContextAccuracy,
		},
	}
	e.logger.InfoContext(ctx, "candidate evaluated",
		"document_id", state.DocumentID,
		"iteration", pass,
		"grade", grade.String(),
		"structural_fit", eval.FormatMatched,
	)
	return e.record(state, record), nil
}

func (e *Evaluator) record(state *domain.TranslationState, record domain.FeedbackRecord) Verdict {
	state.AppendFeedback(record)
	state.Grade = record.Grade
	state.StructuralFit = record.StructuralFit
	state.LanguageCorrect = record.LanguageCorrect
	return Verdict{
		Grade:           record.Grade,
		StructuralFit:   record.StructuralFit,
		LanguageCorrect: record.LanguageCorrect,
	}
}
