package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/ports"
)

// PlainMode controls whether the plain rendering is redone on retries.
type PlainMode string

const (
	PlainFrozen     PlainMode = "frozen"
	PlainRegenerate PlainMode = "regenerate"
)

func ParsePlainMode(raw string) (PlainMode, error) {
	switch PlainMode(raw) {
	case "", PlainFrozen:
		return PlainFrozen, nil
	case PlainRegenerate:
		return PlainRegenerate, nil
	default:
		return "", domain.WrapError(domain.ErrInvalidInput, "parse plain mode", fmt.Errorf("unknown plain mode %q", raw))
	}
}

type Generator struct {
	oracle    ports.Oracle
	plainMode PlainMode
	logger    *slog.Logger
}

func NewGenerator(oracle ports.Oracle, plainMode PlainMode, logger *slog.Logger) *Generator {
	if plainMode == "" {
		plainMode = PlainFrozen
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{oracle: oracle, plainMode: plainMode, logger: logger}
}

// Generate appends the next primary candidate. The first pass also
// produces the plain rendering.
func (g *Generator) Generate(ctx context.Context, state *domain.TranslationState) error {
	previous, retry := state.Current()

	primaryReq := domain.OracleRequest{
		Task:   domain.TaskPrimaryTranslation,
		System: translatorSystem(state.Language),
		Prompt: buildPrimaryPrompt(state),
	}
	if retry {
		feedback, ok := state.LatestFeedback()
		if !ok {
			return errors.New("retry generation without feedback")
		}
		primaryReq.Task = domain.TaskRetryTranslation
		primaryReq.Prompt = buildRetryPrompt(state, previous, feedback)
	}
	withPlain := !retry || g.plainMode == PlainRegenerate

	var primary, plain extraction
	eg, egctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		out, err := generateThenExtract(egctx, g.oracle, primaryReq, state.Language)
		if err != nil {
			return err
		}
		primary = out
		return nil
	})
	if withPlain {
		eg.Go(func() error {
			out, err := generateThenExtract(egctx, g.oracle, domain.OracleRequest{
				Task:   domain.TaskPlainTranslation,
				System: translatorSystem(state.Language),
				Prompt: buildPlainPrompt(state),
			}, state.Language)
			if err != nil {
				return err
			}
			plain = out
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	state.AppendCandidate(domain.Candidate{
		Text:              primary.Translation,
		ExtractedInTarget: primary.InTargetLanguage,
	})
	if withPlain {
		state.Plain = plain.Translation
	}
	g.logger.DebugContext(ctx, "candidate generated",
		"document_id", state.DocumentID,
		"iteration", state.Iteration(),
		"plain_regenerated", withPlain,
	)
	return nil
}
