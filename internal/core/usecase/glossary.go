package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/ports"
)

var errGlossaryAlreadyExtracted = errors.New("glossary already extracted")

type GlossaryExtractor struct {
	oracle ports.Oracle
	logger *slog.Logger
}

func NewGlossaryExtractor(oracle ports.Oracle, logger *slog.Logger) *GlossaryExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &GlossaryExtractor{oracle: oracle, logger: logger}
}

// Extract pulls term pairings out of the accepted candidate. It runs at
// most once per state.
func (g *GlossaryExtractor) Extract(ctx context.Context, state *domain.TranslationState) error {
	if state.GlossaryExtracted() {
		return errGlossaryAlreadyExtracted
	}
	candidate, ok := state.Current()
	if !ok {
		return errors.New("glossary extraction without candidate")
	}

	var out glossaryExtraction
	err := requestObject(ctx, g.oracle, domain.OracleRequest{
		Task:   domain.TaskGlossary,
		System: translatorSystem(state.Language),
		Prompt: buildGlossaryPrompt(state, candidate),
		Schema: glossarySchema,
	}, &out)
	if err != nil {
		return err
	}

	entries := make([]domain.GlossaryEntry, 0, len(out.Entries))
	for _, item := range out.Entries {
		term := strings.TrimSpace(item.Term)
		translation := strings.TrimSpace(item.Translation)
		if term == "" || translation == "" {
			continue
		}
		entries = append(entries, domain.GlossaryEntry{
			Term:            term,
			Translation:     translation,
			Context:         strings.TrimSpace(item.Context),
			Category:        strings.TrimSpace(item.Category),
			EntityCategory:  strings.TrimSpace(item.EntityCategory),
			SourceReference: strings.TrimSpace(item.SourceReference),
		})
	}
	state.SetGlossary(entries)
	g.logger.DebugContext(ctx, "glossary extracted",
		"document_id", state.DocumentID,
		"entries", len(entries),
	)
	return nil
}
