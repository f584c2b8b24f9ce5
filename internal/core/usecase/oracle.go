package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/ports"
)

var (
	errEmptyResponse = errors.New("empty oracle response")
	fencedJSON       = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)\\n?```")
)

// generateText issues a free-text call and rejects empty output.
func generateText(ctx context.Context, oracle ports.Oracle, req domain.OracleRequest) (string, error) {
	resp, err := oracle.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", domain.WrapError(domain.ErrTemporary, string(req.Task), errEmptyResponse)
	}
	return text, nil
}

// requestObject issues a structured call and decodes the result into out.
// Output that cannot be decoded is treated as transient.
func requestObject(ctx context.Context, oracle ports.Oracle, req domain.OracleRequest, out any) error {
	resp, err := oracle.Generate(ctx, req)
	if err != nil {
		return err
	}
	if err := decodeStructured(resp, out); err != nil {
		return domain.WrapError(domain.ErrTemporary, string(req.Task), fmt.Errorf("parse structured output: %w", err))
	}
	return nil
}

func decodeStructured(resp domain.OracleResponse, out any) error {
	if len(resp.Object) > 0 {
		return resp.Decode(out)
	}
	raw := strings.TrimSpace(resp.Text)
	if raw == "" {
		return domain.ErrNoStructuredOutput
	}
	if err := json.Unmarshal([]byte(raw), out); err == nil {
		return nil
	}
	if m := fencedJSON.FindStringSubmatch(raw); len(m) > 1 {
		return json.Unmarshal([]byte(strings.TrimSpace(m[1])), out)
	}
	return fmt.Errorf("no JSON object in response")
}

// generateThenExtract runs a free-form generation and then a
// schema-constrained extraction of the clean translation out of it.
// Failures carry ErrGeneration or ErrExtraction depending on the half
// that failed.
func generateThenExtract(
	ctx context.Context,
	oracle ports.Oracle,
	gen domain.OracleRequest,
	language string,
) (extraction, error) {
	raw, err := generateText(ctx, oracle, gen)
	if err != nil {
		return extraction{}, domain.WrapError(domain.ErrGeneration, string(gen.Task), err)
	}

	var out extraction
	err = requestObject(ctx, oracle, domain.OracleRequest{
		Task:   extractTaskFor(gen.Task),
		System: translatorSystem(language),
		Prompt: buildExtractionPrompt(raw, language),
		Schema: extractionSchema,
	}, &out)
	if err != nil {
		return extraction{}, domain.WrapError(domain.ErrExtraction, string(gen.Task), err)
	}
	out.Translation = strings.TrimSpace(out.Translation)
	if out.Translation == "" {
		return extraction{}, domain.WrapError(
			domain.ErrExtraction,
			string(gen.Task),
			domain.WrapError(domain.ErrTemporary, "extract", errors.New("extracted translation is empty")),
		)
	}
	return out, nil
}

func extractTaskFor(task domain.OracleTask) domain.OracleTask {
	if task == domain.TaskCommentaryTranslation {
		return domain.TaskCommentaryExtraction
	}
	return domain.TaskTranslationExtraction
}
