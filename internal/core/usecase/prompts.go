package usecase

import (
	"fmt"
	"strings"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
)

func translatorSystem(language string) string {
	return fmt.Sprintf("You are an expert translator of classical Tibetan Buddhist texts into %s. Write only in %s.", language, language)
}

func optionalBlock(title, body string) string {
	if strings.TrimSpace(body) == "" {
		return ""
	}
	return fmt.Sprintf("%s:\n%s\n\n", title, body)
}

func buildCommentaryPrompt(state *domain.TranslationState, commentary string) string {
	return fmt.Sprintf(`Translate this commentary into %s.
Keep technical terms precise and explain nothing beyond what the commentary says.

Source text:
%s

%sCommentary:
%s
`, state.Language, state.Source, optionalBlock("Reference text", state.Reference), commentary)
}

func buildExtractionPrompt(raw, language string) string {
	return fmt.Sprintf(`Extract the %s translation from the response below.
Return only the translated text itself, dropping notes, headings and explanations,
and report whether that text is written in %s.

Response:
%s`, language, language, raw)
}

func buildAggregationPrompt(state *domain.TranslationState, slots []domain.CommentarySlot) string {
	var b strings.Builder
	for _, slot := range slots {
		fmt.Fprintf(&b, "Commentary %d:\n%s\n\n", slot.Index, slot.Translation)
	}
	return fmt.Sprintf(`Combine the commentaries below into one scholarly analysis of the source text, in %s.
Preserve every distinct interpretation and note where they disagree.

Source text:
%s

%s`, state.Language, state.Source, b.String())
}

func buildZeroShotPrompt(state *domain.TranslationState) string {
	return fmt.Sprintf(`No commentary is available for the source text below.
Write a self-contained linguistic and doctrinal analysis of it in %s: key terms,
grammatical structure, and the meaning of each line.

Source text:
%s

%s`, state.Language, state.Source, optionalBlock("Reference text", state.Reference))
}

func buildPrimaryPrompt(state *domain.TranslationState) string {
	return fmt.Sprintf(`Translate the source text into %s.
Preserve the line structure exactly: the source has %d non-empty lines and the translation must too.

Source text:
%s

%sAnalysis:
%s
`, state.Language, countLines(state.Source), state.Source, optionalBlock("Reference text", state.Reference), state.Analysis)
}

func buildPlainPrompt(state *domain.TranslationState) string {
	return fmt.Sprintf(`Write a plain, accessible %s rendering of the source text for a general reader.
Line structure does not need to be preserved.

Source text:
%s

Analysis:
%s
`, state.Language, state.Source, state.Analysis)
}

func buildRetryPrompt(state *domain.TranslationState, previous domain.Candidate, feedback domain.FeedbackRecord) string {
	return fmt.Sprintf(`Revise the %s translation below using the feedback.
The source has %d non-empty lines and the translation must too.

Source text:
%s

Previous translation:
%s

Feedback:
%s
Analysis:
%s
`, state.Language, countLines(state.Source), state.Source, previous.Text, feedback.Entry(), state.Analysis)
}

func buildLanguageCheckPrompt(text, language string) string {
	return fmt.Sprintf(`Is the text below written in %s?
This check is only about the language used, not about translation quality.

Text:
%s
`, language, text)
}

func buildVerificationPrompt(state *domain.TranslationState, candidate domain.Candidate) string {
	return fmt.Sprintf(`Verify the %s translation against the analysis. Answer in %s.

Translation:
%s

Analysis:
%s
`, state.Language, state.Language, candidate.Text, state.Analysis)
}

func buildEvaluationPrompt(state *domain.TranslationState, candidate domain.Candidate, check verification) string {
	previous := strings.Join(state.FeedbackEntries(), "\n")
	if previous == "" {
		previous = "No prior feedback."
	}
	return fmt.Sprintf(`Evaluate this %s translation for content accuracy, structure and fluency.
Grade it bad, okay, good or great.
The source has %d non-empty lines; the structure matches only if the translation has the same count.

Source text:
%s

Translation:
%s

Analysis:
%s

Verification:
matches analysis: %t
missing concepts: %s
misinterpretations: %s
context accuracy: %s

Previous feedback:
%s
`, state.Language, countLines(state.Source), state.Source, candidate.Text, state.Analysis,
		check.MatchesAnalysis, check.MissingConcepts, check.Misinterpretations, check.ContextAccuracy, previous)
}

func buildGlossaryPrompt(state *domain.TranslationState, candidate domain.Candidate) string {
	return fmt.Sprintf(`List the technical terms, names and doctrinal concepts of the source text
together with the %s rendering used in the translation. Return an empty list if there are none.

Source text:
%s

Translation:
%s

Analysis:
%s
`, state.Language, state.Source, candidate.Text, state.Analysis)
}

func countLines(text string) int {
	n := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			n++
		}
	}
	return n
}
