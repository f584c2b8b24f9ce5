package domain

import (
	"fmt"
	"strings"
)

type FeedbackKind string

const (
	FeedbackLanguage   FeedbackKind = "language"
	FeedbackEvaluation FeedbackKind = "evaluation"
)

// Verification is the fidelity cross-check of a candidate against the
// aggregated analysis.
type Verification struct {
	MatchesAnalysis    bool   `json:"matches_analysis"`
	MissingConcepts    string `json:"missing_concepts,omitempty"`
	Misinterpretations string `json:"misinterpretations,omitempty"`
	ContextAccuracy    string `json:"context_accuracy,omitempty"`
}

// FeedbackRecord summarizes one evaluation pass. Records are values and
// are never modified once appended to a state.
type FeedbackRecord struct {
	Pass            int           `json:"pass"`
	Kind            FeedbackKind  `json:"kind"`
	Grade           Grade         `json:"grade"`
	LanguageCorrect bool          `json:"language_correct"`
	LanguageIssues  string        `json:"language_issues,omitempty"`
	StructuralFit   bool          `json:"structural_fit"`
	FormatIssues    string        `json:"format_issues,omitempty"`
	Rationale       string        `json:"rationale,omitempty"`
	Verification    *Verification `json:"verification,omitempty"`
}

// Entry renders the record the way it is fed back into retry prompts.
func (f FeedbackRecord) Entry() string {
	var b strings.Builder
	if f.Kind == FeedbackLanguage {
		fmt.Fprintf(&b, "Iteration %d - LANGUAGE ERROR\n", f.Pass)
		b.WriteString("In Target Language: False\n")
		fmt.Fprintf(&b, "Language Issues: %s\n", f.LanguageIssues)
		return b.String()
	}

	fmt.Fprintf(&b, "Iteration %d - Grade: %s\n", f.Pass, f.Grade)
	fmt.Fprintf(&b, "In Target Language: %s\n", titleBool(f.LanguageCorrect))
	fmt.Fprintf(&b, "Format Matched: %s\n", titleBool(f.StructuralFit))
	if !f.LanguageCorrect && f.LanguageIssues != "" {
		fmt.Fprintf(&b, "Language Issues: %s\n", f.LanguageIssues)
	}
	if f.FormatIssues != "" {
		fmt.Fprintf(&b, "Format Issues: %s\n", f.FormatIssues)
	}
	fmt.Fprintf(&b, "Content Feedback: %s\n", f.Rationale)
	return b.String()
}

func titleBool(v bool) string {
	if v {
		return "True"
	}
	return "False"
}
