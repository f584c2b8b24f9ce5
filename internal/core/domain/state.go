package domain

import (
	"strings"
	"time"
)

type Stage string

const (
	StageInit               Stage = "init"
	StageCommentaryFanOut   Stage = "commentary_fan_out"
	StageAggregating        Stage = "aggregating"
	StageGenerating         Stage = "generating"
	StageEvaluating         Stage = "evaluating"
	StageRetry              Stage = "retry"
	StageAccepted           Stage = "accepted"
	StageGlossaryExtraction Stage = "glossary_extraction"
	StageDone               Stage = "done"
)

// AnalysisSource records which branch produced the aggregated analysis.
type AnalysisSource string

const (
	AnalysisFromCommentary AnalysisSource = "commentary"
	AnalysisZeroShot       AnalysisSource = "zero_shot"
)

// CommentarySlot holds one optional commentary input. An empty slot is
// valid and never gets a translation task.
type CommentarySlot struct {
	Index       int    `json:"index"`
	Text        string `json:"text,omitempty"`
	Translation string `json:"translation,omitempty"`
	Launched    bool   `json:"launched"`
}

func (s CommentarySlot) Empty() bool {
	return strings.TrimSpace(s.Text) == ""
}

type Candidate struct {
	Text string `json:"text"`
	// ExtractedInTarget is the extraction step's own judgment of the span.
	// When false the language gate fails without a separate check.
	ExtractedInTarget bool `json:"extracted_in_target"`
}

// TranslationState is the mutable record of one document's workflow run.
// It is owned by a single workflow and is not safe for concurrent use.
type TranslationState struct {
	DocumentID    string
	Source        string
	Reference     string
	Language      string
	MaxIterations int

	Commentaries [CommentarySlots]CommentarySlot

	Analysis       string
	AnalysisSource AnalysisSource
	Plain          string

	Grade           Grade
	StructuralFit   bool
	LanguageCorrect bool
	ForcedAccept    bool
	Stage           Stage

	Glossary          []GlossaryEntry
	glossaryExtracted bool

	candidates []Candidate
	feedback   []FeedbackRecord
}

func NewTranslationState(doc Document, maxIterations int) *TranslationState {
	if doc.MaxIterations > 0 {
		maxIterations = doc.MaxIterations
	}
	state := &TranslationState{
		DocumentID:    doc.ID,
		Source:        doc.SourceText,
		Reference:     doc.ReferenceText,
		Language:      doc.TargetLanguage,
		MaxIterations: maxIterations,
		Stage:         StageInit,
	}
	for i, text := range doc.Commentaries() {
		state.Commentaries[i] = CommentarySlot{Index: i + 1, Text: text}
	}
	return state
}

// Iteration is derived from the candidate log, so the log always holds
// Iteration()+1 entries once generation has run.
func (s *TranslationState) Iteration() int {
	if len(s.candidates) == 0 {
		return 0
	}
	return len(s.candidates) - 1
}

func (s *TranslationState) AppendCandidate(c Candidate) {
	s.candidates = append(s.candidates, c)
}

func (s *TranslationState) Candidates() []Candidate {
	out := make([]Candidate, len(s.candidates))
	copy(out, s.candidates)
	return out
}

func (s *TranslationState) Current() (Candidate, bool) {
	if len(s.candidates) == 0 {
		return Candidate{}, false
	}
	return s.candidates[len(s.candidates)-1], true
}

func (s *TranslationState) AppendFeedback(f FeedbackRecord) {
	s.feedback = append(s.feedback, f)
}

func (s *TranslationState) Feedback() []FeedbackRecord {
	out := make([]FeedbackRecord, len(s.feedback))
	copy(out, s.feedback)
	return out
}

func (s *TranslationState) LatestFeedback() (FeedbackRecord, bool) {
	if len(s.feedback) == 0 {
		return FeedbackRecord{}, false
	}
	return s.feedback[len(s.feedback)-1], true
}

func (s *TranslationState) FeedbackEntries() []string {
	out := make([]string, 0, len(s.feedback))
	for _, f := range s.feedback {
		out = append(out, f.Entry())
	}
	return out
}

func (s *TranslationState) TranslatedCommentaries() []CommentarySlot {
	var out []CommentarySlot
	for _, slot := range s.Commentaries {
		if slot.Launched && strings.TrimSpace(slot.Translation) != "" {
			out = append(out, slot)
		}
	}
	return out
}

// SetGlossary stores the extraction result. It returns false when the
// glossary was already extracted for this state.
func (s *TranslationState) SetGlossary(entries []GlossaryEntry) bool {
	if s.glossaryExtracted {
		return false
	}
	s.glossaryExtracted = true
	s.Glossary = make([]GlossaryEntry, 0, len(entries))
	for _, e := range entries {
		e.DocumentID = s.DocumentID
		s.Glossary = append(s.Glossary, e)
	}
	return true
}

func (s *TranslationState) GlossaryExtracted() bool {
	return s.glossaryExtracted
}

func (s *TranslationState) SuccessRecord(now time.Time) SuccessRecord {
	candidates := make([]string, 0, len(s.candidates))
	for _, c := range s.candidates {
		candidates = append(candidates, c.Text)
	}
	current, _ := s.Current()

	var commentaries []string
	for _, slot := range s.TranslatedCommentaries() {
		commentaries = append(commentaries, slot.Translation)
	}

	glossary := make([]GlossaryEntry, len(s.Glossary))
	copy(glossary, s.Glossary)

	return SuccessRecord{
		DocumentID:             s.DocumentID,
		SourceText:             s.Source,
		TargetLanguage:         s.Language,
		Translation:            current.Text,
		Candidates:             candidates,
		PlainTranslation:       s.Plain,
		AggregatedAnalysis:     s.Analysis,
		AnalysisSource:         s.AnalysisSource,
		CommentaryTranslations: commentaries,
		FeedbackHistory:        s.FeedbackEntries(),
		Evaluations:            s.Feedback(),
		GlossaryEntries:        glossary,
		Grade:                  s.Grade,
		StructuralFit:          s.StructuralFit,
		LanguageCorrect:        s.LanguageCorrect,
		ForcedAccept:           s.ForcedAccept,
		Iterations:             s.Iteration(),
		CompletedAt:            now,
	}
}
