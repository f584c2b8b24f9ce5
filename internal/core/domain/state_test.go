package domain

import (
	"strings"
	"testing"
	"time"
)

func TestNewTranslationStatePrefersDocumentIterationCap(t *testing.T) {
	state := NewTranslationState(Document{ID: "d1", SourceText: "src", TargetLanguage: "English", MaxIterations: 5}, 3)
	if state.MaxIterations != 5 {
		t.Fatalf("expected document cap 5, got %d", state.MaxIterations)
	}

	state = NewTranslationState(Document{ID: "d2", SourceText: "src", TargetLanguage: "English"}, 3)
	if state.MaxIterations != 3 {
		t.Fatalf("expected configured cap 3, got %d", state.MaxIterations)
	}
}

func TestIterationTracksCandidateLog(t *testing.T) {
	state := NewTranslationState(Document{ID: "d1", SourceText: "src", TargetLanguage: "English"}, 3)
	for i := 0; i < 3; i++ {
		state.AppendCandidate(Candidate{Text: "c"})
		if got := len(state.Candidates()); got != state.Iteration()+1 {
			t.Fatalf("candidates=%d iteration=%d", got, state.Iteration())
		}
	}
	if state.Iteration() != 2 {
		t.Fatalf("expected iteration 2, got %d", state.Iteration())
	}
}

func TestCandidatesReturnsCopy(t *testing.T) {
	state := NewTranslationState(Document{ID: "d1", SourceText: "src", TargetLanguage: "English"}, 3)
	state.AppendCandidate(Candidate{Text: "first"})

	got := state.Candidates()
	got[0].Text = "mutated"

	current, _ := state.Current()
	if current.Text != "first" {
		t.Fatalf("candidate log mutated through accessor: %q", current.Text)
	}
}

func TestSetGlossaryOnlyOnce(t *testing.T) {
	state := NewTranslationState(Document{ID: "d1", SourceText: "src", TargetLanguage: "English"}, 3)
	if !state.SetGlossary([]GlossaryEntry{{Term: "a", Translation: "b"}}) {
		t.Fatalf("first SetGlossary should succeed")
	}
	if state.SetGlossary(nil) {
		t.Fatalf("second SetGlossary should be rejected")
	}
	if len(state.Glossary) != 1 || state.Glossary[0].DocumentID != "d1" {
		t.Fatalf("unexpected glossary: %+v", state.Glossary)
	}
}

func TestSuccessRecordKeepsLatestCandidate(t *testing.T) {
	state := NewTranslationState(Document{ID: "d1", SourceText: "src", TargetLanguage: "English"}, 3)
	state.AppendCandidate(Candidate{Text: "first"})
	state.AppendCandidate(Candidate{Text: "second"})
	state.AppendFeedback(FeedbackRecord{Pass: 0, Kind: FeedbackEvaluation, Grade: GradeOkay})

	rec := state.SuccessRecord(time.Unix(0, 0))
	if rec.Translation != "second" {
		t.Fatalf("expected latest candidate, got %q", rec.Translation)
	}
	if len(rec.Candidates) != 2 || rec.Iterations != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if len(rec.FeedbackHistory) != 1 {
		t.Fatalf("expected one feedback entry, got %d", len(rec.FeedbackHistory))
	}
}

func TestParseGrade(t *testing.T) {
	cases := map[string]Grade{"bad": GradeBad, " Okay ": GradeOkay, "GOOD": GradeGood, "great": GradeGreat}
	for raw, want := range cases {
		got, err := ParseGrade(raw)
		if err != nil {
			t.Fatalf("ParseGrade(%q) error = %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseGrade(%q) = %v, want %v", raw, got, want)
		}
	}
	if _, err := ParseGrade("excellent"); !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, ok := LookupGrade("unknown"); ok {
		t.Fatalf("unknown must not be a valid grade name")
	}
	if !GradeGreat.AtLeast(GradeGood) || GradeOkay.AtLeast(GradeGood) {
		t.Fatalf("grade ordering broken")
	}
}

func TestFeedbackEntryFormats(t *testing.T) {
	lang := FeedbackRecord{Pass: 2, Kind: FeedbackLanguage, LanguageIssues: "text is English"}.Entry()
	if !strings.HasPrefix(lang, "Iteration 2 - LANGUAGE ERROR") || !strings.Contains(lang, "text is English") {
		t.Fatalf("unexpected language entry: %q", lang)
	}

	full := FeedbackRecord{
		Pass:            0,
		Kind:            FeedbackEvaluation,
		Grade:           GradeGood,
		LanguageCorrect: true,
		FormatIssues:    "line 3 merged",
		Rationale:       "close",
	}.Entry()
	for _, want := range []string{"Iteration 0 - Grade: good", "Format Matched: False", "Format Issues: line 3 merged", "Content Feedback: close"} {
		if !strings.Contains(full, want) {
			t.Fatalf("entry %q missing %q", full, want)
		}
	}
}

func TestDocumentValidate(t *testing.T) {
	if err := (Document{ID: "d1", SourceText: "src", TargetLanguage: "English"}).Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	err := (Document{ID: "d1", SourceText: "  ", MaxIterations: -1}).Validate()
	if !IsKind(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	for _, want := range []string{"source_text", "target_language", "max_iterations"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err, want)
		}
	}
}
