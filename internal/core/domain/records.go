package domain

import "time"

// SuccessRecord is the committed output of an accepted document.
type SuccessRecord struct {
	DocumentID             string           `json:"document_id"`
	SourceText             string           `json:"source_text"`
	TargetLanguage         string           `json:"target_language"`
	Translation            string           `json:"translation"`
	Candidates             []string         `json:"candidates"`
	PlainTranslation       string           `json:"plain_translation"`
	AggregatedAnalysis     string           `json:"aggregated_analysis"`
	AnalysisSource         AnalysisSource   `json:"analysis_source"`
	CommentaryTranslations []string         `json:"commentary_translations,omitempty"`
	FeedbackHistory        []string         `json:"feedback_history"`
	Evaluations            []FeedbackRecord `json:"evaluations"`
	GlossaryEntries        []GlossaryEntry  `json:"glossary_entries"`
	Grade                  Grade            `json:"grade"`
	StructuralFit          bool             `json:"structural_fit"`
	LanguageCorrect        bool             `json:"language_correct"`
	ForcedAccept           bool             `json:"forced_accept"`
	Iterations             int              `json:"iterations"`
	CompletedAt            time.Time        `json:"completed_at"`
}

type FailureTier string

const (
	FailureAtIntake     FailureTier = "intake"
	FailureIndividually FailureTier = "individual"
	FailureAtCommit     FailureTier = "commit"
)

// FailureRecord marks a document that exhausted every recovery tier, was
// rejected at intake, or could not be committed.
type FailureRecord struct {
	DocumentID   string      `json:"document_id"`
	SourceText   string      `json:"source_text,omitempty"`
	ErrorSummary string      `json:"error_summary"`
	Tier         FailureTier `json:"tier"`
	Attempts     int         `json:"attempts"`
	FailedAt     time.Time   `json:"failed_at"`
}

// ResultStatus is the read-model status of a persisted document result.
type ResultStatus string

const (
	ResultAccepted ResultStatus = "accepted"
	ResultFailed   ResultStatus = "failed"
)

// DocumentResult is the read model served for a single document.
type DocumentResult struct {
	DocumentID string         `json:"document_id"`
	Status     ResultStatus   `json:"status"`
	Success    *SuccessRecord `json:"success,omitempty"`
	Failure    *FailureRecord `json:"failure,omitempty"`
}

// BatchSubmission is a group of documents queued for asynchronous execution.
type BatchSubmission struct {
	ID          string     `json:"id"`
	Documents   []Document `json:"documents"`
	SubmittedAt time.Time  `json:"submitted_at"`
}

// RunSummary tallies one executor run.
type RunSummary struct {
	Batches              int `json:"batches"`
	Accepted             int `json:"accepted"`
	ForcedAccepted       int `json:"forced_accepted"`
	Failed               int `json:"failed"`
	GroupedRecoveries    int `json:"grouped_recoveries"`
	IndividualRecoveries int `json:"individual_recoveries"`
}
