package usecase

import "github.com/OpenPecha/translation-workflow/internal/core/domain"

func stringField(description string) *domain.Schema {
	return &domain.Schema{Type: domain.SchemaString, Description: description}
}

func boolField(description string) *domain.Schema {
	return &domain.Schema{Type: domain.SchemaBoolean, Description: description}
}

type extraction struct {
	Translation      string `json:"translation"`
	InTargetLanguage bool   `json:"in_target_language"`
}

var extractionSchema = &domain.Schema{
	Type: domain.SchemaObject,
	Properties: map[string]*domain.Schema{
		"translation":        stringField("The clean translated text, without commentary or notes."),
		"in_target_language": boolField("Whether the extracted text is written in the target language."),
	},
	Order:    []string{"translation", "in_target_language"},
	Required: []string{"translation", "in_target_language"},
}

type languageCheck struct {
	IsTargetLanguage bool   `json:"is_target_language"`
	LanguageIssues   string `json:"language_issues"`
}

var languageCheckSchema = &domain.Schema{
	Type: domain.SchemaObject,
	Properties: map[string]*domain.Schema{
		"is_target_language": boolField("Whether the text is primarily written in the target language."),
		"language_issues":    stringField("Which language the text appears to be in and what is wrong, if anything."),
	},
	Order:    []string{"is_target_language", "language_issues"},
	Required: []string{"is_target_language", "language_issues"},
}

type verification struct {
	MatchesAnalysis    bool   `json:"matches_analysis"`
	MissingConcepts    string `json:"missing_concepts"`
	Misinterpretations string `json:"misinterpretations"`
	ContextAccuracy    string `json:"context_accuracy"`
}

var verificationSchema = &domain.Schema{
	Type: domain.SchemaObject,
	Properties: map[string]*domain.Schema{
		"matches_analysis":   boolField("Whether the translation agrees with the analysis."),
		"missing_concepts":   stringField("Concepts from the analysis absent in the translation."),
		"misinterpretations": stringField("Places where the translation contradicts the analysis."),
		"context_accuracy":   stringField("Assessment of contextual accuracy."),
	},
	Order:    []string{"matches_analysis", "missing_concepts", "misinterpretations", "context_accuracy"},
	Required: []string{"matches_analysis", "missing_concepts", "misinterpretations", "context_accuracy"},
}

type evaluation struct {
	IsTargetLanguage bool   `json:"is_target_language"`
	LanguageIssues   string `json:"language_issues"`
	Grade            string `json:"grade"`
	Feedback         string `json:"feedback"`
	FormatMatched    bool   `json:"format_matched"`
	FormatIssues     string `json:"format_issues"`
}

var evaluationSchema = &domain.Schema{
	Type: domain.SchemaObject,
	Properties: map[string]*domain.Schema{
		"is_target_language": boolField("Whether the translation is written in the target language."),
		"language_issues":    stringField("Language problems, if any."),
		"grade": {
			Type:        domain.SchemaString,
			Description: "Overall grade.",
			Enum:        domain.GradeNames(),
		},
		"feedback":       stringField("Actionable feedback on content fidelity and fluency."),
		"format_matched": boolField("Whether the translation preserves the line structure of the source."),
		"format_issues":  stringField("Structural problems, if any."),
	},
	Order:    []string{"is_target_language", "language_issues", "grade", "feedback", "format_matched", "format_issues"},
	Required: []string{"is_target_language", "grade", "feedback", "format_matched"},
}

type glossaryExtraction struct {
	Entries []struct {
		Term            string `json:"term"`
		Translation     string `json:"translation"`
		Context         string `json:"context"`
		Category        string `json:"category"`
		EntityCategory  string `json:"entity_category"`
		SourceReference string `json:"source_reference"`
	} `json:"entries"`
}

var glossarySchema = &domain.Schema{
	Type: domain.SchemaObject,
	Properties: map[string]*domain.Schema{
		"entries": {
			Type: domain.SchemaArray,
			Items: &domain.Schema{
				Type: domain.SchemaObject,
				Properties: map[string]*domain.Schema{
					"term":             stringField("Source-language term."),
					"translation":      stringField("Translation used in the accepted text."),
					"context":          stringField("How the term is used in this passage."),
					"category":         stringField("Term category, e.g. philosophical, technical."),
					"entity_category":  stringField("Entity type for named entities, otherwise empty."),
					"source_reference": stringField("Where in the analysis the rendering is supported."),
				},
				Order:    []string{"term", "translation", "context", "category", "entity_category", "source_reference"},
				Required: []string{"term", "translation"},
			},
		},
	},
	Order:    []string{"entries"},
	Required: []string{"entries"},
}
