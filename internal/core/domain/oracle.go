package domain

import (
	"encoding/json"
	"errors"
)

// OracleTask names the purpose of an oracle call. Providers use it for
// logging and per-operation circuit breakers.
type OracleTask string

const (
	TaskCommentaryTranslation OracleTask = "commentary_translation"
	TaskCommentaryExtraction  OracleTask = "commentary_extraction"
	TaskAggregation           OracleTask = "aggregation"
	TaskZeroShotAnalysis      OracleTask = "zero_shot_analysis"
	TaskPrimaryTranslation    OracleTask = "primary_translation"
	TaskPlainTranslation      OracleTask = "plain_translation"
	TaskRetryTranslation      OracleTask = "retry_translation"
	TaskTranslationExtraction OracleTask = "translation_extraction"
	TaskLanguageCheck         OracleTask = "language_check"
	TaskVerification          OracleTask = "verification"
	TaskEvaluation            OracleTask = "evaluation"
	TaskGlossary              OracleTask = "glossary"
)

type SchemaType string

const (
	SchemaObject  SchemaType = "object"
	SchemaString  SchemaType = "string"
	SchemaBoolean SchemaType = "boolean"
	SchemaInteger SchemaType = "integer"
	SchemaArray   SchemaType = "array"
)

// Schema is a provider-neutral subset of JSON Schema used to request
// structured output.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	// Order keeps property order stable for providers that honour it.
	Order    []string
	Required []string
	Items    *Schema
	Enum     []string
}

// JSONSchema renders the schema as a JSON Schema document.
func (s *Schema) JSONSchema() map[string]any {
	if s == nil {
		return nil
	}
	out := map[string]any{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop.JSONSchema()
		}
		out["properties"] = props
	}
	if len(s.Required) > 0 {
		out["required"] = s.Required
	}
	return out
}

type OracleRequest struct {
	Task   OracleTask
	System string
	Prompt string
	// Schema requests a structured object; nil means free text.
	Schema *Schema
}

type OracleResponse struct {
	Text   string
	Object json.RawMessage
}

var ErrNoStructuredOutput = errors.New("oracle returned no structured object")

// Decode unmarshals the structured object into out.
func (r OracleResponse) Decode(out any) error {
	if len(r.Object) == 0 {
		return ErrNoStructuredOutput
	}
	return json.Unmarshal(r.Object, out)
}
