package domain

import (
	"errors"
	"fmt"
	"strings"
)

const CommentarySlots = 3

// Document is the intake descriptor for one translation workflow.
type Document struct {
	ID             string `json:"id"`
	SourceText     string `json:"source_text"`
	ReferenceText  string `json:"reference_text,omitempty"`
	Commentary1    string `json:"commentary_1,omitempty"`
	Commentary2    string `json:"commentary_2,omitempty"`
	Commentary3    string `json:"commentary_3,omitempty"`
	TargetLanguage string `json:"target_language"`
	MaxIterations  int    `json:"max_iterations,omitempty"`
	// DecodeError is set by loaders for an entry that could not be read.
	// Such a document always fails Validate.
	DecodeError string `json:"-"`
}

func (d Document) Commentaries() [CommentarySlots]string {
	return [CommentarySlots]string{d.Commentary1, d.Commentary2, d.Commentary3}
}

// Validate reports malformed descriptors. A malformed document is a
// permanent failure and is never retried.
func (d Document) Validate() error {
	var problems []string
	if d.DecodeError != "" {
		problems = append(problems, d.DecodeError)
	}
	if strings.TrimSpace(d.ID) == "" {
		problems = append(problems, "id is required")
	}
	if strings.TrimSpace(d.SourceText) == "" {
		problems = append(problems, "source_text is required")
	}
	if strings.TrimSpace(d.TargetLanguage) == "" {
		problems = append(problems, "target_language is required")
	}
	if d.MaxIterations < 0 {
		problems = append(problems, fmt.Sprintf("max_iterations must be >= 0, got %d", d.MaxIterations))
	}
	if len(problems) == 0 {
		return nil
	}
	return WrapError(ErrInvalidInput, "validate document", errors.New(strings.Join(problems, "; ")))
}
