package jsonfile

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
)

// Loader reads corpus files: a JSON array of objects, or one object per
// line when the file ends in .jsonl.
type Loader struct {
	defaultLanguage string
}

func New(defaultLanguage string) *Loader {
	if defaultLanguage == "" {
		defaultLanguage = "English"
	}
	return &Loader{defaultLanguage: defaultLanguage}
}

type rawItem map[string]json.RawMessage

// entry is one corpus element; err is set when it could not be decoded.
type entry struct {
	item rawItem
	err  error
}

// Load decodes every entry of the corpus. An entry that cannot be decoded
// comes back as a document carrying DecodeError, so it is rejected at
// intake instead of failing the whole file.
func (l *Loader) Load(ctx context.Context, path string) ([]domain.Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}
	if !utf8.Valid(raw) {
		return nil, domain.WrapError(domain.ErrInvalidInput, "load corpus", fmt.Errorf("%s is not utf-8 text", path))
	}

	var entries []entry
	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		entries, err = decodeLines(raw)
	} else {
		entries, err = decodeArray(raw)
	}
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "decode corpus", err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	docs := make([]domain.Document, 0, len(entries))
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var doc domain.Document
		if e.err == nil {
			doc, err = l.toDocument(e.item)
		} else {
			err = e.err
		}
		if err != nil {
			doc = l.malformed(e.item, fmt.Errorf("item %d: %w", i, err))
		}
		if doc.ID == "" {
			doc.ID = fmt.Sprintf("%s-%04d", stem, i+1)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func decodeArray(raw []byte) ([]entry, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, err
	}
	entries := make([]entry, 0, len(elems))
	for _, elem := range elems {
		var item rawItem
		err := json.Unmarshal(elem, &item)
		entries = append(entries, entry{item: item, err: err})
	}
	return entries, nil
}

func decodeLines(raw []byte) ([]entry, error) {
	var entries []entry
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var item rawItem
		if err := json.Unmarshal(line, &item); err != nil {
			entries = append(entries, entry{err: fmt.Errorf("line %d: %w", lineNo, err)})
			continue
		}
		entries = append(entries, entry{item: item})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// malformed keeps whatever identifying fields still decode so the failure
// record can be traced back to its entry.
func (l *Loader) malformed(item rawItem, err error) domain.Document {
	doc := domain.Document{
		TargetLanguage: l.defaultLanguage,
		DecodeError:    err.Error(),
	}
	if id, idErr := firstString(item, "id", "document_id"); idErr == nil {
		doc.ID = id
	}
	if source, srcErr := firstString(item, "source_text", "root_display_text", "root", "source"); srcErr == nil {
		doc.SourceText = source
	}
	return doc
}

func (l *Loader) toDocument(item rawItem) (domain.Document, error) {
	var doc domain.Document
	var err error
	field := func(keys ...string) string {
		if err != nil {
			return ""
		}
		var value string
		value, err = firstString(item, keys...)
		return value
	}

	doc.ID = field("id", "document_id")
	doc.SourceText = field("source_text", "root_display_text", "root", "source")
	doc.ReferenceText = field("reference_text", "sanskrit_text", "sanskrit")
	doc.Commentary1 = field("commentary_1", "commentary1")
	doc.Commentary2 = field("commentary_2", "commentary2")
	doc.Commentary3 = field("commentary_3", "commentary3")
	doc.TargetLanguage = field("target_language", "language")
	if err != nil {
		return domain.Document{}, err
	}
	if raw, ok := item["max_iterations"]; ok {
		if err := json.Unmarshal(raw, &doc.MaxIterations); err != nil {
			return domain.Document{}, fmt.Errorf("max_iterations: %w", err)
		}
	}
	if doc.TargetLanguage == "" {
		doc.TargetLanguage = l.defaultLanguage
	}
	return doc, nil
}

// firstString returns the first present alias. Explicit nulls count as absent.
func firstString(item rawItem, keys ...string) (string, error) {
	for _, key := range keys {
		raw, ok := item[key]
		if !ok || string(raw) == "null" {
			continue
		}
		var value string
		if err := json.Unmarshal(raw, &value); err != nil {
			return "", fmt.Errorf("%s: %w", key, err)
		}
		return value, nil
	}
	return "", nil
}
