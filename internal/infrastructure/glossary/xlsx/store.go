package xlsx

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
)

const sheetName = "Glossary"

// Store appends glossary rows to a workbook. Existing rows are never
// rewritten, so repeated terms produce repeated rows.
type Store struct {
	mu   sync.Mutex
	path string
}

func New(path string) (*Store, error) {
	if path == "" {
		path = "translation_glossary.xlsx"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create glossary dir: %w", err)
		}
	}
	return &Store{path: path}, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) Append(ctx context.Context, entries []domain.GlossaryEntry) error {
	if len(entries) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return fmt.Errorf("read glossary rows: %w", err)
	}
	next := len(rows) + 1
	for _, entry := range entries {
		cell, err := excelize.CoordinatesToCellName(1, next)
		if err != nil {
			return fmt.Errorf("glossary cell: %w", err)
		}
		values := toCells(entry.Row())
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("write glossary row: %w", err)
		}
		next++
	}

	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("save glossary workbook: %w", err)
	}
	return nil
}

// open loads the workbook, creating it with a header row when absent.
func (s *Store) open() (*excelize.File, error) {
	f, err := excelize.OpenFile(s.path)
	if err == nil {
		if idx, _ := f.GetSheetIndex(sheetName); idx < 0 {
			_ = f.Close()
			return nil, fmt.Errorf("glossary workbook %s has no %q sheet", s.path, sheetName)
		}
		return f, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open glossary workbook: %w", err)
	}

	f = excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("name glossary sheet: %w", err)
	}
	header := toCells(domain.GlossaryColumns)
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write glossary header: %w", err)
	}
	return f, nil
}

func toCells(values []string) []any {
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
