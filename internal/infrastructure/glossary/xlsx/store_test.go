package xlsx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
)

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	return rows
}

func TestAppendCreatesWorkbookWithHeader(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "glossary", "terms.xlsx"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	err = store.Append(context.Background(), []domain.GlossaryEntry{
		{DocumentID: "d1", Term: "bodhicitta", Translation: "mind of awakening", Category: "term", Context: "verse 1"},
	})
	if err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rows := readRows(t, store.Path())
	if len(rows) != 2 {
		t.Fatalf("expected header + 1 row, got %d", len(rows))
	}
	if rows[0][0] != "document_id" || rows[0][1] != "term" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	if rows[1][1] != "bodhicitta" || rows[1][2] != "mind of awakening" || rows[1][4] != "verse 1" {
		t.Fatalf("unexpected row: %v", rows[1])
	}
}

func TestAppendNeverDeduplicates(t *testing.T) {
	store, err := New(filepath.Join(t.TempDir(), "terms.xlsx"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	entry := domain.GlossaryEntry{DocumentID: "d1", Term: "sunyata", Translation: "emptiness"}
	for i := 0; i < 2; i++ {
		if err := store.Append(context.Background(), []domain.GlossaryEntry{entry}); err != nil {
			t.Fatalf("Append() #%d error = %v", i, err)
		}
	}
	if err := store.Append(context.Background(), []domain.GlossaryEntry{
		{DocumentID: "d2", Term: "sunyata", Translation: "voidness"},
		{DocumentID: "d2", Term: "prajna", Translation: "wisdom"},
	}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	rows := readRows(t, store.Path())
	if len(rows) != 5 {
		t.Fatalf("expected header + 4 rows, got %d", len(rows))
	}
	if rows[4][1] != "prajna" {
		t.Fatalf("rows out of order: %v", rows)
	}
}

func TestAppendEmptyDoesNotCreateFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terms.xlsx")
	store, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := store.Append(context.Background(), nil); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := excelize.OpenFile(path); err == nil {
		t.Fatalf("expected no workbook for empty append")
	}
}
