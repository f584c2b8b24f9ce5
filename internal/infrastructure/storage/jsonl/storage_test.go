package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("scan %s: %v", path, err)
	}
	return lines
}

func TestStorageWritesSuccessAndFailureFiles(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "out", "run1")
	storage, err := New(prefix)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx := context.Background()
	if err := storage.Accept(ctx, domain.SuccessRecord{DocumentID: "d1", Translation: "one", Grade: domain.GradeGreat}); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if err := storage.Accept(ctx, domain.SuccessRecord{DocumentID: "d2", Translation: "two", Grade: domain.GradeGood}); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if err := storage.Reject(ctx, domain.FailureRecord{DocumentID: "d4", ErrorSummary: "boom", Tier: domain.FailureIndividually, Attempts: 3}); err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	if storage.SuccessPath() != prefix+".jsonl" || storage.FailurePath() != prefix+"_fail.jsonl" {
		t.Fatalf("unexpected paths: %s %s", storage.SuccessPath(), storage.FailurePath())
	}

	success := readLines(t, storage.SuccessPath())
	if len(success) != 2 {
		t.Fatalf("expected 2 success lines, got %d", len(success))
	}
	var rec domain.SuccessRecord
	if err := json.Unmarshal([]byte(success[1]), &rec); err != nil {
		t.Fatalf("unmarshal success line: %v", err)
	}
	if rec.DocumentID != "d2" || rec.Grade != domain.GradeGood {
		t.Fatalf("unexpected success record: %+v", rec)
	}

	failures := readLines(t, storage.FailurePath())
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure line, got %d", len(failures))
	}
	var failure domain.FailureRecord
	if err := json.Unmarshal([]byte(failures[0]), &failure); err != nil {
		t.Fatalf("unmarshal failure line: %v", err)
	}
	if failure.Attempts != 3 || failure.Tier != domain.FailureIndividually {
		t.Fatalf("unexpected failure record: %+v", failure)
	}
}

func TestStorageConcurrentAppendsStayLineDelimited(t *testing.T) {
	storage, err := New(filepath.Join(t.TempDir(), "concurrent"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = storage.Accept(context.Background(), domain.SuccessRecord{DocumentID: "d", Translation: "text"})
		}()
	}
	wg.Wait()

	lines := readLines(t, storage.SuccessPath())
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !json.Valid([]byte(line)) {
			t.Fatalf("invalid json line: %q", line)
		}
	}
}
