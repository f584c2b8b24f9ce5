package jsonl

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
)

// Storage appends committed records to <prefix>.jsonl and failures to
// <prefix>_fail.jsonl. Files are opened per write so partial runs leave
// every committed line on disk.
type Storage struct {
	mu          sync.Mutex
	successPath string
	failurePath string
}

func New(prefix string) (*Storage, error) {
	if prefix == "" {
		prefix = "batch_results"
	}
	if dir := filepath.Dir(prefix); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create output dir: %w", err)
		}
	}
	return &Storage{
		successPath: prefix + ".jsonl",
		failurePath: prefix + "_fail.jsonl",
	}, nil
}

func (s *Storage) SuccessPath() string { return s.successPath }
func (s *Storage) FailurePath() string { return s.failurePath }

func (s *Storage) Accept(_ context.Context, rec domain.SuccessRecord) error {
	return s.appendLine(s.successPath, rec)
}

func (s *Storage) Reject(_ context.Context, rec domain.FailureRecord) error {
	return s.appendLine(s.failurePath, rec)
}

func (s *Storage) appendLine(path string, payload any) error {
	line, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close file: %w", err)
	}
	return nil
}
