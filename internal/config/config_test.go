package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/core/usecase"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("BATCH_SIZE", "")
	t.Setenv("MAX_ITERATIONS", "")
	t.Setenv("ORACLE_PROVIDER", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BatchSize != 2 || cfg.BatchMaxAttempts != 3 || cfg.BatchRetryDelay != 5*time.Second {
		t.Fatalf("unexpected batch defaults: %+v", cfg.Batch())
	}
	if cfg.OracleProvider != ProviderOllama {
		t.Fatalf("expected default provider ollama, got %q", cfg.OracleProvider)
	}
	policy, err := cfg.Policy()
	if err != nil {
		t.Fatalf("Policy() error = %v", err)
	}
	if policy != usecase.DefaultAcceptancePolicy() {
		t.Fatalf("expected default acceptance policy, got %+v", policy)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate, got %v", err)
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "batch_size: 4\nbatch_retry_delay: 250ms\naccept_grade: good\nplain_mode: regenerate\ndefault_language: French\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BATCH_SIZE", "8")
	t.Setenv("BATCH_RETRY_DELAY", "2")
	t.Setenv("ACCEPT_GRADE", "")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if cfg.BatchSize != 8 {
		t.Fatalf("env should override file, got batch size %d", cfg.BatchSize)
	}
	if cfg.BatchRetryDelay != 2*time.Second {
		t.Fatalf("expected bare-seconds delay override, got %s", cfg.BatchRetryDelay)
	}
	if cfg.AcceptGrade != "good" || cfg.PlainMode != "regenerate" || cfg.DefaultLanguage != "French" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.BatchMaxAttempts != 3 {
		t.Fatalf("unset keys should keep defaults, got %d", cfg.BatchMaxAttempts)
	}
	policy, err := cfg.Policy()
	if err != nil {
		t.Fatalf("Policy() error = %v", err)
	}
	if policy.AcceptGrade != domain.GradeGood {
		t.Fatalf("expected accept grade good, got %s", policy.AcceptGrade)
	}
}

func TestLoadFileRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("batch_size: [oops"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFile(path); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestValidateCollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.OracleProvider = ProviderGemini
	cfg.BatchSize = 0
	cfg.AcceptGrade = "superb"
	cfg.PlainMode = "sometimes"

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{"GEMINI_API_KEY", "batch size", "accept grade", "plain mode"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %q", want, err.Error())
		}
	}
}

func TestResilienceCarriesOracleSettings(t *testing.T) {
	cfg := Defaults()
	cfg.RateLimitPerSecond = 2.5
	cfg.RetryMaxAttempts = 5

	rc := cfg.Resilience()
	if rc.RateLimitPerSecond != 2.5 || rc.RetryMaxAttempts != 5 || !rc.BreakerEnabled {
		t.Fatalf("unexpected resilience config: %+v", rc)
	}
}
