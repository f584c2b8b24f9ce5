package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/OpenPecha/translation-workflow/internal/config"
)

func parseFlags(t *testing.T, args ...string) config.Config {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	var f flags
	cmd := buildRootCmd(&f)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	cfg, err := loadConfig(cmd, f)
	if err != nil {
		t.Fatalf("loadConfig() error = %v", err)
	}
	return cfg
}

func TestFlagsOverrideConfig(t *testing.T) {
	cfg := parseFlags(t,
		"--batch-size", "4",
		"--retries", "2",
		"--delay", "1s",
		"--output", "out/run",
		"--language", "French",
		"--max-iterations", "5",
		"--plain-mode", "regenerate",
		"--debug",
	)

	if cfg.BatchSize != 4 || cfg.BatchMaxAttempts != 2 || cfg.BatchRetryDelay != time.Second {
		t.Fatalf("batch flags not applied: %+v", cfg.Batch())
	}
	if cfg.OutputPrefix != "out/run" || cfg.DefaultLanguage != "French" || cfg.MaxIterations != 5 {
		t.Fatalf("run flags not applied: %+v", cfg)
	}
	if cfg.PlainMode != "regenerate" || cfg.LogLevel != "debug" {
		t.Fatalf("mode flags not applied: %+v", cfg)
	}
}

func TestUnsetFlagsKeepFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("batch_size: 7\noutput_prefix: from_file\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("BATCH_SIZE", "")
	t.Setenv("OUTPUT_PREFIX", "")

	cfg := parseFlags(t, "--config", path, "--language", "German")
	if cfg.BatchSize != 7 || cfg.OutputPrefix != "from_file" {
		t.Fatalf("file values should survive unset flags: %+v", cfg)
	}
	if cfg.DefaultLanguage != "German" {
		t.Fatalf("expected language flag to apply, got %q", cfg.DefaultLanguage)
	}
}
