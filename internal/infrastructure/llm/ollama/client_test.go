package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/resilience"
)

var languageSchema = &domain.Schema{
	Type: domain.SchemaObject,
	Properties: map[string]*domain.Schema{
		"is_target_language": {Type: domain.SchemaBoolean},
	},
	Required: []string{"is_target_language"},
}

func TestGenerateSendsSchemaAsFormat(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"response":"Sure: {\"is_target_language\": true}"}`))
	}))
	defer server.Close()

	client := New(server.URL, "gemma3")
	resp, err := client.Generate(context.Background(), domain.OracleRequest{
		Task:   domain.TaskLanguageCheck,
		System: "system prompt",
		Prompt: "is this English?",
		Schema: languageSchema,
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	format, ok := payload["format"].(map[string]any)
	if !ok || format["type"] != "object" {
		t.Fatalf("expected schema in format, got %#v", payload["format"])
	}
	if payload["system"] != "system prompt" || payload["model"] != "gemma3" || payload["stream"] != false {
		t.Fatalf("unexpected payload: %#v", payload)
	}
	var out struct {
		IsTargetLanguage bool `json:"is_target_language"`
	}
	if err := resp.Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if !out.IsTargetLanguage {
		t.Fatalf("unexpected object: %s", resp.Object)
	}
}

func TestGenerateFreeTextOmitsFormat(t *testing.T) {
	var payload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"response":"  an analysis  "}`))
	}))
	defer server.Close()

	resp, err := New(server.URL, "gemma3").Generate(context.Background(), domain.OracleRequest{
		Task:   domain.TaskZeroShotAnalysis,
		Prompt: "analyse",
	})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if _, ok := payload["format"]; ok {
		t.Fatalf("free-text request must not set format")
	}
	if resp.Text != "an analysis" || len(resp.Object) != 0 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGenerateRetriesUnavailableAndWrapsTemporary(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1,
		BreakerEnabled:      false,
	})
	client := NewWithOptions(server.URL, "gemma3", Options{ResilienceExecutor: exec})
	_, err := client.Generate(context.Background(), domain.OracleRequest{Task: domain.TaskAggregation, Prompt: "p"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary, got %v", err)
	}
	if !strings.Contains(err.Error(), "model loading") {
		t.Fatalf("expected response body in error, got %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestGenerateDoesNotRetryBadRequest(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		http.Error(w, "unknown model", http.StatusBadRequest)
	}))
	defer server.Close()

	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     1,
		BreakerEnabled:      false,
	})
	client := NewWithOptions(server.URL, "missing", Options{ResilienceExecutor: exec})
	_, err := client.Generate(context.Background(), domain.OracleRequest{Task: domain.TaskAggregation, Prompt: "p"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("400 must not be temporary: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected a single attempt, got %d", got)
	}
}

func TestGenerateRejectsUnparseableStructuredOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"response":"I cannot answer that"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, "gemma3").Generate(context.Background(), domain.OracleRequest{
		Task:   domain.TaskEvaluation,
		Prompt: "grade",
		Schema: languageSchema,
	})
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected ErrTemporary for unparseable output, got %v", err)
	}
}
