package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/resilience"
)

var errUnparseableOutput = errors.New("structured output is not valid JSON")

// Client is an Oracle backed by the Ollama generate API.
type Client struct {
	baseURL     string
	model       string
	temperature *float64
	httpClient  *http.Client
	executor    *resilience.Executor
}

type Options struct {
	Timeout            time.Duration
	Temperature        *float64
	ResilienceExecutor *resilience.Executor
}

func New(baseURL, model string) *Client {
	return NewWithOptions(baseURL, model, Options{})
}

func NewWithOptions(baseURL, model string, options Options) *Client {
	timeout := options.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		model:       model,
		temperature: options.Temperature,
		httpClient:  &http.Client{Timeout: timeout},
		executor:    options.ResilienceExecutor,
	}
}

func (c *Client) Generate(ctx context.Context, req domain.OracleRequest) (domain.OracleResponse, error) {
	operation := "ollama." + string(req.Task)
	payload := map[string]any{
		"model":  c.model,
		"prompt": req.Prompt,
		"stream": false,
	}
	if req.System != "" {
		payload["system"] = req.System
	}
	if req.Schema != nil {
		payload["format"] = req.Schema.JSONSchema()
	}
	if c.temperature != nil {
		payload["options"] = map[string]any{"temperature": *c.temperature}
	}

	var response struct {
		Response string `json:"response"`
	}
	call := func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", payload, &response, operation)
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyOllamaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.OracleResponse{}, wrapTemporaryIfNeeded(operation, err)
	}

	text := strings.TrimSpace(response.Response)
	out := domain.OracleResponse{Text: text}
	if req.Schema != nil {
		object := extractJSONObject(text)
		if !json.Valid([]byte(object)) {
			return domain.OracleResponse{}, domain.WrapError(domain.ErrTemporary, operation, errUnparseableOutput)
		}
		out.Object = json.RawMessage(object)
	}
	return out, nil
}

func extractJSONObject(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return raw
}
