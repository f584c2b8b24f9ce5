package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/OpenPecha/translation-workflow/internal/core/domain"
	"github.com/OpenPecha/translation-workflow/internal/infrastructure/resilience"
)

var errUnparseableOutput = errors.New("structured output is not valid JSON")

// Client is an Oracle backed by the Gemini API.
type Client struct {
	client      *genai.Client
	model       string
	temperature *float32
	executor    *resilience.Executor
}

type Options struct {
	// BaseURL overrides the API endpoint.
	BaseURL            string
	Temperature        *float32
	ResilienceExecutor *resilience.Executor
}

func New(ctx context.Context, apiKey, model string, options Options) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "gemini client", errors.New("api key is required"))
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	if options.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: options.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Client{
		client:      client,
		model:       model,
		temperature: options.Temperature,
		executor:    options.ResilienceExecutor,
	}, nil
}

func (c *Client) Generate(ctx context.Context, req domain.OracleRequest) (domain.OracleResponse, error) {
	operation := "gemini." + string(req.Task)

	config := &genai.GenerateContentConfig{Temperature: c.temperature}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toSchema(req.Schema)
	}

	var text string
	call := func(ctx context.Context) error {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.Prompt), config)
		if err != nil {
			return fmt.Errorf("gemini generate content: %w", err)
		}
		text = strings.TrimSpace(resp.Text())
		return nil
	}

	var err error
	if c.executor != nil {
		err = c.executor.Execute(ctx, operation, call, classifyGeminiError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return domain.OracleResponse{}, wrapTemporaryIfNeeded(operation, err)
	}

	out := domain.OracleResponse{Text: text}
	if req.Schema != nil {
		if !json.Valid([]byte(text)) {
			return domain.OracleResponse{}, domain.WrapError(domain.ErrTemporary, operation, errUnparseableOutput)
		}
		out.Object = json.RawMessage(text)
	}
	return out, nil
}

func toSchema(s *domain.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:             schemaType(s.Type),
		Description:      s.Description,
		Enum:             s.Enum,
		Required:         s.Required,
		PropertyOrdering: s.Order,
		Items:            toSchema(s.Items),
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toSchema(prop)
		}
	}
	return out
}

func schemaType(t domain.SchemaType) genai.Type {
	switch t {
	case domain.SchemaObject:
		return genai.TypeObject
	case domain.SchemaBoolean:
		return genai.TypeBoolean
	case domain.SchemaInteger:
		return genai.TypeInteger
	case domain.SchemaArray:
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}
