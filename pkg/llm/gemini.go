package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"google.golang.org/genai"
)

// GeminiProvider implements Provider for the Gemini API.
type GeminiProvider struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGeminiProvider creates a Gemini client. genai.NewClient does not dial.
func NewGeminiProvider(ctx context.Context, cfg KeyConfig, timeout time.Duration, hc *http.Client) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key required")
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}

	return &GeminiProvider{
		client:  client,
		model:   modelOrDefault(BackendGemini, cfg.Model),
		timeout: timeout,
	}, nil
}

// Execute sends a generateContent request.
func (p *GeminiProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	temp := float32(req.Temperature)
	config := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: int32(maxTokensOrDefault(req.MaxTokens)),
		CandidateCount:  1,
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: msg.Content}}}
		case RoleUser:
			contents = append(contents, &genai.Content{Role: "user", Parts: []*genai.Part{{Text: msg.Content}}})
		case RoleAssistant:
			contents = append(contents, &genai.Content{Role: "model", Parts: []*genai.Part{{Text: msg.Content}}})
		}
	}

	if req.Shape != nil && req.Shape.JSONSchema != nil {
		config.ResponseMIMEType = "application/json"
		config.ResponseSchema = toGeminiSchema(req.Shape.JSONSchema)
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.model, contents, config)
	if err != nil {
		return nil, classify(BackendGemini, err)
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &ProviderError{Kind: KindTransient, Backend: BackendGemini, Err: errors.New("no candidates in response")}
	}

	out := &Response{
		Content:      resp.Text(),
		FinishReason: string(resp.Candidates[0].FinishReason),
		Model:        p.model,
		Duration:     time.Since(start),
	}
	if resp.ModelVersion != "" {
		out.Model = resp.ModelVersion
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}
	return out, nil
}

// toGeminiSchema converts a flat JSON Schema object into genai's schema
// type. Nullable properties are expressed as ["<type>", "null"].
func toGeminiSchema(js map[string]any) *genai.Schema {
	out := &genai.Schema{
		Type:       genai.TypeObject,
		Properties: map[string]*genai.Schema{},
		Required:   requiredFields(js),
	}
	props, _ := js["properties"].(map[string]any)
	for name, raw := range props {
		prop, _ := raw.(map[string]any)
		s := &genai.Schema{}
		switch t := prop["type"].(type) {
		case string:
			s.Type = geminiType(t)
		case []string:
			for _, v := range t {
				if v == "null" {
					nullable := true
					s.Nullable = &nullable
					continue
				}
				s.Type = geminiType(v)
			}
		}
		if d, ok := prop["description"].(string); ok {
			s.Description = d
		}
		out.Properties[name] = s
	}
	out.PropertyOrdering = out.Required
	return out
}

func geminiType(t string) genai.Type {
	switch t {
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}

// Name returns the provider identifier.
func (p *GeminiProvider) Name() string {
	return string(BackendGemini)
}

// Model returns the configured model name.
func (p *GeminiProvider) Model() string {
	return p.model
}

// ListModels returns known Gemini models.
func (p *GeminiProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	models := []ModelInfo{
		{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", Description: "Fast, low cost", ContextLength: 1048576},
		{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", Description: "Most capable Gemini model", ContextLength: 1048576},
		{ID: "gemini-2.5-flash-lite", Name: "Gemini 2.5 Flash-Lite", Description: "Lowest latency", ContextLength: 1048576},
	}
	return markDefault(models, p.model), nil
}

var (
	_ Provider    = (*GeminiProvider)(nil)
	_ ModelLister = (*GeminiProvider)(nil)
)
