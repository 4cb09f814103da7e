package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"
)

// OpenAIProvider implements Provider for OpenAI and Azure OpenAI. Both speak
// the chat completions API; Azure addresses a deployment instead of a model.
type OpenAIProvider struct {
	client  openai.Client
	backend Backend
	model   string
	timeout time.Duration
}

// NewOpenAIProvider creates a provider for api.openai.com (or BaseURL).
func NewOpenAIProvider(cfg KeyConfig, timeout time.Duration, hc *http.Client) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("OpenAI API key required")
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}

	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		backend: BackendOpenAI,
		model:   modelOrDefault(BackendOpenAI, cfg.Model),
		timeout: timeout,
	}, nil
}

// NewAzureProvider creates a provider for an Azure OpenAI deployment.
func NewAzureProvider(cfg AzureConfig, timeout time.Duration, hc *http.Client) (*OpenAIProvider, error) {
	if !cfg.complete() {
		return nil, fmt.Errorf("azure requires %s", cfg.missing())
	}
	version := cfg.APIVersion
	if version == "" {
		version = DefaultAzureAPIVersion
	}

	opts := []option.RequestOption{
		azure.WithEndpoint(cfg.Endpoint, version),
		azure.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if hc != nil {
		opts = append(opts, option.WithHTTPClient(hc))
	}

	return &OpenAIProvider{
		client:  openai.NewClient(opts...),
		backend: BackendAzure,
		model:   cfg.Deployment,
		timeout: timeout,
	}, nil
}

// Execute sends a chat completion request.
func (p *OpenAIProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(p.model),
		Messages:    messages,
		MaxTokens:   openai.Int(int64(maxTokensOrDefault(req.MaxTokens))),
		Temperature: openai.Float(req.Temperature),
	}

	if req.Shape != nil && req.Shape.JSONSchema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.Shape.Name,
					Description: openai.String(req.Shape.Description),
					Schema:      req.Shape.JSONSchema,
					Strict:      openai.Bool(true),
				},
			},
		}
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, classify(p.backend, err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Kind: KindTransient, Backend: p.backend, Err: errors.New("no choices in response")}
	}

	return &Response{
		Content:      resp.Choices[0].Message.Content,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
		Model:    resp.Model,
		Duration: time.Since(start),
	}, nil
}

// Name returns the backend identifier.
func (p *OpenAIProvider) Name() string {
	return string(p.backend)
}

// Model returns the model or deployment name.
func (p *OpenAIProvider) Model() string {
	return p.model
}

// ListModels returns the models this tool is known to work with. Azure
// only ever exposes the configured deployment.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if p.backend == BackendAzure {
		return []ModelInfo{{ID: p.model, Name: p.model, Description: "Azure OpenAI deployment", Default: true}}, nil
	}
	models := []ModelInfo{
		{ID: "gpt-4o-mini", Name: "GPT-4o Mini", Description: "Fast and affordable", ContextLength: 128000},
		{ID: "gpt-4o", Name: "GPT-4o", Description: "Most capable GPT-4 model", ContextLength: 128000},
		{ID: "gpt-4.1-mini", Name: "GPT-4.1 Mini", Description: "Long context, low latency", ContextLength: 1047576},
		{ID: "gpt-4.1", Name: "GPT-4.1", Description: "Long context flagship", ContextLength: 1047576},
	}
	return markDefault(models, p.model), nil
}

var (
	_ Provider    = (*OpenAIProvider)(nil)
	_ ModelLister = (*OpenAIProvider)(nil)
)
