package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements Provider for the Anthropic Messages API.
// Structured output goes through a forced tool call whose input is the
// requested object.
type AnthropicProvider struct {
	client  anthropic.Client
	model   string
	timeout time.Duration
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(cfg KeyConfig, timeout time.Duration, hc *http.Client) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key required")
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

	return &AnthropicProvider{
		client:  anthropic.NewClient(opts...),
		model:   modelOrDefault(BackendAnthropic, cfg.Model),
		timeout: timeout,
	}, nil
}

// Execute sends a message request to Anthropic.
func (p *AnthropicProvider) Execute(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	ctx, cancel := withTimeout(ctx, p.timeout)
	defer cancel()

	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	var systemPrompt string

	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			systemPrompt = msg.Content
		case RoleUser:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   int64(maxTokensOrDefault(req.MaxTokens)),
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	}
	if systemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: systemPrompt}}
	}

	if req.Shape != nil && req.Shape.JSONSchema != nil {
		toolName := req.Shape.Name
		if toolName == "" {
			toolName = "respond"
		}
		description := req.Shape.Description
		if description == "" {
			description = "Return the requested object"
		}
		params.Tools = []anthropic.ToolUnionParam{{
			OfTool: &anthropic.ToolParam{
				Name:        toolName,
				Description: anthropic.String(description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Type:       "object",
					Properties: req.Shape.JSONSchema["properties"],
					Required:   requiredFields(req.Shape.JSONSchema),
				},
			},
		}}
		params.ToolChoice = anthropic.ToolChoiceParamOfTool(toolName)
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(BackendAnthropic, err)
	}

	var content string
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			if content == "" {
				content = b.Text
			}
		case anthropic.ToolUseBlock:
			// the tool input is the structured reply
			raw, err := json.Marshal(b.Input)
			if err != nil {
				return nil, &ProviderError{Kind: KindTransient, Backend: BackendAnthropic, Err: fmt.Errorf("failed to marshal tool input: %w", err)}
			}
			content = string(raw)
		}
	}

	return &Response{
		Content:      content,
		FinishReason: string(resp.StopReason),
		Usage: Usage{
			InputTokens:  int(resp.Usage.InputTokens),
			OutputTokens: int(resp.Usage.OutputTokens),
		},
		Model:    string(resp.Model),
		Duration: time.Since(start),
	}, nil
}

func requiredFields(js map[string]any) []string {
	switch r := js["required"].(type) {
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, v := range r {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// Name returns the provider identifier.
func (p *AnthropicProvider) Name() string {
	return string(BackendAnthropic)
}

// Model returns the configured model name.
func (p *AnthropicProvider) Model() string {
	return p.model
}

// ListModels returns known Anthropic models.
func (p *AnthropicProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	models := []ModelInfo{
		{ID: "claude-sonnet-4-20250514", Name: "Claude Sonnet 4", Description: "Best balance of speed and capability", ContextLength: 200000},
		{ID: "claude-opus-4-20250514", Name: "Claude Opus 4", Description: "Most capable model for complex tasks", ContextLength: 200000},
		{ID: "claude-3-5-haiku-20241022", Name: "Claude 3.5 Haiku", Description: "Fast and affordable", ContextLength: 200000},
	}
	return markDefault(models, p.model), nil
}

var (
	_ Provider    = (*AnthropicProvider)(nil)
	_ ModelLister = (*AnthropicProvider)(nil)
)
