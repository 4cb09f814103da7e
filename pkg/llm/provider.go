// Package llm provides a uniform calling contract over the supported LLM
// backends. A Provider is resolved once from Config and never retries on its
// own; callers decide what to do with a ProviderError.
package llm

import (
	"context"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    Role
	Content string
}

// Shape names the JSON object the caller expects back. Backends that support
// structured output enforce it; the others only get it through the prompt.
type Shape struct {
	Name        string
	Description string
	JSONSchema  map[string]any
}

// Request represents a completion request to the LLM.
type Request struct {
	Messages    []Message
	Shape       *Shape
	MaxTokens   int
	Temperature float64
}

// Usage tracks token consumption.
type Usage struct {
	InputTokens  int
	OutputTokens int
}

// Response represents the result of an LLM execution. Content is the raw
// text (or tool input) returned by the backend, unparsed.
type Response struct {
	Content      string
	FinishReason string
	Usage        Usage
	Model        string
	Duration     time.Duration
}

// Provider is the interface every backend implements.
type Provider interface {
	// Execute sends a completion request and returns the response.
	Execute(ctx context.Context, req Request) (*Response, error)

	// Name returns the backend identifier (e.g. "azure", "anthropic").
	Name() string

	// Model returns the configured model or deployment name.
	Model() string
}

// ModelInfo contains metadata about a model.
type ModelInfo struct {
	ID            string `json:"id" yaml:"id"`
	Name          string `json:"name" yaml:"name"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
	ContextLength int    `json:"context_length,omitempty" yaml:"context_length,omitempty"`
	Default       bool   `json:"default,omitempty" yaml:"default,omitempty"`
}

// ModelLister is implemented by providers that can describe their models.
type ModelLister interface {
	ListModels(ctx context.Context) ([]ModelInfo, error)
}

// AsModelLister returns the provider as a ModelLister if it implements the interface.
func AsModelLister(p Provider) (ModelLister, bool) {
	ml, ok := p.(ModelLister)
	return ml, ok
}

const defaultMaxTokens = 1024

func maxTokensOrDefault(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}

// withTimeout bounds a single backend call. d <= 0 leaves ctx untouched.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}

func markDefault(models []ModelInfo, id string) []ModelInfo {
	for i := range models {
		models[i].Default = models[i].ID == id
	}
	return models
}
