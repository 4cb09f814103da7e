package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Backend identifies one of the supported LLM services.
type Backend string

const (
	BackendAuto      Backend = "auto"
	BackendAzure     Backend = "azure"
	BackendOpenAI    Backend = "openai"
	BackendAnthropic Backend = "anthropic"
	BackendGemini    Backend = "gemini"
)

// autoOrder is the order in which BackendAuto looks for credentials.
var autoOrder = []Backend{BackendAzure, BackendOpenAI, BackendAnthropic, BackendGemini}

// ParseBackend maps a provider name to a Backend. The empty string is auto.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendAuto, nil
	case BackendAuto, BackendAzure, BackendOpenAI, BackendAnthropic, BackendGemini:
		return b, nil
	default:
		return "", fmt.Errorf("unknown provider %q (available: auto, azure, openai, anthropic, gemini)", s)
	}
}

// DefaultModels maps backends to their default model.
var DefaultModels = map[Backend]string{
	BackendOpenAI:    "gpt-4o-mini",
	BackendAnthropic: "claude-sonnet-4-20250514",
	BackendGemini:    "gemini-2.5-flash",
}

// DefaultAzureAPIVersion is used when AzureConfig.APIVersion is empty.
const DefaultAzureAPIVersion = "2025-01-01-preview"

// AzureConfig holds Azure OpenAI credentials. Deployment doubles as the model.
type AzureConfig struct {
	APIKey     string
	Endpoint   string
	Deployment string
	APIVersion string
}

func (c AzureConfig) complete() bool {
	return c.APIKey != "" && c.Endpoint != "" && c.Deployment != ""
}

func (c AzureConfig) missing() string {
	var m []string
	if c.APIKey == "" {
		m = append(m, "AZURE_OPENAI_API_KEY")
	}
	if c.Endpoint == "" {
		m = append(m, "AZURE_OPENAI_ENDPOINT")
	}
	if c.Deployment == "" {
		m = append(m, "AZURE_DEPLOYMENT_NAME")
	}
	return strings.Join(m, ", ")
}

// KeyConfig holds credentials for the single-key backends.
type KeyConfig struct {
	APIKey  string
	Model   string
	BaseURL string // override for proxies and tests
}

// Config selects and configures a backend.
type Config struct {
	Backend   Backend
	Azure     AzureConfig
	OpenAI    KeyConfig
	Anthropic KeyConfig
	Gemini    KeyConfig

	// Timeout bounds each backend call (0 = no per-call bound).
	Timeout time.Duration

	// RateLimit caps calls per second across every user of the provider
	// (0 = unlimited).
	RateLimit float64

	// HTTPClient is passed to the SDKs when set.
	HTTPClient *http.Client
}

func (c Config) hasCredentials(b Backend) bool {
	switch b {
	case BackendAzure:
		return c.Azure.complete()
	case BackendOpenAI:
		return c.OpenAI.APIKey != ""
	case BackendAnthropic:
		return c.Anthropic.APIKey != ""
	case BackendGemini:
		return c.Gemini.APIKey != ""
	}
	return false
}

var envNames = map[Backend]string{
	BackendOpenAI:    "OPENAI_API_KEY",
	BackendAnthropic: "ANTHROPIC_API_KEY",
	BackendGemini:    "GEMINI_API_KEY",
}

// Resolve picks the backend a Config refers to. An explicit backend must
// have complete credentials; auto takes the first complete one.
func Resolve(cfg Config) (Backend, error) {
	backend := cfg.Backend
	if backend == "" {
		backend = BackendAuto
	}

	switch backend {
	case BackendAuto:
		for _, b := range autoOrder {
			if cfg.hasCredentials(b) {
				return b, nil
			}
		}
		return "", notConfigured(BackendAuto,
			fmt.Errorf("no API key found; set AZURE_OPENAI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY"))
	case BackendAzure:
		if !cfg.Azure.complete() {
			return "", notConfigured(backend, fmt.Errorf("azure requires %s", cfg.Azure.missing()))
		}
	case BackendOpenAI, BackendAnthropic, BackendGemini:
		if !cfg.hasCredentials(backend) {
			return "", notConfigured(backend, fmt.Errorf("%s requires %s", backend, envNames[backend]))
		}
	default:
		return "", notConfigured(backend, fmt.Errorf("unknown provider %q", backend))
	}
	return backend, nil
}

// New resolves the backend and constructs its Provider. It performs no
// network calls.
func New(ctx context.Context, cfg Config) (Provider, error) {
	backend, err := Resolve(cfg)
	if err != nil {
		return nil, err
	}

	var p Provider
	switch backend {
	case BackendAzure:
		p, err = NewAzureProvider(cfg.Azure, cfg.Timeout, cfg.HTTPClient)
	case BackendOpenAI:
		p, err = NewOpenAIProvider(cfg.OpenAI, cfg.Timeout, cfg.HTTPClient)
	case BackendAnthropic:
		p, err = NewAnthropicProvider(cfg.Anthropic, cfg.Timeout, cfg.HTTPClient)
	case BackendGemini:
		p, err = NewGeminiProvider(ctx, cfg.Gemini, cfg.Timeout, cfg.HTTPClient)
	}
	if err != nil {
		return nil, notConfigured(backend, err)
	}

	if cfg.RateLimit > 0 {
		p = NewRateLimited(p, cfg.RateLimit, 1)
	}
	return p, nil
}

func modelOrDefault(b Backend, model string) string {
	if model != "" {
		return model
	}
	return DefaultModels[b]
}
