// Package extractor reads a Profile out of normalized page text with an LLM.
package extractor

import (
	"context"
	"time"

	"github.com/jmylchreest/outreach/internal/logger"
	"github.com/jmylchreest/outreach/internal/retry"
	"github.com/jmylchreest/outreach/internal/structured"
	"github.com/jmylchreest/outreach/pkg/llm"
	"github.com/jmylchreest/outreach/pkg/normalize"
)

// Config holds extraction settings.
type Config struct {
	// MaxRetries is the total number of attempts (default: 3).
	MaxRetries int
	// Delay is the wait after a failed attempt (default: 2s).
	Delay time.Duration
	// Backoff multiplies Delay after each further failure (default: 1, fixed).
	Backoff float64
	// MaxDelay caps any wait between attempts, including provider
	// retry-after hints; a longer hint stops retrying (default: 30s).
	MaxDelay time.Duration
	// Temperature for the extraction call (default: 0).
	Temperature float64
	// MaxTokens for the extraction reply (default: 1000).
	MaxTokens int
}

// DefaultConfig returns the default extraction settings.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		Delay:       2 * time.Second,
		Backoff:     1,
		MaxDelay:    30 * time.Second,
		Temperature: 0,
		MaxTokens:   1000,
	}
}

// Option configures an Extractor.
type Option func(*Config)

// WithRetry sets the attempt count, delay and backoff multiplier.
func WithRetry(maxRetries int, delay time.Duration, backoff float64) Option {
	return func(c *Config) {
		c.MaxRetries = maxRetries
		c.Delay = delay
		c.Backoff = backoff
	}
}

// WithMaxDelay caps the wait between attempts. 0 removes the cap.
func WithMaxDelay(d time.Duration) Option {
	return func(c *Config) { c.MaxDelay = d }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) Option {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens sets the maximum output tokens.
func WithMaxTokens(n int) Option {
	return func(c *Config) { c.MaxTokens = n }
}

// Extractor turns a normalized document into a Profile.
type Extractor struct {
	provider llm.Provider
	config   Config
}

// New creates an Extractor calling p.
func New(p llm.Provider, opts ...Option) *Extractor {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &Extractor{provider: p, config: cfg}
}

func (e *Extractor) policy() retry.Policy {
	return retry.Policy{
		Attempts:   e.config.MaxRetries,
		Delay:      e.config.Delay,
		Multiplier: e.config.Backoff,
		MaxDelay:   e.config.MaxDelay,
	}
}

// Extract asks the provider for the profile fields found in doc.
//
// It returns a *llm.ProviderError when the provider is not configured, an
// *Error of KindSchemaInvalid when every attempt failed and an *Error of
// KindNoIdentifiableData when a valid reply carries no name.
func (e *Extractor) Extract(ctx context.Context, doc normalize.Document) (*Profile, error) {
	logger.Info("extracting profile",
		"url", doc.URL,
		"provider", e.provider.Name(),
		"model", e.provider.Model(),
		"chars", doc.CharCount)

	req := llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: BuildPrompt(doc)},
		},
		Shape: &llm.Shape{
			Name:        ProfileSchema.Name,
			Description: ProfileSchema.Description,
			JSONSchema:  ProfileSchema.ToJSONSchema(),
		},
		MaxTokens:   e.config.MaxTokens,
		Temperature: e.config.Temperature,
	}

	profile, trace, err := structured.Call(ctx, e.provider, ProfileSchema, req, e.policy())
	if err != nil {
		if ex, ok := structured.AsExhausted(err); ok {
			logger.Warn("profile extraction failed", "attempts", ex.Attempts, "error", ex.Err)
			return nil, &Error{Kind: KindSchemaInvalid, Attempts: ex.Attempts, Raw: trace.Raw, Err: ex.Err}
		}
		return nil, err
	}

	if profile.Name == nil {
		logger.Warn("profile has no name", "url", doc.URL)
		return nil, &Error{Kind: KindNoIdentifiableData, Attempts: trace.Attempts, Raw: trace.Raw}
	}

	logger.Info("extracted profile",
		"name", Value(profile.Name),
		"title", Value(profile.Title),
		"company", Value(profile.Company),
		"about", truncate(Value(profile.About), 100),
		"attempts", trace.Attempts)

	return &profile, nil
}
