// Package generator writes a personalized outreach message for an extracted
// profile.
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/outreach/internal/logger"
	"github.com/jmylchreest/outreach/internal/retry"
	"github.com/jmylchreest/outreach/internal/structured"
	"github.com/jmylchreest/outreach/pkg/extractor"
	"github.com/jmylchreest/outreach/pkg/llm"
	"github.com/jmylchreest/outreach/pkg/schema"
)

// Message is a generated email.
type Message struct {
	Subject string `json:"subject" yaml:"subject" validate:"required,max=60" description:"Subject line, at most 60 characters"`
	Body    string `json:"body" yaml:"body" validate:"required" description:"Email body"`
}

// MessageSchema decodes and validates generation replies.
var MessageSchema = schema.MustSchema[Message](
	schema.WithName("email"),
	schema.WithDescription("A personalized outreach email"),
)

// SystemPrompt constrains the model to a bare {subject, body} object.
const SystemPrompt = `You are an expert at writing professional, personalized emails. You ONLY respond with valid JSON containing 'subject' and 'body' fields. Never add explanatory text or markdown.`

// Config holds generation settings.
type Config struct {
	MaxRetries  int
	Delay       time.Duration
	Backoff     float64
	MaxDelay    time.Duration
	Temperature float64
	MaxTokens   int
}

// DefaultConfig returns the default generation settings.
func DefaultConfig() Config {
	return Config{
		MaxRetries:  3,
		Delay:       2 * time.Second,
		Backoff:     1,
		MaxDelay:    30 * time.Second,
		Temperature: 0.7,
		MaxTokens:   500,
	}
}

// Option configures a Generator.
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

// ErrorKind classifies generation failures.
type ErrorKind int

const (
	// KindSchemaInvalid means no attempt produced a valid message.
	KindSchemaInvalid ErrorKind = iota + 1
)

func (k ErrorKind) String() string {
	if k == KindSchemaInvalid {
		return "schema_invalid"
	}
	return "unknown"
}

// Error is returned by Generate when every attempt failed.
type Error struct {
	Kind     ErrorKind
	Attempts int
	Raw      string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("Failed to generate a valid email after %d attempts", e.Attempts)
}

func (e *Error) Unwrap() error { return e.Err }

// Generator turns a Profile into a Message.
type Generator struct {
	provider llm.Provider
	config   Config
}

// New creates a Generator calling p.
func New(p llm.Provider, opts ...Option) *Generator {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	return &Generator{provider: p, config: cfg}
}

// Generate writes a message for profile. A nil About is fine; the prompt
// simply leaves it out.
func (g *Generator) Generate(ctx context.Context, profile *extractor.Profile) (*Message, error) {
	logger.Info("generating email", "name", extractor.Value(profile.Name), "provider", g.provider.Name())

	req := llm.Request{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: SystemPrompt},
			{Role: llm.RoleUser, Content: BuildPrompt(profile)},
		},
		Shape: &llm.Shape{
			Name:        MessageSchema.Name,
			Description: MessageSchema.Description,
			JSONSchema:  MessageSchema.ToJSONSchema(),
		},
		MaxTokens:   g.config.MaxTokens,
		Temperature: g.config.Temperature,
	}

	policy := retry.Policy{
		Attempts:   g.config.MaxRetries,
		Delay:      g.config.Delay,
		Multiplier: g.config.Backoff,
		MaxDelay:   g.config.MaxDelay,
	}
	msg, trace, err := structured.Call(ctx, g.provider, MessageSchema, req, policy)
	if err != nil {
		if ex, ok := structured.AsExhausted(err); ok {
			logger.Warn("email generation failed", "attempts", ex.Attempts, "error", ex.Err)
			return nil, &Error{Kind: KindSchemaInvalid, Attempts: ex.Attempts, Raw: trace.Raw, Err: ex.Err}
		}
		return nil, err
	}

	logger.Info("generated email", "subject", msg.Subject, "attempts", trace.Attempts)
	return &msg, nil
}

// BuildPrompt renders the generation instruction. Only fields present on
// the profile are included.
func BuildPrompt(p *extractor.Profile) string {
	var sb strings.Builder

	sb.WriteString("Generate a professional and personalized email to reach out to someone on LinkedIn.\n\nProfile Information:")
	line := func(label string, v *string) {
		if v != nil && *v != "" {
			fmt.Fprintf(&sb, "\n- %s: %s", label, *v)
		}
	}
	line("Name", p.Name)
	line("Current Position", p.Title)
	line("Company", p.Company)
	line("About", p.About)

	sb.WriteString(`

Requirements:
1. Create a compelling subject line (max 60 characters)
2. Write a personalized email body that:
   - References specific details from their profile
   - Sounds genuine and professional
   - Is concise (2-3 paragraphs max)
   - Closes with a clear invitation to respond
   - Avoids being overly salesy or generic

CRITICAL: Return ONLY a JSON object with this exact structure:
{"subject": "your subject line", "body": "your email body"}

No markdown, no code blocks, no additional text - just pure JSON.`)

	return sb.String()
}
