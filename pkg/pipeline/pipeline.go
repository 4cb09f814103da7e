// Package pipeline runs acquisition, normalization, extraction and
// generation for one profile and folds the result into an Outcome.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmylchreest/outreach/internal/logger"
	"github.com/jmylchreest/outreach/pkg/acquire"
	"github.com/jmylchreest/outreach/pkg/extractor"
	"github.com/jmylchreest/outreach/pkg/generator"
	"github.com/jmylchreest/outreach/pkg/llm"
	"github.com/jmylchreest/outreach/pkg/normalize"
)

// Acquirer loads a page.
type Acquirer interface {
	Acquire(ctx context.Context, url string) (*acquire.Result, error)
}

// Normalizer turns markup into bounded text.
type Normalizer interface {
	Normalize(res *acquire.Result) normalize.Document
}

// Extractor reads a profile from text.
type Extractor interface {
	Extract(ctx context.Context, doc normalize.Document) (*extractor.Profile, error)
}

// Generator writes a message for a profile.
type Generator interface {
	Generate(ctx context.Context, p *extractor.Profile) (*generator.Message, error)
}

// Pipeline wires the four stages together.
type Pipeline struct {
	acquirer   Acquirer
	normalizer Normalizer
	extractor  Extractor
	generator  Generator
	baseURL    string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithBaseURL sets the prefix for bare profile identifiers.
func WithBaseURL(u string) Option {
	return func(p *Pipeline) { p.baseURL = u }
}

// New creates a Pipeline.
func New(a Acquirer, n Normalizer, e Extractor, g Generator, opts ...Option) *Pipeline {
	p := &Pipeline{
		acquirer:   a,
		normalizer: n,
		extractor:  e,
		generator:  g,
		baseURL:    DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run processes one target, given as a URL or a bare identifier. It never
// returns nil.
func (p *Pipeline) Run(ctx context.Context, target string) *Outcome {
	start := time.Now()

	targetURL, err := ResolveTarget(target, p.baseURL)
	if err != nil {
		logger.Warn("rejected target", "target", target)
		return fail(KindInvalidTarget, "Invalid profile URL format", target, err)
	}

	log := logger.With("url", targetURL)
	log.Info("processing profile")

	log.Info("step 1: acquiring page")
	res, err := p.acquirer.Acquire(ctx, targetURL)
	if err != nil {
		log.Error("acquisition failed", "error", err)
		return Classify(err, targetURL, nil)
	}

	doc := p.normalizer.Normalize(res)

	log.Info("step 2: extracting profile")
	profile, err := p.extractor.Extract(ctx, doc)
	if err != nil {
		log.Error("extraction failed", "error", err)
		return Classify(err, targetURL, nil)
	}

	log.Info("step 3: generating email")
	msg, err := p.generator.Generate(ctx, profile)
	if err != nil {
		log.Error("generation failed", "error", err)
		return Classify(err, targetURL, profile)
	}

	success := &Success{Profile: *profile, Message: *msg}
	if profile.About == nil {
		success.Warning = WarningNoAbout
		log.Warn(WarningNoAbout)
	}

	log.Info("profile processed", "duration", time.Since(start))
	return &Outcome{Success: success}
}

func fail(kind FailureKind, msg, url string, err error) *Outcome {
	return &Outcome{Failure: &Failure{Kind: kind, Message: msg, URL: url, Err: err}}
}

// Classify maps a stage or provider error onto a failure Outcome. partial
// is the profile already extracted, if any.
func Classify(err error, url string, partial *extractor.Profile) *Outcome {
	var (
		aerr *acquire.Error
		xerr *extractor.Error
		gerr *generator.Error
		perr *llm.ProviderError
	)

	var out *Outcome
	switch {
	case errors.As(err, &aerr):
		kind := KindSessionFailure
		if aerr.Kind == acquire.KindTimeout {
			kind = KindAcquisitionTimeout
		}
		out = fail(kind, aerr.Error(), url, err)
	case errors.As(err, &xerr):
		kind := KindExtractionFailed
		if xerr.Kind == extractor.KindNoIdentifiableData {
			kind = KindNoIdentifiableData
		}
		out = fail(kind, xerr.Error(), url, err)
	case errors.As(err, &gerr):
		out = fail(KindGenerationFailed, gerr.Error(), url, err)
	case errors.As(err, &perr) && perr.Kind == llm.KindNotConfigured:
		out = fail(KindNotConfigured, fmt.Sprintf("LLM provider not configured: %v", perr.Err), url, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		out = fail(KindCanceled, fmt.Sprintf("Request canceled: %v", err), url, err)
	default:
		out = fail(KindInternal, err.Error(), url, err)
	}

	if llm.IsTransient(err) {
		if wait, ok := llm.RetryAfter(err); ok {
			out.Failure.RetryAfter = wait
		}
	}
	out.Failure.Partial = partial
	return out
}
