// Package structured runs an LLM request whose reply must decode into a
// schema-validated Go value, retrying the identical request until it does.
package structured

import (
	"context"
	"errors"
	"time"

	"github.com/jmylchreest/outreach/internal/logger"
	"github.com/jmylchreest/outreach/internal/retry"
	"github.com/jmylchreest/outreach/pkg/llm"
	"github.com/jmylchreest/outreach/pkg/schema"
)

// Trace describes what happened across the attempts of one Call.
type Trace struct {
	Attempts int
	Raw      string // last raw reply, empty if no reply arrived
	Usage    llm.Usage
	Model    string
	Duration time.Duration
}

// Call executes req against p and decodes the reply with s. Transient
// provider errors, unparseable replies and validation failures are retried
// under policy. A NotConfigured provider error is returned immediately.
//
// When every attempt failed the error is a *retry.ExhaustedError wrapping
// the last cause.
func Call[T any](ctx context.Context, p llm.Provider, s *schema.Schema[T], req llm.Request, policy retry.Policy) (T, Trace, error) {
	var (
		out   T
		trace Trace
	)
	start := time.Now()

	err := retry.Do(ctx, policy, func(ctx context.Context, attempt int) error {
		trace.Attempts = attempt

		logger.Debug("llm call",
			"schema", s.Name,
			"provider", p.Name(),
			"model", p.Model(),
			"attempt", attempt,
			"max_attempts", policy.Attempts)

		resp, err := p.Execute(ctx, req)
		if err != nil {
			if llm.IsNotConfigured(err) {
				return retry.Permanent(err)
			}
			logger.Debug("llm call failed", "schema", s.Name, "attempt", attempt, "error", err)
			return err
		}

		trace.Raw = resp.Content
		trace.Model = resp.Model
		trace.Usage.InputTokens += resp.Usage.InputTokens
		trace.Usage.OutputTokens += resp.Usage.OutputTokens

		v, err := s.Decode(resp.Content)
		if err != nil {
			logger.Debug("llm reply rejected",
				"schema", s.Name,
				"attempt", attempt,
				"finish_reason", resp.FinishReason,
				"error", err,
				"raw", resp.Content)
			return err
		}

		out = v
		return nil
	})
	trace.Duration = time.Since(start)

	if err != nil {
		var zero T
		return zero, trace, err
	}

	logger.Debug("llm reply accepted",
		"schema", s.Name,
		"attempts", trace.Attempts,
		"input_tokens", trace.Usage.InputTokens,
		"output_tokens", trace.Usage.OutputTokens,
		"duration", trace.Duration)
	return out, trace, nil
}

// AsExhausted reports whether err means every attempt of a Call failed.
func AsExhausted(err error) (*retry.ExhaustedError, bool) {
	var ex *retry.ExhaustedError
	if errors.As(err, &ex) {
		return ex, true
	}
	return nil, false
}
