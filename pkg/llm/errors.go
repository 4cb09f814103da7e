package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/openai/openai-go"
	"google.golang.org/genai"
)

// ErrorKind classifies provider failures.
type ErrorKind int

const (
	// KindNotConfigured means no usable credentials; retrying cannot help.
	KindNotConfigured ErrorKind = iota + 1
	// KindTransient covers every failed backend call (network, rate limit,
	// server error, malformed reply envelope).
	KindTransient
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotConfigured:
		return "not_configured"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// ProviderError is returned by Resolve, New and Provider.Execute.
type ProviderError struct {
	Kind       ErrorKind
	Backend    Backend
	StatusCode int           // HTTP status when the backend answered
	RetryAfter time.Duration // from Retry-After or an equivalent hint
	Err        error
}

func (e *ProviderError) Error() string {
	switch {
	case e.Kind == KindNotConfigured:
		return fmt.Sprintf("%s provider not configured: %v", e.Backend, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s API error (status %d): %v", e.Backend, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("%s API error: %v", e.Backend, e.Err)
	}
}

func (e *ProviderError) Unwrap() error { return e.Err }

// RetryAfterHint lets retry loops wait at least as long as the backend asked.
func (e *ProviderError) RetryAfterHint() time.Duration { return e.RetryAfter }

func notConfigured(b Backend, err error) *ProviderError {
	return &ProviderError{Kind: KindNotConfigured, Backend: b, Err: err}
}

// IsTransient reports whether err carries a transient ProviderError.
func IsTransient(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindTransient
}

// IsNotConfigured reports whether err carries a NotConfigured ProviderError.
func IsNotConfigured(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Kind == KindNotConfigured
}

// RetryAfter returns the retry hint carried by err, if any.
func RetryAfter(err error) (time.Duration, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) && pe.RetryAfter > 0 {
		return pe.RetryAfter, true
	}
	return 0, false
}

// classify turns an SDK error into a ProviderError. Rejected credentials are
// reported as NotConfigured; everything else is transient.
func classify(b Backend, err error) error {
	if err == nil {
		return nil
	}
	// Caller cancellation is not a backend failure.
	if errors.Is(err, context.Canceled) {
		return err
	}

	pe := &ProviderError{Kind: KindTransient, Backend: b, Err: err}

	var oaErr *openai.Error
	var anErr *anthropic.Error
	var gErr genai.APIError
	switch {
	case errors.As(err, &oaErr):
		pe.StatusCode = oaErr.StatusCode
		if oaErr.Response != nil {
			pe.RetryAfter = parseRetryAfter(oaErr.Response.Header, time.Now())
		}
	case errors.As(err, &anErr):
		pe.StatusCode = anErr.StatusCode
		if anErr.Response != nil {
			pe.RetryAfter = parseRetryAfter(anErr.Response.Header, time.Now())
		}
	case errors.As(err, &gErr):
		pe.StatusCode = gErr.Code
		pe.RetryAfter = geminiRetryDelay(gErr.Details)
	}

	if pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusForbidden {
		pe.Kind = KindNotConfigured
	}
	return pe
}

// parseRetryAfter reads retry-after-ms, then Retry-After as seconds or an
// HTTP date.
func parseRetryAfter(h http.Header, now time.Time) time.Duration {
	if h == nil {
		return 0
	}
	if ms := strings.TrimSpace(h.Get("Retry-After-Ms")); ms != "" {
		if v, err := strconv.ParseFloat(ms, 64); err == nil && v > 0 {
			return time.Duration(v * float64(time.Millisecond))
		}
	}
	ra := strings.TrimSpace(h.Get("Retry-After"))
	if ra == "" {
		return 0
	}
	if secs, err := strconv.ParseFloat(ra, 64); err == nil {
		if secs <= 0 {
			return 0
		}
		return time.Duration(secs * float64(time.Second))
	}
	if t, err := http.ParseTime(ra); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

// geminiRetryDelay extracts google.rpc.RetryInfo.retryDelay (e.g. "31s").
func geminiRetryDelay(details []map[string]any) time.Duration {
	for _, d := range details {
		t, _ := d["@type"].(string)
		if !strings.HasSuffix(t, "google.rpc.RetryInfo") {
			continue
		}
		delay, _ := d["retryDelay"].(string)
		if v, err := time.ParseDuration(delay); err == nil && v > 0 {
			return v
		}
	}
	return 0
}
