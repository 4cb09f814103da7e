package llm

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Provider with a shared token bucket. Safe for
// concurrent use.
type RateLimited struct {
	Provider
	limiter *rate.Limiter
}

// NewRateLimited allows rps calls per second with the given burst.
func NewRateLimited(p Provider, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{Provider: p, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Execute waits for a token, then delegates.
func (r *RateLimited) Execute(ctx context.Context, req Request) (*Response, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return r.Provider.Execute(ctx, req)
}

// ListModels delegates when the wrapped provider can list models.
func (r *RateLimited) ListModels(ctx context.Context) ([]ModelInfo, error) {
	if ml, ok := AsModelLister(r.Provider); ok {
		return ml.ListModels(ctx)
	}
	return nil, nil
}

// Unwrap returns the wrapped provider.
func (r *RateLimited) Unwrap() Provider {
	return r.Provider
}
