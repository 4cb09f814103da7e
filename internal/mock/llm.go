// Package mock provides function-field fakes for the pipeline's
// collaborators. A nil function field panics when called.
package mock

import (
	"context"
	"sync"

	"github.com/jmylchreest/outreach/pkg/llm"
)

var _ llm.Provider = (*Provider)(nil)

// Provider is a mock implementation of llm.Provider that records requests.
type Provider struct {
	ExecuteFn func(ctx context.Context, req llm.Request) (*llm.Response, error)
	NameValue  string
	ModelValue string

	mu       sync.Mutex
	requests []llm.Request
}

func (p *Provider) Execute(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	return p.ExecuteFn(ctx, req)
}

func (p *Provider) Name() string {
	if p.NameValue == "" {
		return "mock"
	}
	return p.NameValue
}

func (p *Provider) Model() string {
	if p.ModelValue == "" {
		return "mock-1"
	}
	return p.ModelValue
}

// Calls returns how many times Execute ran.
func (p *Provider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// Requests returns a copy of the recorded requests.
func (p *Provider) Requests() []llm.Request {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]llm.Request(nil), p.requests...)
}

// Replies returns an ExecuteFn answering with contents in order; the last
// one repeats.
func Replies(contents ...string) func(ctx context.Context, req llm.Request) (*llm.Response, error) {
	var mu sync.Mutex
	i := 0
	return func(ctx context.Context, req llm.Request) (*llm.Response, error) {
		mu.Lock()
		defer mu.Unlock()
		c := contents[min(i, len(contents)-1)]
		i++
		return &llm.Response{Content: c, Model: "mock-1"}, nil
	}
}
