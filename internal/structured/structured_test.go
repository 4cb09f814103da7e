package structured

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmylchreest/outreach/internal/mock"
	"github.com/jmylchreest/outreach/internal/retry"
	"github.com/jmylchreest/outreach/pkg/llm"
	"github.com/jmylchreest/outreach/pkg/schema"
)

type greeting struct {
	Text string  `json:"text" validate:"required"`
	Lang *string `json:"lang"`
}

var greetingSchema = schema.MustSchema[greeting]()

var fast = retry.Policy{Attempts: 3, Delay: time.Millisecond}

func request() llm.Request {
	return llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: "say hi"}},
		Shape:    &llm.Shape{Name: "greeting", JSONSchema: greetingSchema.ToJSONSchema()},
	}
}

func TestCall_FirstReplyAccepted(t *testing.T) {
	p := &mock.Provider{ExecuteFn: mock.Replies("```json\n{\"text\": \" hi \", \"lang\": \"null\"}\n```")}

	got, trace, err := Call(context.Background(), p, greetingSchema, request(), fast)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got.Text != "hi" || got.Lang != nil {
		t.Errorf("Call() = %+v", got)
	}
	if trace.Attempts != 1 || p.Calls() != 1 {
		t.Errorf("attempts = %d, calls = %d, want 1", trace.Attempts, p.Calls())
	}
}

func TestCall_RetriesUntilValid(t *testing.T) {
	p := &mock.Provider{ExecuteFn: mock.Replies("not json", `{"text": ""}`, `{"text": "hello"}`)}

	got, trace, err := Call(context.Background(), p, greetingSchema, request(), fast)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got.Text != "hello" {
		t.Errorf("Text = %q", got.Text)
	}
	if trace.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", trace.Attempts)
	}
}

func TestCall_ExhaustedKeepsLastRaw(t *testing.T) {
	p := &mock.Provider{ExecuteFn: mock.Replies("{broken")}

	_, trace, err := Call(context.Background(), p, greetingSchema, request(), fast)

	ex, ok := AsExhausted(err)
	if !ok {
		t.Fatalf("expected exhausted error, got %v", err)
	}
	if ex.Attempts != 3 || p.Calls() != 3 {
		t.Errorf("attempts = %d, calls = %d, want 3", ex.Attempts, p.Calls())
	}
	if trace.Raw != "{broken" {
		t.Errorf("Raw = %q", trace.Raw)
	}
}

func TestCall_NotConfiguredIsNotRetried(t *testing.T) {
	cause := &llm.ProviderError{Kind: llm.KindNotConfigured, Backend: llm.BackendOpenAI, Err: errors.New("missing key")}
	p := &mock.Provider{ExecuteFn: func(context.Context, llm.Request) (*llm.Response, error) {
		return nil, cause
	}}

	_, _, err := Call(context.Background(), p, greetingSchema, request(), fast)
	if !llm.IsNotConfigured(err) {
		t.Fatalf("expected NotConfigured, got %v", err)
	}
	if _, ok := AsExhausted(err); ok {
		t.Error("NotConfigured must not be reported as exhausted")
	}
	if p.Calls() != 1 {
		t.Errorf("calls = %d, want 1", p.Calls())
	}
}

func TestCall_TransientErrorsRetried(t *testing.T) {
	calls := 0
	p := &mock.Provider{ExecuteFn: func(context.Context, llm.Request) (*llm.Response, error) {
		calls++
		if calls == 1 {
			return nil, &llm.ProviderError{Kind: llm.KindTransient, Backend: llm.BackendOpenAI, StatusCode: 500, Err: errors.New("boom")}
		}
		return &llm.Response{Content: `{"text": "ok", "lang": "en"}`}, nil
	}}

	got, _, err := Call(context.Background(), p, greetingSchema, request(), fast)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if got.Lang == nil || *got.Lang != "en" {
		t.Errorf("Lang = %v", got.Lang)
	}
}

func TestCall_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &mock.Provider{ExecuteFn: func(context.Context, llm.Request) (*llm.Response, error) {
		cancel()
		return &llm.Response{Content: "garbage"}, nil
	}}

	_, _, err := Call(ctx, p, greetingSchema, request(), retry.Policy{Attempts: 5, Delay: time.Hour})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if p.Calls() != 1 {
		t.Errorf("calls = %d, want 1", p.Calls())
	}
}
