package commands

import (
	"context"

	"github.com/jmylchreest/outreach/internal/config"
	"github.com/jmylchreest/outreach/internal/logger"
	"github.com/jmylchreest/outreach/pkg/acquire"
	"github.com/jmylchreest/outreach/pkg/acquire/chrome"
	"github.com/jmylchreest/outreach/pkg/acquire/rod"
	"github.com/jmylchreest/outreach/pkg/acquire/static"
	"github.com/jmylchreest/outreach/pkg/extractor"
	"github.com/jmylchreest/outreach/pkg/generator"
	"github.com/jmylchreest/outreach/pkg/llm"
	"github.com/jmylchreest/outreach/pkg/normalize"
	"github.com/jmylchreest/outreach/pkg/pipeline"
)

// runner is the part of *pipeline.Pipeline the commands depend on.
type runner interface {
	Run(ctx context.Context, target string) *pipeline.Outcome
}

// sessionProvider picks the browser engine.
func sessionProvider(s config.Settings) acquire.SessionProvider {
	if s.Login.Method == acquire.LoginNone {
		logger.Warn("running without login; private profiles may fail")
	}

	switch s.Browser.Engine {
	case config.EngineRod:
		return rod.New(rod.Config{
			Headless: s.Browser.Headless,
			Bin:      s.Browser.ExecPath,
			Login:    s.Login,
		})
	case config.EngineStatic:
		return static.New(static.Config{
			Timeout: s.Browser.PageLoadTimeout,
			Login:   s.Login,
		})
	}
	return chrome.New(chrome.Config{
		Headless: s.Browser.Headless,
		ExecPath: s.Browser.ExecPath,
		Login:    s.Login,
	})
}

// newProvider resolves the LLM backend. It fails with a NotConfigured
// ProviderError before any network traffic when credentials are missing.
func newProvider(ctx context.Context, s config.Settings) (llm.Provider, error) {
	p, err := llm.New(ctx, s.LLM())
	if err != nil {
		return nil, err
	}
	logger.Info("llm provider ready", "provider", p.Name(), "model", p.Model())
	return p, nil
}

// buildPipeline wires every stage from s.
func buildPipeline(ctx context.Context, s config.Settings) (runner, error) {
	provider, err := newProvider(ctx, s)
	if err != nil {
		return nil, err
	}

	acq := acquire.New(sessionProvider(s), acquire.Config{
		ContentSelector: s.Browser.ContentSelector,
		PageLoadTimeout: s.Browser.PageLoadTimeout,
		Settle:          s.Browser.Settle,
		MaxExpansions:   s.Browser.MaxExpansions,
		ClickPause:      s.Browser.ClickPause,
	})

	norm := normalize.New(normalize.Config{
		MaxChars:    s.Normalize.MaxChars,
		Format:      s.Normalize.Format,
		Boilerplate: s.Normalize.Boilerplate,
		DumpPath:    s.Normalize.DumpPath,
	})

	ext := extractor.New(provider,
		extractor.WithRetry(s.Retry.MaxRetries, s.Retry.Delay, s.Retry.Backoff),
		extractor.WithMaxDelay(s.Retry.MaxDelay))
	gen := generator.New(provider,
		generator.WithRetry(s.Retry.MaxRetries, s.Retry.Delay, s.Retry.Backoff),
		generator.WithMaxDelay(s.Retry.MaxDelay))

	return pipeline.New(acq, norm, ext, gen, pipeline.WithBaseURL(s.Target.BaseURL)), nil
}
