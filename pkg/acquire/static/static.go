// Package static opens acquire sessions that fetch a page over plain HTTP
// with colly. Nothing is rendered or clicked, so it only suits pages whose
// content is in the served markup.
package static

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"

	"github.com/jmylchreest/outreach/internal/logger"
	"github.com/jmylchreest/outreach/pkg/acquire"
)

// ErrSelectorNotFound is returned by WaitReady when the fetched markup has
// no element matching the content selector.
var ErrSelectorNotFound = errors.New("content selector not found in page")

// Config configures the HTTP client of each session.
type Config struct {
	UserAgent string
	// Timeout bounds one request when ctx carries no deadline.
	Timeout time.Duration
	Headers map[string]string
	Login   acquire.Login
}

// Provider implements acquire.SessionProvider.
type Provider struct {
	cfg Config
}

var _ acquire.SessionProvider = (*Provider)(nil)

// New creates a static session provider.
func New(cfg Config) *Provider {
	if cfg.UserAgent == "" {
		cfg.UserAgent = acquire.DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Provider{cfg: cfg}
}

// Open returns a session. It never fails.
func (p *Provider) Open(_ context.Context) (acquire.Session, error) {
	if p.cfg.Login.Method != "" && p.cfg.Login.Method != acquire.LoginNone {
		logger.Warn("static engine cannot log in; fetching anonymously", "login", p.cfg.Login.Method)
	}
	return &Session{cfg: p.cfg}, nil
}

// Session holds the body of the last navigation.
type Session struct {
	cfg    Config
	url    string
	status int
	html   string
}

var _ acquire.Session = (*Session)(nil)

// Navigate fetches url. Non-2xx responses are errors.
func (s *Session) Navigate(ctx context.Context, url string) error {
	// ctx governs when it has a deadline
	timeout := s.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline) + time.Second
	}

	c := colly.NewCollector(
		colly.UserAgent(s.cfg.UserAgent),
		colly.StdlibContext(ctx),
		colly.AllowURLRevisit(),
	)
	c.SetRequestTimeout(timeout)

	if len(s.cfg.Headers) > 0 {
		c.OnRequest(func(r *colly.Request) {
			for k, v := range s.cfg.Headers {
				r.Headers.Set(k, v)
			}
		})
	}

	var fetchErr error
	c.OnResponse(func(r *colly.Response) {
		s.status = r.StatusCode
		s.html = string(r.Body)
		logger.Debug("static fetch response", "status", r.StatusCode, "bytes", len(r.Body))
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			s.status = r.StatusCode
		}
		fetchErr = fmt.Errorf("fetch %s (status %d): %w", url, s.status, err)
	})

	s.url = url
	err := c.Visit(url)
	switch {
	case ctx.Err() != nil:
		return ctx.Err()
	case fetchErr != nil:
		return fetchErr
	case err != nil:
		return fmt.Errorf("visit %s: %w", url, err)
	}
	return nil
}

// WaitReady checks the fetched markup once. The page cannot change, so
// there is nothing to wait for.
func (s *Session) WaitReady(ctx context.Context, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s.html))
	if err != nil {
		return fmt.Errorf("parse %s: %w", s.url, err)
	}
	if doc.Find(selector).Length() == 0 {
		return fmt.Errorf("%w: %q", ErrSelectorNotFound, selector)
	}
	return nil
}

// Controls always returns none.
func (s *Session) Controls(context.Context, string) ([]acquire.Control, error) {
	return nil, nil
}

// HTML returns the fetched body.
func (s *Session) HTML(context.Context) (string, error) {
	if s.url == "" {
		return "", errors.New("no page loaded")
	}
	return s.html, nil
}

// Close is a no-op.
func (s *Session) Close() error { return nil }
