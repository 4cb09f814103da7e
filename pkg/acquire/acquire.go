// Package acquire loads a profile page in a browser session, expands the
// truncated sections it can find and returns the rendered markup.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/outreach/internal/logger"
)

// Result holds the markup of a loaded page.
type Result struct {
	URL       string
	HTML      string
	Expanded  int // expansion controls clicked
	FetchedAt time.Time
}

// Control is a clickable element found on the page.
type Control interface {
	Text(ctx context.Context) (string, error)
	Visible(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
}

// Session is one browser tab owned by a single Acquire call.
type Session interface {
	Navigate(ctx context.Context, url string) error
	// WaitReady blocks until selector matches an element or ctx is done.
	WaitReady(ctx context.Context, selector string) error
	// Controls returns the elements currently matching selector, possibly none.
	Controls(ctx context.Context, selector string) ([]Control, error)
	HTML(ctx context.Context) (string, error)
	Close() error
}

// SessionProvider opens sessions. Login happens inside Open.
type SessionProvider interface {
	Open(ctx context.Context) (Session, error)
}

// DefaultExpansionSelector matches collapsed disclosure buttons.
const DefaultExpansionSelector = `button[aria-expanded="false"], [role="button"][aria-expanded="false"]`

// DefaultExpansionPhrases are matched case-insensitively against control text.
var DefaultExpansionPhrases = []string{"see more", "…see more", "show more"}

// Config tunes page loading and the expansion pass.
type Config struct {
	// ContentSelector marks a loaded page. Default: "main".
	ContentSelector string
	// PageLoadTimeout bounds navigation plus the wait for ContentSelector.
	// Default: 30s.
	PageLoadTimeout time.Duration
	// Settle is an extra pause after the content marker appears (0 = none).
	Settle time.Duration
	// MaxExpansions caps the clicks of one pass. Default: 20.
	MaxExpansions int
	// ClickPause is waited after each successful click (0 = none).
	ClickPause time.Duration
	// ExpansionSelector finds candidate controls.
	ExpansionSelector string
	// ExpansionPhrases filters candidates by their visible text.
	ExpansionPhrases []string
}

func (c *Config) defaults() {
	if c.ContentSelector == "" {
		c.ContentSelector = "main"
	}
	if c.PageLoadTimeout <= 0 {
		c.PageLoadTimeout = 30 * time.Second
	}
	if c.MaxExpansions <= 0 {
		c.MaxExpansions = 20
	}
	if c.ExpansionSelector == "" {
		c.ExpansionSelector = DefaultExpansionSelector
	}
	if len(c.ExpansionPhrases) == 0 {
		c.ExpansionPhrases = DefaultExpansionPhrases
	}
}

// Acquirer drives one session per call.
type Acquirer struct {
	sessions SessionProvider
	cfg      Config
}

// New creates an Acquirer. Zero Config fields take their defaults.
func New(sessions SessionProvider, cfg Config) *Acquirer {
	cfg.defaults()
	return &Acquirer{sessions: sessions, cfg: cfg}
}

// Acquire loads targetURL and returns its markup after the expansion pass.
// Errors are always *Error. The session is closed before returning.
func (a *Acquirer) Acquire(ctx context.Context, targetURL string) (*Result, error) {
	log := logger.With("url", targetURL)
	log.Info("acquiring page")
	start := time.Now()

	sess, err := a.sessions.Open(ctx)
	if err != nil {
		return nil, &Error{Kind: KindSessionFailure, URL: targetURL, Err: err}
	}
	defer func() {
		if cerr := sess.Close(); cerr != nil {
			log.Debug("session close failed", "error", cerr)
		}
	}()

	loadCtx, cancel := context.WithTimeout(ctx, a.cfg.PageLoadTimeout)
	err = sess.Navigate(loadCtx, targetURL)
	if err == nil {
		err = sess.WaitReady(loadCtx, a.cfg.ContentSelector)
	}
	timedOut := ctx.Err() == nil &&
		(errors.Is(loadCtx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded))
	cancel()
	if err != nil {
		if timedOut {
			log.Warn("page load timed out", "selector", a.cfg.ContentSelector, "timeout", a.cfg.PageLoadTimeout)
			return nil, &Error{Kind: KindTimeout, URL: targetURL, Timeout: a.cfg.PageLoadTimeout, Err: err}
		}
		return nil, &Error{Kind: KindSessionFailure, URL: targetURL, Err: err}
	}

	if err := sleep(ctx, a.cfg.Settle); err != nil {
		return nil, &Error{Kind: KindSessionFailure, URL: targetURL, Err: err}
	}

	expanded := a.expand(ctx, sess)

	html, err := sess.HTML(ctx)
	if err != nil {
		return nil, &Error{Kind: KindSessionFailure, URL: targetURL, Err: fmt.Errorf("reading page markup: %w", err)}
	}
	if strings.TrimSpace(html) == "" {
		return nil, &Error{Kind: KindSessionFailure, URL: targetURL, Err: errors.New("page returned no markup")}
	}

	log.Info("page acquired",
		"html_size", len(html),
		"expanded", expanded,
		"duration", time.Since(start).Round(time.Millisecond))

	return &Result{
		URL:       targetURL,
		HTML:      html,
		Expanded:  expanded,
		FetchedAt: time.Now(),
	}, nil
}

// expand clicks matching controls one by one. A failing control is logged
// and skipped; the pass never fails.
func (a *Acquirer) expand(ctx context.Context, sess Session) int {
	controls, err := sess.Controls(ctx, a.cfg.ExpansionSelector)
	if err != nil {
		logger.Debug("expansion candidates lookup failed", "error", err)
		return 0
	}
	if len(controls) == 0 {
		logger.Debug("no expansion controls found")
		return 0
	}

	clicked := 0
	for i, c := range controls {
		if clicked >= a.cfg.MaxExpansions {
			logger.Debug("expansion limit reached", "limit", a.cfg.MaxExpansions, "remaining", len(controls)-i)
			break
		}
		if ctx.Err() != nil {
			break
		}

		text, err := c.Text(ctx)
		if err != nil {
			logger.Debug("skipping expansion control", "index", i, "error", err)
			continue
		}
		if !a.matchesPhrase(text) {
			continue
		}
		visible, err := c.Visible(ctx)
		if err != nil || !visible {
			logger.Debug("skipping hidden expansion control", "index", i, "error", err)
			continue
		}
		if err := c.Click(ctx); err != nil {
			logger.Debug("expansion click failed", "index", i, "error", err)
			continue
		}
		clicked++

		if err := sleep(ctx, a.cfg.ClickPause); err != nil {
			break
		}
	}

	if clicked > 0 {
		logger.Info("expanded truncated sections", "clicked", clicked, "candidates", len(controls))
	}
	return clicked
}

func (a *Acquirer) matchesPhrase(text string) bool {
	text = strings.ToLower(strings.Join(strings.Fields(text), " "))
	for _, p := range a.cfg.ExpansionPhrases {
		if strings.Contains(text, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
