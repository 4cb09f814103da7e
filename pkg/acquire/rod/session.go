// Package rod opens acquire sessions with go-rod. It finds or downloads a
// browser through rod's launcher, which helps on hosts without Chrome.
package rod

import (
	"context"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/jmylchreest/outreach/internal/logger"
	"github.com/jmylchreest/outreach/pkg/acquire"
)

// Config configures the browser launched for each session.
type Config struct {
	Headless  bool
	UserAgent string
	Width     int
	Height    int
	// Bin overrides the browser binary; empty lets the launcher decide.
	Bin string
	// ControlTimeout bounds each per-element operation of the expansion pass.
	ControlTimeout time.Duration
	Login          acquire.Login
}

func (c *Config) defaults() {
	if c.UserAgent == "" {
		c.UserAgent = acquire.DefaultUserAgent
	}
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = acquire.DefaultWindowWidth, acquire.DefaultWindowHeight
	}
	if c.ControlTimeout <= 0 {
		c.ControlTimeout = 5 * time.Second
	}
	c.Login.Defaults()
}

// Provider implements acquire.SessionProvider.
type Provider struct {
	cfg Config
}

// New creates a rod session provider.
func New(cfg Config) *Provider {
	cfg.defaults()
	return &Provider{cfg: cfg}
}

var _ acquire.SessionProvider = (*Provider)(nil)

func (p *Provider) launcher() *launcher.Launcher {
	l := launcher.New().
		Headless(p.cfg.Headless).
		Set("window-size", fmt.Sprintf("%d,%d", p.cfg.Width, p.cfg.Height)).
		Set("user-agent", p.cfg.UserAgent)
	if p.cfg.Bin != "" {
		l = l.Bin(p.cfg.Bin)
	}
	if p.cfg.Login.Method == acquire.LoginChromeProfile && p.cfg.Login.UserDataDir != "" {
		l = l.UserDataDir(p.cfg.Login.UserDataDir)
	}
	return l
}

// Open launches a browser, signs in according to the login method and
// returns a session on a blank page.
func (p *Provider) Open(ctx context.Context) (acquire.Session, error) {
	l := p.launcher().Context(ctx)
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		l.Kill()
		return nil, fmt.Errorf("opening page: %w", err)
	}

	s := &session{browser: browser, page: page, launcher: l, controlTimeout: p.cfg.ControlTimeout}
	if err := p.login(ctx, s); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (p *Provider) login(ctx context.Context, s *session) error {
	l := p.cfg.Login
	switch l.Method {
	case acquire.LoginNone:
		logger.Warn("no login method configured, private profiles may not load")
		return nil
	case acquire.LoginChromeProfile:
		if l.UserDataDir == "" {
			logger.Warn("chrome_profile login without a user data dir, browsing anonymously")
		}
		return nil
	}
	if !l.HasCredentials() {
		logger.Info("no LinkedIn credentials provided, skipping login")
		return nil
	}

	logger.Info("logging in")
	page := s.page.Context(ctx)
	err := rod.Try(func() {
		page.MustNavigate(l.URL).MustWaitLoad()
		page.MustElement(acquire.UsernameField).MustInput(l.Email)
		page.MustElement(acquire.PasswordField).MustInput(l.Password)
		page.MustElement(acquire.SubmitButton).MustClick()
	})
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn("login failed, continuing anonymously", "error", err)
		return nil
	}

	select {
	case <-time.After(l.Wait):
	case <-ctx.Done():
		return ctx.Err()
	}

	info, err := page.Info()
	if err != nil {
		logger.Warn("login state unknown", "error", err)
		return nil
	}
	if acquire.LoggedIn(info.URL) {
		logger.Info("logged in")
	} else {
		logger.Warn("login may have failed", "url", info.URL)
	}
	return nil
}

type session struct {
	browser        *rod.Browser
	page           *rod.Page
	launcher       *launcher.Launcher
	controlTimeout time.Duration
}

var _ acquire.Session = (*session)(nil)

func (s *session) Navigate(ctx context.Context, url string) error {
	return s.page.Context(ctx).Navigate(url)
}

func (s *session) WaitReady(ctx context.Context, selector string) error {
	_, err := s.page.Context(ctx).Element(selector)
	return err
}

func (s *session) Controls(ctx context.Context, selector string) ([]acquire.Control, error) {
	// Elements does not wait; an empty result is valid.
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	controls := make([]acquire.Control, 0, len(els))
	for _, el := range els {
		controls = append(controls, &control{el: el, timeout: s.controlTimeout})
	}
	return controls, nil
}

func (s *session) HTML(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *session) Close() error {
	err := s.browser.Close()
	s.launcher.Kill()
	return err
}

type control struct {
	el      *rod.Element
	timeout time.Duration
}

func (c *control) bound(ctx context.Context) (*rod.Element, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	return c.el.Context(ctx), cancel
}

func (c *control) Text(ctx context.Context) (string, error) {
	el, cancel := c.bound(ctx)
	defer cancel()
	return el.Text()
}

func (c *control) Visible(ctx context.Context) (bool, error) {
	el, cancel := c.bound(ctx)
	defer cancel()
	return el.Visible()
}

func (c *control) Click(ctx context.Context) error {
	el, cancel := c.bound(ctx)
	defer cancel()
	if err := el.ScrollIntoView(); err != nil {
		return err
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}
