// Package chrome opens acquire sessions on a local Chrome driven through
// the DevTools protocol with chromedp.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/outreach/internal/logger"
	"github.com/jmylchreest/outreach/pkg/acquire"
)

// Config configures the browser launched for each session.
type Config struct {
	Headless  bool
	UserAgent string
	Width     int
	Height    int
	// ExecPath overrides the Chrome binary; empty means FindChromePath.
	ExecPath string
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

// Provider implements acquire.SessionProvider. Every Open launches a fresh
// browser process that Close tears down.
type Provider struct {
	cfg Config
}

// New creates a chromedp session provider.
func New(cfg Config) *Provider {
	cfg.defaults()
	return &Provider{cfg: cfg}
}

var _ acquire.SessionProvider = (*Provider)(nil)

func (p *Provider) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", p.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(p.cfg.Width, p.cfg.Height),
		chromedp.UserAgent(p.cfg.UserAgent),
	)

	execPath := p.cfg.ExecPath
	if execPath == "" {
		execPath = FindChromePath()
	}
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	if p.cfg.Login.Method == acquire.LoginChromeProfile && p.cfg.Login.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(p.cfg.Login.UserDataDir))
	}
	return opts
}

// Open starts a browser, signs in according to the login method and
// returns a session on a blank tab.
func (p *Provider) Open(ctx context.Context) (acquire.Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), p.allocatorOptions()...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(func(format string, args ...any) {
			logger.Debug("chromedp", "msg", fmt.Sprintf(format, args...))
		}),
	)

	s := &session{
		ctx:            tabCtx,
		controlTimeout: p.cfg.ControlTimeout,
		cancel: func() {
			cancelTab()
			cancelAlloc()
		},
	}

	// An empty Run starts the browser.
	if err := s.run(ctx); err != nil {
		s.cancel()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	logger.Debug("browser started", "headless", p.cfg.Headless, "login", p.cfg.Login.Method)

	if err := p.login(ctx, s); err != nil {
		s.cancel()
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
	var location string
	err := s.run(ctx,
		chromedp.Navigate(l.URL),
		chromedp.WaitVisible(acquire.UsernameField, chromedp.ByQuery),
		chromedp.SendKeys(acquire.UsernameField, l.Email, chromedp.ByQuery),
		chromedp.SendKeys(acquire.PasswordField, l.Password, chromedp.ByQuery),
		chromedp.Click(acquire.SubmitButton, chromedp.ByQuery),
		chromedp.Sleep(l.Wait),
		chromedp.Location(&location),
	)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// a broken sign-in form still leaves public profiles reachable
		logger.Warn("login failed, continuing anonymously", "error", err)
		return nil
	}

	if acquire.LoggedIn(location) {
		logger.Info("logged in")
	} else {
		logger.Warn("login may have failed", "url", location)
	}
	return nil
}

type session struct {
	ctx            context.Context
	cancel         func()
	controlTimeout time.Duration
}

var _ acquire.Session = (*session)(nil)

// run executes actions on the tab, bounded by ctx as well as the tab's
// own lifetime.
func (s *session) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	if deadline, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		runCtx, cancelDeadline = context.WithDeadline(runCtx, deadline)
		defer cancelDeadline()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", context.DeadlineExceeded, err)
	}
	return err
}

func (s *session) Navigate(ctx context.Context, url string) error {
	return s.run(ctx, chromedp.Navigate(url))
}

func (s *session) WaitReady(ctx context.Context, selector string) error {
	return s.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

func (s *session) Controls(ctx context.Context, selector string) ([]acquire.Control, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, err
	}
	controls := make([]acquire.Control, 0, len(nodes))
	for _, n := range nodes {
		controls = append(controls, &control{s: s, node: n})
	}
	return controls, nil
}

func (s *session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", err
	}
	return html, nil
}

func (s *session) Close() error {
	s.cancel()
	return nil
}

type control struct {
	s    *session
	node *cdp.Node
}

func (c *control) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.s.controlTimeout)
}

func (c *control) Text(ctx context.Context) (string, error) {
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	var text string
	err := c.s.run(ctx, chromedp.Text([]cdp.NodeID{c.node.NodeID}, &text, chromedp.ByNodeID))
	return strings.TrimSpace(text), err
}

// Visible reports whether the node has a layout box; display:none nodes
// have none.
func (c *control) Visible(ctx context.Context) (bool, error) {
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	visible := false
	err := c.s.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		model, err := dom.GetBoxModel().WithNodeID(c.node.NodeID).Do(ctx)
		if err != nil {
			return nil
		}
		visible = model != nil && model.Width > 0 && model.Height > 0
		return nil
	}))
	return visible, err
}

func (c *control) Click(ctx context.Context) error {
	ctx, cancel := c.bounded(ctx)
	defer cancel()

	return c.s.run(ctx,
		dom.ScrollIntoViewIfNeeded().WithNodeID(c.node.NodeID),
		chromedp.MouseClickNode(c.node),
	)
}
