package mock

import (
	"context"

	"github.com/jmylchreest/outreach/pkg/acquire"
)

var (
	_ acquire.SessionProvider = (*SessionProvider)(nil)
	_ acquire.Session         = (*Session)(nil)
	_ acquire.Control         = (*Control)(nil)
)

// SessionProvider is a mock implementation of acquire.SessionProvider.
type SessionProvider struct {
	OpenFn func(ctx context.Context) (acquire.Session, error)
	Opened int
}

func (p *SessionProvider) Open(ctx context.Context) (acquire.Session, error) {
	p.Opened++
	return p.OpenFn(ctx)
}

// Session is a mock implementation of acquire.Session.
type Session struct {
	NavigateFn  func(ctx context.Context, url string) error
	WaitReadyFn func(ctx context.Context, selector string) error
	ControlsFn  func(ctx context.Context, selector string) ([]acquire.Control, error)
	HTMLFn      func(ctx context.Context) (string, error)
	CloseFn     func() error

	Closed int
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	return s.NavigateFn(ctx, url)
}

func (s *Session) WaitReady(ctx context.Context, selector string) error {
	return s.WaitReadyFn(ctx, selector)
}

func (s *Session) Controls(ctx context.Context, selector string) ([]acquire.Control, error) {
	return s.ControlsFn(ctx, selector)
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	return s.HTMLFn(ctx)
}

func (s *Session) Close() error {
	s.Closed++
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}

// StaticSession returns a Session that loads instantly, has no expansion
// controls and serves html.
func StaticSession(html string) *Session {
	return &Session{
		NavigateFn:  func(ctx context.Context, url string) error { return nil },
		WaitReadyFn: func(ctx context.Context, selector string) error { return nil },
		ControlsFn:  func(ctx context.Context, selector string) ([]acquire.Control, error) { return nil, nil },
		HTMLFn:      func(ctx context.Context) (string, error) { return html, nil },
	}
}

// Control is a mock implementation of acquire.Control.
type Control struct {
	TextFn    func(ctx context.Context) (string, error)
	VisibleFn func(ctx context.Context) (bool, error)
	ClickFn   func(ctx context.Context) error

	Clicks int
}

func (c *Control) Text(ctx context.Context) (string, error) {
	return c.TextFn(ctx)
}

func (c *Control) Visible(ctx context.Context) (bool, error) {
	return c.VisibleFn(ctx)
}

func (c *Control) Click(ctx context.Context) error {
	c.Clicks++
	return c.ClickFn(ctx)
}

// Button returns a visible Control with the given text whose clicks return
// clickErr.
func Button(text string, clickErr error) *Control {
	return &Control{
		TextFn:    func(ctx context.Context) (string, error) { return text, nil },
		VisibleFn: func(ctx context.Context) (bool, error) { return true, nil },
		ClickFn:   func(ctx context.Context) error { return clickErr },
	}
}
