package acquire

import (
	"fmt"
	"strings"
	"time"
)

// LoginMethod selects how a session provider authenticates.
type LoginMethod string

const (
	// LoginCredentials signs in with email and password on every session.
	LoginCredentials LoginMethod = "credentials"
	// LoginChromeProfile reuses a browser profile that is already signed in.
	LoginChromeProfile LoginMethod = "chrome_profile"
	// LoginNone browses anonymously.
	LoginNone LoginMethod = "none"
)

// ParseLoginMethod validates a login method name.
func ParseLoginMethod(s string) (LoginMethod, error) {
	switch m := LoginMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return LoginCredentials, nil
	case LoginCredentials, LoginChromeProfile, LoginNone:
		return m, nil
	default:
		return "", fmt.Errorf("unknown login method %q (available: credentials, chrome_profile, none)", s)
	}
}

// Sign-in page and form selectors.
const (
	DefaultLoginURL = "https://www.linkedin.com/checkpoint/rm/sign-in-another-account"
	UsernameField   = "#username"
	PasswordField   = "#password"
	SubmitButton    = `button[aria-label="Sign in"], button[type="submit"]`
)

// Login holds the session-acquisition settings shared by every engine.
type Login struct {
	Method      LoginMethod
	Email       string
	Password    string
	UserDataDir string        // for LoginChromeProfile
	URL         string        // sign-in page; default DefaultLoginURL
	Wait        time.Duration // pause after submitting; default 5s
}

// Defaults fills unset fields.
func (l *Login) Defaults() {
	if l.Method == "" {
		l.Method = LoginCredentials
	}
	if l.URL == "" {
		l.URL = DefaultLoginURL
	}
	if l.Wait <= 0 {
		l.Wait = 5 * time.Second
	}
	l.UserDataDir = strings.Trim(l.UserDataDir, `"'`)
}

// HasCredentials reports whether both email and password are set.
func (l Login) HasCredentials() bool {
	return l.Email != "" && l.Password != ""
}

// LoggedIn reports whether the URL reached after submitting the sign-in
// form looks like a signed-in page.
func LoggedIn(currentURL string) bool {
	return strings.Contains(currentURL, "/feed") || !strings.Contains(currentURL, "checkpoint")
}

// DefaultUserAgent is a desktop Chrome user agent.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Default desktop viewport.
const (
	DefaultWindowWidth  = 1920
	DefaultWindowHeight = 1080
)
