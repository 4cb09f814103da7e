package chrome

import (
	"testing"
	"time"

	"github.com/jmylchreest/outreach/pkg/acquire"
)

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}
	cfg.defaults()

	if cfg.UserAgent != acquire.DefaultUserAgent {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Width != 1920 || cfg.Height != 1080 {
		t.Errorf("window = %dx%d, want 1920x1080", cfg.Width, cfg.Height)
	}
	if cfg.ControlTimeout != 5*time.Second {
		t.Errorf("ControlTimeout = %v", cfg.ControlTimeout)
	}
	if cfg.Login.Method != acquire.LoginCredentials {
		t.Errorf("Login.Method = %q", cfg.Login.Method)
	}
}

func TestAllocatorOptions(t *testing.T) {
	base := len(New(Config{ExecPath: "/opt/chrome"}).allocatorOptions())

	withProfile := New(Config{
		ExecPath: "/opt/chrome",
		Login:    acquire.Login{Method: acquire.LoginChromeProfile, UserDataDir: "/tmp/profile"},
	}).allocatorOptions()
	if len(withProfile) != base+1 {
		t.Errorf("chrome_profile should add a user data dir option: got %d options, base %d", len(withProfile), base)
	}

	profileWithoutDir := New(Config{
		ExecPath: "/opt/chrome",
		Login:    acquire.Login{Method: acquire.LoginChromeProfile},
	}).allocatorOptions()
	if len(profileWithoutDir) != base {
		t.Errorf("chrome_profile without a dir should not add options: got %d, base %d", len(profileWithoutDir), base)
	}
}
