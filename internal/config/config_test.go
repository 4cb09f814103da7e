package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jmylchreest/outreach/pkg/acquire"
	"github.com/jmylchreest/outreach/pkg/cleaner"
	"github.com/jmylchreest/outreach/pkg/llm"
)

// clearEnv blanks every variable Load may read so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for key, legacy := range envAliases {
		t.Setenv(legacy, "")
		t.Setenv(EnvPrefix+"_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	s, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"provider", s.Provider.Name, llm.BackendAuto},
		{"azure api version", s.Provider.Azure.APIVersion, llm.DefaultAzureAPIVersion},
		{"openai model", s.Provider.OpenAI.Model, "gpt-4o-mini"},
		{"timeout", s.Provider.Timeout, 60 * time.Second},
		{"max retries", s.Retry.MaxRetries, 3},
		{"delay", s.Retry.Delay, 2 * time.Second},
		{"backoff", s.Retry.Backoff, 1.0},
		{"max delay", s.Retry.MaxDelay, 30 * time.Second},
		{"login", s.Login.Method, acquire.LoginCredentials},
		{"engine", s.Browser.Engine, EngineChromedp},
		{"headless", s.Browser.Headless, true},
		{"page load", s.Browser.PageLoadTimeout, 30 * time.Second},
		{"selector", s.Browser.ContentSelector, "main"},
		{"settle", s.Browser.Settle, 2 * time.Second},
		{"expansions", s.Browser.MaxExpansions, 20},
		{"click pause", s.Browser.ClickPause, time.Second},
		{"max chars", s.Normalize.MaxChars, 400000},
		{"format", s.Normalize.Format, cleaner.FormatText},
		{"boilerplate", s.Normalize.Boilerplate, cleaner.BoilerplateNone},
		{"base url", s.Target.BaseURL, "https://www.linkedin.com/in/"},
		{"log level", s.Log.Level, "info"},
		{"addr", s.Server.Addr, ":8080"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestLoad_LegacyEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("PROVIDER", "Azure")
	t.Setenv("AZURE_OPENAI_API_KEY", "az-key")
	t.Setenv("AZURE_OPENAI_ENDPOINT", "https://example.openai.azure.com")
	t.Setenv("AZURE_DEPLOYMENT_NAME", "gpt-4o")
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("RETRY_DELAY", "3")
	t.Setenv("HEADLESS", "false")
	t.Setenv("PAGE_LOAD_TIMEOUT", "60")
	t.Setenv("LOGIN_METHOD", "chrome_profile")
	t.Setenv("CHROME_USER_DATA_DIR", `"/home/me/.config/chrome"`)
	t.Setenv("LOG_LEVEL", "debug")

	s, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Provider.Name != llm.BackendAzure {
		t.Errorf("provider = %q", s.Provider.Name)
	}
	if s.Provider.Azure.Deployment != "gpt-4o" || s.Provider.Azure.APIKey != "az-key" {
		t.Errorf("azure = %+v", s.Provider.Azure)
	}
	if s.Retry.MaxRetries != 5 {
		t.Errorf("max retries = %d", s.Retry.MaxRetries)
	}
	if s.Retry.Delay != 3*time.Second {
		t.Errorf("delay = %v", s.Retry.Delay)
	}
	if s.Browser.Headless {
		t.Error("HEADLESS=false should disable headless mode")
	}
	if s.Browser.PageLoadTimeout != 60*time.Second {
		t.Errorf("page load timeout = %v", s.Browser.PageLoadTimeout)
	}
	if s.Login.Method != acquire.LoginChromeProfile {
		t.Errorf("login = %q", s.Login.Method)
	}
	if s.Login.UserDataDir != "/home/me/.config/chrome" {
		t.Errorf("user data dir = %q", s.Login.UserDataDir)
	}
	if s.Log.Level != "debug" {
		t.Errorf("log level = %q", s.Log.Level)
	}
	if got := s.LLM(); got.Backend != llm.BackendAzure || got.Azure.Endpoint != "https://example.openai.azure.com" {
		t.Errorf("LLM() = %+v", got)
	}
}

func TestLoad_PrefixedEnvironmentWins(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_RETRIES", "5")
	t.Setenv("OUTREACH_RETRY_MAX_RETRIES", "7")
	t.Setenv("OUTREACH_BROWSER_ENGINE", "rod")

	s, err := Load(New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Retry.MaxRetries != 7 {
		t.Errorf("max retries = %d, want 7", s.Retry.MaxRetries)
	}
	if s.Browser.Engine != EngineRod {
		t.Errorf("engine = %q, want rod", s.Browser.Engine)
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), ".outreach.yaml")
	content := `
provider:
  name: anthropic
  anthropic:
    api_key: sk-ant
browser:
  headless: false
  max_expansions: 5
normalize:
  max_chars: 1MB
  format: markdown
  boilerplate: Readability
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	v := New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig() error = %v", err)
	}

	s, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Provider.Name != llm.BackendAnthropic || s.Provider.Anthropic.APIKey != "sk-ant" {
		t.Errorf("provider = %+v", s.Provider)
	}
	if s.Browser.Headless {
		t.Error("headless should be false")
	}
	if s.Browser.MaxExpansions != 5 {
		t.Errorf("max expansions = %d", s.Browser.MaxExpansions)
	}
	if s.Normalize.MaxChars != 1000000 {
		t.Errorf("max chars = %d", s.Normalize.MaxChars)
	}
	if s.Normalize.Format != cleaner.FormatMarkdown {
		t.Errorf("format = %q", s.Normalize.Format)
	}
	if s.Normalize.Boilerplate != cleaner.BoilerplateReadability {
		t.Errorf("boilerplate = %q", s.Normalize.Boilerplate)
	}
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   any
		wantErr string
	}{
		{"unknown provider", "provider.name", "mistral", "provider.name"},
		{"unknown login", "login.method", "oauth", "login.method"},
		{"unknown engine", "browser.engine", "firefox", "browser.engine"},
		{"unknown format", "normalize.format", "html", "normalize.format"},
		{"unknown boilerplate", "normalize.boilerplate", "boilerpipe", "normalize.boilerplate"},
		{"zero retries", "retry.max_retries", 0, "retry.max_retries: must be positive"},
		{"zero max chars", "normalize.max_chars", "0", "normalize.max_chars: must be positive"},
		{"bad size", "normalize.max_chars", "lots", "normalize.max_chars"},
		{"bad duration", "browser.page_load_timeout", "soon", "browser.page_load_timeout"},
		{"negative delay", "retry.delay", "-1s", "retry.delay: must not be negative"},
		{"negative max delay", "retry.max_delay", "-1s", "retry.max_delay: must not be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			v := New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"400000", 400000},
		{"400K", 400000},
		{"400 kB", 400000},
		{"1MB", 1000000},
		{"1MiB", 1048576},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSize(tt.in)
			if err != nil {
				t.Fatalf("parseSize(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseSize(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", 0},
		{"2", 2 * time.Second},
		{"0.5", 500 * time.Millisecond},
		{"1m30s", 90 * time.Second},
		{" 250ms ", 250 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if err != nil {
				t.Fatalf("parseDuration(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestWithOverrides(t *testing.T) {
	base := Settings{
		Provider: ProviderSettings{
			Name:   llm.BackendAuto,
			Gemini: llm.KeyConfig{APIKey: "g-key"},
		},
		Login: acquire.Login{Method: acquire.LoginNone},
	}

	t.Run("explicit provider takes the key", func(t *testing.T) {
		s, err := base.WithOverrides(Overrides{Provider: "anthropic", APIKey: "a-key"})
		if err != nil {
			t.Fatal(err)
		}
		if s.Provider.Name != llm.BackendAnthropic || s.Provider.Anthropic.APIKey != "a-key" {
			t.Errorf("provider = %+v", s.Provider)
		}
		if base.Provider.Anthropic.APIKey != "" {
			t.Error("original settings were modified")
		}
	})

	t.Run("auto gives the key to the resolved backend", func(t *testing.T) {
		s, err := base.WithOverrides(Overrides{APIKey: "g-key-2"})
		if err != nil {
			t.Fatal(err)
		}
		if s.Provider.Gemini.APIKey != "g-key-2" {
			t.Errorf("gemini key = %q", s.Provider.Gemini.APIKey)
		}
	})

	t.Run("auto without credentials falls back to openai", func(t *testing.T) {
		s, err := Settings{Provider: ProviderSettings{Name: llm.BackendAuto}}.WithOverrides(Overrides{APIKey: "sk"})
		if err != nil {
			t.Fatal(err)
		}
		if s.Provider.OpenAI.APIKey != "sk" {
			t.Errorf("openai key = %q", s.Provider.OpenAI.APIKey)
		}
	})

	t.Run("login credentials switch the method", func(t *testing.T) {
		s, err := base.WithOverrides(Overrides{LoginEmail: "me@example.com", LoginPassword: "pw"})
		if err != nil {
			t.Fatal(err)
		}
		if s.Login.Method != acquire.LoginCredentials || s.Login.Email != "me@example.com" || s.Login.Password != "pw" {
			t.Errorf("login = %+v", s.Login)
		}
	})

	t.Run("unknown provider", func(t *testing.T) {
		if _, err := base.WithOverrides(Overrides{Provider: "mistral"}); err == nil {
			t.Error("expected error")
		}
	})
}
