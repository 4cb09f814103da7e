// Package config builds the immutable Settings value from flags, the
// environment and an optional YAML file, all read through viper.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"

	"github.com/jmylchreest/outreach/pkg/acquire"
	"github.com/jmylchreest/outreach/pkg/cleaner"
	"github.com/jmylchreest/outreach/pkg/llm"
	"github.com/jmylchreest/outreach/pkg/pipeline"
)

// EnvPrefix namespaces the automatic environment lookups (OUTREACH_RETRY_DELAY
// for retry.delay and so on).
const EnvPrefix = "OUTREACH"

// Browser engines.
const (
	EngineChromedp = "chromedp"
	EngineRod      = "rod"
	EngineStatic   = "static"
)

// Settings is the complete runtime configuration.
type Settings struct {
	Provider  ProviderSettings
	Retry     RetrySettings
	Login     acquire.Login
	Browser   BrowserSettings
	Normalize NormalizeSettings
	Target    TargetSettings
	Log       LogSettings
	Server    ServerSettings
}

// ProviderSettings selects and configures the LLM backend.
type ProviderSettings struct {
	Name      llm.Backend
	Azure     llm.AzureConfig
	OpenAI    llm.KeyConfig
	Anthropic llm.KeyConfig
	Gemini    llm.KeyConfig
	Timeout   time.Duration
	RateLimit float64
}

// RetrySettings apply to both LLM stages.
type RetrySettings struct {
	MaxRetries int
	Delay      time.Duration
	Backoff    float64
	MaxDelay   time.Duration // longest wait between attempts; 0 disables the cap
}

// BrowserSettings configure the acquisition stage.
type BrowserSettings struct {
	Engine          string
	Headless        bool
	ExecPath        string
	PageLoadTimeout time.Duration
	ContentSelector string
	Settle          time.Duration
	MaxExpansions   int
	ClickPause      time.Duration
}

// NormalizeSettings configure the normalization stage.
type NormalizeSettings struct {
	MaxChars    int
	Format      cleaner.Format
	Boilerplate cleaner.Boilerplate
	DumpPath    string
}

// TargetSettings control how bare identifiers are resolved.
type TargetSettings struct {
	BaseURL string
}

// LogSettings configure internal/logger.
type LogSettings struct {
	Level string
	JSON  bool
}

// ServerSettings configure `outreach serve`.
type ServerSettings struct {
	Addr          string
	MaxConcurrent int
}

// LLM converts the provider settings into an llm.Config.
func (s Settings) LLM() llm.Config {
	return llm.Config{
		Backend:   s.Provider.Name,
		Azure:     s.Provider.Azure,
		OpenAI:    s.Provider.OpenAI,
		Anthropic: s.Provider.Anthropic,
		Gemini:    s.Provider.Gemini,
		Timeout:   s.Provider.Timeout,
		RateLimit: s.Provider.RateLimit,
	}
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("provider.name", string(llm.BackendAuto))
	v.SetDefault("provider.azure.api_version", llm.DefaultAzureAPIVersion)
	v.SetDefault("provider.openai.model", llm.DefaultModels[llm.BackendOpenAI])
	v.SetDefault("provider.anthropic.model", llm.DefaultModels[llm.BackendAnthropic])
	v.SetDefault("provider.gemini.model", llm.DefaultModels[llm.BackendGemini])
	v.SetDefault("provider.timeout", "60s")
	v.SetDefault("provider.rate_limit", 0)

	v.SetDefault("retry.max_retries", 3)
	v.SetDefault("retry.delay", "2s")
	v.SetDefault("retry.backoff", 1)
	v.SetDefault("retry.max_delay", "30s")

	v.SetDefault("login.method", string(acquire.LoginCredentials))

	v.SetDefault("browser.engine", EngineChromedp)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.page_load_timeout", "30s")
	v.SetDefault("browser.content_selector", "main")
	v.SetDefault("browser.settle", "2s")
	v.SetDefault("browser.max_expansions", 20)
	v.SetDefault("browser.click_pause", "1s")

	v.SetDefault("normalize.max_chars", "400000")
	v.SetDefault("normalize.format", string(cleaner.FormatText))
	v.SetDefault("normalize.boilerplate", string(cleaner.BoilerplateNone))

	v.SetDefault("target.base_url", pipeline.DefaultBaseURL)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.json", false)

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.max_concurrent", 4)
}

// envAliases maps keys to the variable names the tool has always read.
var envAliases = map[string]string{
	"provider.name":              "PROVIDER",
	"provider.azure.api_key":     "AZURE_OPENAI_API_KEY",
	"provider.azure.endpoint":    "AZURE_OPENAI_ENDPOINT",
	"provider.azure.deployment":  "AZURE_DEPLOYMENT_NAME",
	"provider.azure.api_version": "AZURE_API_VERSION",
	"provider.openai.api_key":    "OPENAI_API_KEY",
	"provider.openai.model":      "OPENAI_MODEL",
	"provider.anthropic.api_key": "ANTHROPIC_API_KEY",
	"provider.gemini.api_key":    "GEMINI_API_KEY",
	"provider.gemini.model":      "GEMINI_MODEL",
	"retry.max_retries":          "MAX_RETRIES",
	"retry.delay":                "RETRY_DELAY",
	"browser.headless":           "HEADLESS",
	"browser.page_load_timeout":  "PAGE_LOAD_TIMEOUT",
	"login.method":               "LOGIN_METHOD",
	"login.email":                "LINKEDIN_EMAIL",
	"login.password":             "LINKEDIN_PASSWORD",
	"login.user_data_dir":        "CHROME_USER_DATA_DIR",
	"log.level":                  "LOG_LEVEL",
}

// BindEnv enables OUTREACH_* lookups and binds the legacy variable names.
// A prefixed variable wins over its legacy alias.
func BindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range envAliases {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		_ = v.BindEnv(key, prefixed, legacy)
	}
}

// New returns a viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	BindEnv(v)
	return v
}

// Load reads Settings from v and validates them.
func Load(v *viper.Viper) (Settings, error) {
	var errs []error
	duration := func(key string) time.Duration {
		d, err := parseDuration(v.GetString(key))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}

	s := Settings{
		Provider: ProviderSettings{
			Name: llm.Backend(strings.ToLower(strings.TrimSpace(v.GetString("provider.name")))),
			Azure: llm.AzureConfig{
				APIKey:     v.GetString("provider.azure.api_key"),
				Endpoint:   v.GetString("provider.azure.endpoint"),
				Deployment: v.GetString("provider.azure.deployment"),
				APIVersion: v.GetString("provider.azure.api_version"),
			},
			OpenAI: llm.KeyConfig{
				APIKey:  v.GetString("provider.openai.api_key"),
				Model:   v.GetString("provider.openai.model"),
				BaseURL: v.GetString("provider.openai.base_url"),
			},
			Anthropic: llm.KeyConfig{
				APIKey:  v.GetString("provider.anthropic.api_key"),
				Model:   v.GetString("provider.anthropic.model"),
				BaseURL: v.GetString("provider.anthropic.base_url"),
			},
			Gemini: llm.KeyConfig{
				APIKey:  v.GetString("provider.gemini.api_key"),
				Model:   v.GetString("provider.gemini.model"),
				BaseURL: v.GetString("provider.gemini.base_url"),
			},
			Timeout:   duration("provider.timeout"),
			RateLimit: v.GetFloat64("provider.rate_limit"),
		},
		Retry: RetrySettings{
			MaxRetries: v.GetInt("retry.max_retries"),
			Delay:      duration("retry.delay"),
			Backoff:    v.GetFloat64("retry.backoff"),
			MaxDelay:   duration("retry.max_delay"),
		},
		Login: acquire.Login{
			Method:      acquire.LoginMethod(strings.ToLower(strings.TrimSpace(v.GetString("login.method")))),
			Email:       v.GetString("login.email"),
			Password:    v.GetString("login.password"),
			UserDataDir: strings.Trim(v.GetString("login.user_data_dir"), `"'`),
		},
		Browser: BrowserSettings{
			Engine:          strings.ToLower(v.GetString("browser.engine")),
			Headless:        v.GetBool("browser.headless"),
			ExecPath:        v.GetString("browser.exec_path"),
			PageLoadTimeout: duration("browser.page_load_timeout"),
			ContentSelector: v.GetString("browser.content_selector"),
			Settle:          duration("browser.settle"),
			MaxExpansions:   v.GetInt("browser.max_expansions"),
			ClickPause:      duration("browser.click_pause"),
		},
		Normalize: NormalizeSettings{
			Format:      cleaner.Format(strings.ToLower(v.GetString("normalize.format"))),
			Boilerplate: cleaner.Boilerplate(strings.ToLower(v.GetString("normalize.boilerplate"))),
			DumpPath:    v.GetString("normalize.dump_path"),
		},
		Target: TargetSettings{BaseURL: v.GetString("target.base_url")},
		Log: LogSettings{
			Level: v.GetString("log.level"),
			JSON:  v.GetBool("log.json"),
		},
		Server: ServerSettings{
			Addr:          v.GetString("server.addr"),
			MaxConcurrent: v.GetInt("server.max_concurrent"),
		},
	}

	maxChars, err := parseSize(v.GetString("normalize.max_chars"))
	if err != nil {
		errs = append(errs, fmt.Errorf("normalize.max_chars: %w", err))
	}
	s.Normalize.MaxChars = maxChars

	if len(errs) > 0 {
		return Settings{}, errors.Join(errs...)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}

	// canonical forms; Validate already rejected anything unparseable
	s.Provider.Name, _ = llm.ParseBackend(string(s.Provider.Name))
	s.Login.Method, _ = acquire.ParseLoginMethod(string(s.Login.Method))
	s.Normalize.Format, _ = cleaner.ParseFormat(string(s.Normalize.Format))
	s.Normalize.Boilerplate, _ = cleaner.ParseBoilerplate(string(s.Normalize.Boilerplate))
	return s, nil
}

// Validate rejects unknown enum values and non-positive limits.
func (s Settings) Validate() error {
	var errs []error

	if _, err := llm.ParseBackend(string(s.Provider.Name)); err != nil {
		errs = append(errs, fmt.Errorf("provider.name: %w", err))
	}
	if _, err := acquire.ParseLoginMethod(string(s.Login.Method)); err != nil {
		errs = append(errs, fmt.Errorf("login.method: %w", err))
	}
	if _, err := cleaner.ParseFormat(string(s.Normalize.Format)); err != nil {
		errs = append(errs, fmt.Errorf("normalize.format: %w", err))
	}
	if _, err := cleaner.ParseBoilerplate(string(s.Normalize.Boilerplate)); err != nil {
		errs = append(errs, fmt.Errorf("normalize.boilerplate: %w", err))
	}
	switch s.Browser.Engine {
	case EngineChromedp, EngineRod, EngineStatic:
	default:
		errs = append(errs, fmt.Errorf("browser.engine: unknown engine %q (available: chromedp, rod, static)", s.Browser.Engine))
	}

	positive := []struct {
		key string
		ok  bool
	}{
		{"retry.max_retries", s.Retry.MaxRetries > 0},
		{"retry.backoff", s.Retry.Backoff > 0},
		{"browser.page_load_timeout", s.Browser.PageLoadTimeout > 0},
		{"browser.max_expansions", s.Browser.MaxExpansions > 0},
		{"normalize.max_chars", s.Normalize.MaxChars > 0},
		{"server.max_concurrent", s.Server.MaxConcurrent > 0},
	}
	for _, p := range positive {
		if !p.ok {
			errs = append(errs, fmt.Errorf("%s: must be positive", p.key))
		}
	}

	nonNegative := []struct {
		key string
		ok  bool
	}{
		{"retry.delay", s.Retry.Delay >= 0},
		{"retry.max_delay", s.Retry.MaxDelay >= 0},
		{"provider.timeout", s.Provider.Timeout >= 0},
		{"provider.rate_limit", s.Provider.RateLimit >= 0},
		{"browser.settle", s.Browser.Settle >= 0},
		{"browser.click_pause", s.Browser.ClickPause >= 0},
	}
	for _, n := range nonNegative {
		if !n.ok {
			errs = append(errs, fmt.Errorf("%s: must not be negative", n.key))
		}
	}

	return errors.Join(errs...)
}

// parseDuration accepts Go durations ("2s", "1m30s") and bare numbers of
// seconds ("2", "0.5").
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Duration(secs * float64(time.Second)), nil
	}
	return time.ParseDuration(s)
}

// parseSize accepts plain counts and humanized sizes ("400K", "1MB").
func parseSize(s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
