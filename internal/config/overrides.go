package config

import (
	"fmt"

	"github.com/jmylchreest/outreach/pkg/acquire"
	"github.com/jmylchreest/outreach/pkg/llm"
)

// Overrides are per-run adjustments from command flags or an API request.
// Empty fields leave the settings alone.
type Overrides struct {
	Provider      string
	APIKey        string
	LoginEmail    string
	LoginPassword string
}

// WithOverrides returns a copy of s with o applied.
//
// APIKey goes to the selected backend. With auto selection it goes to the
// backend auto resolution would pick, or to openai when none has
// credentials yet.
func (s Settings) WithOverrides(o Overrides) (Settings, error) {
	if o.Provider != "" {
		b, err := llm.ParseBackend(o.Provider)
		if err != nil {
			return s, err
		}
		s.Provider.Name = b
	}

	if o.APIKey != "" {
		target := s.Provider.Name
		if target == llm.BackendAuto || target == "" {
			resolved, err := llm.Resolve(s.LLM())
			if err != nil {
				resolved = llm.BackendOpenAI
			}
			target = resolved
		}
		switch target {
		case llm.BackendAzure:
			s.Provider.Azure.APIKey = o.APIKey
		case llm.BackendOpenAI:
			s.Provider.OpenAI.APIKey = o.APIKey
		case llm.BackendAnthropic:
			s.Provider.Anthropic.APIKey = o.APIKey
		case llm.BackendGemini:
			s.Provider.Gemini.APIKey = o.APIKey
		default:
			return s, fmt.Errorf("cannot apply api key to provider %q", target)
		}
	}

	if o.LoginEmail != "" || o.LoginPassword != "" {
		s.Login.Method = acquire.LoginCredentials
		if o.LoginEmail != "" {
			s.Login.Email = o.LoginEmail
		}
		if o.LoginPassword != "" {
			s.Login.Password = o.LoginPassword
		}
	}

	return s, nil
}
