package pipeline

import (
	"encoding/json"
	"math"
	"time"

	"github.com/jmylchreest/outreach/pkg/extractor"
	"github.com/jmylchreest/outreach/pkg/generator"
)

// WarningNoAbout is attached to a Success whose profile has no about section.
const WarningNoAbout = "About section not found, email generated from available data"

// FailureKind classifies a failed run.
type FailureKind string

const (
	KindInvalidTarget      FailureKind = "invalid_target"
	KindAcquisitionTimeout FailureKind = "acquisition_timeout"
	KindSessionFailure     FailureKind = "session_failure"
	KindNoIdentifiableData FailureKind = "no_identifiable_data"
	KindExtractionFailed   FailureKind = "extraction_failed"
	KindGenerationFailed   FailureKind = "generation_failed"
	KindNotConfigured      FailureKind = "not_configured"
	KindCanceled           FailureKind = "canceled"
	KindInternal           FailureKind = "internal"
)

// Outcome is the result of one run. Exactly one of Success and Failure is
// set.
type Outcome struct {
	Success *Success
	Failure *Failure
}

// Success holds a profile and the message written for it.
type Success struct {
	Profile extractor.Profile
	Message generator.Message
	Warning string
}

// Failure describes why a run stopped.
type Failure struct {
	Kind    FailureKind
	Message string // stable, safe to show
	URL     string
	// RetryAfter is set when the cause was a transient provider error that
	// carried a hint.
	RetryAfter time.Duration
	// Partial holds the profile when generation failed after extraction.
	Partial *extractor.Profile
	Err     error
}

// OK reports whether the run succeeded.
func (o *Outcome) OK() bool {
	return o != nil && o.Success != nil
}

type successView struct {
	Name    *string           `json:"name" yaml:"name"`
	Title   *string           `json:"title" yaml:"title"`
	Company *string           `json:"company" yaml:"company"`
	About   *string           `json:"about" yaml:"about"`
	Email   generator.Message `json:"email" yaml:"email"`
	Warning string            `json:"warning,omitempty" yaml:"warning,omitempty"`
}

type failureView struct {
	Error      string             `json:"error" yaml:"error"`
	Status     string             `json:"status" yaml:"status"`
	URL        string             `json:"url,omitempty" yaml:"url,omitempty"`
	RetryAfter int                `json:"retry_after,omitempty" yaml:"retry_after,omitempty"`
	Partial    *extractor.Profile `json:"partial,omitempty" yaml:"partial,omitempty"`
}

func (o Outcome) view() any {
	if o.Success != nil {
		s := o.Success
		return successView{
			Name:    s.Profile.Name,
			Title:   s.Profile.Title,
			Company: s.Profile.Company,
			About:   s.Profile.About,
			Email:   s.Message,
			Warning: s.Warning,
		}
	}
	f := o.Failure
	if f == nil {
		f = &Failure{Kind: KindInternal, Message: "empty outcome"}
	}
	return failureView{
		Error:      f.Message,
		Status:     "failed",
		URL:        f.URL,
		RetryAfter: int(math.Ceil(f.RetryAfter.Seconds())),
		Partial:    f.Partial,
	}
}

// MarshalJSON renders the success or failure document.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.view())
}

// MarshalYAML renders the same document as MarshalJSON.
func (o Outcome) MarshalYAML() (any, error) {
	return o.view(), nil
}
