package acquire

import (
	"fmt"
	"time"
)

// ErrorKind classifies acquisition failures. Neither kind is retried.
type ErrorKind int

const (
	// KindTimeout means the content marker never appeared in time.
	KindTimeout ErrorKind = iota + 1
	// KindSessionFailure means no usable browser session or navigation.
	KindSessionFailure
)

func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindSessionFailure:
		return "session_failure"
	default:
		return "unknown"
	}
}

// Error is returned by Acquirer.Acquire.
type Error struct {
	Kind    ErrorKind
	URL     string
	Timeout time.Duration // set for KindTimeout
	Err     error
}

func (e *Error) Error() string {
	if e.Kind == KindTimeout {
		return fmt.Sprintf("Profile page timeout: content did not load within %s", e.Timeout)
	}
	return fmt.Sprintf("Browser session failed: %v", e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
