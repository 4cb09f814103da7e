package extractor

import (
	"fmt"
)

// ErrorKind classifies extraction failures.
type ErrorKind int

const (
	// KindSchemaInvalid means no attempt produced a valid profile.
	KindSchemaInvalid ErrorKind = iota + 1
	// KindNoIdentifiableData means a valid reply carried no name.
	KindNoIdentifiableData
)

func (k ErrorKind) String() string {
	switch k {
	case KindSchemaInvalid:
		return "schema_invalid"
	case KindNoIdentifiableData:
		return "no_identifiable_data"
	default:
		return "unknown"
	}
}

// Error is returned by Extract. Its message is stable and safe to show to
// callers; the cause is available through Unwrap.
type Error struct {
	Kind     ErrorKind
	Attempts int
	Raw      string // last raw reply
	Err      error
}

func (e *Error) Error() string {
	if e.Kind == KindNoIdentifiableData {
		return "Unable to extract profile information. Profile may require login or is not public."
	}
	return fmt.Sprintf("Failed to extract valid profile data after %d attempts", e.Attempts)
}

func (e *Error) Unwrap() error { return e.Err }
