package directory

import (
	"errors"
	"fmt"
)

// Error kinds. Implementations wrap every failure in an *OpError whose Kind
// is one of these, so callers can use errors.Is.
var (
	// ErrUnauthorized means the credential lacks the rights for the call
	// (listing or creating teams requires organization admin).
	ErrUnauthorized = errors.New("not authorized")

	// ErrNotFound means the referenced organization or team does not exist.
	ErrNotFound = errors.New("not found")

	// ErrTransport covers network failures and service-side errors.
	ErrTransport = errors.New("directory service request failed")
)

// OpError records a failed directory operation.
type OpError struct {
	// Op names the operation, e.g. "list teams".
	Op string

	// Target is what the operation acted on, e.g. "acme/everyone".
	Target string

	// Kind is one of ErrUnauthorized, ErrNotFound or ErrTransport.
	Kind error

	// Err is the underlying error from the client library.
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Target, e.Kind, e.Err)
}

func (e *OpError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// IsUnauthorized reports whether err is an authorization failure.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsNotFound reports whether err refers to a missing organization or team.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
