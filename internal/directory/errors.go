package directory

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a document does not exist in the source.
	ErrNotFound = errors.New("directory: not found")
	// ErrUnresolvedReference is returned in strict mode for an unknown @shared/ key.
	ErrUnresolvedReference = errors.New("directory: unresolved shared reference")
	// ErrInvalidTheme is returned when a person's theme uses unknown color tokens.
	ErrInvalidTheme = errors.New("directory: invalid theme")
	// ErrInvalidID is returned for ids that cannot name a document.
	ErrInvalidID = errors.New("directory: invalid id")
	// ErrDocumentTooLarge is returned when a remote document exceeds maxDocumentBytes.
	ErrDocumentTooLarge = errors.New("directory: document too large")
)

// LoadError wraps any failure to read, decode or validate a document.
type LoadError struct {
	Resource string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("directory: load %s: %v", e.Resource, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// StatusError reports a non-2xx response from an HTTP source.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("directory: GET %s: unexpected status %d", e.URL, e.Code)
}

func loadErr(resource string, err error) error {
	var le *LoadError
	if errors.As(err, &le) {
		return err
	}
	return &LoadError{Resource: resource, Err: err}
}

// IsNotFound reports whether err means the requested document does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidID)
}
