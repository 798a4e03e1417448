package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyResource   = errors.New("empty resource")
	ErrMissingHeader   = errors.New("missing header row")
	ErrInvalidMonths   = errors.New("month order must contain 12 unique non-empty labels")
	ErrUnknownLocation = errors.New("unknown source location")
)

// FetchError reports a failure reaching the data source.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ParseError reports that the whole resource could not be parsed.
// Individual malformed rows never produce a ParseError.
type ParseError struct {
	URL string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// SchemaError reports required columns absent after renaming.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// IsFetchError reports whether err wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
