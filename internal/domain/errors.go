package domain

import (
	"errors"
	"fmt"
)

var ErrSuperseded = errors.New("result superseded by a newer request")

// ParseError reports a malformed round timestamp.
type ParseError struct {
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid round time %q: %v", e.Value, e.Err)
	}
	return fmt.Sprintf("invalid round time %q", e.Value)
}

func (e *ParseError) Unwrap() error { return e.Err }

// FormatError reports a prime time that is not HH:MM.
type FormatError struct {
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid prime time %q: expected HH:MM", e.Value)
}

// FetchError reports a failed upstream fetch: transport, status or body.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: API error: %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
