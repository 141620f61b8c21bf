package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected terminal states.
var (
	ErrInsufficientText = errors.New("extracted text below minimum length")
	ErrNoArticles       = errors.New("no articles to save")
	ErrMissingAPIKey    = errors.New("search api key not configured")
)

// FetchError wraps network failures and unexpected HTTP statuses.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ProviderError is returned when the search provider reports a non-ok status.
type ProviderError struct {
	Status  string
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("provider returned status %q (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("provider returned status %q: %s", e.Status, e.Message)
}

// ParseError wraps a malformed feed or response body.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error for %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// PersistenceError wraps failures writing a dataset file.
type PersistenceError struct {
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// SchemaLoadError wraps failures reading a dataset file.
type SchemaLoadError struct {
	Path string
	Err  error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *SchemaLoadError) Unwrap() error { return e.Err }
