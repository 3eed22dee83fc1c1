package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrProvider signals an embedding provider or store API failure.
	ErrProvider = errors.New("provider error")
	// ErrMalformedRow signals a source row that cannot be parsed.
	ErrMalformedRow = errors.New("malformed source row")
)

// ProviderError wraps ErrProvider with the HTTP status code and response
// body of the failing API call, when the transport exposes them.
type ProviderError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", ErrProvider.Error(), e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", ErrProvider.Error(), e.Err)
}

func (e *ProviderError) Unwrap() error { return ErrProvider }

// NewProviderError creates a provider error carrying diagnostics.
func NewProviderError(statusCode int, body string, err error) error {
	return &ProviderError{StatusCode: statusCode, Body: body, Err: err}
}

// ParseError wraps ErrMalformedRow with the offending row and value.
type ParseError struct {
	RowID string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q: value %q: %v", ErrMalformedRow.Error(), e.RowID, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return ErrMalformedRow }

// NewParseError creates a row parse error.
func NewParseError(rowID, value string, err error) error {
	return &ParseError{RowID: rowID, Value: value, Err: err}
}
