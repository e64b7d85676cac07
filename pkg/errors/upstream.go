package errors

import "fmt"

// APIError is a failed call to Wikipedia, DuckDuckGo or a model provider.
// StatusCode is zero when no response was received.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

// Is matches the sentinel implied by the status code.
func (e *APIError) Is(target error) bool {
	s := statusSentinel(e.StatusCode)
	return s != nil && s == target
}

// NewAPIError creates an APIError for a non-2xx response.
func NewAPIError(provider string, statusCode int, message string) *APIError {
	return &APIError{Provider: provider, StatusCode: statusCode, Message: message}
}

// WrapAPI records err as a failed call to provider. Nil stays nil.
func WrapAPI(provider string, statusCode int, err error) error {
	if err == nil {
		return nil
	}
	return &APIError{Provider: provider, StatusCode: statusCode, Message: err.Error(), Err: err}
}

// SourceError is a knowledge source lookup that was degraded to an empty
// contribution.
type SourceError struct {
	Source string
	Query  string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s lookup for %q failed: %v", e.Source, e.Query, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// NewSourceError wraps the failure of one lookup.
func NewSourceError(source, query string, err error) *SourceError {
	return &SourceError{Source: source, Query: query, Err: err}
}

// AuthenticationError is a model provider refusing or lacking credentials.
// Method names the scheme: api_key, bearer or adc.
type AuthenticationError struct {
	Provider string
	Method   string
	Message  string
	Err      error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("%s credentials (%s): %s", e.Provider, e.Method, e.Message)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// Is matches both credential sentinels.
func (e *AuthenticationError) Is(target error) bool {
	return target == ErrAPIKeyRequired || target == ErrAPIKeyInvalid
}

// NewAuthenticationError creates an AuthenticationError.
func NewAuthenticationError(provider, method, message string, err error) *AuthenticationError {
	return &AuthenticationError{Provider: provider, Method: method, Message: message, Err: err}
}

// TimeoutError is an upstream call cut off by its deadline.
type TimeoutError struct {
	Operation string
	Duration  string
	Message   string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s: %s", e.Operation, e.Duration, e.Message)
}

// Is matches ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// NewTimeoutError creates a TimeoutError.
func NewTimeoutError(operation, duration, message string) *TimeoutError {
	return &TimeoutError{Operation: operation, Duration: duration, Message: message}
}
