// Package errors holds the typed failures of the populate pipeline. Source
// lookups, model calls, extraction and persistence each report through one of
// these types so callers classify failures with errors.Is and errors.As
// instead of matching on message text.
package errors

import (
	"errors"
	"net/http"
)

// New is errors.New, re-exported so callers need a single import.
var New = errors.New

// Sentinels matched by the typed errors' Is methods.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrAPIKeyRequired      = errors.New("API key required")
	ErrAPIKeyInvalid       = errors.New("API key invalid")
	ErrProviderUnavailable = errors.New("provider unavailable")
	ErrRateLimited         = errors.New("rate limited")
	ErrTimeout             = errors.New("operation timed out")
)

// statusSentinel maps an upstream HTTP status onto the sentinel it implies,
// or nil when the status carries no class of its own.
func statusSentinel(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrAPIKeyInvalid
	case code >= http.StatusInternalServerError:
		return ErrProviderUnavailable
	}
	return nil
}

// IsNotFound reports whether err names a missing entity, news item or row.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsValidationError reports whether err is a rejected input value.
func IsValidationError(err error) bool { return errors.Is(err, ErrInvalidInput) }

// IsAPIKeyError reports a missing or rejected credential.
func IsAPIKeyError(err error) bool {
	return errors.Is(err, ErrAPIKeyRequired) || errors.Is(err, ErrAPIKeyInvalid)
}

// IsRateLimited reports an upstream throttle.
func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }

// IsTimeout reports a deadline hit while talking to an upstream.
func IsTimeout(err error) bool { return errors.Is(err, ErrTimeout) }

// IsProviderUnavailable reports a 5xx from an upstream.
func IsProviderUnavailable(err error) bool { return errors.Is(err, ErrProviderUnavailable) }
