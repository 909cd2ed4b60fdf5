// Package errors provides centralized error definitions for the firehose.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Circuit breaker errors.
var (
	// ErrCircuitBreakerOpen indicates the circuit breaker has tripped and requests are blocked.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open")
)

// Configuration errors.
var (
	// ErrMissingCredentials indicates a provider API key required for the run is absent.
	ErrMissingCredentials = errors.New("missing provider credentials")
)

// Provider errors.
var (
	// ErrNoProvidersAvailable indicates no provider is configured or every breaker is open.
	ErrNoProvidersAvailable = errors.New("no providers available")

	// ErrAllProvidersFailed indicates every provider in a fallback chain returned an error.
	ErrAllProvidersFailed = errors.New("all providers failed")

	// ErrProviderDisabled indicates a provider was called while disabled.
	ErrProviderDisabled = errors.New("provider disabled")
)

// Response and parsing errors.
var (
	// ErrEmptyResponse indicates an empty response was received.
	ErrEmptyResponse = errors.New("empty response")

	// ErrUnexpectedStatus indicates a non-success HTTP status from an upstream API.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Rate limiting and throttling errors.
var (
	// ErrRateLimited indicates rate limiting was triggered.
	ErrRateLimited = errors.New("rate limited")
)

// Run coordination errors.
var (
	// ErrRunInProgress indicates another instance holds the run lock.
	ErrRunInProgress = errors.New("firehose run already in progress")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
