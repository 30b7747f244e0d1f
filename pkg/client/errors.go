package client

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by the client.
var (
	// ErrEmptyData is wrapped by the QueryError returned when the explorer
	// answers without errors but with an empty data object.
	ErrEmptyData = errors.New("data field in response is empty")

	// ErrRetryExhausted is returned when all transport retry attempts are exhausted.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled during retry.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrRateLimited is returned when the rate limiter blocks a request before it is sent.
	ErrRateLimited = errors.New("request blocked: explorer rate limit exhausted")

	// ErrQueryComplexityLimit is wrapped by PreconditionError.
	ErrQueryComplexityLimit = errors.New("query complexity limit exceeded")
)

// emptyDataMessage is the message carried by the QueryError for an empty data object.
const emptyDataMessage = "Data field in response is empty"

// ErrorClass represents a classification of query failures.
type ErrorClass string

const (
	// ErrorClassTransport represents connection level failures and unreadable responses.
	ErrorClassTransport ErrorClass = "transport"

	// ErrorClassBadResponseCode represents completed requests with a non-2xx status.
	ErrorClassBadResponseCode ErrorClass = "bad_response_code"

	// ErrorClassQuery represents application level errors reported by the API.
	ErrorClassQuery ErrorClass = "query"

	// ErrorClassPrecondition represents requests rejected before any network activity.
	ErrorClassPrecondition ErrorClass = "precondition"
)

// TransportError is a network or connection level failure. The response body,
// if any, was never inspected.
type TransportError struct {
	Op  string
	Err error

	retryable bool
}

// Error implements the error interface.
func (e *TransportError) Error() string {
	return fmt.Sprintf("explorer transport error: %s: %v", e.Op, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *TransportError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the transport retry budget applies to this failure.
func (e *TransportError) Retryable() bool {
	return e.retryable
}

// BadResponseCodeError is returned for any HTTP status outside 200-299,
// regardless of the response body.
type BadResponseCodeError struct {
	StatusCode int
}

// Error implements the error interface.
func (e *BadResponseCodeError) Error() string {
	return fmt.Sprintf("explorer bad response code: status code of %d returned", e.StatusCode)
}

// QueryError carries the messages the API reported for an executed query, in
// the order they were returned.
type QueryError struct {
	Messages []string
	Err      error
}

// Error implements the error interface.
func (e *QueryError) Error() string {
	return fmt.Sprintf("explorer query error: [%s]", strings.Join(e.Messages, ", "))
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *QueryError) Unwrap() error {
	return e.Err
}

// PreconditionError is raised before any network call when a request exceeds
// a client-side bound or carries an argument that cannot be sent.
type PreconditionError struct {
	What  string
	Limit int
	Got   int

	// Err is the rejected argument's cause. Nil means a limit breach.
	Err error
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %v", e.What, e.Err)
	}
	return fmt.Sprintf("limit of %d %s breached (got %d)", e.Limit, e.What, e.Got)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *PreconditionError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return ErrQueryComplexityLimit
}

// Classify maps an error returned by this package to its ErrorClass.
// It returns an empty class for nil or unrelated errors.
func Classify(err error) ErrorClass {
	var (
		transportErr  *TransportError
		badCodeErr    *BadResponseCodeError
		queryErr      *QueryError
		preconditionE *PreconditionError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &badCodeErr):
		return ErrorClassBadResponseCode
	case errors.As(err, &queryErr):
		return ErrorClassQuery
	case errors.As(err, &preconditionE):
		return ErrorClassPrecondition
	case errors.As(err, &transportErr), errors.Is(err, ErrContextCancelled), errors.Is(err, ErrRetryExhausted):
		return ErrorClassTransport
	default:
		return ""
	}
}

// shouldRetry determines if an error should be retried based on its classification.
func shouldRetry(err error) bool {
	if Classify(err) != ErrorClassTransport {
		// Classified failures would fail identically on a second attempt.
		return false
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return transportErr.Retryable()
	}
	return false
}
