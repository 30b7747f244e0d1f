package client

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{
			name:     "nil",
			err:      nil,
			expected: "",
		},
		{
			name:     "unrelated error",
			err:      errors.New("boom"),
			expected: "",
		},
		{
			name:     "transport error",
			err:      &TransportError{Op: "post query", Err: errors.New("connection refused")},
			expected: ErrorClassTransport,
		},
		{
			name:     "wrapped transport error",
			err:      fmt.Errorf("%w after 3 attempts: %w", ErrRetryExhausted, &TransportError{Op: "post query", Err: errors.New("eof")}),
			expected: ErrorClassTransport,
		},
		{
			name:     "context cancelled during backoff",
			err:      fmt.Errorf("%w: %w", ErrContextCancelled, context.Canceled),
			expected: ErrorClassTransport,
		},
		{
			name:     "bad response code",
			err:      &BadResponseCodeError{StatusCode: 301},
			expected: ErrorClassBadResponseCode,
		},
		{
			name:     "query error",
			err:      &QueryError{Messages: []string{"Address not found."}},
			expected: ErrorClassQuery,
		},
		{
			name:     "empty data",
			err:      &QueryError{Messages: []string{emptyDataMessage}, Err: ErrEmptyData},
			expected: ErrorClassQuery,
		},
		{
			name:     "precondition",
			err:      fmt.Errorf("get addresses: %w", &PreconditionError{What: "addresses", Limit: 15, Got: 16}),
			expected: ErrorClassPrecondition,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.expected {
				t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.expected)
			}
		})
	}
}

func TestShouldRetry(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "retryable transport error",
			err:      &TransportError{Op: "post query", Err: errors.New("reset"), retryable: true},
			expected: true,
		},
		{
			name:     "non-retryable transport error",
			err:      &TransportError{Op: "decode response", Err: errors.New("invalid character")},
			expected: false,
		},
		{
			name:     "rate limited",
			err:      &TransportError{Op: "rate limit", Err: ErrRateLimited},
			expected: false,
		},
		{
			name:     "bad response code should not retry",
			err:      &BadResponseCodeError{StatusCode: 503},
			expected: false,
		},
		{
			name:     "query error should not retry",
			err:      &QueryError{Messages: []string{"x"}},
			expected: false,
		},
		{
			name:     "unclassified error should not retry",
			err:      errors.New("boom"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := shouldRetry(tt.err); got != tt.expected {
				t.Errorf("shouldRetry(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{
			name:     "bad response code",
			err:      &BadResponseCodeError{StatusCode: 301},
			expected: "explorer bad response code: status code of 301 returned",
		},
		{
			name:     "query error keeps order",
			err:      &QueryError{Messages: []string{"Address not found.", "Second Error."}},
			expected: "explorer query error: [Address not found., Second Error.]",
		},
		{
			name:     "transport error",
			err:      &TransportError{Op: "post query", Err: errors.New("connection refused")},
			expected: "explorer transport error: post query: connection refused",
		},
		{
			name:     "precondition",
			err:      &PreconditionError{What: "addresses", Limit: 15, Got: 16},
			expected: "limit of 15 addresses breached (got 16)",
		},
		{
			name:     "rejected argument",
			err:      &PreconditionError{What: "cursor", Err: errors.New(`"x\"" is not a cursor`)},
			expected: `invalid cursor: "x\"" is not a cursor`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection refused")

	if !errors.Is(&TransportError{Op: "post query", Err: cause}, cause) {
		t.Error("errors.Is should reach the transport cause")
	}

	if !errors.Is(&QueryError{Messages: []string{emptyDataMessage}, Err: ErrEmptyData}, ErrEmptyData) {
		t.Error("empty data QueryError should match ErrEmptyData")
	}

	if errors.Is(&QueryError{Messages: []string{"x"}}, ErrEmptyData) {
		t.Error("plain QueryError should not match ErrEmptyData")
	}

	if !errors.Is(&PreconditionError{What: "addresses", Limit: 15, Got: 20}, ErrQueryComplexityLimit) {
		t.Error("PreconditionError should match ErrQueryComplexityLimit")
	}

	invalid := &PreconditionError{What: "cursor", Err: cause}
	if !errors.Is(invalid, cause) {
		t.Error("errors.Is should reach the rejected argument's cause")
	}
	if errors.Is(invalid, ErrQueryComplexityLimit) {
		t.Error("a rejected argument is not a complexity limit breach")
	}
	if Classify(invalid) != ErrorClassPrecondition {
		t.Errorf("Classify() = %q, want precondition", Classify(invalid))
	}
}
