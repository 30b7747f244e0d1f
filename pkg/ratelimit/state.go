// Package ratelimit tracks the explorer's request budget and gates requests.
// It reads the X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset
// response headers and keeps the latest values in Redis so every client
// sharing the budget sees the same state.
package ratelimit

import (
	"time"
)

// Header names sent by the explorer.
const (
	HeaderLimit     = "X-RateLimit-Limit"
	HeaderRemaining = "X-RateLimit-Remaining"
	HeaderReset     = "X-RateLimit-Reset" // milliseconds until the window resets
)

// Redis key suffixes, appended to Config.KeyPrefix.
const (
	keyLimit      = "limit"
	keyRemaining  = "remaining"
	keyResetAt    = "reset_at_ms"
	keyLastUpdate = "last_update"
)

// Thresholds for rate limit decisions.
const (
	// RemainingThresholdCritical blocks requests when remaining falls below this value.
	RemainingThresholdCritical = 2

	// RemainingThresholdWarning throttles requests when remaining falls below this value.
	RemainingThresholdWarning = 10

	// RemainingThresholdHealthy marks the budget as healthy at or above this value.
	RemainingThresholdHealthy = 25
)

// defaultRemaining is assumed until the explorer has reported a budget.
const defaultRemaining = 100

// RateLimitState is the explorer's request budget for the current window.
// This state is shared across all client instances via Redis.
type RateLimitState struct {
	// Limit is the window size reported in X-RateLimit-Limit (0 if unknown).
	Limit int `json:"limit"`

	// Remaining is the number of requests left in the window.
	Remaining int `json:"remaining"`

	// ResetAt is when the window resets.
	ResetAt time.Time `json:"reset_at"`

	// LastUpdate is when this state was last updated from response headers.
	LastUpdate time.Time `json:"last_update"`

	// IsHealthy is true when Remaining >= RemainingThresholdHealthy.
	IsHealthy bool `json:"is_healthy"`
}

// IsStale returns true if the state data is older than the given duration.
func (s *RateLimitState) IsStale(maxAge time.Duration) bool {
	return time.Since(s.LastUpdate) > maxAge
}

// WindowExpired reports whether the window the state describes has already reset.
func (s *RateLimitState) WindowExpired() bool {
	return !s.ResetAt.IsZero() && !time.Now().Before(s.ResetAt)
}

// NeedsCriticalBlock returns true if requests should be blocked until the window resets.
func (s *RateLimitState) NeedsCriticalBlock() bool {
	return s.Remaining < RemainingThresholdCritical && !s.WindowExpired()
}

// NeedsThrottling returns true if requests should be slowed down.
func (s *RateLimitState) NeedsThrottling() bool {
	return s.Remaining < RemainingThresholdWarning && !s.NeedsCriticalBlock() && !s.WindowExpired()
}

// TimeUntilReset returns the duration until the window resets.
// Returns 0 if the reset time has already passed.
func (s *RateLimitState) TimeUntilReset() time.Duration {
	duration := time.Until(s.ResetAt)
	if duration < 0 {
		return 0
	}
	return duration
}

// UpdateHealth updates the IsHealthy field based on current Remaining.
func (s *RateLimitState) UpdateHealth() {
	s.IsHealthy = s.Remaining >= RemainingThresholdHealthy
}
