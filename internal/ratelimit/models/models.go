// Package models holds the rate limit results and API responses shared by
// the bucket stores and the middleware.
package models

import (
	"fmt"
	"time"
)

// Policy is a sliding-window allowance: at most Limit requests per Window.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Enabled reports whether the policy limits anything.
func (p Policy) Enabled() bool {
	return p.Limit > 0 && p.Window > 0
}

// Key scopes the policy to one caller.
func (p Policy) Key(subject string) string {
	return fmt.Sprintf("rl:%s:%s", p.Name, subject)
}

type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// UserRateLimitExceededResponse is the API response when a subject's quota is spent.
type UserRateLimitExceededResponse struct {
	Error          string    `json:"error"`
	Message        string    `json:"message"`
	QuotaLimit     int       `json:"quota_limit"`
	QuotaRemaining int       `json:"quota_remaining"`
	QuotaReset     time.Time `json:"quota_reset"`
	RetryAfter     int       `json:"retry_after"`
}

// retryAfter rounds up to whole seconds, never below one.
func retryAfter(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	return max(secs, 1)
}

// Denied builds the result for a refused request whose oldest counted
// request leaves the window at resetAt.
func Denied(limit int, resetAt, now time.Time) *RateLimitResult {
	return &RateLimitResult{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: retryAfter(resetAt.Sub(now)),
	}
}
