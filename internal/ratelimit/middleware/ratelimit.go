// Package middleware applies per-subject rate limits to authenticated routes.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"landverify/internal/ratelimit/models"
	"landverify/pkg/platform/httputil"
	"landverify/pkg/requestcontext"
)

// BucketStore counts requests in a sliding window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type Middleware struct {
	store    BucketStore
	logger   *slog.Logger
	disabled bool
}

type Option func(*Middleware)

// WithDisabled turns every limit into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(store BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		store:  store,
		logger: logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// PerSubject limits the authenticated subject to policy. Requests without a
// subject and store failures pass through.
func (m *Middleware) PerSubject(policy models.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if m.disabled || !policy.Enabled() {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			subjectID := requestcontext.SubjectID(ctx)
			if subjectID.IsNil() {
				next.ServeHTTP(w, r)
				return
			}

			result, err := m.store.Allow(ctx, policy.Key(subjectID.String()), policy.Limit, policy.Window)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check subject rate limit",
					"error", err,
					"policy", policy.Name,
					"subject_id", subjectID.String(),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if !result.Allowed {
				m.logger.WarnContext(ctx, "subject rate limit exceeded",
					"policy", policy.Name,
					"subject_id", subjectID.String(),
					"retry_after", result.RetryAfter,
				)
				writeUserRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeUserRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.UserRateLimitExceededResponse{
		Error:          "user_rate_limit_exceeded",
		Message:        "You have exceeded your verification quota. Please try again later.",
		QuotaLimit:     result.Limit,
		QuotaRemaining: result.Remaining,
		QuotaReset:     result.ResetAt,
		RetryAfter:     result.RetryAfter,
	})
}
