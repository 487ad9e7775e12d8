// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services and stores read them without importing
// net/http. Tests inject them directly:
//
//	ctx = requestcontext.WithSubject(ctx, subjectID, domain.RoleSeller, "Ravi Kumar")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "landverify/pkg/domain"
)

type (
	subjectIDKey   struct{}
	roleKey        struct{}
	displayNameKey struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeySubjectID   = subjectIDKey{}
	ContextKeyRole        = roleKey{}
	ContextKeyDisplayName = displayNameKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Principal
// -----------------------------------------------------------------------------

// SubjectID retrieves the authenticated subject. Returns the nil UUID if unset.
func SubjectID(ctx context.Context) id.SubjectID {
	if v, ok := ctx.Value(ContextKeySubjectID).(id.SubjectID); ok {
		return v
	}
	return id.SubjectID{}
}

// Role retrieves the principal's marketplace role.
func Role(ctx context.Context) id.Role {
	if v, ok := ctx.Value(ContextKeyRole).(id.Role); ok {
		return v
	}
	return ""
}

// DisplayName retrieves the principal's display name.
func DisplayName(ctx context.Context) string {
	if v, ok := ctx.Value(ContextKeyDisplayName).(string); ok {
		return v
	}
	return ""
}

// WithSubject injects the authenticated principal.
func WithSubject(ctx context.Context, subjectID id.SubjectID, role id.Role, displayName string) context.Context {
	ctx = context.WithValue(ctx, ContextKeySubjectID, subjectID)
	ctx = context.WithValue(ctx, ContextKeyRole, role)
	return context.WithValue(ctx, ContextKeyDisplayName, displayName)
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	return context.WithValue(ctx, ContextKeyUserAgent, userAgent)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time.
// Falls back to time.Now() outside of HTTP requests (workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
