package auth

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "landverify/pkg/domain"
	"landverify/pkg/email"
	"landverify/pkg/requestcontext"
)

// JWTValidator validates a bearer token and returns the principal it names.
type JWTValidator interface {
	ValidateToken(tokenString string) (*Principal, error)
}

// Principal is the authenticated caller as asserted by the identity provider.
type Principal struct {
	SubjectID id.SubjectID
	Role      id.Role
	Name      string
	Email     string
}

// DisplayName prefers the explicit name claim, then a name derived from the email.
func (p *Principal) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return email.DisplayNameFromEmail(p.Email)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"%s","error_description":"%s"}`, errCode, errDesc))
}

// RequireAuth rejects requests without a valid bearer token and stores the
// principal in the request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := requestcontext.RequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			principal, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			ctx = requestcontext.WithSubject(ctx, principal.SubjectID, principal.Role, principal.DisplayName())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole admits only principals holding one of roles. It must run after RequireAuth.
func RequireRole(logger *slog.Logger, roles ...id.Role) func(http.Handler) http.Handler {
	allowed := make(map[id.Role]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			role := requestcontext.Role(ctx)
			if !allowed[role] {
				logger.WarnContext(ctx, "forbidden - role not permitted",
					"request_id", requestcontext.RequestID(ctx),
					"subject_id", requestcontext.SubjectID(ctx),
					"role", role,
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Role not permitted for this operation")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
