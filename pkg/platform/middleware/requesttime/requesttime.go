// Package requesttime fixes "now" once per request so that claims, attempt
// timestamps and audit events written during one request agree.
package requesttime

import (
	"net/http"
	"time"

	"landverify/pkg/requestcontext"
)

// Middleware captures the current time (UTC) at the start of the request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
