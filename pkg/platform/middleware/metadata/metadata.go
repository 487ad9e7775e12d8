package metadata

import (
	"context"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"landverify/pkg/requestcontext"
)

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context. Apply early in the chain.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), ClientIPFromRequest(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Device summarizes the caller's device as reported by its User-Agent.
type Device struct {
	Browser string
	OS      string
	Mobile  bool
	Bot     bool
}

// DeviceFromContext parses the User-Agent stored by ClientMetadata.
// Location checks log it, since the observed coordinate comes from this device.
func DeviceFromContext(ctx context.Context) Device {
	raw := requestcontext.UserAgent(ctx)
	if raw == "" {
		return Device{}
	}
	ua := useragent.New(raw)
	browser, version := ua.Browser()
	if version != "" {
		browser = browser + " " + version
	}
	return Device{
		Browser: browser,
		OS:      ua.OS(),
		Mobile:  ua.Mobile(),
		Bot:     ua.Bot(),
	}
}

// ClientIPFromRequest extracts the client IP, honouring proxy headers.
func ClientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	// RemoteAddr is "ip:port" or "[ipv6]:port"
	if addr := r.RemoteAddr; addr != "" {
		if idx := strings.LastIndex(addr, ":"); idx != -1 {
			return strings.Trim(addr[:idx], "[]")
		}
		return addr
	}

	return "unknown"
}
