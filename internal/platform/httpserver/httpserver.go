package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

const (
	readHeaderTimeout = 5 * time.Second
	// readTimeout covers a 100 MB site video upload on a slow link.
	readTimeout = 2 * time.Minute
	idleTimeout = 90 * time.Second
)

// New builds the HTTP server. writeTimeout must cover the video processing
// poll ceiling plus upload and analysis time. Server-level errors such as
// TLS handshake failures go to logger at warn level.
func New(addr string, handler http.Handler, writeTimeout time.Duration, logger *slog.Logger) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		MaxHeaderBytes:    1 << 20,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelWarn),
	}
}
