package httpserver

import (
	"log/slog"
	"net/http"
	"time"
)

// Passthrough responses can be large and slow upstream, so the write timeout
// sits above the outbound client timeout.
const (
	readHeaderTimeout = 5 * time.Second
	idleTimeout       = 120 * time.Second
	writeSlack        = 15 * time.Second
)

// New builds the gateway's HTTP server. upstreamTimeout is the outbound APS
// client timeout; the server gives a handler that long plus some slack to
// finish writing. Server-level errors go to logger at warn.
func New(addr string, handler http.Handler, upstreamTimeout time.Duration, logger *slog.Logger) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}
	if upstreamTimeout > 0 {
		srv.WriteTimeout = upstreamTimeout + writeSlack
	}
	if logger != nil {
		srv.ErrorLog = slog.NewLogLogger(logger.Handler(), slog.LevelWarn)
	}
	return srv
}
