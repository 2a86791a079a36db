package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"aps-gateway/internal/gate"
	"aps-gateway/internal/session"
	"aps-gateway/pkg/platform/httputil"
	"aps-gateway/pkg/platform/middleware/metadata"
	"aps-gateway/pkg/platform/middleware/request"
	"aps-gateway/pkg/platform/middleware/requesttime"
	"aps-gateway/pkg/requestcontext"
)

// Registrar is implemented by every handler that owns a group of routes.
type Registrar interface {
	Register(r chi.Router)
}

// HealthChecker reports whether a backing dependency is usable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Deps carries everything the router composes.
type Deps struct {
	Logger   *slog.Logger
	Gatherer prometheus.Gatherer
	Sessions *session.Manager
	Gates    *gate.Dispatcher
	Store    HealthChecker
	Handlers []Registrar
}

// NewRouter wires the middleware chain and every route. Gates run after the
// session is loaded and before any handler, so a handler behind them can
// assume the visitor is signed in and allowed.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.Recovery(d.Logger))
	r.Use(metadata.ClientMetadata)
	r.Use(request.Logger(d.Logger))
	r.Use(requesttime.Middleware)
	r.Use(d.Sessions.Middleware)
	r.Use(d.Gates.Middleware)

	r.Get("/health", healthHandler(d.Store, d.Logger))
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}
	for _, h := range d.Handlers {
		h.Register(r)
	}
	return r
}

type healthResponse struct {
	Status       string `json:"status"`
	SessionStore string `json:"session_store"`
}

func healthHandler(store HealthChecker, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if store != nil {
			if err := store.Health(ctx); err != nil {
				logger.WarnContext(ctx, "session store unhealthy",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", SessionStore: "unavailable"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", SessionStore: "ok"})
	}
}
