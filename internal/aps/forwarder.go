// Package aps relays read-only calls to Autodesk Platform Services using the
// access token the caller passes in the token query parameter.
package aps

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	dErrors "aps-gateway/pkg/domain-errors"
	"aps-gateway/pkg/platform/httputil"
	"aps-gateway/pkg/requestcontext"
)

const maxUpstreamBody = 10 << 20

// UpstreamRecorder records passthrough latency.
type UpstreamRecorder interface {
	ObserveUpstream(route string, status int, elapsed time.Duration)
}

// Forwarder serves the /api passthrough routes.
type Forwarder struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    UpstreamRecorder
}

func New(baseURL string, httpClient *http.Client, logger *slog.Logger, metrics UpstreamRecorder) *Forwarder {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Forwarder{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     logger,
		metrics:    metrics,
	}
}

// Register mounts every passthrough route.
func (f *Forwarder) Register(r chi.Router) {
	for _, rt := range Routes {
		r.Get(rt.Pattern, f.forward(rt))
	}
}

func (f *Forwarder) forward(rt Route) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		query := r.URL.Query()
		token := query.Get("token")
		if token == "" {
			httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, "token query parameter is required"))
			return
		}
		query.Del("token")

		path, err := rt.expand(func(name string) string { return pathParam(r, name) })
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid path parameters"))
			return
		}
		target := f.baseURL + path
		if encoded := query.Encode(); encoded != "" {
			target += "?" + encoded
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "build upstream request"))
			return
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		start := time.Now()
		resp, err := f.httpClient.Do(req)
		if err != nil {
			f.observe(rt, 0, start)
			f.logger.ErrorContext(ctx, "aps request failed",
				"route", rt.Name,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeBadGateway, "aps request failed"))
			return
		}
		defer resp.Body.Close()
		f.observe(rt, resp.StatusCode, start)

		if resp.StatusCode >= 400 {
			f.logger.WarnContext(ctx, "aps returned an error status",
				"route", rt.Name,
				"status", resp.StatusCode,
				"request_id", requestcontext.RequestID(ctx),
			)
		}

		if ct := resp.Header.Get("Content-Type"); ct != "" {
			w.Header().Set("Content-Type", ct)
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, io.LimitReader(resp.Body, maxUpstreamBody)); err != nil {
			f.logger.WarnContext(ctx, "relaying aps response body failed",
				"route", rt.Name,
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
	}
}

// pathParam returns the decoded value; chi hands back the raw escaped form
// when the request path contains escapes.
func pathParam(r *http.Request, name string) string {
	raw := chi.URLParam(r, name)
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}

func (f *Forwarder) observe(rt Route, status int, start time.Time) {
	if f.metrics != nil {
		f.metrics.ObserveUpstream(rt.Name, status, time.Since(start))
	}
}
