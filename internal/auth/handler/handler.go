package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"aps-gateway/internal/auth/models"
	"aps-gateway/internal/gate"
	"aps-gateway/internal/session"
	dErrors "aps-gateway/pkg/domain-errors"
	"aps-gateway/pkg/platform/httputil"
	"aps-gateway/pkg/requestcontext"
)

// Service defines the sign-in flow operations the handler exposes.
type Service interface {
	AppToken(ctx context.Context, scope string) (models.Token, error)
	BeginLogin(sess *session.Session, scope, returnURL string) string
	CompleteLogin(ctx context.Context, sess *session.Session, code string) (string, error)
	Logout(sess *session.Session)
	CurrentToken(ctx context.Context, sess *session.Session) (models.SessionToken, error)
	CurrentUser(sess *session.Session) (models.CurrentUserResponse, error)
}

// Handler serves the /auth endpoints.
type Handler struct {
	auth   Service
	logger *slog.Logger
}

func New(auth Service, logger *slog.Logger) *Handler {
	return &Handler{auth: auth, logger: logger}
}

// Register registers the auth routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/auth/token", h.handleAppToken)
	r.Get("/auth/login", h.handleLogin)
	r.Get("/auth/callback", h.handleCallback)
	r.Get("/auth/logout", h.handleLogout)
	r.Get("/auth/current-token", h.handleCurrentToken)
	r.Get("/auth/current-user", h.handleCurrentUser)
}

func (h *Handler) handleAppToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tok, err := h.auth.AppToken(ctx, r.URL.Query().Get("scope"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, models.TokenResponse{
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		ExpiresIn:   tok.ExpiresIn,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	target := h.auth.BeginLogin(sess, q.Get("scope"), q.Get("returnUrl"))
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	// The authorize endpoint reports a refused consent on the callback itself.
	if upstreamErr := q.Get("error"); upstreamErr != "" {
		h.logger.WarnContext(ctx, "authorization was not granted",
			"error", upstreamErr,
			"request_id", requestcontext.RequestID(ctx),
		)
		msg := q.Get("error_description")
		if msg == "" {
			msg = upstreamErr
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeInvalidRequest, msg))
		return
	}

	next, err := h.auth.CompleteLogin(ctx, sess, q.Get("code"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	http.Redirect(w, r, next, http.StatusFound)
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.auth.Logout(sess)
	http.Redirect(w, r, gate.LoginPage, http.StatusFound)
}

func (h *Handler) handleCurrentToken(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	tok, err := h.auth.CurrentToken(r.Context(), sess)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, tok)
}

func (h *Handler) handleCurrentUser(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	user, err := h.auth.CurrentUser(sess)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		// Only reachable if the router is wired without the session middleware.
		h.logger.ErrorContext(r.Context(), "session missing from request context",
			"request_id", requestcontext.RequestID(r.Context()),
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeInternal, "session unavailable"))
		return nil, false
	}
	return sess, true
}
