// Package web renders the gateway's own HTML pages: the login page, the
// access-denied page and the API explorer landing page.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"aps-gateway/internal/aps"
	"aps-gateway/internal/auth/service"
	"aps-gateway/internal/gate"
	"aps-gateway/internal/session"
	"aps-gateway/pkg/requestcontext"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type Handler struct {
	logger  *slog.Logger
	contact string
}

// New builds the page handler. contact is the remediation text shown to users
// refused by the whitelist.
func New(logger *slog.Logger, contact string) *Handler {
	return &Handler{logger: logger, contact: contact}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get(gate.LoginPage, h.handleLogin)
	r.Get(gate.AccessDeniedPage, h.handleAccessDenied)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	loginURL := "/auth/login"
	if ret := r.URL.Query().Get("returnUrl"); ret != "" {
		loginURL += "?" + url.Values{"returnUrl": {service.SafeReturnURL(ret)}}.Encode()
	}
	h.render(w, r, http.StatusOK, "login.html", map[string]any{
		"Title":    "Sign in",
		"LoginURL": loginURL,
	})
}

func (h *Handler) handleAccessDenied(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":   "Access denied",
		"Contact": h.contact,
	}
	if sess := session.FromContext(r.Context()); sess != nil {
		data["Email"] = sess.Identity().Email
		data["Reason"] = sess.DenialReason()
	}
	h.render(w, r, http.StatusForbidden, "access-denied.html", data)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := map[string]any{
		"Title":  "API explorer",
		"Routes": aps.Routes,
	}
	if sess := session.FromContext(r.Context()); sess != nil {
		id := sess.Identity()
		data["Name"] = id.Name
		data["Email"] = id.Email
	}
	h.render(w, r, http.StatusOK, "index.html", data)
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, data); err != nil {
		h.logger.ErrorContext(r.Context(), "render page failed",
			"page", name,
			"error", err,
			"request_id", requestcontext.RequestID(r.Context()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
