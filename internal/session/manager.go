package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	dErrors "aps-gateway/pkg/domain-errors"
	"aps-gateway/pkg/platform/httputil"
	"aps-gateway/pkg/platform/sentinel"
	"aps-gateway/pkg/requestcontext"
)

// DefaultCookieName is used when no cookie name is configured.
const DefaultCookieName = "aps_session"

// FailureRecorder counts store operations that failed.
type FailureRecorder interface {
	IncrementSessionStoreFailures(operation string)
}

// Manager loads the visitor's session before the handler chain runs and
// persists it before the first byte of the response is written.
type Manager struct {
	store      Store
	logger     *slog.Logger
	metrics    FailureRecorder
	cookieName string
	secure     bool
	newID      func() string
}

// Option configures a Manager.
type Option func(*Manager)

func WithCookieName(name string) Option {
	return func(m *Manager) {
		if name != "" {
			m.cookieName = name
		}
	}
}

// WithSecureCookie marks the session cookie Secure.
func WithSecureCookie(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

func WithMetrics(rec FailureRecorder) Option {
	return func(m *Manager) {
		m.metrics = rec
	}
}

// WithIDGenerator replaces the random session id source. Tests only.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) {
		m.newID = fn
	}
}

// NewManager constructs a Manager around store.
func NewManager(store Store, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:      store,
		logger:     logger,
		cookieName: DefaultCookieName,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// CookieName returns the name of the session cookie.
func (m *Manager) CookieName() string {
	return m.cookieName
}

// Middleware attaches the visitor's session to the request context. A cookie
// naming an unknown or idle-evicted session gets a fresh id rather than the
// one the client presented. When a regenerated session cannot be saved the
// handler's response is replaced by a 500, since sending it would claim a
// sign-in that was never persisted.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sess, hadCookie := m.load(ctx, r)

		cw := &commitWriter{ResponseWriter: w}
		cw.commit = func() error { return m.commit(ctx, cw.ResponseWriter, sess, hadCookie) }

		next.ServeHTTP(cw, r.WithContext(WithSession(ctx, sess)))
		cw.flushCommit()
	})
}

func (m *Manager) load(ctx context.Context, r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(m.cookieName)
	if err != nil || cookie.Value == "" {
		return New(m.newID()), false
	}

	values, err := m.store.Load(ctx, cookie.Value)
	if err == nil {
		return Restore(cookie.Value, values), true
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		m.fail(ctx, "load", err)
	}
	return New(m.newID()), true
}

func (m *Manager) commit(ctx context.Context, w http.ResponseWriter, sess *Session, hadCookie bool) error {
	if sess.Regenerated() && !sess.IsEmpty() {
		if old, stored := sess.rotate(m.newID()); stored {
			if err := m.store.Delete(ctx, old); err != nil {
				m.fail(ctx, "delete", err)
			}
		}
	}

	switch {
	case sess.Modified() && sess.IsEmpty():
		if !sess.IsNew() {
			if err := m.store.Delete(ctx, sess.ID()); err != nil {
				m.fail(ctx, "delete", err)
			}
		}
		if hadCookie {
			http.SetCookie(w, m.cookie("", -1))
		}
	case sess.Modified():
		if err := m.store.Save(ctx, sess.ID(), sess.Values()); err != nil {
			m.fail(ctx, "save", err)
			if sess.Regenerated() {
				return dErrors.Wrap(err, dErrors.CodeInternal, "session could not be saved")
			}
			return nil
		}
		if sess.IsNew() {
			http.SetCookie(w, m.cookie(sess.ID(), 0))
		}
	case !sess.IsNew():
		if err := m.store.Touch(ctx, sess.ID()); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			m.fail(ctx, "touch", err)
		}
	}
	return nil
}

func (m *Manager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     m.cookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (m *Manager) fail(ctx context.Context, op string, err error) {
	if m.metrics != nil {
		m.metrics.IncrementSessionStoreFailures(op)
	}
	if m.logger != nil {
		m.logger.ErrorContext(ctx, "session store operation failed",
			"operation", op,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
}

// commitWriter runs commit exactly once, before headers are sent. A failed
// commit writes its own error response and swallows the handler's.
type commitWriter struct {
	http.ResponseWriter
	commit    func() error
	committed bool
	failed    bool
}

func (c *commitWriter) flushCommit() {
	if c.committed {
		return
	}
	c.committed = true
	if err := c.commit(); err != nil {
		c.failed = true
		c.ResponseWriter.Header().Del("Location")
		httputil.WriteError(c.ResponseWriter, err)
	}
}

func (c *commitWriter) WriteHeader(code int) {
	c.flushCommit()
	if c.failed {
		return
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *commitWriter) Write(b []byte) (int, error) {
	c.flushCommit()
	if c.failed {
		return len(b), nil
	}
	return c.ResponseWriter.Write(b)
}

func (c *commitWriter) Unwrap() http.ResponseWriter {
	return c.ResponseWriter
}
