// Package gate decides, before any handler runs, whether a request may reach
// a protected page. Two gates run in a fixed order: AuthorizationGate checks
// that the session holds a live APS token, WhitelistGate checks the signed-in
// email against the access list.
package gate

import (
	"log/slog"
	"net/http"

	"aps-gateway/internal/session"
	"aps-gateway/pkg/requestcontext"
)

// State is the decision a gate settled on for one request.
type State string

const (
	StatePublicPass              State = "public_pass"
	StateUnauthenticatedRedirect State = "unauthenticated_redirect"
	StateExpiredRedirect         State = "expired_redirect"
	StateAuthenticatedPass       State = "authenticated_pass"
	StateUnprotectedPass         State = "unprotected_pass"
	StateDisabledPass            State = "disabled_pass"
	StateAuthorizedPass          State = "authorized_pass"
	StateDeniedRedirect          State = "denied_redirect"
)

// Outcome is a gate's verdict. A non-empty Redirect stops the chain.
type Outcome struct {
	State    State
	Redirect string
}

func pass(s State) Outcome { return Outcome{State: s} }

func redirect(s State, to string) Outcome { return Outcome{State: s, Redirect: to} }

// Passed reports whether the request may continue.
func (o Outcome) Passed() bool { return o.Redirect == "" }

// Gate evaluates one request against the visitor's session. Gates may write
// to the session (clearing it, recording a denial) but never to the response.
type Gate interface {
	Name() string
	Evaluate(r *http.Request, sess *session.Session) Outcome
}

// DecisionRecorder counts gate decisions.
type DecisionRecorder interface {
	ObserveGateDecision(gate, state string)
}

// Dispatcher runs gates in order and answers the first redirect.
type Dispatcher struct {
	gates   []Gate
	logger  *slog.Logger
	metrics DecisionRecorder
}

// NewDispatcher composes gates; they run in the order given.
func NewDispatcher(logger *slog.Logger, metrics DecisionRecorder, gates ...Gate) *Dispatcher {
	return &Dispatcher{gates: gates, logger: logger, metrics: metrics}
}

// Middleware must run inside the session middleware. Without one, gates see an
// empty throwaway session and protected paths redirect to login.
func (d *Dispatcher) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.FromContext(r.Context())
		if sess == nil {
			sess = session.New("")
		}
		for _, g := range d.gates {
			out := g.Evaluate(r, sess)
			if d.metrics != nil {
				d.metrics.ObserveGateDecision(g.Name(), string(out.State))
			}
			if out.Passed() {
				continue
			}
			d.logRedirect(r, g, out)
			http.Redirect(w, r, out.Redirect, http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (d *Dispatcher) logRedirect(r *http.Request, g Gate, out Outcome) {
	if d.logger == nil {
		return
	}
	ctx := r.Context()
	level := slog.LevelInfo
	if out.State == StateDeniedRedirect {
		level = slog.LevelWarn
	}
	d.logger.Log(ctx, level, "request redirected by gate",
		"gate", g.Name(),
		"state", string(out.State),
		"path", r.URL.Path,
		"client_ip", requestcontext.ClientIP(ctx),
		"user_agent", requestcontext.UserAgent(ctx),
		"request_id", requestcontext.RequestID(ctx),
	)
}
