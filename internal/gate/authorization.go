package gate

import (
	"net/http"
	"net/url"

	"aps-gateway/internal/session"
	"aps-gateway/pkg/requestcontext"
)

// AuthorizationGate requires a session holding an unexpired APS token. It
// never calls upstream; expiry is judged from the stored expires-at alone.
type AuthorizationGate struct {
	public    Prefixes
	loginPath string
}

// NewAuthorizationGate returns a gate with the standard public prefixes and
// login page.
func NewAuthorizationGate() *AuthorizationGate {
	return &AuthorizationGate{public: PublicPrefixes, loginPath: LoginPage}
}

func (g *AuthorizationGate) Name() string { return "authorization" }

func (g *AuthorizationGate) Evaluate(r *http.Request, sess *session.Session) Outcome {
	if g.public.Match(r.URL.Path) {
		return pass(StatePublicPass)
	}

	creds, ok := sess.Token()
	if !ok {
		return redirect(StateUnauthenticatedRedirect, g.loginURL(r))
	}
	if creds.ExpiresAt.Before(requestcontext.Now(r.Context())) {
		sess.Clear()
		return redirect(StateExpiredRedirect, g.loginURL(r))
	}
	return pass(StateAuthenticatedPass)
}

// loginURL sends the visitor back to the page they asked for after login.
func (g *AuthorizationGate) loginURL(r *http.Request) string {
	if r.Method != http.MethodGet || r.URL.Path == "/" {
		return g.loginPath
	}
	return g.loginPath + "?" + url.Values{"returnUrl": {r.URL.RequestURI()}}.Encode()
}
