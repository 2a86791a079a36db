package gate

import (
	"fmt"
	"net/http"
	"strings"

	"aps-gateway/internal/session"
)

// Whitelist is a set of lowercase emails plus "*@domain" wildcard entries.
// An empty whitelist allows nobody.
type Whitelist struct {
	emails  map[string]struct{}
	domains map[string]struct{}
}

// NewWhitelist normalises entries; blank entries are ignored.
func NewWhitelist(entries []string) *Whitelist {
	w := &Whitelist{
		emails:  make(map[string]struct{}),
		domains: make(map[string]struct{}),
	}
	for _, e := range entries {
		e = strings.ToLower(strings.TrimSpace(e))
		switch {
		case e == "":
		case strings.HasPrefix(e, "*@"):
			if domain := strings.TrimPrefix(e, "*@"); domain != "" {
				w.domains[domain] = struct{}{}
			}
		default:
			w.emails[e] = struct{}{}
		}
	}
	return w
}

// Allows reports whether email is listed, directly or by domain.
func (w *Whitelist) Allows(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return false
	}
	if _, ok := w.emails[email]; ok {
		return true
	}
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	_, ok := w.domains[email[at+1:]]
	return ok
}

// Len is the number of entries after normalisation.
func (w *Whitelist) Len() int {
	return len(w.emails) + len(w.domains)
}

// WhitelistGate restricts the protected surfaces to listed emails. It relies
// on AuthorizationGate having run first; disabling it keeps the token
// requirement.
type WhitelistGate struct {
	list       *Whitelist
	enabled    bool
	public     Prefixes
	protected  Prefixes
	deniedPath string
}

// NewWhitelistGate builds the gate. A nil list behaves as empty.
func NewWhitelistGate(list *Whitelist, enabled bool) *WhitelistGate {
	if list == nil {
		list = NewWhitelist(nil)
	}
	return &WhitelistGate{
		list:       list,
		enabled:    enabled,
		public:     WhitelistPublicPrefixes,
		protected:  ProtectedSurfaces,
		deniedPath: AccessDeniedPage,
	}
}

func (g *WhitelistGate) Name() string { return "whitelist" }

func (g *WhitelistGate) Evaluate(r *http.Request, sess *session.Session) Outcome {
	path := r.URL.Path
	if g.public.Match(path) {
		return pass(StatePublicPass)
	}
	if !g.protected.Match(path) {
		return pass(StateUnprotectedPass)
	}
	if !g.enabled {
		return pass(StateDisabledPass)
	}

	email := sess.Identity().Email
	if email == "" {
		sess.SetDenialReason("Your Autodesk account did not share an email address, so access could not be verified.")
		return redirect(StateDeniedRedirect, g.deniedPath)
	}
	if !g.list.Allows(email) {
		sess.SetDenialReason(fmt.Sprintf("%s is not on the access list for this application.", email))
		return redirect(StateDeniedRedirect, g.deniedPath)
	}
	return pass(StateAuthorizedPass)
}
