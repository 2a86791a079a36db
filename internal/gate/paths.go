package gate

import "strings"

// Paths shared by the gates and the router.
const (
	LoginPage        = "/login.html"
	AccessDeniedPage = "/access-denied.html"
)

// Prefixes is an ordered list of path prefixes. "/" only matches the root
// itself; every other prefix matches on a segment boundary, ignoring case.
type Prefixes []string

// PublicPrefixes pass both gates without a session.
var PublicPrefixes = Prefixes{
	LoginPage,
	"/auth/",
	"/health",
	"/metrics",
	"/css/",
	"/js/",
	"/images/",
	"/favicon.ico",
	"/swagger/v1/swagger.json",
}

// WhitelistPublicPrefixes additionally skip the whitelist so a denied user can
// read why.
var WhitelistPublicPrefixes = append(Prefixes{AccessDeniedPage}, PublicPrefixes...)

// ProtectedSurfaces are the paths the whitelist applies to.
var ProtectedSurfaces = Prefixes{"/", "/api/", "/swagger"}

// Match reports whether path falls under any prefix.
func (p Prefixes) Match(path string) bool {
	lower := strings.ToLower(path)
	for _, prefix := range p {
		if matchPrefix(lower, strings.ToLower(prefix)) {
			return true
		}
	}
	return false
}

func matchPrefix(path, prefix string) bool {
	if prefix == "/" {
		return path == "/"
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if strings.HasSuffix(prefix, "/") || len(path) == len(prefix) {
		return true
	}
	return path[len(prefix)] == '/'
}
