// Package session holds the per-visitor state that the gates and the login
// flow read and write: the APS token, the cached identity, the post-login
// return URL and the whitelist denial reason.
package session

import (
	"context"
	"time"
)

// Values is the persisted shape of a session. ExpiresAt is an RFC 3339 string
// so a corrupt value is detected on every read rather than at write time.
type Values struct {
	AccessToken  string `json:"access_token,omitempty"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresAt    string `json:"expires_at,omitempty"`
	UserName     string `json:"user_name,omitempty"`
	UserEmail    string `json:"user_email,omitempty"`
	UserPicture  string `json:"user_picture,omitempty"`
	ReturnURL    string `json:"return_url,omitempty"`
	DenialReason string `json:"denial_reason,omitempty"`
}

// Credentials is the token material of an authenticated session.
type Credentials struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Identity is the display subset of the user profile cached after login.
type Identity struct {
	Name    string
	Email   string
	Picture string
}

// Session is owned by exactly one request at a time.
type Session struct {
	id          string
	values      Values
	isNew       bool
	modified    bool
	regenerated bool
}

// New returns an empty session that has not been persisted yet.
func New(id string) *Session {
	return &Session{id: id, isNew: true}
}

// Restore rebuilds a session loaded from a store.
func Restore(id string, v Values) *Session {
	return &Session{id: id, values: v}
}

func (s *Session) ID() string     { return s.id }
func (s *Session) Values() Values { return s.values }
func (s *Session) IsNew() bool    { return s.isNew }
func (s *Session) Modified() bool { return s.modified }

// IsEmpty reports whether the session carries no state worth persisting.
func (s *Session) IsEmpty() bool {
	return s.values == Values{}
}

// Token returns the stored credentials. ok is false when there is no access
// token or the expiry is missing or unparseable; such a session is treated as
// unauthenticated.
func (s *Session) Token() (Credentials, bool) {
	if s.values.AccessToken == "" || s.values.ExpiresAt == "" {
		return Credentials{}, false
	}
	exp, err := time.Parse(time.RFC3339, s.values.ExpiresAt)
	if err != nil {
		return Credentials{}, false
	}
	return Credentials{
		AccessToken:  s.values.AccessToken,
		RefreshToken: s.values.RefreshToken,
		ExpiresAt:    exp,
	}, true
}

// SetToken stores freshly exchanged credentials. An empty refresh token
// removes any previous one.
func (s *Session) SetToken(c Credentials) {
	s.values.AccessToken = c.AccessToken
	s.values.RefreshToken = c.RefreshToken
	s.values.ExpiresAt = c.ExpiresAt.UTC().Format(time.RFC3339)
	s.modified = true
}

func (s *Session) Identity() Identity {
	return Identity{
		Name:    s.values.UserName,
		Email:   s.values.UserEmail,
		Picture: s.values.UserPicture,
	}
}

func (s *Session) SetIdentity(id Identity) {
	s.values.UserName = id.Name
	s.values.UserEmail = id.Email
	s.values.UserPicture = id.Picture
	s.modified = true
}

func (s *Session) ReturnURL() string { return s.values.ReturnURL }

func (s *Session) SetReturnURL(u string) {
	if s.values.ReturnURL == u {
		return
	}
	s.values.ReturnURL = u
	s.modified = true
}

// TakeReturnURL returns the stored return URL and removes it.
func (s *Session) TakeReturnURL() string {
	u := s.values.ReturnURL
	s.SetReturnURL("")
	return u
}

func (s *Session) DenialReason() string { return s.values.DenialReason }

func (s *Session) SetDenialReason(reason string) {
	if s.values.DenialReason == reason {
		return
	}
	s.values.DenialReason = reason
	s.modified = true
}

// Regenerate asks the manager to move the values to a fresh id when the
// session is committed and to drop the old record. Call it whenever the
// session's privilege changes, so an id issued before sign-in never
// authenticates anyone.
func (s *Session) Regenerate() {
	s.regenerated = true
	s.modified = true
}

// Regenerated reports whether Regenerate was called during this request.
func (s *Session) Regenerated() bool { return s.regenerated }

// rotate moves the session to id and returns the id it replaces along with
// whether that one had ever been stored.
func (s *Session) rotate(id string) (old string, stored bool) {
	old, stored = s.id, !s.isNew
	s.id = id
	s.isNew = true
	return old, stored
}

// Clear drops every value. Clearing an already empty session is a no-op.
func (s *Session) Clear() {
	if s.IsEmpty() {
		return
	}
	s.values = Values{}
	s.modified = true
}

// Store persists sessions between requests. Load returns sentinel.ErrNotFound
// for unknown ids and for sessions idle longer than the store's timeout.
type Store interface {
	Load(ctx context.Context, id string) (Values, error)
	Save(ctx context.Context, id string, v Values) error
	Touch(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	Health(ctx context.Context) error
}

type contextKey struct{}

// WithSession attaches sess to ctx.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the request's session, or nil outside the session
// middleware.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(contextKey{}).(*Session)
	return sess
}
