// Package service runs the APS sign-in flow against the visitor's session:
// building the authorize redirect, redeeming the callback code, caching the
// user's identity and signing out.
package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"aps-gateway/internal/auth/models"
	"aps-gateway/internal/session"
	dErrors "aps-gateway/pkg/domain-errors"
	"aps-gateway/pkg/platform/sentinel"
	"aps-gateway/pkg/requestcontext"
)

// TokenClient exchanges grants at the APS token endpoint.
type TokenClient interface {
	AuthorizationURL(scope string) string
	AppToken(ctx context.Context, scope string) (models.Token, error)
	UserToken(ctx context.Context, code string) (models.Token, error)
}

// ProfileFetcher resolves the identity behind an access token.
type ProfileFetcher interface {
	Fetch(ctx context.Context, accessToken string) (*models.UserProfile, error)
}

// Metrics is the subset of gateway metrics the flow reports.
type Metrics interface {
	ObserveTokenExchange(grant, outcome string)
	IncrementProfileFetchFailures()
}

// DefaultReturnURL is where a completed login lands when nothing else was asked for.
const DefaultReturnURL = "/"

type Service struct {
	tokens        TokenClient
	profiles      ProfileFetcher
	logger        *slog.Logger
	metrics       Metrics
	defaultScopes string
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithDefaultScopes sets the scope used when a caller supplies none.
func WithDefaultScopes(scopes string) Option {
	return func(s *Service) {
		s.defaultScopes = strings.TrimSpace(scopes)
	}
}

func New(tokens TokenClient, profiles ProfileFetcher, opts ...Option) *Service {
	s := &Service{
		tokens:   tokens,
		profiles: profiles,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// AppToken performs a 2-legged exchange. Nothing is stored.
func (s *Service) AppToken(ctx context.Context, scope string) (models.Token, error) {
	tok, err := s.tokens.AppToken(ctx, s.scope(scope))
	s.observeExchange(ctx, models.GrantClientCredentials, err)
	return tok, err
}

// BeginLogin remembers where to go after the callback and returns the APS
// authorize URL. Only local paths are remembered.
func (s *Service) BeginLogin(sess *session.Session, scope, returnURL string) string {
	sess.SetReturnURL(SafeReturnURL(returnURL))
	return s.tokens.AuthorizationURL(s.scope(scope))
}

// CompleteLogin redeems code and populates sess. The session is left
// untouched when the exchange fails. A profile lookup failure is logged and
// otherwise ignored: the user is signed in with an empty identity.
// It returns the URL to redirect to.
func (s *Service) CompleteLogin(ctx context.Context, sess *session.Session, code string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", dErrors.New(dErrors.CodeInvalidRequest, "missing authorization code")
	}

	tok, err := s.tokens.UserToken(ctx, code)
	s.observeExchange(ctx, models.GrantAuthorizationCode, err)
	if err != nil {
		return "", err
	}

	now := requestcontext.Now(ctx)
	sess.SetToken(session.Credentials{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresAt:    tok.ExpiresAt(now),
	})
	sess.SetDenialReason("")
	sess.Regenerate()

	profile, err := s.profiles.Fetch(ctx, tok.AccessToken)
	if err != nil {
		if s.metrics != nil {
			s.metrics.IncrementProfileFetchFailures()
		}
		s.logger.WarnContext(ctx, "profile fetch failed; continuing without identity",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		sess.SetIdentity(session.Identity{})
	} else {
		sess.SetIdentity(session.Identity{
			Name:    profile.DisplayName(),
			Email:   profile.Email,
			Picture: profile.PictureURL,
		})
	}

	if u := sess.TakeReturnURL(); u != "" {
		return u, nil
	}
	return DefaultReturnURL, nil
}

// Logout drops everything in the session. Logging out twice is harmless.
func (s *Service) Logout(sess *session.Session) {
	sess.Clear()
}

// CurrentToken returns the session's token with the seconds it has left.
func (s *Service) CurrentToken(ctx context.Context, sess *session.Session) (models.SessionToken, error) {
	creds, ok := sess.Token()
	if !ok {
		return models.SessionToken{}, dErrors.New(dErrors.CodeUnauthorized, "not signed in")
	}
	remaining := int(creds.ExpiresAt.Sub(requestcontext.Now(ctx)).Seconds())
	if remaining <= 0 {
		return models.SessionToken{}, dErrors.Wrap(sentinel.ErrExpired, dErrors.CodeUnauthorized, "session token expired")
	}
	return models.SessionToken{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		ExpiresAt:    creds.ExpiresAt,
		ExpiresIn:    remaining,
	}, nil
}

// CurrentUser returns the identity cached at login.
func (s *Service) CurrentUser(sess *session.Session) (models.CurrentUserResponse, error) {
	if _, ok := sess.Token(); !ok {
		return models.CurrentUserResponse{}, dErrors.New(dErrors.CodeUnauthorized, "not signed in")
	}
	id := sess.Identity()
	return models.CurrentUserResponse{
		Name:    id.Name,
		Email:   id.Email,
		Picture: id.Picture,
	}, nil
}

func (s *Service) scope(requested string) string {
	if scope := strings.TrimSpace(requested); scope != "" {
		return scope
	}
	return s.defaultScopes
}

func (s *Service) observeExchange(ctx context.Context, grant string, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
		s.logger.ErrorContext(ctx, "token exchange failed",
			"grant", grant,
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	if s.metrics != nil {
		s.metrics.ObserveTokenExchange(grant, outcome)
	}
}

// SafeReturnURL accepts only same-origin paths. Anything that could leave the
// site (absolute URLs, protocol-relative or backslash tricks) becomes "/".
// Control characters are rejected outright because browsers strip tabs and
// newlines before resolving a Location header.
func SafeReturnURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw[0] != '/' {
		return DefaultReturnURL
	}
	if strings.IndexFunc(raw, isControl) >= 0 {
		return DefaultReturnURL
	}
	if len(raw) > 1 && (raw[1] == '/' || raw[1] == '\\') {
		return DefaultReturnURL
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return DefaultReturnURL
	}
	return raw
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}
