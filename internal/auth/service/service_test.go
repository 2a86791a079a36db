package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks TokenClient,ProfileFetcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"aps-gateway/internal/auth/client"
	"aps-gateway/internal/auth/models"
	"aps-gateway/internal/auth/service/mocks"
	"aps-gateway/internal/session"
	dErrors "aps-gateway/pkg/domain-errors"
	"aps-gateway/pkg/platform/sentinel"
	"aps-gateway/pkg/requestcontext"
)

type fakeMetrics struct {
	exchanges     map[string]int
	profileMisses int
}

func (f *fakeMetrics) ObserveTokenExchange(grant, outcome string) {
	f.exchanges[grant+"/"+outcome]++
}

func (f *fakeMetrics) IncrementProfileFetchFailures() {
	f.profileMisses++
}

type ServiceSuite struct {
	suite.Suite
	ctx      context.Context
	now      time.Time
	tokens   *mocks.MockTokenClient
	profiles *mocks.MockProfileFetcher
	metrics  *fakeMetrics
	service  *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.tokens = mocks.NewMockTokenClient(ctrl)
	s.profiles = mocks.NewMockProfileFetcher(ctrl)
	s.metrics = &fakeMetrics{exchanges: map[string]int{}}
	s.service = New(s.tokens, s.profiles,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithDefaultScopes("data:read"),
	)
}

func (s *ServiceSuite) TestAppToken() {
	s.Run("uses the default scope when none is given", func() {
		s.tokens.EXPECT().AppToken(gomock.Any(), "data:read").
			Return(models.Token{AccessToken: "A", TokenType: "Bearer", ExpiresIn: 3599}, nil)

		tok, err := s.service.AppToken(s.ctx, "  ")
		s.Require().NoError(err)
		s.Equal("A", tok.AccessToken)
		s.Equal(1, s.metrics.exchanges["client_credentials/success"])
	})

	s.Run("returns the upstream rejection unchanged", func() {
		upstream := dErrors.Wrap(&client.UpstreamAuthError{StatusCode: 401, Body: `{"error":"invalid_client"}`},
			dErrors.CodeUpstreamAuth, "rejected")
		s.tokens.EXPECT().AppToken(gomock.Any(), "data:read bucket:read").Return(models.Token{}, upstream)

		_, err := s.service.AppToken(s.ctx, "data:read bucket:read")
		s.Require().ErrorIs(err, upstream)
		var ue *client.UpstreamAuthError
		s.Require().True(errors.As(err, &ue))
		s.Equal(401, ue.StatusCode)
		s.Equal(1, s.metrics.exchanges["client_credentials/upstream_auth_error"])
	})
}

func (s *ServiceSuite) TestBeginLogin() {
	s.Run("remembers a local return url", func() {
		sess := session.New("sid")
		s.tokens.EXPECT().AuthorizationURL("data:read").Return("https://aps/authorize?x")

		u := s.service.BeginLogin(sess, "", "/projects?hub=1")
		s.Equal("https://aps/authorize?x", u)
		s.Equal("/projects?hub=1", sess.ReturnURL())
	})

	s.Run("discards an off-site return url", func() {
		sess := session.New("sid")
		s.tokens.EXPECT().AuthorizationURL("data:write").Return("https://aps/authorize?y")

		s.service.BeginLogin(sess, "data:write", "//evil.example.com/")
		s.Equal("/", sess.ReturnURL())
	})
}

func (s *ServiceSuite) TestCompleteLogin() {
	s.Run("empty code is rejected without calling upstream", func() {
		sess := session.New("sid")
		_, err := s.service.CompleteLogin(s.ctx, sess, "")
		s.True(dErrors.Is(err, dErrors.CodeInvalidRequest))
		s.False(sess.Modified())
	})

	s.Run("failed exchange leaves the session untouched", func() {
		before := session.Values{UserEmail: "old@co.com", ReturnURL: "/projects"}
		sess := session.Restore("sid", before)
		upstream := dErrors.Wrap(&client.UpstreamAuthError{StatusCode: 400, Body: `{"error":"invalid_grant"}`},
			dErrors.CodeUpstreamAuth, "rejected")
		s.tokens.EXPECT().UserToken(gomock.Any(), "used-code").Return(models.Token{}, upstream)

		_, err := s.service.CompleteLogin(s.ctx, sess, "used-code")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUpstreamAuth))
		s.Equal(before, sess.Values())
		s.False(sess.Modified())
		s.False(sess.Regenerated())
	})

	s.Run("stores token and profile then returns to the remembered page", func() {
		sess := session.Restore("sid", session.Values{ReturnURL: "/projects"})
		s.tokens.EXPECT().UserToken(gomock.Any(), "code-1").
			Return(models.Token{AccessToken: "U", ExpiresIn: 3600, RefreshToken: "R"}, nil)
		s.profiles.EXPECT().Fetch(gomock.Any(), "U").Return(&models.UserProfile{
			Name:       "Ada Lovelace",
			Email:      "ada@co.com",
			PictureURL: "https://img/ada.png",
		}, nil)

		next, err := s.service.CompleteLogin(s.ctx, sess, "code-1")
		s.Require().NoError(err)
		s.Equal("/projects", next)

		creds, ok := sess.Token()
		s.Require().True(ok)
		s.Equal("U", creds.AccessToken)
		s.Equal("R", creds.RefreshToken)
		s.True(creds.ExpiresAt.Equal(s.now.Add(time.Hour)))
		s.Equal(session.Identity{Name: "Ada Lovelace", Email: "ada@co.com", Picture: "https://img/ada.png"}, sess.Identity())
		s.Empty(sess.ReturnURL())
		s.True(sess.Regenerated())
	})

	s.Run("profile failure still signs the user in", func() {
		sess := session.Restore("sid", session.Values{UserEmail: "stale@co.com"})
		s.tokens.EXPECT().UserToken(gomock.Any(), "code-2").
			Return(models.Token{AccessToken: "U2", ExpiresIn: 60}, nil)
		s.profiles.EXPECT().Fetch(gomock.Any(), "U2").Return(nil, errors.New("userinfo request failed with status 500"))

		next, err := s.service.CompleteLogin(s.ctx, sess, "code-2")
		s.Require().NoError(err)
		s.Equal(DefaultReturnURL, next)

		_, ok := sess.Token()
		s.True(ok)
		s.Empty(sess.Identity().Email)
		s.Equal(1, s.metrics.profileMisses)
	})
}

func (s *ServiceSuite) TestLogoutIsIdempotent() {
	sess := session.Restore("sid", session.Values{AccessToken: "T", ExpiresAt: s.now.Format(time.RFC3339)})

	s.service.Logout(sess)
	s.True(sess.IsEmpty())
	s.service.Logout(sess)
	s.True(sess.IsEmpty())
}

func (s *ServiceSuite) TestCurrentToken() {
	s.Run("unauthenticated session", func() {
		_, err := s.service.CurrentToken(s.ctx, session.New("sid"))
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
	})

	s.Run("reports remaining lifetime", func() {
		sess := session.New("sid")
		sess.SetToken(session.Credentials{AccessToken: "T", ExpiresAt: s.now.Add(90 * time.Second)})

		tok, err := s.service.CurrentToken(s.ctx, sess)
		s.Require().NoError(err)
		s.Equal("T", tok.AccessToken)
		s.Equal(90, tok.ExpiresIn)
	})

	s.Run("expired token is unauthorized", func() {
		sess := session.New("sid")
		sess.SetToken(session.Credentials{AccessToken: "T", ExpiresAt: s.now.Add(-time.Minute)})

		_, err := s.service.CurrentToken(s.ctx, sess)
		s.True(dErrors.Is(err, dErrors.CodeUnauthorized))
		s.ErrorIs(err, sentinel.ErrExpired)
	})
}

func (s *ServiceSuite) TestCurrentUser() {
	_, err := s.service.CurrentUser(session.New("sid"))
	s.True(dErrors.Is(err, dErrors.CodeUnauthorized))

	sess := session.New("sid")
	sess.SetToken(session.Credentials{AccessToken: "T", ExpiresAt: s.now.Add(time.Hour)})
	sess.SetIdentity(session.Identity{Name: "Ada", Email: "ada@co.com"})

	user, err := s.service.CurrentUser(sess)
	s.Require().NoError(err)
	s.Equal("Ada", user.Name)
	s.Equal("ada@co.com", user.Email)
}

func TestSafeReturnURL(t *testing.T) {
	tests := map[string]string{
		"":                      "/",
		"/projects":             "/projects",
		"/api/hubs?x=1":         "/api/hubs?x=1",
		"https://evil.example":  "/",
		"//evil.example":        "/",
		"/\\evil.example":       "/",
		"javascript:alert(1)":   "/",
		"/ok\r\nSet-Cookie: x=": "/",
		"/\t/evil.example":      "/",
		"/\n/evil":              "/",
		"/\x7f/evil":            "/",
		"/projects\tx":          "/",
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			if got := SafeReturnURL(in); got != want {
				t.Errorf("SafeReturnURL(%q) = %q, want %q", in, got, want)
			}
		})
	}
}
