package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/suite"

	"aps-gateway/internal/auth/models"
	dErrors "aps-gateway/pkg/domain-errors"
)

// fakeTokenServer imitates the APS token endpoint. Authorization codes are
// single use: the second redemption of a code answers invalid_grant.
type fakeTokenServer struct {
	mu       sync.Mutex
	server   *httptest.Server
	used     map[string]bool
	lastForm url.Values
	respond  func(w http.ResponseWriter, form url.Values) bool
}

func newFakeTokenServer() *fakeTokenServer {
	f := &fakeTokenServer{used: map[string]bool{}}
	f.server = httptest.NewServer(http.HandlerFunc(f.serveHTTP))
	return f
}

func (f *fakeTokenServer) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastForm = r.PostForm

	if f.respond != nil && f.respond(w, r.PostForm) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.PostForm.Get("grant_type") {
	case models.GrantClientCredentials:
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "app-token",
			"token_type":   "Bearer",
			"expires_in":   3599,
		})
	case models.GrantAuthorizationCode:
		code := r.PostForm.Get("code")
		if f.used[code] {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"The authorization code is invalid or has expired"}`))
			return
		}
		f.used[code] = true
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "user-token",
			"token_type":    "Bearer",
			"expires_in":    3600,
			"refresh_token": "refresh-token",
		})
	default:
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"unsupported_grant_type"}`))
	}
}

func (f *fakeTokenServer) setResponder(fn func(w http.ResponseWriter, form url.Values) bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.respond = fn
}

func (f *fakeTokenServer) form() url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastForm
}

type ClientSuite struct {
	suite.Suite
	upstream *fakeTokenServer
	client   *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.upstream = newFakeTokenServer()
	c, err := New(Config{
		ClientID:     "my-client",
		ClientSecret: "my-secret",
		RedirectURL:  "http://localhost:8080/auth/callback",
		AuthorizeURL: "https://auth.example.com/authentication/v2/authorize",
		TokenURL:     s.upstream.server.URL + "/authentication/v2/token",
	})
	s.Require().NoError(err)
	s.client = c
}

func (s *ClientSuite) TearDownTest() {
	s.upstream.server.Close()
}

func (s *ClientSuite) TestNewValidatesConfiguration() {
	_, err := New(Config{TokenURL: "not a url"})
	s.Require().Error(err)
	s.Contains(err.Error(), "client id is required")
	s.Contains(err.Error(), "client secret is required")
	s.Contains(err.Error(), "redirect url is required")
	s.Contains(err.Error(), "token url must be an absolute URL")
}

func (s *ClientSuite) TestAuthorizationURL() {
	raw := s.client.AuthorizationURL("data:read data:write")

	u, err := url.Parse(raw)
	s.Require().NoError(err)
	s.Equal("auth.example.com", u.Host)
	s.Equal("/authentication/v2/authorize", u.Path)

	q := u.Query()
	s.Equal("code", q.Get("response_type"))
	s.Equal("my-client", q.Get("client_id"))
	s.Equal("http://localhost:8080/auth/callback", q.Get("redirect_uri"))
	s.Equal("data:read data:write", q.Get("scope"))
	s.False(q.Has("state"))
	s.NotContains(raw, "my-secret")
}

func (s *ClientSuite) TestAppToken() {
	s.Run("posts client credentials as form fields", func() {
		tok, err := s.client.AppToken(context.Background(), "data:read bucket:read")
		s.Require().NoError(err)

		s.Equal("app-token", tok.AccessToken)
		s.Equal("Bearer", tok.TokenType)
		s.Greater(tok.ExpiresIn, 0)
		s.Empty(tok.RefreshToken)

		form := s.upstream.form()
		s.Equal("client_credentials", form.Get("grant_type"))
		s.Equal("my-client", form.Get("client_id"))
		s.Equal("my-secret", form.Get("client_secret"))
		s.Equal("data:read bucket:read", form.Get("scope"))
	})

	s.Run("non-2xx is an upstream auth error carrying status and body", func() {
		s.upstream.setResponder(func(w http.ResponseWriter, _ url.Values) bool {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return true
		})
		defer s.upstream.setResponder(nil)

		_, err := s.client.AppToken(context.Background(), "data:read")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeUpstreamAuth))

		var upstream *UpstreamAuthError
		s.Require().True(errors.As(err, &upstream))
		s.Equal(http.StatusUnauthorized, upstream.StatusCode)
		s.Equal(http.StatusUnauthorized, upstream.HTTPStatus())
		s.Equal("invalid_client", upstream.ErrorCode)
		s.JSONEq(`{"error":"invalid_client"}`, upstream.Body)
	})

	s.Run("unparseable body is a malformed response error", func() {
		s.upstream.setResponder(func(w http.ResponseWriter, _ url.Values) bool {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token": 42`))
			return true
		})
		defer s.upstream.setResponder(nil)

		_, err := s.client.AppToken(context.Background(), "data:read")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeMalformedResponse))

		var malformed *MalformedResponseError
		s.True(errors.As(err, &malformed))
	})

	s.Run("missing access token is a malformed response error", func() {
		s.upstream.setResponder(func(w http.ResponseWriter, _ url.Values) bool {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"token_type":"Bearer","expires_in":3600}`))
			return true
		})
		defer s.upstream.setResponder(nil)

		_, err := s.client.AppToken(context.Background(), "data:read")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeMalformedResponse))
	})

	s.Run("missing expiry is a malformed response error", func() {
		s.upstream.setResponder(func(w http.ResponseWriter, _ url.Values) bool {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"T","token_type":"Bearer"}`))
			return true
		})
		defer s.upstream.setResponder(nil)

		_, err := s.client.AppToken(context.Background(), "data:read")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeMalformedResponse))
	})
}

func (s *ClientSuite) TestUserToken() {
	s.Run("exchanges the code with the same redirect uri", func() {
		tok, err := s.client.UserToken(context.Background(), "code-1")
		s.Require().NoError(err)

		s.Equal("user-token", tok.AccessToken)
		s.Equal("refresh-token", tok.RefreshToken)
		s.Equal(3600, tok.ExpiresIn)

		form := s.upstream.form()
		s.Equal("authorization_code", form.Get("grant_type"))
		s.Equal("code-1", form.Get("code"))
		s.Equal(s.client.RedirectURL(), form.Get("redirect_uri"))
		s.Equal("my-client", form.Get("client_id"))
		s.Equal("my-secret", form.Get("client_secret"))
	})

	s.Run("a code presented twice fails the second time with the upstream error", func() {
		_, err := s.client.UserToken(context.Background(), "code-2")
		s.Require().NoError(err)

		_, err = s.client.UserToken(context.Background(), "code-2")
		s.Require().Error(err)

		var upstream *UpstreamAuthError
		s.Require().True(errors.As(err, &upstream))
		s.Equal(http.StatusBadRequest, upstream.StatusCode)
		s.Equal("invalid_grant", upstream.ErrorCode)
		s.Contains(upstream.Body, "The authorization code is invalid or has expired")
	})

	s.Run("unreachable token endpoint is a bad gateway error", func() {
		c, err := New(Config{
			ClientID:     "my-client",
			ClientSecret: "my-secret",
			RedirectURL:  "http://localhost:8080/auth/callback",
			AuthorizeURL: "https://auth.example.com/authorize",
			TokenURL:     "http://127.0.0.1:1/token",
		})
		s.Require().NoError(err)

		_, err = c.UserToken(context.Background(), "code-3")
		s.Require().Error(err)
		s.True(dErrors.Is(err, dErrors.CodeBadGateway))
	})
}
