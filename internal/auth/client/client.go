// Package client performs the two OAuth 2.0 token exchanges the gateway needs
// against the APS authentication service: client credentials (2-legged) and
// authorization code (3-legged). Neither exchange is ever retried.
package client

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"aps-gateway/internal/auth/models"
	dErrors "aps-gateway/pkg/domain-errors"
	platformstrings "aps-gateway/pkg/platform/strings"
)

const maxRelayedBody = 4 << 10

// Config is the OAuth client registration.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AuthorizeURL string
	TokenURL     string
	// HTTPClient is used for every exchange. Defaults to a client with a 30s timeout.
	HTTPClient *http.Client
}

// Client exchanges credentials or authorization codes for tokens.
type Client struct {
	oauth      oauth2.Config
	httpClient *http.Client
}

// New validates cfg. A missing field here is a startup error.
func New(cfg Config) (*Client, error) {
	var errs []error
	if cfg.ClientID == "" {
		errs = append(errs, errors.New("client id is required"))
	}
	if cfg.ClientSecret == "" {
		errs = append(errs, errors.New("client secret is required"))
	}
	if cfg.RedirectURL == "" {
		errs = append(errs, errors.New("redirect url is required"))
	}
	for name, raw := range map[string]string{"authorize url": cfg.AuthorizeURL, "token url": cfg.TokenURL} {
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL", name))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("token exchange client: %w", err)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	return &Client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthorizeURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}, nil
}

// AuthorizationURL composes the authorize endpoint URL for a 3-legged login.
// It performs no I/O.
func (c *Client) AuthorizationURL(scope string) string {
	conf := c.oauth
	conf.Scopes = platformstrings.Scopes(scope)
	return conf.AuthCodeURL("")
}

// RedirectURL is the redirect_uri sent both in the authorize URL and in the
// code exchange.
func (c *Client) RedirectURL() string {
	return c.oauth.RedirectURL
}

// AppToken performs a client credentials exchange.
func (c *Client) AppToken(ctx context.Context, scope string) (models.Token, error) {
	return c.exchange(ctx, models.GrantClientCredentials, func(ctx context.Context) (*oauth2.Token, error) {
		cc := clientcredentials.Config{
			ClientID:     c.oauth.ClientID,
			ClientSecret: c.oauth.ClientSecret,
			TokenURL:     c.oauth.Endpoint.TokenURL,
			Scopes:       platformstrings.Scopes(scope),
			AuthStyle:    oauth2.AuthStyleInParams,
		}
		return cc.Token(ctx)
	})
}

// UserToken redeems an authorization code. Codes are single use: a second
// redemption fails upstream and that failure is returned as is.
func (c *Client) UserToken(ctx context.Context, code string) (models.Token, error) {
	return c.exchange(ctx, models.GrantAuthorizationCode, func(ctx context.Context) (*oauth2.Token, error) {
		return c.oauth.Exchange(ctx, code)
	})
}

func (c *Client) exchange(ctx context.Context, grant string, do func(context.Context) (*oauth2.Token, error)) (models.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := do(ctx)
	if err != nil {
		return models.Token{}, classify(grant, err)
	}

	expiresIn := int(tok.ExpiresIn)
	if expiresIn <= 0 && !tok.Expiry.IsZero() {
		expiresIn = int(math.Round(time.Until(tok.Expiry).Seconds()))
	}
	if expiresIn <= 0 {
		malformed := &MalformedResponseError{Grant: grant, Err: errors.New("missing or non-positive expires_in")}
		return models.Token{}, dErrors.Wrap(malformed, dErrors.CodeMalformedResponse, "token endpoint returned no usable expiry")
	}

	return models.Token{
		AccessToken:  tok.AccessToken,
		TokenType:    tok.Type(),
		ExpiresIn:    expiresIn,
		RefreshToken: tok.RefreshToken,
	}, nil
}

// classify sorts an oauth2 failure into the gateway's error taxonomy:
// a rejection from the token endpoint, a transport failure, or a body that
// could not be read as a token.
func classify(grant string, err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		upstream := &UpstreamAuthError{
			Grant:       grant,
			Body:        truncate(string(retrieveErr.Body)),
			ErrorCode:   retrieveErr.ErrorCode,
			Description: retrieveErr.ErrorDescription,
		}
		if retrieveErr.Response != nil {
			upstream.StatusCode = retrieveErr.Response.StatusCode
		}
		msg := upstream.Body
		if msg == "" {
			msg = http.StatusText(upstream.HTTPStatus())
		}
		return dErrors.Wrap(upstream, dErrors.CodeUpstreamAuth, msg)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return dErrors.Wrap(err, dErrors.CodeBadGateway, "token endpoint unreachable")
	}

	malformed := &MalformedResponseError{Grant: grant, Err: err}
	return dErrors.Wrap(malformed, dErrors.CodeMalformedResponse, "token endpoint returned a malformed response")
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxRelayedBody {
		return s[:maxRelayedBody]
	}
	return s
}
