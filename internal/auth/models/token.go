package models

import "time"

// Grant types sent to the token endpoint.
const (
	GrantClientCredentials = "client_credentials"
	GrantAuthorizationCode = "authorization_code"
)

// Token is the result of a successful token endpoint exchange. It is never
// modified after it is issued.
type Token struct {
	AccessToken  string
	TokenType    string
	ExpiresIn    int
	RefreshToken string
}

// ExpiresAt anchors the relative lifetime to now.
func (t Token) ExpiresAt(now time.Time) time.Time {
	return now.Add(time.Duration(t.ExpiresIn) * time.Second)
}

// TokenResponse is the JSON body of GET /auth/token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// SessionToken is the token material held in a visitor session.
type SessionToken struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
	ExpiresIn    int       `json:"expires_in"`
}
