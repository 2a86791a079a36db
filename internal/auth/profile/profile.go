// Package profile reads the signed-in user's identity from the APS userinfo
// endpoint.
package profile

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"aps-gateway/internal/auth/models"
)

const maxProfileBody = 64 << 10

// Fetcher calls the identity endpoint with a bearer token.
type Fetcher struct {
	endpoint   string
	httpClient *http.Client
}

// New constructs a Fetcher. A nil client falls back to one with a 30s timeout.
func New(endpoint string, httpClient *http.Client) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Fetcher{endpoint: endpoint, httpClient: httpClient}
}

// Fetch returns the profile for accessToken. Every failure (transport,
// non-2xx, unusable body) is returned as an error; callers decide whether a
// missing profile matters.
func (f *Fetcher) Fetch(ctx context.Context, accessToken string) (*models.UserProfile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProfileBody))
	if err != nil {
		return nil, fmt.Errorf("read userinfo response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("userinfo response is not valid JSON")
	}

	doc := gjson.ParseBytes(body)
	if !doc.IsObject() {
		return nil, fmt.Errorf("userinfo response is not a JSON object")
	}
	return parse(doc), nil
}

func parse(doc gjson.Result) *models.UserProfile {
	p := &models.UserProfile{
		Subject:           doc.Get("sub").String(),
		Name:              doc.Get("name").String(),
		GivenName:         doc.Get("given_name").String(),
		FamilyName:        doc.Get("family_name").String(),
		PreferredUsername: doc.Get("preferred_username").String(),
		Email:             doc.Get("email").String(),
		EmailVerified:     doc.Get("email_verified").Bool(),
		ProfileURL:        doc.Get("profile").String(),
		PictureURL:        doc.Get("picture").String(),
		Locale:            doc.Get("locale").String(),
	}
	// updated_at is seconds since the epoch per OpenID Connect.
	if updated := doc.Get("updated_at"); updated.Type == gjson.Number && updated.Int() > 0 {
		p.UpdatedAt = time.Unix(updated.Int(), 0).UTC()
	}
	return p
}
