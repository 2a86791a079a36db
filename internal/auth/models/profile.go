package models

import "time"

// UserProfile is the identity returned by the APS userinfo endpoint.
type UserProfile struct {
	Subject           string
	Name              string
	GivenName         string
	FamilyName        string
	PreferredUsername string
	Email             string
	EmailVerified     bool
	ProfileURL        string
	PictureURL        string
	Locale            string
	UpdatedAt         time.Time
}

// DisplayName falls back through the name claims the identity endpoint may omit.
func (p UserProfile) DisplayName() string {
	switch {
	case p.Name != "":
		return p.Name
	case p.GivenName != "" || p.FamilyName != "":
		if p.GivenName == "" || p.FamilyName == "" {
			return p.GivenName + p.FamilyName
		}
		return p.GivenName + " " + p.FamilyName
	default:
		return p.PreferredUsername
	}
}

// CurrentUserResponse is the JSON body of GET /auth/current-user.
type CurrentUserResponse struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Picture string `json:"picture"`
}
