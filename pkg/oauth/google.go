package oauth

import (
	"context"

	"golang.org/x/oauth2"
	googleOAuth "golang.org/x/oauth2/google"
)

const GoogleProviderName = "google"

// GoogleProvider signs users in with Google.
type GoogleProvider struct {
	*base
}

// NewGoogleProvider builds the Google provider with the email and profile scopes.
func NewGoogleProvider(cfg Config, opts ...Option) (*GoogleProvider, error) {
	b, err := newBase(GoogleProviderName, cfg, googleOAuth.Endpoint, []string{
		"https://www.googleapis.com/auth/userinfo.email",
		"https://www.googleapis.com/auth/userinfo.profile",
	}, "https://www.googleapis.com", opts)
	if err != nil {
		return nil, err
	}
	return &GoogleProvider{base: b}, nil
}

func (p *GoogleProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	var u struct {
		ID            string `json:"id"`
		Email         string `json:"email"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
		VerifiedEmail bool   `json:"verified_email"`
	}
	if err := p.getJSON(ctx, token, "/oauth2/v2/userinfo", &u); err != nil {
		return nil, err
	}
	if !u.VerifiedEmail {
		return nil, ErrEmailNotVerified
	}
	return &UserInfo{ID: u.ID, Email: u.Email, Name: u.Name, Picture: u.Picture}, nil
}
