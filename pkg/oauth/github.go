package oauth

import (
	"context"
	"strconv"

	"golang.org/x/oauth2"
	githubOAuth "golang.org/x/oauth2/github"
)

const GitHubProviderName = "github"

// GitHubProvider signs users in with GitHub.
type GitHubProvider struct {
	*base
}

// NewGitHubProvider builds the GitHub provider. Default scopes: read:user, user:email.
func NewGitHubProvider(cfg Config, opts ...Option) (*GitHubProvider, error) {
	b, err := newBase(GitHubProviderName, cfg, githubOAuth.Endpoint,
		[]string{"read:user", "user:email"}, "https://api.github.com", opts)
	if err != nil {
		return nil, err
	}
	return &GitHubProvider{base: b}, nil
}

// FetchUserInfo prefers the primary verified email, then any verified one.
func (p *GitHubProvider) FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error) {
	var user struct {
		Name      string `json:"name"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
		ID        int64  `json:"id"`
	}
	if err := p.getJSON(ctx, token, "/user", &user); err != nil {
		return nil, err
	}

	var emails []struct {
		Email    string `json:"email"`
		Primary  bool   `json:"primary"`
		Verified bool   `json:"verified"`
	}
	if err := p.getJSON(ctx, token, "/user/emails", &emails); err != nil {
		return nil, err
	}

	email := ""
	for _, e := range emails {
		if e.Verified && (e.Primary || email == "") {
			email = e.Email
		}
	}
	if email == "" {
		return nil, ErrEmailNotVerified
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}
	return &UserInfo{
		ID:      strconv.FormatInt(user.ID, 10),
		Email:   email,
		Name:    name,
		Picture: user.AvatarURL,
	}, nil
}
