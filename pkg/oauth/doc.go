// Package oauth implements the OAuth2 sign-in providers used by the auth
// routes. Each [Provider] wraps golang.org/x/oauth2 and knows how to turn a
// token into a verified [UserInfo].
//
//	gh, err := oauth.NewGitHubProvider(cfg.GitHub)
//	url := gh.AuthCodeURL(state)
//	tok, err := gh.Exchange(ctx, code, "")
//	info, err := gh.FetchUserInfo(ctx, tok)
package oauth
