package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/oauth2"
)

// UserInfo is the provider independent profile of a signed-in user.
type UserInfo struct {
	ID      string
	Email   string
	Name    string
	Picture string
}

// Provider is one OAuth2 sign-in provider.
type Provider interface {
	Name() string
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error)
	// FetchUserInfo returns ErrEmailNotVerified when the provider cannot
	// vouch for the email address.
	FetchUserInfo(ctx context.Context, token *oauth2.Token) (*UserInfo, error)
}

// Option configures a provider.
type Option func(*base)

// WithHTTPClient sets the client used for token and profile requests.
func WithHTTPClient(client *http.Client) Option {
	return func(b *base) {
		b.httpClient = client
	}
}

// WithAPIBaseURL points profile requests at another host, e.g. a test server.
func WithAPIBaseURL(url string) Option {
	return func(b *base) {
		b.apiBase = url
	}
}

// WithEndpoint overrides the authorization and token endpoints.
func WithEndpoint(ep oauth2.Endpoint) Option {
	return func(b *base) {
		b.config.Endpoint = ep
	}
}

// Config holds the credentials of one provider.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	Scopes       []string
}

// base carries what every provider shares.
type base struct {
	config     *oauth2.Config
	httpClient *http.Client
	name       string
	apiBase    string
}

func newBase(name string, cfg Config, endpoint oauth2.Endpoint, scopes []string, apiBase string, opts []Option) (*base, error) {
	if cfg.ClientID == "" {
		return nil, ErrMissingClientID
	}
	if cfg.ClientSecret == "" {
		return nil, ErrMissingClientSecret
	}
	if len(cfg.Scopes) > 0 {
		scopes = cfg.Scopes
	}
	b := &base{
		name:    name,
		apiBase: apiBase,
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     endpoint,
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *base) Name() string {
	return b.name
}

func (b *base) AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string {
	return b.config.AuthCodeURL(state, opts...)
}

// Exchange trades a code for a token. A non-empty redirectURI replaces the
// configured one for this exchange only.
func (b *base) Exchange(ctx context.Context, code, redirectURI string) (*oauth2.Token, error) {
	cfg := *b.config
	if redirectURI != "" {
		cfg.RedirectURL = redirectURI
	}
	return cfg.Exchange(b.withClient(ctx), code)
}

func (b *base) withClient(ctx context.Context) context.Context {
	if b.httpClient != nil {
		return context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	}
	return ctx
}

// getJSON fetches apiBase+path with the token and decodes the body into v.
func (b *base) getJSON(ctx context.Context, token *oauth2.Token, path string, v any) error {
	client := b.config.Client(b.withClient(ctx), token)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.apiBase+path, nil)
	if err != nil {
		return errors.Join(ErrFetchFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Join(ErrFetchFailed, fmt.Errorf("%s %s: %w", b.name, path, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Join(ErrRequestFailed, fmt.Errorf("%s %s: status=%d body=%s", b.name, path, resp.StatusCode, body))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return errors.Join(ErrDecodeFailed, fmt.Errorf("%s %s: %w", b.name, path, err))
	}
	return nil
}

// Registry maps provider names to providers.
type Registry map[string]Provider

// NewRegistry indexes providers by name.
func NewRegistry(providers ...Provider) Registry {
	r := make(Registry, len(providers))
	for _, p := range providers {
		r[p.Name()] = p
	}
	return r
}

// Get returns the named provider.
func (r Registry) Get(name string) (Provider, error) {
	if p, ok := r[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}
