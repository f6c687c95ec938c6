package oauth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/dmitrymomot/tabula/pkg/oauth"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func TestNewProviderValidation(t *testing.T) {
	t.Parallel()

	_, err := oauth.NewGitHubProvider(oauth.Config{ClientSecret: "s"})
	require.ErrorIs(t, err, oauth.ErrMissingClientID)

	_, err = oauth.NewGoogleProvider(oauth.Config{ClientID: "id"})
	require.ErrorIs(t, err, oauth.ErrMissingClientSecret)
}

func TestGitHubFetchUserInfo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		emails  []map[string]any
		want    string
		wantErr error
	}{
		{
			name: "primary verified",
			emails: []map[string]any{
				{"email": "other@example.com", "primary": false, "verified": true},
				{"email": "main@example.com", "primary": true, "verified": true},
			},
			want: "main@example.com",
		},
		{
			name:   "falls back to any verified",
			emails: []map[string]any{{"email": "only@example.com", "primary": false, "verified": true}},
			want:   "only@example.com",
		},
		{
			name:    "no verified email",
			emails:  []map[string]any{{"email": "x@example.com", "primary": true, "verified": false}},
			wantErr: oauth.ErrEmailNotVerified,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
				switch r.URL.Path {
				case "/user":
					writeJSON(w, map[string]any{"id": 42, "login": "octo", "avatar_url": "https://a/b.png"})
				case "/user/emails":
					writeJSON(w, tt.emails)
				default:
					http.NotFound(w, r)
				}
			}))
			defer srv.Close()

			p, err := oauth.NewGitHubProvider(oauth.Config{ClientID: "id", ClientSecret: "secret"},
				oauth.WithAPIBaseURL(srv.URL), oauth.WithHTTPClient(srv.Client()))
			require.NoError(t, err)

			info, err := p.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "tok", TokenType: "Bearer"})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "42", info.ID)
			assert.Equal(t, tt.want, info.Email)
			assert.Equal(t, "octo", info.Name)
		})
	}
}

func TestGoogleFetchUserInfo(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth2/v2/userinfo" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"id": "g-1", "email": "g@example.com", "name": "G", "verified_email": true})
	}))
	defer srv.Close()

	p, err := oauth.NewGoogleProvider(oauth.Config{ClientID: "id", ClientSecret: "secret"}, oauth.WithAPIBaseURL(srv.URL))
	require.NoError(t, err)

	info, err := p.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "tok"})
	require.NoError(t, err)
	assert.Equal(t, &oauth.UserInfo{ID: "g-1", Email: "g@example.com", Name: "G"}, info)
}

func TestFetchUserInfoStatusError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := oauth.NewGoogleProvider(oauth.Config{ClientID: "id", ClientSecret: "secret"}, oauth.WithAPIBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = p.FetchUserInfo(context.Background(), &oauth2.Token{AccessToken: "tok"})
	require.ErrorIs(t, err, oauth.ErrRequestFailed)
}

func TestExchange(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "http://localhost/cb", r.PostForm.Get("redirect_uri"))
		writeJSON(w, map[string]any{"access_token": "at", "token_type": "bearer"})
	}))
	defer srv.Close()

	p, err := oauth.NewGitHubProvider(oauth.Config{ClientID: "id", ClientSecret: "secret", RedirectURL: "http://default/cb"},
		oauth.WithEndpoint(oauth2.Endpoint{AuthURL: srv.URL + "/authorize", TokenURL: srv.URL + "/token"}))
	require.NoError(t, err)

	tok, err := p.Exchange(context.Background(), "the-code", "http://localhost/cb")
	require.NoError(t, err)
	assert.Equal(t, "at", tok.AccessToken)

	u := p.AuthCodeURL("st")
	assert.True(t, strings.HasPrefix(u, srv.URL+"/authorize"))
	assert.Contains(t, u, "state=st")
	assert.Contains(t, u, "redirect_uri=http%3A%2F%2Fdefault%2Fcb")
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	gh, err := oauth.NewGitHubProvider(oauth.Config{ClientID: "id", ClientSecret: "secret"})
	require.NoError(t, err)

	reg := oauth.NewRegistry(gh)
	p, err := reg.Get("github")
	require.NoError(t, err)
	assert.Equal(t, "github", p.Name())

	_, err = reg.Get("gitlab")
	require.ErrorIs(t, err, oauth.ErrUnknownProvider)
}
