package oauth

// GitHubConfig is the env-parsed GitHub configuration.
type GitHubConfig struct {
	ClientID     string   `env:"GITHUB_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GITHUB_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GITHUB_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"GITHUB_OAUTH_SCOPES" envSeparator:","`
}

// Enabled reports whether credentials are present.
func (c GitHubConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func (c GitHubConfig) Config() Config {
	return Config{ClientID: c.ClientID, ClientSecret: c.ClientSecret, RedirectURL: c.RedirectURL, Scopes: c.Scopes}
}

// GoogleConfig is the env-parsed Google configuration.
type GoogleConfig struct {
	ClientID     string   `env:"GOOGLE_OAUTH_CLIENT_ID"`
	ClientSecret string   `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	RedirectURL  string   `env:"GOOGLE_OAUTH_REDIRECT_URL"`
	Scopes       []string `env:"GOOGLE_OAUTH_SCOPES" envSeparator:","`
}

// Enabled reports whether credentials are present.
func (c GoogleConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

func (c GoogleConfig) Config() Config {
	return Config{ClientID: c.ClientID, ClientSecret: c.ClientSecret, RedirectURL: c.RedirectURL, Scopes: c.Scopes}
}
