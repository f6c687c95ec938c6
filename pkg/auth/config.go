package auth

import "time"

const (
	DefaultSessionCookie    = "session_token"
	DefaultSessionExpiresIn = 24 * time.Hour
	DefaultResetExpiresIn   = 24 * time.Hour
	DefaultResetPasswordURL = "/auth/reset-password"
	DefaultOAuthStateCookie = "oauth_state"
)

// Config is the auth configuration. Zero values fall back to the defaults above.
type Config struct {
	Session       SessionConfig
	ResetPassword ResetPasswordConfig
}

type SessionConfig struct {
	CookieName string        `env:"AUTH_SESSION_COOKIE" envDefault:"session_token" json:"cookieName"`
	ExpiresIn  time.Duration `env:"AUTH_SESSION_EXPIRES_IN" envDefault:"24h" json:"expiresIn"`
}

type ResetPasswordConfig struct {
	// URL is the page that receives the ?token= parameter.
	URL       string        `env:"AUTH_RESET_PASSWORD_URL" envDefault:"/auth/reset-password" json:"url"`
	ExpiresIn time.Duration `env:"AUTH_RESET_PASSWORD_EXPIRES_IN" envDefault:"24h" json:"expiresIn"`
	Enabled   bool          `env:"AUTH_RESET_PASSWORD_ENABLED" envDefault:"false" json:"enabled"`
}

func (c Config) withDefaults() Config {
	if c.Session.CookieName == "" {
		c.Session.CookieName = DefaultSessionCookie
	}
	if c.Session.ExpiresIn <= 0 {
		c.Session.ExpiresIn = DefaultSessionExpiresIn
	}
	if c.ResetPassword.URL == "" {
		c.ResetPassword.URL = DefaultResetPasswordURL
	}
	if c.ResetPassword.ExpiresIn <= 0 {
		c.ResetPassword.ExpiresIn = DefaultResetExpiresIn
	}
	return c
}
