package cookie

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

var (
	ErrNoSecret  = errors.New("cookie: secret required")
	ErrBadSecret = errors.New("cookie: secret must be 32+ bytes")
	ErrBadSig    = errors.New("cookie: invalid signature")
)

// Config is the env-parsed cookie configuration.
type Config struct {
	Secret   string `env:"COOKIE_SECRET"`
	Domain   string `env:"COOKIE_DOMAIN"`
	SameSite string `env:"COOKIE_SAME_SITE" envDefault:"lax"`
	Secure   bool   `env:"COOKIE_SECURE" envDefault:"true"`
}

// Manager builds cookies with shared attributes.
// It never touches a ResponseWriter: cookies are returned to the caller,
// which attaches them to whatever response it produces.
type Manager struct {
	secret   []byte
	domain   string
	path     string
	sameSite http.SameSite
	secure   bool
	httpOnly bool
}

// Option configures the Manager.
type Option func(*Manager)

// New creates a Manager. Defaults: path "/", HttpOnly, SameSite=Lax.
func New(opts ...Option) *Manager {
	m := &Manager{
		path:     "/",
		httpOnly: true,
		sameSite: http.SameSiteLaxMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FromConfig builds a Manager from env configuration.
func FromConfig(cfg Config) (*Manager, error) {
	opts := []Option{WithDomain(cfg.Domain), WithSecure(cfg.Secure)}
	switch strings.ToLower(cfg.SameSite) {
	case "strict":
		opts = append(opts, WithSameSite(http.SameSiteStrictMode))
	case "none":
		opts = append(opts, WithSameSite(http.SameSiteNoneMode))
	}
	if cfg.Secret != "" {
		if len(cfg.Secret) < 32 {
			return nil, ErrBadSecret
		}
		opts = append(opts, WithSecret(cfg.Secret))
	}
	return New(opts...), nil
}

// WithSecret enables signed cookies. Secrets shorter than 32 bytes are ignored.
func WithSecret(secret string) Option {
	return func(m *Manager) {
		if len(secret) >= 32 {
			m.secret = []byte(secret)
		}
	}
}

func WithDomain(domain string) Option {
	return func(m *Manager) {
		m.domain = domain
	}
}

func WithPath(path string) Option {
	return func(m *Manager) {
		m.path = path
	}
}

func WithSecure(secure bool) Option {
	return func(m *Manager) {
		m.secure = secure
	}
}

func WithHTTPOnly(httpOnly bool) Option {
	return func(m *Manager) {
		m.httpOnly = httpOnly
	}
}

func WithSameSite(ss http.SameSite) Option {
	return func(m *Manager) {
		m.sameSite = ss
	}
}

// Cookie builds a cookie with the manager attributes.
// maxAge follows http.Cookie semantics: 0 means a session cookie.
func (m *Manager) Cookie(name, value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     m.path,
		Domain:   m.domain,
		MaxAge:   maxAge,
		Secure:   m.secure,
		HttpOnly: m.httpOnly,
		SameSite: m.sameSite,
	}
}

// Expire builds a cookie that removes name from the client.
func (m *Manager) Expire(name string) *http.Cookie {
	return m.Cookie(name, "", -1)
}

// Signed builds a cookie whose value carries an HMAC-SHA256 signature.
func (m *Manager) Signed(name, value string, maxAge int) (*http.Cookie, error) {
	if m.secret == nil {
		return nil, ErrNoSecret
	}
	encoded := base64.RawURLEncoding.EncodeToString([]byte(value)) +
		"." + base64.RawURLEncoding.EncodeToString(m.sign([]byte(value)))
	return m.Cookie(name, encoded, maxAge), nil
}

// Verify checks a raw signed cookie value and returns the payload.
func (m *Manager) Verify(raw string) (string, error) {
	if m.secret == nil {
		return "", ErrNoSecret
	}
	encValue, encSig, ok := strings.Cut(raw, ".")
	if !ok {
		return "", ErrBadSig
	}
	value, err := base64.RawURLEncoding.DecodeString(encValue)
	if err != nil {
		return "", ErrBadSig
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return "", ErrBadSig
	}
	if !hmac.Equal(sig, m.sign(value)) {
		return "", ErrBadSig
	}
	return string(value), nil
}

func (m *Manager) sign(value []byte) []byte {
	mac := hmac.New(sha256.New, m.secret)
	mac.Write(value)
	return mac.Sum(nil)
}
