package auth

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/cookie"
	"github.com/dmitrymomot/tabula/pkg/oauth"
)

// Auth is the context shared by every auth route.
type Auth struct {
	config    Config
	stores    *Stores
	cookies   *cookie.Manager
	notifier  Notifier
	providers oauth.Registry
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	prefix    string
}

// Option configures Auth.
type Option func(*Auth)

// WithCookies sets the cookie manager. A secret is required for OAuth state.
func WithCookies(m *cookie.Manager) Option {
	return func(a *Auth) {
		a.cookies = m
	}
}

// WithNotifier sets how reset password links are delivered.
func WithNotifier(n Notifier) Option {
	return func(a *Auth) {
		a.notifier = n
	}
}

// WithProviders enables OAuth sign-in with the given providers.
func WithProviders(providers ...oauth.Provider) Option {
	return func(a *Auth) {
		a.providers = oauth.NewRegistry(providers...)
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(a *Auth) {
		a.logger = l
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(a *Auth) {
		a.now = now
	}
}

// WithPrefix changes the route prefix. Defaults to api.Prefix.
func WithPrefix(prefix string) Option {
	return func(a *Auth) {
		a.prefix = prefix
	}
}

// New builds the auth handler set.
func New(cfg Config, stores *Stores, opts ...Option) *Auth {
	a := &Auth{
		config:    cfg.withDefaults(),
		stores:    stores,
		cookies:   cookie.New(),
		providers: oauth.Registry{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:       time.Now,
		newID:     func() string { return uuid.NewString() },
		prefix:    api.Prefix,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(slog.String("component", "auth"))
	if a.notifier == nil {
		a.notifier = LogNotifier{Logger: a.logger}
	}
	return a
}

// Config returns the effective configuration.
func (a *Auth) Config() Config {
	return a.config
}

// Stores returns the record stores.
func (a *Auth) Stores() *Stores {
	return a.stores
}

// Providers lists the enabled OAuth provider names.
func (a *Auth) Providers() []string {
	names := make([]string, 0, len(a.providers))
	for name := range a.providers {
		names = append(names, name)
	}
	return names
}

type routeDef struct {
	id      string
	schema  api.Schema
	handler api.Handler
}

// Routes returns the auth routes keyed "auth.<name>".
func (a *Auth) Routes() (*api.Router, error) {
	defs := []routeDef{
		{"loginEmail", api.Schema{
			Method: http.MethodPost, Path: "/auth/login-email",
			Body:      api.ShapeOf[LoginEmailBody](),
			Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[SignInResponse]()},
		}, api.Handle(a.loginEmail)},
		{"signUpEmail", api.Schema{
			Method: http.MethodPost, Path: "/auth/sign-up-email",
			Body:      api.ShapeOf[SignUpEmailBody](),
			Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[SignInResponse]()},
		}, api.Handle(a.signUpEmail)},
		{"forgotPassword", api.Schema{
			Method: http.MethodPost, Path: "/auth/forgot-password",
			Body: api.ShapeOf[ForgotPasswordBody](),
			Responses: map[int]*api.Shape{
				http.StatusOK:         api.ShapeOf[StatusResponse](),
				http.StatusBadRequest: api.ShapeOf[StatusResponse](),
			},
		}, api.Handle(a.forgotPassword)},
		{"resetPassword", api.Schema{
			Method: http.MethodPost, Path: "/auth/reset-password",
			Body:      api.ShapeOf[ResetPasswordBody](),
			Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[StatusResponse]()},
		}, api.Handle(a.resetPassword)},
		{"getSession", api.Schema{
			Method: http.MethodGet, Path: "/auth/session",
			Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[SessionResponse]()},
		}, a.getSession},
		{"logout", api.Schema{
			Method: http.MethodPost, Path: "/auth/logout",
			Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[StatusResponse]()},
		}, a.logout},
		{"oauthURL", api.Schema{
			Method: http.MethodGet, Path: "/auth/oauth/:provider",
			Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[OAuthURLResponse]()},
		}, a.oauthURL},
		{"oauthCallback", api.Schema{
			Method: http.MethodGet, Path: "/auth/oauth/:provider/callback",
			Query:     api.ShapeOf[OAuthCallbackQuery](),
			Responses: map[int]*api.Shape{http.StatusOK: api.ShapeOf[SignInResponse]()},
		}, a.oauthCallback},
	}

	r := api.NewRouter()
	for _, d := range defs {
		route, err := api.NewRoute(d.schema, d.handler).WithPrefix(a.prefix)
		if err != nil {
			return nil, fmt.Errorf("auth %s: %w", d.id, err)
		}
		r.Handle(api.ID("auth", d.id), route)
	}
	return r, nil
}

// ClientConfig is the part of the auth configuration clients may see.
type ClientConfig struct {
	SessionCookie        string   `json:"sessionCookie"`
	Providers            []string `json:"providers"`
	ResetPasswordEnabled bool     `json:"resetPasswordEnabled"`
}

// Client projects the auth configuration for clients.
func (a *Auth) Client() ClientConfig {
	providers := a.Providers()
	slices.Sort(providers)
	return ClientConfig{
		SessionCookie:        a.config.Session.CookieName,
		Providers:            providers,
		ResetPasswordEnabled: a.config.ResetPassword.Enabled,
	}
}
