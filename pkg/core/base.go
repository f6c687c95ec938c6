package core

import (
	"io"
	"log/slog"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/auth/pgstore"
	"github.com/dmitrymomot/tabula/pkg/db"
	"github.com/dmitrymomot/tabula/pkg/schema"
)

// BaseConfig holds what every part of the application shares.
type BaseConfig struct {
	DB          db.Querier
	Schema      *schema.Schema
	Context     *api.Context
	Logger      *slog.Logger
	AuthStores  *auth.Stores
	AuthOptions []auth.Option
	AuthConfig  auth.Config
	values      []api.ContextOption
}

// BaseOption configures a BaseConfig.
type BaseOption func(*BaseConfig)

func WithDB(q db.Querier) BaseOption {
	return func(c *BaseConfig) {
		c.DB = q
	}
}

func WithSchema(s *schema.Schema) BaseOption {
	return func(c *BaseConfig) {
		c.Schema = s
	}
}

func WithLogger(l *slog.Logger) BaseOption {
	return func(c *BaseConfig) {
		c.Logger = l
	}
}

// WithAuth sets the auth configuration and extra auth options.
func WithAuth(cfg auth.Config, opts ...auth.Option) BaseOption {
	return func(c *BaseConfig) {
		c.AuthConfig = cfg
		c.AuthOptions = append(c.AuthOptions, opts...)
	}
}

// WithAuthStores replaces the auth stores. Without it the stores use the
// database, or process memory when there is none.
func WithAuthStores(s *auth.Stores) BaseOption {
	return func(c *BaseConfig) {
		c.AuthStores = s
	}
}

// WithValue injects application state into the handler context.
func WithValue(key, value any) BaseOption {
	return func(c *BaseConfig) {
		c.values = append(c.values, api.WithValue(key, value))
	}
}

// DefineBaseConfig builds the base configuration and its context.
func DefineBaseConfig(opts ...BaseOption) *BaseConfig {
	c := &BaseConfig{}
	for _, opt := range opts {
		opt(c)
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.AuthStores == nil {
		if c.DB != nil {
			c.AuthStores = pgstore.New(c.DB)
		} else {
			c.AuthStores = auth.NewMemoryStores()
		}
	}

	ctxOpts := append([]api.ContextOption{api.WithDB(c.DB), api.WithLogger(c.Logger)}, c.values...)
	c.Context = api.NewContext(ctxOpts...)
	return c
}
