package core

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/collection"
)

// Plugin transforms a server configuration. Plugins run in order after the
// routes are merged.
type Plugin func(s *ServerConfig) (*ServerConfig, error)

// ServerConfig is the full application definition.
type ServerConfig struct {
	*BaseConfig
	Auth        *auth.Auth
	Endpoints   *api.Router
	collections map[string]*collection.Collection
	order       []string
}

type serverOptions struct {
	endpoints *api.Router
	plugins   []Plugin
}

// ServerOption configures DefineServerConfig.
type ServerOption func(*serverOptions)

// WithEndpoints adds custom endpoints. Unprefixed routes get the API prefix.
func WithEndpoints(r *api.Router) ServerOption {
	return func(o *serverOptions) {
		o.endpoints = r
	}
}

func WithPlugins(plugins ...Plugin) ServerOption {
	return func(o *serverOptions) {
		o.plugins = append(o.plugins, plugins...)
	}
}

// DefineServerConfig merges custom endpoints, auth routes and collection
// routes, in that order, into one router. Later sources win on identifier
// conflicts.
func DefineServerConfig(base *BaseConfig, collections []*collection.Collection, opts ...ServerOption) (*ServerConfig, error) {
	if base.Schema == nil {
		return nil, ErrNoSchema
	}
	o := &serverOptions{}
	for _, opt := range opts {
		opt(o)
	}

	authOpts := append([]auth.Option{auth.WithLogger(base.Logger)}, base.AuthOptions...)
	s := &ServerConfig{
		BaseConfig:  base,
		Auth:        auth.New(base.AuthConfig, base.AuthStores, authOpts...),
		collections: make(map[string]*collection.Collection, len(collections)),
	}

	custom, err := prefixAll(o.endpoints)
	if err != nil {
		return nil, err
	}
	authRoutes, err := s.Auth.Routes()
	if err != nil {
		return nil, err
	}

	endpoints := api.NewRouter().Merge(custom, authRoutes)
	for _, c := range collections {
		if _, ok := s.collections[c.Slug]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, c.Slug)
		}
		s.collections[c.Slug] = c
		s.order = append(s.order, c.Slug)

		routes, err := c.Routes()
		if err != nil {
			return nil, err
		}
		endpoints.Merge(routes)
	}
	s.Endpoints = endpoints

	for i, plugin := range o.plugins {
		next, err := plugin(s)
		if err != nil {
			return nil, errors.Join(ErrPlugin, fmt.Errorf("plugin %d: %w", i, err))
		}
		if next != nil {
			s = next
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	base.Logger.Debug("server config defined",
		slog.Int("routes", s.Endpoints.Len()),
		slog.Int("collections", len(s.order)),
	)
	return s, nil
}

func prefixAll(r *api.Router) (*api.Router, error) {
	out := api.NewRouter()
	if r == nil {
		return out, nil
	}
	var err error
	r.Each(func(id string, route api.Route) {
		if err != nil {
			return
		}
		if !route.Schema.Prefixed() {
			if route, err = route.WithPrefix(api.Prefix); err != nil {
				err = fmt.Errorf("%w: %s: %w", ErrInvalidRoute, id, err)
				return
			}
		}
		out.Handle(id, route)
	})
	return out, err
}

// Validate checks that every route sits under the API prefix exactly once
// and has a handler.
func (s *ServerConfig) Validate() error {
	var errs []error
	s.Endpoints.Each(func(id string, route api.Route) {
		if route.Handler == nil {
			errs = append(errs, fmt.Errorf("%w: %s has no handler", ErrInvalidRoute, id))
		}
		if err := api.CheckPrefix(route.Schema.Path, api.Prefix); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s: %w", ErrInvalidRoute, id, err))
		}
	})
	return errors.Join(errs...)
}

// Context returns the shared handler context.
func (s *ServerConfig) Context() *api.Context {
	return s.BaseConfig.Context
}

// Collection returns the collection with the given slug.
func (s *ServerConfig) Collection(slug string) (*collection.Collection, bool) {
	c, ok := s.collections[slug]
	return c, ok
}

// Collections returns the collections in definition order.
func (s *ServerConfig) Collections() []*collection.Collection {
	out := make([]*collection.Collection, 0, len(s.order))
	for _, slug := range s.order {
		out = append(out, s.collections[slug])
	}
	return out
}

// Routes returns a copy of the merged router. Plugins change Endpoints.
func (s *ServerConfig) Routes() *api.Router {
	return s.Endpoints.Clone()
}
