package internal

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dmitrymomot/tabula/pkg/health"
	"github.com/dmitrymomot/tabula/pkg/job"
)

// Option configures the application.
type Option func(*App)

func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithMiddleware adds global middleware, outermost first.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return func(a *App) {
		a.middlewares = append(a.middlewares, mw...)
	}
}

// WithHealthChecks enables /health/live and /health/ready.
func WithHealthChecks(opts ...HealthOption) Option {
	return func(a *App) {
		if a.healthConfig == nil {
			a.healthConfig = &healthConfig{
				livenessPath:  defaultLivenessPath,
				readinessPath: defaultReadinessPath,
				checks:        make(health.Checks),
			}
		}
		for _, opt := range opts {
			opt(a.healthConfig)
		}
	}
}

// WithBridgePath moves the server function endpoint. An empty path
// disables it. Defaults to "/_fn".
func WithBridgePath(path string) Option {
	return func(a *App) {
		a.bridgePath = path
	}
}

// WithBridgeOrigin sets the scheme and host handlers see on bridged calls.
// Defaults to "http://localhost".
func WithBridgeOrigin(origin string) Option {
	return func(a *App) {
		a.bridgeOrigin = strings.TrimSuffix(origin, "/")
	}
}

// WithClientConfig serves the client projection as JSON at path.
func WithClientConfig(path string) Option {
	return func(a *App) {
		a.clientConfigPath = path
	}
}

// WithMaxBodyBytes caps API request bodies. Defaults to 1MB.
func WithMaxBodyBytes(n int64) Option {
	return func(a *App) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// WithStartupHook runs fn before the server starts listening.
func WithStartupHook(fn func(context.Context) error) Option {
	return func(a *App) {
		if fn != nil {
			a.startupHooks = append(a.startupHooks, fn)
		}
	}
}

// WithShutdownHook runs fn after the server stopped accepting requests.
func WithShutdownHook(fn func(context.Context) error) Option {
	return func(a *App) {
		if fn != nil {
			a.shutdownHooks = append(a.shutdownHooks, fn)
		}
	}
}

// WithJobManager starts m with the server, stops it on shutdown and adds
// it to the readiness checks.
func WithJobManager(m *job.Manager) Option {
	return func(a *App) {
		if m == nil {
			return
		}
		a.startupHooks = append(a.startupHooks, m.StartFunc())
		a.shutdownHooks = append(a.shutdownHooks, m.Shutdown())
		WithHealthChecks(WithReadinessCheck("jobs", job.Healthcheck(m)))(a)
	}
}
