package internal

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/tabula/pkg/bridge"
	"github.com/dmitrymomot/tabula/pkg/core"
	"github.com/dmitrymomot/tabula/pkg/health"
	"github.com/dmitrymomot/tabula/pkg/logger"
)

// Default server timeouts (hardcoded, opinionated).
const (
	defaultReadTimeout       = 15 * time.Second
	defaultWriteTimeout      = 30 * time.Second
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 5 * time.Second
	defaultMaxHeaderBytes    = 1 << 20 // 1MB
	defaultShutdownTimeout   = 30 * time.Second
	defaultMaxBodyBytes      = 1 << 20
	defaultBridgePath        = "/_fn"
)

// App serves a server configuration over HTTP.
// App is immutable after creation - all configuration is done via New().
type App struct {
	server           *core.ServerConfig
	router           chi.Router
	bridge           *bridge.Bridge
	healthConfig     *healthConfig
	logger           *slog.Logger
	bridgePath       string
	bridgeOrigin     string
	clientConfigPath string
	middlewares      []func(http.Handler) http.Handler
	startupHooks     []func(context.Context) error
	shutdownHooks    []func(context.Context) error
	maxBodyBytes     int64
}

// New mounts every route of server on a fresh chi router.
//
//	app := internal.New(server,
//		internal.WithLogger(log),
//		internal.WithMiddleware(middlewares.RequestID(), middlewares.Recover(log)),
//		internal.WithHealthChecks(internal.WithReadinessCheck("postgres", db.Healthcheck(pool))),
//	)
func New(server *core.ServerConfig, opts ...Option) *App {
	a := &App{
		server:       server,
		router:       chi.NewRouter(),
		logger:       logger.NewNope(),
		bridgePath:   defaultBridgePath,
		maxBodyBytes: defaultMaxBodyBytes,
	}

	for _, opt := range opts {
		opt(a)
	}

	bridgeOpts := []bridge.Option{bridge.WithLogger(a.logger)}
	if a.bridgeOrigin != "" {
		bridgeOpts = append(bridgeOpts, bridge.WithOrigin(a.bridgeOrigin))
	}
	a.bridge = bridge.New(server.Routes(), server.Context(), bridgeOpts...)
	a.setupRoutes()
	return a
}

// Router returns the underlying chi.Router.
func (a *App) Router() chi.Router {
	return a.router
}

// Bridge returns the in-process server function bridge.
func (a *App) Bridge() *bridge.Bridge {
	return a.bridge
}

func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Run starts the HTTP server on addr and blocks until shutdown.
// Hooks registered on the App run before those passed in opts.
//
//	err := app.Run(":8080", internal.ShutdownHook(db.Shutdown(pool)))
func (a *App) Run(addr string, opts ...RunOption) error {
	cfg := buildRunConfig(opts...)
	if cfg.logger == nil {
		cfg.logger = a.logger
	}

	return runServer(runtimeConfig{
		handler:         a,
		address:         addr,
		logger:          cfg.logger,
		shutdownTimeout: cfg.shutdownTimeout,
		startupHooks:    slices.Concat(a.startupHooks, cfg.startupHooks),
		shutdownHooks:   slices.Concat(a.shutdownHooks, cfg.shutdownHooks),
		baseCtx:         cfg.baseCtx,
	})
}

func (a *App) setupRoutes() {
	for _, mw := range a.middlewares {
		a.router.Use(mw)
	}

	if a.healthConfig != nil {
		live := health.LivenessHandler()
		ready := health.ReadinessHandler(a.healthConfig.checks, health.WithLogger(a.logger))
		for _, method := range []string{http.MethodGet, http.MethodHead} {
			a.router.Method(method, a.healthConfig.livenessPath, live)
			a.router.Method(method, a.healthConfig.readinessPath, ready)
		}
	}

	if a.bridgePath != "" {
		a.router.Post(a.bridgePath+"/{id}", bridge.Handler(a.bridge))
	}

	if a.clientConfigPath != "" {
		a.router.Get(a.clientConfigPath, a.serveClientConfig)
	}

	a.mountRoutes()
}

// healthConfig holds health check endpoint configuration.
type healthConfig struct {
	checks        health.Checks
	livenessPath  string
	readinessPath string
}

const (
	defaultLivenessPath  = "/health/live"
	defaultReadinessPath = "/health/ready"
)

// HealthOption configures health check endpoints.
type HealthOption func(*healthConfig)

// WithLivenessPath sets a custom liveness endpoint path.
// Defaults to "/health/live".
func WithLivenessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.livenessPath = path
		}
	}
}

// WithReadinessPath sets a custom readiness endpoint path.
// Defaults to "/health/ready".
func WithReadinessPath(path string) HealthOption {
	return func(c *healthConfig) {
		if path != "" {
			c.readinessPath = path
		}
	}
}

// WithReadinessCheck adds a named readiness check.
//
//	internal.WithReadinessCheck("postgres", db.Healthcheck(pool))
func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return func(c *healthConfig) {
		if c.checks == nil {
			c.checks = make(health.Checks)
		}
		c.checks[name] = fn
	}
}
