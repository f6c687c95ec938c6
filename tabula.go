package tabula

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dmitrymomot/tabula/internal"
	"github.com/dmitrymomot/tabula/pkg/api"
	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/collection"
	"github.com/dmitrymomot/tabula/pkg/core"
	"github.com/dmitrymomot/tabula/pkg/db"
	"github.com/dmitrymomot/tabula/pkg/health"
	"github.com/dmitrymomot/tabula/pkg/job"
	"github.com/dmitrymomot/tabula/pkg/schema"
)

// Type aliases - public API
type (
	// App serves a ServerConfig over HTTP.
	App = internal.App

	// Option configures the application.
	Option = internal.Option

	// RunOption configures the server runtime.
	RunOption = internal.RunOption

	// HealthOption configures health check endpoints.
	HealthOption = internal.HealthOption

	// HTTPError carries an explicit status code through a handler error.
	HTTPError = internal.HTTPError

	// ErrorResponse is the JSON body of a failed API call.
	ErrorResponse = internal.ErrorResponse

	BaseConfig   = core.BaseConfig
	BaseOption   = core.BaseOption
	ServerConfig = core.ServerConfig
	ServerOption = core.ServerOption
	ClientConfig = core.ClientConfig
	Plugin       = core.Plugin
)

// New mounts every route of server on an HTTP router.
func New(server *ServerConfig, opts ...Option) *App {
	return internal.New(server, opts...)
}

// DefineBaseConfig builds the shared handler context.
func DefineBaseConfig(opts ...BaseOption) *BaseConfig {
	return core.DefineBaseConfig(opts...)
}

// DefineServerConfig merges custom endpoints, auth routes and collection
// routes into one router.
func DefineServerConfig(base *BaseConfig, collections []*collection.Collection, opts ...ServerOption) (*ServerConfig, error) {
	return core.DefineServerConfig(base, collections, opts...)
}

// ClientConfigOf projects s for clients.
func ClientConfigOf(s *ServerConfig) (*ClientConfig, error) {
	return core.ClientConfigOf(s)
}

// Base options

func WithDB(q db.Querier) BaseOption {
	return core.WithDB(q)
}

func WithSchema(s *schema.Schema) BaseOption {
	return core.WithSchema(s)
}

// WithBaseLogger sets the logger handlers see through api.Context.
func WithBaseLogger(l *slog.Logger) BaseOption {
	return core.WithLogger(l)
}

// WithAuth configures the auth handler set.
//
//	tabula.WithAuth(cfg.Auth,
//	    auth.WithCookies(cookies),
//	    auth.WithNotifier(mailer),
//	    auth.WithProviders(providers),
//	)
func WithAuth(cfg auth.Config, opts ...auth.Option) BaseOption {
	return core.WithAuth(cfg, opts...)
}

// WithAuthStores replaces the auth persistence.
func WithAuthStores(s *auth.Stores) BaseOption {
	return core.WithAuthStores(s)
}

// WithValue injects application state. Store an *api.Var for anything that
// changes after startup.
func WithValue(key, value any) BaseOption {
	return core.WithValue(key, value)
}

// Server options

// WithEndpoints adds custom endpoints. Unprefixed routes get the /api prefix.
func WithEndpoints(r *api.Router) ServerOption {
	return core.WithEndpoints(r)
}

func WithPlugins(plugins ...Plugin) ServerOption {
	return core.WithPlugins(plugins...)
}

// App options

// WithLogger sets the application logger.
//
//	log := logger.New(cfg.Log, middlewares.RequestIDExtractor())
//	tabula.New(server, tabula.WithLogger(log))
func WithLogger(l *slog.Logger) Option {
	return internal.WithLogger(l)
}

// WithMiddleware adds global middleware, outermost first.
func WithMiddleware(mw ...func(http.Handler) http.Handler) Option {
	return internal.WithMiddleware(mw...)
}

// WithHealthChecks enables /health/live and /health/ready.
//
//	tabula.WithHealthChecks(
//	    tabula.WithReadinessCheck("postgres", db.Healthcheck(pool)),
//	)
func WithHealthChecks(opts ...HealthOption) Option {
	return internal.WithHealthChecks(opts...)
}

func WithLivenessPath(path string) HealthOption {
	return internal.WithLivenessPath(path)
}

func WithReadinessPath(path string) HealthOption {
	return internal.WithReadinessPath(path)
}

func WithReadinessCheck(name string, fn health.CheckFunc) HealthOption {
	return internal.WithReadinessCheck(name, fn)
}

// WithBridgePath moves the server function endpoint. Defaults to "/_fn";
// an empty path disables it.
func WithBridgePath(path string) Option {
	return internal.WithBridgePath(path)
}

// WithBridgeOrigin sets the scheme and host that server functions see on
// bridged calls, for example "https://erp.example.com".
func WithBridgeOrigin(origin string) Option {
	return internal.WithBridgeOrigin(origin)
}

// WithClientConfig serves the client projection as JSON at path.
func WithClientConfig(path string) Option {
	return internal.WithClientConfig(path)
}

// WithMaxBodyBytes caps API request bodies. Defaults to 1MB.
func WithMaxBodyBytes(n int64) Option {
	return internal.WithMaxBodyBytes(n)
}

// WithJobManager runs background jobs alongside the server.
//
//	jobs, _ := job.NewManager(pool,
//	    job.WithTask[auth.ResetPasswordMessage](notify.NewResetPasswordTask(mail)),
//	    job.WithScheduledTask(notify.NewCleanupTask(stores)),
//	)
//	tabula.New(server, tabula.WithJobManager(jobs))
func WithJobManager(m *job.Manager) Option {
	return internal.WithJobManager(m)
}

func WithStartupHook(fn func(context.Context) error) Option {
	return internal.WithStartupHook(fn)
}

func WithShutdownHook(fn func(context.Context) error) Option {
	return internal.WithShutdownHook(fn)
}

// Run options

func Logger(l *slog.Logger) RunOption {
	return internal.Logger(l)
}

// ShutdownTimeout bounds graceful shutdown. Defaults to 30 seconds.
func ShutdownTimeout(d time.Duration) RunOption {
	return internal.ShutdownTimeout(d)
}

func StartupHook(fn func(context.Context) error) RunOption {
	return internal.StartupHook(fn)
}

// ShutdownHook registers a cleanup function.
//
//	app.Run(":8080", tabula.ShutdownHook(db.Shutdown(pool)))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return internal.ShutdownHook(fn)
}

func WithContext(ctx context.Context) RunOption {
	return internal.WithContext(ctx)
}

// Errors

// StatusOf maps a handler error to a response status.
func StatusOf(err error) int {
	return internal.StatusOf(err)
}

func NewHTTPError(code int, message string) *HTTPError {
	return internal.NewHTTPError(code, message)
}

var (
	ErrBadRequest   = internal.ErrBadRequest
	ErrUnauthorized = internal.ErrUnauthorized
	ErrForbidden    = internal.ErrForbidden
	ErrNotFound     = internal.ErrNotFound
	ErrConflict     = internal.ErrConflict
)
