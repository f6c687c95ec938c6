package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tabula"
	"github.com/dmitrymomot/tabula/middlewares"
	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/auth/pgstore"
	"github.com/dmitrymomot/tabula/pkg/cache"
	"github.com/dmitrymomot/tabula/pkg/cookie"
	"github.com/dmitrymomot/tabula/pkg/db"
	"github.com/dmitrymomot/tabula/pkg/job"
	"github.com/dmitrymomot/tabula/pkg/logger"
	"github.com/dmitrymomot/tabula/pkg/mailer"
	"github.com/dmitrymomot/tabula/pkg/mailer/resend"
	"github.com/dmitrymomot/tabula/pkg/notify"
	"github.com/dmitrymomot/tabula/pkg/oauth"
	"github.com/dmitrymomot/tabula/pkg/redis"
)

func newServeCmd(envFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and background workers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*envFile)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg Config) error {
	log := logger.New(cfg.Log, middlewares.RequestIDExtractor())

	pool, err := db.Connect(ctx, cfg.DB)
	if err != nil {
		return err
	}
	runOpts := []tabula.RunOption{
		tabula.Logger(log),
		tabula.ShutdownTimeout(cfg.ShutdownTimeout),
		tabula.ShutdownHook(db.Shutdown(pool)),
	}
	health := []tabula.HealthOption{tabula.WithReadinessCheck("postgres", db.Healthcheck(pool))}

	stores := pgstore.New(pool)
	var sessionCache cache.Cache[auth.Session]
	if cfg.Redis.URL != "" {
		client, err := redis.Open(ctx, cfg.Redis)
		if err != nil {
			pool.Close()
			return err
		}
		sessionCache = cache.NewRedis[auth.Session](client, cache.WithPrefix("erp:sessions"))
		health = append(health, tabula.WithReadinessCheck("redis", redis.Healthcheck(client)))
		runOpts = append(runOpts, tabula.ShutdownHook(redis.Shutdown(client)))
	} else {
		sessionCache = cache.NewMemory[auth.Session](cache.WithMaxEntries(10_000))
	}
	runOpts = append(runOpts, tabula.ShutdownHook(func(context.Context) error { return sessionCache.Close() }))
	stores.Sessions = auth.NewCachedSessions(stores.Sessions, sessionCache, cfg.SessionCacheTTL)

	var delivery auth.Notifier = auth.LogNotifier{Logger: log}
	if cfg.Resend.APIKey != "" {
		delivery = mailer.New(resend.New(cfg.Resend), nil, cfg.Mailer, mailer.WithLogger(log))
	}

	jobs, err := job.NewManager(pool,
		job.WithLogger(log),
		job.WithMaxWorkers(cfg.JobWorkers),
		job.WithTask[auth.ResetPasswordMessage](notify.NewResetPasswordTask(delivery, notify.WithLogger(log))),
		job.WithScheduledTask(notify.NewCleanupTask(stores,
			notify.WithSchedule(cfg.CleanupSchedule),
			notify.WithLogger(log),
		)),
	)
	if err != nil {
		pool.Close()
		return err
	}

	cookies, err := cookie.FromConfig(cfg.Cookie)
	if err != nil {
		pool.Close()
		return err
	}
	providers, err := oauthProviders(cfg)
	if err != nil {
		pool.Close()
		return err
	}

	server, err := newServerConfig(cfg, deps{
		DB:        pool,
		Stores:    stores,
		Notifier:  notify.NewQueue(jobs),
		Cookies:   cookies,
		Logger:    log,
		Providers: providers,
	})
	if err != nil {
		pool.Close()
		return err
	}

	app := tabula.New(server,
		tabula.WithLogger(log),
		tabula.WithMiddleware(
			middlewares.CORS(
				middlewares.WithAllowOrigins(cfg.CORSOrigins...),
				middlewares.WithAllowCredentials(),
			),
			middlewares.RequestID(),
			middlewares.Logging(log),
			middlewares.Recover(log),
			middlewares.Timeout(cfg.RequestTimeout),
		),
		tabula.WithHealthChecks(health...),
		tabula.WithJobManager(jobs),
		tabula.WithClientConfig(cfg.ClientConfigPath),
		tabula.WithBridgeOrigin(cfg.PublicURL),
	)

	log.InfoContext(ctx, "starting erp",
		slog.String("addr", cfg.Addr),
		slog.Int("routes", server.Routes().Len()),
		slog.Any("oauth_providers", server.Auth.Providers()),
	)
	runOpts = append(runOpts, tabula.WithContext(ctx))
	return app.Run(cfg.Addr, runOpts...)
}

func oauthProviders(cfg Config) ([]oauth.Provider, error) {
	var out []oauth.Provider
	if cfg.GitHub.Enabled() {
		p, err := oauth.NewGitHubProvider(cfg.GitHub.Config())
		if err != nil {
			return nil, fmt.Errorf("github oauth: %w", err)
		}
		out = append(out, p)
	}
	if cfg.Google.Enabled() {
		p, err := oauth.NewGoogleProvider(cfg.Google.Config())
		if err != nil {
			return nil, fmt.Errorf("google oauth: %w", err)
		}
		out = append(out, p)
	}
	return out, nil
}
