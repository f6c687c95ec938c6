package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/cookie"
	"github.com/dmitrymomot/tabula/pkg/db"
	"github.com/dmitrymomot/tabula/pkg/logger"
	"github.com/dmitrymomot/tabula/pkg/mailer"
	"github.com/dmitrymomot/tabula/pkg/mailer/resend"
	"github.com/dmitrymomot/tabula/pkg/oauth"
	"github.com/dmitrymomot/tabula/pkg/redis"
)

// Config is the full application configuration, read from the environment.
type Config struct {
	Addr             string        `env:"ADDRESS" envDefault:":8080"`
	ClientConfigPath string        `env:"CLIENT_CONFIG_PATH" envDefault:"/_config"`
	PublicURL        string        `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	CORSOrigins      []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	SessionCacheTTL  time.Duration `env:"SESSION_CACHE_TTL" envDefault:"5m"`
	CleanupSchedule  string        `env:"AUTH_CLEANUP_SCHEDULE" envDefault:"17 * * * *"`
	JobWorkers       int           `env:"JOB_WORKERS" envDefault:"10"`

	Log    logger.Config
	DB     db.Config
	Redis  redis.Config
	Auth   auth.Config
	Cookie cookie.Config
	GitHub oauth.GitHubConfig
	Google oauth.GoogleConfig
	Mailer mailer.Config
	Resend resend.Config
}

// loadConfig reads envFile when it exists and parses the environment.
// Variables already set in the environment win over the file.
func loadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
