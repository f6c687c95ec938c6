package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"
)

// Config is the env-parsed logging configuration.
type Config struct {
	Level             string `env:"LOG_LEVEL" envDefault:"info"`
	Format            string `env:"LOG_FORMAT" envDefault:"json"`
	SentryDSN         string `env:"SENTRY_DSN"`
	SentryEnvironment string `env:"SENTRY_ENVIRONMENT" envDefault:"production"`
	// SentryErrorsOnly sends only errors to Sentry; otherwise warnings too.
	SentryErrorsOnly bool `env:"SENTRY_ERRORS_ONLY" envDefault:"false"`
}

// ParseLevel maps debug, info, warn and error to slog levels. Unknown values are info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New builds a logger writing to stdout, plus Sentry when cfg.SentryDSN is set.
// A failing Sentry init falls back to stdout only.
func New(cfg Config, extractors ...ContextExtractor) *slog.Logger {
	return newLogger(os.Stdout, cfg, extractors...)
}

func newLogger(w io.Writer, cfg Config, extractors ...ContextExtractor) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(cfg.Level)}
	var out slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		out = slog.NewTextHandler(w, opts)
	}

	if cfg.SentryDSN == "" {
		return slog.New(WithExtractors(out, extractors...))
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         cfg.SentryDSN,
		Environment: cfg.SentryEnvironment,
		EnableLogs:  true,
	}); err != nil {
		slog.New(out).Error("failed to initialize Sentry", slog.String("error", err.Error()))
		return slog.New(WithExtractors(out, extractors...))
	}

	logLevel := []slog.Level{slog.LevelWarn, slog.LevelError}
	if cfg.SentryErrorsOnly {
		logLevel = []slog.Level{slog.LevelError}
	}
	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{slog.LevelError},
		LogLevel:   logLevel,
	}.NewSentryHandler(context.Background())

	return slog.New(WithExtractors(fanout{out, sentryHandler}, extractors...))
}

// NewNope returns a logger that discards all output.
func NewNope() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// Component tags records with the emitting component.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}

// Error formats an error attribute; nil errors produce an empty value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}
