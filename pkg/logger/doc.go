// Package logger builds the application's slog loggers.
//
// [New] returns a JSON (or text) logger on stdout that can fan out to
// Sentry when a DSN is configured. Context extractors add request scoped
// attributes, such as the request id, to every record:
//
//	log := logger.New(cfg, middlewares.RequestIDExtractor())
//	log.InfoContext(ctx, "user signed up", logger.Component("auth"))
//
// [NewNope] returns a logger that discards everything and is the default
// wherever a logger is optional.
package logger
