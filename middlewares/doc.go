// Package middlewares holds the net/http middlewares mounted in front of the
// API router. Each one is a func(http.Handler) http.Handler and plugs
// straight into chi:
//
//	r := chi.NewRouter()
//	r.Use(
//		middlewares.CORS(),                 // answer preflight before anything else
//		middlewares.RequestID(),            // id for every later log line
//		middlewares.Logging(log),
//		middlewares.Recover(log),
//		middlewares.Timeout(5*time.Second),
//	)
//
// Pair RequestIDExtractor with logger.New to get request_id on every record
// logged with the request context.
package middlewares
