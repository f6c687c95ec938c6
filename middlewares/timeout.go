package middlewares

import (
	"context"
	"net/http"
	"time"
)

// DefaultTimeout is the default request timeout.
const DefaultTimeout = 30 * time.Second

// Timeout puts a deadline on the request context. Handlers observe it
// through ctx.Done(); database calls made with the context are cancelled
// once it passes.
func Timeout(timeout time.Duration) Middleware {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
