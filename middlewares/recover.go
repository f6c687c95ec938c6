package middlewares

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime"
)

// DefaultStackSize is the default maximum stack trace size in bytes.
const DefaultStackSize = 4096

// RecoverConfig configures the recover middleware.
type RecoverConfig struct {
	OnPanic           func(w http.ResponseWriter, r *http.Request, err *PanicError)
	StackSize         int
	DisablePrintStack bool
}

// RecoverOption configures RecoverConfig.
type RecoverOption func(*RecoverConfig)

// WithRecoverStackSize sets the maximum stack trace size.
func WithRecoverStackSize(size int) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.StackSize = size
	}
}

// WithRecoverDisablePrintStack disables including stack trace in logs.
func WithRecoverDisablePrintStack() RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.DisablePrintStack = true
	}
}

// WithPanicHandler replaces the default 500 JSON response.
func WithPanicHandler(fn func(w http.ResponseWriter, r *http.Request, err *PanicError)) RecoverOption {
	return func(cfg *RecoverConfig) {
		cfg.OnPanic = fn
	}
}

// Recover turns a panic in next into a logged PanicError and a 500 response
// shaped {"message":"Internal Server Error","error":"..."}.
// http.ErrAbortHandler is re-panicked so net/http can abort the connection.
func Recover(log *slog.Logger, opts ...RecoverOption) Middleware {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	cfg := &RecoverConfig{
		StackSize: DefaultStackSize,
		OnPanic:   writePanic,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				pe := &PanicError{Value: rec, Method: r.Method, Path: r.URL.Path}
				attrs := []any{slog.Any("panic", rec)}
				if !cfg.DisablePrintStack {
					stack := make([]byte, cfg.StackSize)
					pe.Stack = stack[:runtime.Stack(stack, false)]
					attrs = append(attrs, slog.String("stack", string(pe.Stack)))
				}
				log.ErrorContext(r.Context(), "panic recovered", attrs...)

				cfg.OnPanic(w, r, pe)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writePanic(w http.ResponseWriter, _ *http.Request, err *PanicError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"message": http.StatusText(http.StatusInternalServerError),
		"error":   err.Error(),
	})
}
