package api

import (
	"io"
	"log/slog"
	"sync"

	"github.com/dmitrymomot/tabula/pkg/db"
)

// Context is the process-wide dependency set handed to every handler.
// It is built once and never modified afterwards. Keep mutable state
// behind a Var.
type Context struct {
	db     db.Querier
	logger *slog.Logger
	values map[any]any
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithDB sets the database handle.
func WithDB(q db.Querier) ContextOption {
	return func(c *Context) {
		c.db = q
	}
}

// WithLogger sets the logger handlers use.
func WithLogger(l *slog.Logger) ContextOption {
	return func(c *Context) {
		c.logger = l
	}
}

// WithValue injects application state.
func WithValue(key, value any) ContextOption {
	return func(c *Context) {
		c.values[key] = value
	}
}

// NewContext builds the application context.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		values: make(map[any]any),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DB returns the database handle; nil when none was configured.
func (c *Context) DB() db.Querier {
	return c.db
}

// Logger returns the application logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Value returns injected application state.
func (c *Context) Value(key any) any {
	return c.values[key]
}

// ValueOf returns injected state as T, or the zero value.
func ValueOf[T any](c *Context, key any) T {
	if v, ok := c.Value(key).(T); ok {
		return v
	}
	var zero T
	return zero
}

// Var is a mutex guarded value for mutable application state.
type Var[T any] struct {
	v  T
	mu sync.RWMutex
}

// NewVar returns a Var holding v.
func NewVar[T any](v T) *Var[T] {
	return &Var[T]{v: v}
}

// Load returns the current value.
func (v *Var[T]) Load() T {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.v
}

// Store replaces the value.
func (v *Var[T]) Store(val T) {
	v.mu.Lock()
	v.v = val
	v.mu.Unlock()
}

// Update replaces the value with fn(current) atomically.
func (v *Var[T]) Update(fn func(T) T) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.v = fn(v.v)
	return v.v
}
