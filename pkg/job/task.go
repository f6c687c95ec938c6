package job

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"slices"
	"sync"
)

// executor runs a task with a raw JSON payload.
type executor interface {
	Execute(ctx context.Context, payload json.RawMessage) error
}

type registry struct {
	executors map[string]executor
	mu        sync.RWMutex
}

func newRegistry() *registry {
	return &registry{executors: make(map[string]executor)}
}

func (r *registry) register(name string, e executor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.executors[name] = e
}

func (r *registry) get(name string) (executor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.executors[name]
	return e, ok
}

func (r *registry) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.executors))
}

// Task is what WithTask accepts.
type Task[P any] interface {
	Name() string
	Handle(ctx context.Context, payload P) error
}

// ScheduledTask is what WithScheduledTask accepts.
type ScheduledTask interface {
	Name() string
	Schedule() string
	Handle(ctx context.Context) error
}

type typedTask[P any, T Task[P]] struct {
	task T
}

func (w typedTask[P, T]) Execute(ctx context.Context, raw json.RawMessage) error {
	var payload P
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return errors.Join(ErrInvalidPayload, err)
		}
	}
	return w.task.Handle(ctx, payload)
}

type scheduledExecutor func(ctx context.Context) error

func (f scheduledExecutor) Execute(ctx context.Context, _ json.RawMessage) error {
	return f(ctx)
}

// WithTask registers a task. P is the payload type of Handle; T is
// inferred from the argument.
//
//	job.WithTask[auth.ResetPasswordMessage](notify.NewResetPasswordTask(mail))
func WithTask[P any, T Task[P]](task T) Option {
	return func(c *config) {
		c.registry.register(task.Name(), typedTask[P, T]{task: task})
	}
}

// WithScheduledTask registers a periodic task.
// Schedule must return a 5-field cron expression.
func WithScheduledTask[T ScheduledTask](task T) Option {
	return func(c *config) {
		c.schedules = append(c.schedules, schedule{
			name: task.Name(),
			expr: task.Schedule(),
			run:  task.Handle,
		})
	}
}
