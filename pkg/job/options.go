package job

import (
	"context"
	"log/slog"
	"time"
)

type schedule struct {
	run  func(context.Context) error
	name string
	expr string
}

type config struct {
	registry   *registry
	queues     map[string]int
	logger     *slog.Logger
	schedules  []schedule
	maxWorkers int
}

func newConfig() *config {
	return &config{
		registry:   newRegistry(),
		queues:     make(map[string]int),
		maxWorkers: defaultMaxWorkers,
	}
}

// Option configures the job manager.
type Option func(*config)

// WithQueue adds a named queue with its own worker count.
func WithQueue(name string, workers int) Option {
	return func(c *config) {
		if name != "" && workers > 0 {
			c.queues[name] = workers
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxWorkers sets the worker count of the default queue. Defaults to 100.
func WithMaxWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxWorkers = n
		}
	}
}

type enqueueConfig struct {
	scheduledAt time.Time
	queue       string
	uniqueKey   string
	tags        []string
	maxAttempts int
	uniqueFor   time.Duration
	priority    int
}

// EnqueueOption configures a single job insert.
type EnqueueOption func(*enqueueConfig)

func InQueue(name string) EnqueueOption {
	return func(c *enqueueConfig) {
		c.queue = name
	}
}

// ScheduledAt delays the job until t.
func ScheduledAt(t time.Time) EnqueueOption {
	return func(c *enqueueConfig) {
		c.scheduledAt = t
	}
}

// ScheduledIn delays the job by d.
func ScheduledIn(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		c.scheduledAt = time.Now().Add(d)
	}
}

// MaxAttempts caps retries. River defaults to 25.
func MaxAttempts(n int) EnqueueOption {
	return func(c *enqueueConfig) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// UniqueFor skips the insert when a job with the same arguments was
// inserted within d. Combine with UniqueKey to dedupe on a key instead of
// the full payload.
//
//	m.Enqueue(ctx, "auth.send_reset_password", msg,
//		job.UniqueFor(time.Minute), job.UniqueKey(msg.Email))
func UniqueFor(d time.Duration) EnqueueOption {
	return func(c *enqueueConfig) {
		c.uniqueFor = d
	}
}

func UniqueKey(key string) EnqueueOption {
	return func(c *enqueueConfig) {
		c.uniqueKey = key
	}
}

// Priority orders jobs; 1 runs first, 4 last.
func Priority(p int) EnqueueOption {
	return func(c *enqueueConfig) {
		c.priority = p
	}
}

func Tags(tags ...string) EnqueueOption {
	return func(c *enqueueConfig) {
		c.tags = append(c.tags, tags...)
	}
}
