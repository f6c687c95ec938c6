package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/job"
	"github.com/dmitrymomot/tabula/pkg/logger"
)

const (
	// ResetPasswordTaskName is the job name of ResetPasswordTask.
	ResetPasswordTaskName = "auth.send_reset_password"
	// CleanupTaskName is the job name of CleanupTask.
	CleanupTaskName = "auth.purge_expired"

	defaultCleanupSchedule = "17 * * * *"
	resetPasswordDedupe    = time.Minute
	resetPasswordAttempts  = 5
)

// Queue implements auth.Notifier by enqueueing jobs.
type Queue struct {
	dispatcher job.Dispatcher
	opts       []job.EnqueueOption
}

// NewQueue wraps d. opts are appended to every enqueue.
func NewQueue(d job.Dispatcher, opts ...job.EnqueueOption) *Queue {
	return &Queue{dispatcher: d, opts: opts}
}

// SendResetPassword enqueues delivery. Repeated requests for the same email
// within a minute collapse into one job.
func (q *Queue) SendResetPassword(ctx context.Context, msg auth.ResetPasswordMessage) error {
	opts := append([]job.EnqueueOption{
		job.UniqueFor(resetPasswordDedupe),
		job.UniqueKey(msg.Email),
		job.MaxAttempts(resetPasswordAttempts),
	}, q.opts...)

	if err := q.dispatcher.Enqueue(ctx, ResetPasswordTaskName, msg, opts...); err != nil {
		return fmt.Errorf("notify: enqueue reset password: %w", err)
	}
	return nil
}

var _ auth.Notifier = (*Queue)(nil)

// ResetPasswordTask delivers a queued reset-password message.
type ResetPasswordTask struct {
	notifier auth.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

// NewResetPasswordTask delivers through n.
func NewResetPasswordTask(n auth.Notifier, opts ...Option) *ResetPasswordTask {
	cfg := newConfig(opts)
	return &ResetPasswordTask{notifier: n, logger: cfg.logger, now: cfg.now}
}

func (t *ResetPasswordTask) Name() string { return ResetPasswordTaskName }

// Handle drops messages whose link already expired.
func (t *ResetPasswordTask) Handle(ctx context.Context, msg auth.ResetPasswordMessage) error {
	if !msg.ExpiresAt.IsZero() && !t.now().Before(msg.ExpiresAt) {
		t.logger.WarnContext(ctx, "reset password link expired before delivery",
			slog.String("email", msg.Email),
			slog.Time("expires_at", msg.ExpiresAt),
		)
		return nil
	}
	return t.notifier.SendResetPassword(ctx, msg)
}

// CleanupTask removes expired sessions and verifications.
type CleanupTask struct {
	stores   *auth.Stores
	logger   *slog.Logger
	now      func() time.Time
	schedule string
}

// NewCleanupTask runs hourly unless WithSchedule says otherwise.
func NewCleanupTask(stores *auth.Stores, opts ...Option) *CleanupTask {
	cfg := newConfig(opts)
	return &CleanupTask{stores: stores, logger: cfg.logger, now: cfg.now, schedule: cfg.schedule}
}

func (t *CleanupTask) Name() string     { return CleanupTaskName }
func (t *CleanupTask) Schedule() string { return t.schedule }

func (t *CleanupTask) Handle(ctx context.Context) error {
	sessions, verifications, err := auth.PurgeExpired(ctx, t.stores, t.now())
	if err != nil {
		return fmt.Errorf("notify: purge expired: %w", err)
	}
	t.logger.InfoContext(ctx, "expired auth records purged",
		slog.Int64("sessions", sessions),
		slog.Int64("verifications", verifications),
	)
	return nil
}

type config struct {
	logger   *slog.Logger
	now      func() time.Time
	schedule string
}

// Option configures the tasks in this package.
type Option func(*config)

func newConfig(opts []Option) *config {
	cfg := &config{
		logger:   logger.NewNope(),
		now:      time.Now,
		schedule: defaultCleanupSchedule,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l.With(logger.Component("notify"))
		}
	}
}

// WithSchedule sets the cron expression of CleanupTask.
func WithSchedule(expr string) Option {
	return func(c *config) {
		if expr != "" {
			c.schedule = expr
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		if now != nil {
			c.now = now
		}
	}
}
