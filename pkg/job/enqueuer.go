package job

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

// Dispatcher inserts jobs. Manager and Enqueuer implement it.
type Dispatcher interface {
	Enqueue(ctx context.Context, name string, payload any, opts ...EnqueueOption) error
}

// Enqueuer inserts jobs without processing them, for processes where
// workers run elsewhere.
type Enqueuer struct {
	pool   *pgxpool.Pool
	client *river.Client[pgx.Tx]
	logger *slog.Logger
}

// NewEnqueuer creates an insert-only River client.
func NewEnqueuer(pool *pgxpool.Pool, logger *slog.Logger) (*Enqueuer, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{Logger: logger})
	if err != nil {
		return nil, fmt.Errorf("job: create enqueuer client: %w", err)
	}
	return &Enqueuer{pool: pool, client: client, logger: logger}, nil
}

// Enqueue inserts a job. Task names are checked by the worker.
func (e *Enqueuer) Enqueue(ctx context.Context, name string, payload any, opts ...EnqueueOption) error {
	args, insertOpts, err := buildJobArgs(name, payload, opts...)
	if err != nil {
		return err
	}
	if _, err := e.client.Insert(ctx, args, insertOpts); err != nil {
		return fmt.Errorf("job: enqueue %s: %w", name, err)
	}
	return nil
}

// EnqueueTx inserts a job that becomes visible when tx commits.
func (e *Enqueuer) EnqueueTx(ctx context.Context, tx pgx.Tx, name string, payload any, opts ...EnqueueOption) error {
	args, insertOpts, err := buildJobArgs(name, payload, opts...)
	if err != nil {
		return err
	}
	if _, err := e.client.InsertTx(ctx, tx, args, insertOpts); err != nil {
		return fmt.Errorf("job: enqueue %s: %w", name, err)
	}
	return nil
}

func buildJobArgs(name string, payload any, opts ...EnqueueOption) (*taskArgs, *river.InsertOpts, error) {
	args := &taskArgs{TaskName: name}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
		}
		args.Payload = raw
	}

	cfg := &enqueueConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	insertOpts := &river.InsertOpts{
		Queue:       cfg.queue,
		ScheduledAt: cfg.scheduledAt,
		MaxAttempts: cfg.maxAttempts,
		Priority:    cfg.priority,
		Tags:        cfg.tags,
	}
	if cfg.uniqueFor > 0 {
		insertOpts.UniqueOpts = river.UniqueOpts{ByArgs: true, ByPeriod: cfg.uniqueFor}
		args.UniqueKey = cfg.uniqueKey
	}
	return args, insertOpts, nil
}
