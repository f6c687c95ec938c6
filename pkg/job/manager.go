package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/robfig/cron/v3"
)

const (
	defaultMaxWorkers = 100
	taskKind          = "tabula:task"
)

// Manager inserts and processes jobs.
type Manager struct {
	*Enqueuer
	registry *registry

	mu      sync.Mutex
	started bool
}

// NewManager builds the River client. Jobs can be enqueued before Start.
func NewManager(pool *pgxpool.Pool, opts ...Option) (*Manager, error) {
	if pool == nil {
		return nil, ErrPoolRequired
	}

	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.New(slog.DiscardHandler)
	}

	queues := map[string]river.QueueConfig{
		river.QueueDefault: {MaxWorkers: cfg.maxWorkers},
	}
	for name, workers := range cfg.queues {
		queues[name] = river.QueueConfig{MaxWorkers: workers}
	}

	periodic, err := periodicJobs(cfg)
	if err != nil {
		return nil, err
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, &taskWorker{registry: cfg.registry, logger: cfg.logger})

	client, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues:       queues,
		Workers:      workers,
		PeriodicJobs: periodic,
		Logger:       cfg.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("job: create client: %w", err)
	}

	return &Manager{
		Enqueuer: &Enqueuer{pool: pool, client: client, logger: cfg.logger},
		registry: cfg.registry,
	}, nil
}

func periodicJobs(cfg *config) ([]*river.PeriodicJob, error) {
	out := make([]*river.PeriodicJob, 0, len(cfg.schedules))
	for _, s := range cfg.schedules {
		sched, err := parseCronSchedule(s.expr)
		if err != nil {
			return nil, fmt.Errorf("%w %q for %s: %w", ErrInvalidSchedule, s.expr, s.name, err)
		}
		name := s.name
		out = append(out, river.NewPeriodicJob(sched,
			func() (river.JobArgs, *river.InsertOpts) {
				return &taskArgs{TaskName: name}, nil
			},
			&river.PeriodicJobOpts{RunOnStart: false},
		))
		cfg.registry.register(name, scheduledExecutor(s.run))
	}
	return out, nil
}

// Start begins processing jobs.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return ErrAlreadyStarted
	}
	if err := m.client.Start(ctx); err != nil {
		return fmt.Errorf("job: start client: %w", err)
	}
	m.started = true
	m.logger.Info("job manager started", slog.Any("tasks", m.registry.names()))
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started {
		return ErrNotStarted
	}
	if err := m.client.Stop(ctx); err != nil {
		return fmt.Errorf("job: stop client: %w", err)
	}
	m.started = false
	m.logger.Info("job manager stopped")
	return nil
}

// Running reports whether Start succeeded and Stop has not been called.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.started
}

// Enqueue inserts a job for a registered task.
func (m *Manager) Enqueue(ctx context.Context, name string, payload any, opts ...EnqueueOption) error {
	if _, ok := m.registry.get(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return m.Enqueuer.Enqueue(ctx, name, payload, opts...)
}

// EnqueueTx inserts a job for a registered task inside tx.
func (m *Manager) EnqueueTx(ctx context.Context, tx pgx.Tx, name string, payload any, opts ...EnqueueOption) error {
	if _, ok := m.registry.get(name); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	return m.Enqueuer.EnqueueTx(ctx, tx, name, payload, opts...)
}

// StartFunc adapts Start to a startup hook.
func (m *Manager) StartFunc() func(context.Context) error {
	return m.Start
}

// Shutdown adapts Stop to a shutdown hook. Stopping a manager that never
// started is not an error.
func (m *Manager) Shutdown() func(context.Context) error {
	return func(ctx context.Context) error {
		if err := m.Stop(ctx); err != nil && !errors.Is(err, ErrNotStarted) {
			return err
		}
		return nil
	}
}

// taskArgs is the single River job kind; TaskName selects the executor.
type taskArgs struct {
	TaskName  string          `json:"task_name"`
	UniqueKey string          `json:"unique_key,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

func (taskArgs) Kind() string {
	return taskKind
}

type taskWorker struct {
	river.WorkerDefaults[taskArgs]
	registry *registry
	logger   *slog.Logger
}

func (w *taskWorker) Work(ctx context.Context, job *river.Job[taskArgs]) error {
	log := w.logger.With(
		slog.String("task", job.Args.TaskName),
		slog.Int64("job_id", job.ID),
		slog.Int("attempt", job.Attempt),
	)

	exec, ok := w.registry.get(job.Args.TaskName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTask, job.Args.TaskName)
	}

	start := time.Now()
	if err := exec.Execute(ctx, job.Args.Payload); err != nil {
		log.ErrorContext(ctx, "task failed", slog.Any("error", err))
		return err
	}
	log.DebugContext(ctx, "task completed", slog.Duration("duration", time.Since(start)))
	return nil
}

// cronParser accepts the five standard fields; cron.Schedule already
// satisfies river.PeriodicSchedule.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

func parseCronSchedule(expr string) (river.PeriodicSchedule, error) {
	return cronParser.Parse(expr)
}
