package job

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type greetPayload struct {
	Name string `json:"name"`
}

type greetTask struct {
	got []string
}

func (t *greetTask) Name() string { return "greet" }

func (t *greetTask) Handle(_ context.Context, p greetPayload) error {
	t.got = append(t.got, p.Name)
	return nil
}

type purgeTask struct {
	runs int
}

func (t *purgeTask) Name() string     { return "purge" }
func (t *purgeTask) Schedule() string { return "*/15 * * * *" }
func (t *purgeTask) Handle(context.Context) error {
	t.runs++
	return nil
}

func TestWithTask(t *testing.T) {
	t.Parallel()

	task := &greetTask{}
	cfg := newConfig()
	WithTask[greetPayload](task)(cfg)

	exec, ok := cfg.registry.get("greet")
	require.True(t, ok)
	require.NoError(t, exec.Execute(context.Background(), json.RawMessage(`{"name":"jane"}`)))
	require.NoError(t, exec.Execute(context.Background(), nil))
	assert.Equal(t, []string{"jane", ""}, task.got)

	err := exec.Execute(context.Background(), json.RawMessage(`{`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestPeriodicJobs(t *testing.T) {
	t.Parallel()

	task := &purgeTask{}
	cfg := newConfig()
	WithScheduledTask(task)(cfg)

	jobs, err := periodicJobs(cfg)
	require.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, []string{"purge"}, cfg.registry.names())

	exec, _ := cfg.registry.get("purge")
	require.NoError(t, exec.Execute(context.Background(), nil))
	assert.Equal(t, 1, task.runs)

	bad := newConfig()
	bad.schedules = append(bad.schedules, schedule{name: "bad", expr: "every day"})
	_, err = periodicJobs(bad)
	assert.ErrorIs(t, err, ErrInvalidSchedule)
}

func TestParseCronSchedule(t *testing.T) {
	t.Parallel()

	s, err := parseCronSchedule("0 * * * *")
	require.NoError(t, err)
	from := time.Date(2026, 1, 1, 10, 15, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 1, 1, 11, 0, 0, 0, time.UTC), s.Next(from))

	s, err = parseCronSchedule("@daily")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), s.Next(from))

	_, err = parseCronSchedule("* * *")
	assert.Error(t, err)
}

func TestBuildJobArgs(t *testing.T) {
	t.Parallel()

	at := time.Now().Add(time.Hour)
	args, opts, err := buildJobArgs("greet", greetPayload{Name: "jane"},
		InQueue("email"),
		ScheduledAt(at),
		MaxAttempts(3),
		Priority(2),
		Tags("auth"),
		UniqueFor(time.Minute),
		UniqueKey("jane@example.com"),
	)
	require.NoError(t, err)

	assert.Equal(t, taskKind, args.Kind())
	assert.Equal(t, "greet", args.TaskName)
	assert.JSONEq(t, `{"name":"jane"}`, string(args.Payload))
	assert.Equal(t, "jane@example.com", args.UniqueKey)
	assert.Equal(t, "email", opts.Queue)
	assert.Equal(t, at, opts.ScheduledAt)
	assert.Equal(t, 3, opts.MaxAttempts)
	assert.Equal(t, 2, opts.Priority)
	assert.Equal(t, []string{"auth"}, opts.Tags)
	assert.Equal(t, time.Minute, opts.UniqueOpts.ByPeriod)

	args, opts, err = buildJobArgs("purge", nil)
	require.NoError(t, err)
	assert.Empty(t, args.Payload)
	assert.Empty(t, opts.Queue)

	_, _, err = buildJobArgs("bad", make(chan int))
	assert.ErrorIs(t, err, ErrInvalidPayload)
}

func TestNilPool(t *testing.T) {
	t.Parallel()

	_, err := NewManager(nil)
	assert.ErrorIs(t, err, ErrPoolRequired)
	_, err = NewEnqueuer(nil, nil)
	assert.ErrorIs(t, err, ErrPoolRequired)
	assert.ErrorIs(t, Migrate(context.Background(), nil, nil), ErrPoolRequired)
}

func TestHealthcheckWithoutManager(t *testing.T) {
	t.Parallel()

	err := Healthcheck(nil)(context.Background())
	assert.ErrorIs(t, err, ErrHealthcheckFailed)

	err = Healthcheck(&Manager{registry: newRegistry()})(context.Background())
	assert.True(t, errors.Is(err, ErrHealthcheckFailed))
	assert.ErrorContains(t, err, "not started")
}
