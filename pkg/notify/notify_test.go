package notify_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/job"
	"github.com/dmitrymomot/tabula/pkg/notify"
)

type enqueued struct {
	payload any
	name    string
	opts    int
}

type fakeDispatcher struct {
	err  error
	jobs []enqueued
}

func (d *fakeDispatcher) Enqueue(_ context.Context, name string, payload any, opts ...job.EnqueueOption) error {
	if d.err != nil {
		return d.err
	}
	d.jobs = append(d.jobs, enqueued{name: name, payload: payload, opts: len(opts)})
	return nil
}

func TestQueue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	msg := auth.ResetPasswordMessage{Email: "ann@example.com", Link: "https://x/reset"}

	t.Run("enqueues task", func(t *testing.T) {
		t.Parallel()
		d := &fakeDispatcher{}
		q := notify.NewQueue(d, job.InQueue("mail"))

		require.NoError(t, q.SendResetPassword(ctx, msg))
		require.Len(t, d.jobs, 1)
		assert.Equal(t, notify.ResetPasswordTaskName, d.jobs[0].name)
		assert.Equal(t, msg, d.jobs[0].payload)
		assert.Equal(t, 4, d.jobs[0].opts)
	})

	t.Run("dispatcher error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		q := notify.NewQueue(&fakeDispatcher{err: boom})
		assert.ErrorIs(t, q.SendResetPassword(ctx, msg), boom)
	})
}

func TestResetPasswordTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var delivered []auth.ResetPasswordMessage
	task := notify.NewResetPasswordTask(
		auth.NotifierFunc(func(_ context.Context, msg auth.ResetPasswordMessage) error {
			delivered = append(delivered, msg)
			return nil
		}),
		notify.WithClock(func() time.Time { return now }),
	)
	assert.Equal(t, notify.ResetPasswordTaskName, task.Name())

	require.NoError(t, task.Handle(ctx, auth.ResetPasswordMessage{Email: "a@b.c", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, task.Handle(ctx, auth.ResetPasswordMessage{Email: "old@b.c", ExpiresAt: now.Add(-time.Second)}))

	require.Len(t, delivered, 1)
	assert.Equal(t, "a@b.c", delivered[0].Email)
}

func TestCleanupTask(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	now := time.Now()

	stores := auth.NewMemoryStores()
	require.NoError(t, stores.Sessions.Create(ctx, &auth.Session{Token: "old", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, stores.Sessions.Create(ctx, &auth.Session{Token: "live", ExpiresAt: now.Add(time.Hour)}))

	task := notify.NewCleanupTask(stores, notify.WithSchedule("*/5 * * * *"), notify.WithClock(func() time.Time { return now }))
	assert.Equal(t, notify.CleanupTaskName, task.Name())
	assert.Equal(t, "*/5 * * * *", task.Schedule())

	require.NoError(t, task.Handle(ctx))
	_, err := stores.Sessions.FindByToken(ctx, "old")
	assert.ErrorIs(t, err, auth.ErrSessionNotFound)
	_, err = stores.Sessions.FindByToken(ctx, "live")
	assert.NoError(t, err)

	assert.Equal(t, "17 * * * *", notify.NewCleanupTask(stores).Schedule())
}

func TestTasksRegister(t *testing.T) {
	t.Parallel()
	// Registration must type-check against the job package's task shapes.
	_ = job.WithTask[auth.ResetPasswordMessage](notify.NewResetPasswordTask(auth.LogNotifier{}))
	_ = job.WithScheduledTask(notify.NewCleanupTask(auth.NewMemoryStores()))
}
