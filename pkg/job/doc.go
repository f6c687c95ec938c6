// Package job runs background tasks on River, a Postgres-backed queue.
//
// Tasks are plain structs; registration uses structural typing, so a task
// only needs Name and Handle:
//
//	type SendResetPassword struct{ mail *mailer.Mailer }
//
//	func (t *SendResetPassword) Name() string { return "auth.send_reset_password" }
//	func (t *SendResetPassword) Handle(ctx context.Context, p auth.ResetPasswordMessage) error {
//		return t.mail.SendResetPassword(ctx, p)
//	}
//
// Periodic tasks add a 5-field cron Schedule and take no payload:
//
//	func (t *PurgeExpired) Schedule() string { return "*/15 * * * *" }
//	func (t *PurgeExpired) Handle(ctx context.Context) error { ... }
//
// All tasks share one River job kind; the task name travels in the job
// arguments and selects the handler on the worker side.
//
//	m, err := job.NewManager(pool,
//		job.WithTask[auth.ResetPasswordMessage](&SendResetPassword{mail: mail}),
//		job.WithScheduledTask(&PurgeExpired{stores: s}),
//		job.WithQueue("email", 10),
//	)
//	err = m.Enqueue(ctx, "auth.send_reset_password", msg, job.MaxAttempts(5))
//
// River needs its own tables; run Migrate before starting a Manager.
package job
