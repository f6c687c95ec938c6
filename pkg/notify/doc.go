// Package notify moves auth notifications and housekeeping onto the job
// queue.
//
// Queue implements auth.Notifier by enqueueing a ResetPasswordTask, which a
// worker later hands to the real notifier (usually a *mailer.Mailer).
// CleanupTask purges expired sessions and verifications on a cron schedule.
//
//	jobs, _ := job.NewManager(pool,
//		job.WithTask[auth.ResetPasswordMessage](notify.NewResetPasswordTask(mail)),
//		job.WithScheduledTask(notify.NewCleanupTask(stores)),
//	)
//	authOpts = append(authOpts, auth.WithNotifier(notify.NewQueue(jobs)))
package notify
