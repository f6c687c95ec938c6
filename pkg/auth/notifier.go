package auth

import (
	"context"
	"log/slog"
	"time"
)

// ResetPasswordMessage is what a user receives after forgot-password.
type ResetPasswordMessage struct {
	ExpiresAt time.Time `json:"expiresAt"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Link      string    `json:"link"`
}

// Notifier delivers auth messages. The mailer implements it directly and
// package notify queues delivery as a background job.
type Notifier interface {
	SendResetPassword(ctx context.Context, msg ResetPasswordMessage) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg ResetPasswordMessage) error

func (f NotifierFunc) SendResetPassword(ctx context.Context, msg ResetPasswordMessage) error {
	return f(ctx, msg)
}

// LogNotifier only logs that a message would have been sent.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) SendResetPassword(ctx context.Context, msg ResetPasswordMessage) error {
	if n.Logger != nil {
		n.Logger.InfoContext(ctx, "reset password requested, no notifier configured",
			slog.String("email", msg.Email),
			slog.Time("expires_at", msg.ExpiresAt),
		)
	}
	return nil
}
