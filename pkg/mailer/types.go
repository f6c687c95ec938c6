package mailer

import (
	"context"
	"fmt"
)

// Sender delivers a fully rendered email.
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, email *Email) error

func (f SenderFunc) Send(ctx context.Context, email *Email) error {
	return f(ctx, email)
}

// Config is the env-parsed mailer configuration.
type Config struct {
	FallbackSubject string `env:"MAILER_FALLBACK_SUBJECT" envDefault:"Notification"`
	DefaultLayout   string `env:"MAILER_DEFAULT_LAYOUT" envDefault:"base.html"`
	ProductName     string `env:"MAILER_PRODUCT_NAME" envDefault:"Tabula"`
}

// Tags label a message for the provider, e.g. {"category": "reset_password"}.
type Tags map[string]string

// Recipient formats "Name <email>", or just email when name is empty.
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

// Email is a rendered message.
type Email struct {
	Headers     map[string]string
	Tags        Tags
	Subject     string
	HTML        string
	Text        string
	From        string // overrides the provider default
	ReplyTo     string
	To          []string
	CC          []string
	BCC         []string
	Attachments []Attachment
}

type Attachment struct {
	Filename    string
	ContentType string
	ContentID   string // set for inline attachments
	Content     []byte
}
