package mailer

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	texttemplate "text/template"
	"time"

	"github.com/dmitrymomot/tabula/pkg/auth"
	"github.com/dmitrymomot/tabula/pkg/logger"
)

// ResetPasswordTemplate is the built-in forgot-password email.
const ResetPasswordTemplate = "reset-password.md"

// Mailer renders templates and sends them through a Sender.
type Mailer struct {
	sender   Sender
	renderer *Renderer
	logger   *slog.Logger
	config   Config
}

// Option configures a Mailer.
type Option func(*Mailer)

// WithLogger sets the logger used for delivery records.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mailer) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Mailer. A nil renderer falls back to the built-in templates.
func New(sender Sender, renderer *Renderer, cfg Config, opts ...Option) *Mailer {
	if renderer == nil {
		renderer = NewRenderer(Templates)
	}
	if cfg.DefaultLayout == "" {
		cfg.DefaultLayout = "base.html"
	}
	m := &Mailer{
		sender:   sender,
		renderer: renderer,
		config:   cfg,
		logger:   logger.NewNope(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SendParams describes a templated email.
type SendParams struct {
	Data        any
	Tags        Tags
	To          string
	Template    string
	Subject     string // overrides the template subject
	Layout      string // overrides Config.DefaultLayout
	From        string
	ReplyTo     string
	CC          []string
	BCC         []string
	Attachments []Attachment
}

// Send renders params.Template and sends it. The subject is taken from
// params, then template front matter, then Config.FallbackSubject, and is
// itself executed as a template against params.Data.
func (m *Mailer) Send(ctx context.Context, params SendParams) error {
	if params.To == "" {
		return ErrNoRecipient
	}

	layout := params.Layout
	if layout == "" {
		layout = m.config.DefaultLayout
	}

	result, err := m.renderer.Render(layout, params.Template, params.Data)
	if err != nil {
		return err
	}

	subject := params.Subject
	if subject == "" {
		if s, ok := result.Metadata["Subject"].(string); ok && s != "" {
			subject = s
		} else {
			subject = m.config.FallbackSubject
		}
	}
	subject, err = executeSubject(subject, params.Data)
	if err != nil {
		return err
	}

	return m.SendRaw(ctx, &Email{
		To:          []string{params.To},
		Subject:     subject,
		HTML:        result.HTML,
		Text:        result.Text,
		From:        params.From,
		ReplyTo:     params.ReplyTo,
		CC:          params.CC,
		BCC:         params.BCC,
		Tags:        params.Tags,
		Attachments: params.Attachments,
	})
}

// SendRaw sends a pre-rendered email.
func (m *Mailer) SendRaw(ctx context.Context, email *Email) error {
	switch {
	case len(email.To) == 0:
		return ErrNoRecipient
	case email.Subject == "":
		return ErrNoSubject
	case email.HTML == "":
		return ErrNoContent
	}

	if err := m.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	m.logger.DebugContext(ctx, "email sent",
		slog.Any("to", email.To),
		slog.String("subject", email.Subject),
	)
	return nil
}

// SendResetPassword delivers the forgot-password link using
// ResetPasswordTemplate.
func (m *Mailer) SendResetPassword(ctx context.Context, msg auth.ResetPasswordMessage) error {
	return m.Send(ctx, SendParams{
		To:       Recipient(msg.Name, msg.Email),
		Template: ResetPasswordTemplate,
		Tags:     Tags{"category": "reset_password"},
		Data: map[string]any{
			"Name":        msg.Name,
			"Email":       msg.Email,
			"Link":        msg.Link,
			"ExpiresIn":   time.Until(msg.ExpiresAt).Round(time.Minute).String(),
			"ExpiresAt":   msg.ExpiresAt,
			"ProductName": m.config.ProductName,
		},
	})
}

var _ auth.Notifier = (*Mailer)(nil)

func executeSubject(subject string, data any) (string, error) {
	tmpl, err := texttemplate.New("subject").Parse(subject)
	if err != nil {
		return "", fmt.Errorf("%w: subject: %w", ErrRenderFailed, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: subject: %w", ErrRenderFailed, err)
	}
	return buf.String(), nil
}
