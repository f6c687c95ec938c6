package resend

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/resend/resend-go/v3"

	"github.com/dmitrymomot/tabula/pkg/mailer"
)

// maxTagLength is the longest tag name or value the Resend API accepts.
const maxTagLength = 256

// Sender delivers rendered mail through the Resend API.
type Sender struct {
	client *resend.Client
	from   string
}

// New returns a Sender for cfg. Messages without a From address are sent
// as cfg.SenderName <cfg.SenderEmail>.
func New(cfg Config) *Sender {
	return NewWithClient(resend.NewClient(cfg.APIKey), cfg)
}

// NewWithClient is New with a preconfigured client, e.g. one pointed at a
// test server through its BaseURL.
func NewWithClient(client *resend.Client, cfg Config) *Sender {
	return &Sender{client: client, from: mailer.Recipient(cfg.SenderName, cfg.SenderEmail)}
}

func (s *Sender) Send(ctx context.Context, email *mailer.Email) error {
	if _, err := s.client.Emails.SendWithContext(ctx, s.request(email)); err != nil {
		return fmt.Errorf("resend: send to %s: %w", strings.Join(email.To, ", "), err)
	}
	return nil
}

var _ mailer.Sender = (*Sender)(nil)

func (s *Sender) request(email *mailer.Email) *resend.SendEmailRequest {
	req := &resend.SendEmailRequest{
		From:    email.From,
		To:      email.To,
		Cc:      email.CC,
		Bcc:     email.BCC,
		ReplyTo: email.ReplyTo,
		Subject: email.Subject,
		Html:    email.HTML,
		Text:    email.Text,
		Headers: email.Headers,
		Tags:    tags(email.Tags),
	}
	if req.From == "" {
		req.From = s.from
	}
	for _, a := range email.Attachments {
		req.Attachments = append(req.Attachments, &resend.Attachment{
			Filename:    a.Filename,
			Content:     a.Content,
			ContentType: a.ContentType,
			ContentId:   a.ContentID,
		})
	}
	return req
}

// tags converts t in key order. Names and values are reduced to the
// characters Resend allows.
func tags(t mailer.Tags) []resend.Tag {
	if len(t) == 0 {
		return nil
	}
	out := make([]resend.Tag, 0, len(t))
	for _, name := range slices.Sorted(maps.Keys(t)) {
		out = append(out, resend.Tag{Name: tagSafe(name), Value: tagSafe(t[name])})
	}
	return out
}

// tagSafe replaces every rune outside [A-Za-z0-9_-] with '_' and truncates
// to maxTagLength. An empty value becomes "true".
func tagSafe(s string) string {
	if s == "" {
		return "true"
	}
	s = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		}
		return '_'
	}, s)
	if len(s) > maxTagLength {
		s = s[:maxTagLength]
	}
	return s
}
