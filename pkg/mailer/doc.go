// Package mailer renders markdown email templates and hands them to a
// delivery provider.
//
// Templates are markdown with YAML front matter, executed with
// text/template and wrapped in an html/template layout:
//
//	---
//	Subject: Reset your password
//	---
//	Hi {{.Name}},
//
//	[!button|Reset password]({{.Link}})
//
// The "[!button|Label](url)" syntax renders a styled link.
//
// Built-in templates (reset-password.md and layouts/base.html) live in
// Templates; pass your own fs.FS to NewRenderer to override them.
//
//	m := mailer.New(resend.New(cfg.Resend), mailer.NewRenderer(mailer.Templates), cfg.Mailer)
//	err := m.SendResetPassword(ctx, msg)
//
// Mailer implements auth.Notifier.
package mailer
