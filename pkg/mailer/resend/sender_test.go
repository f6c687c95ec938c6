package resend

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tabula/pkg/mailer"
)

func TestTagSafe(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                 "true",
		"reset_password":   "reset_password",
		"user@example.com": "user_example_com",
		"a b-c":            "a_b-c",
		"héllo":            "h_llo",
	}
	for in, want := range tests {
		assert.Equal(t, want, tagSafe(in), in)
	}
	assert.Len(t, tagSafe(strings.Repeat("x", 300)), maxTagLength)
}

func TestRequest(t *testing.T) {
	t.Parallel()

	s := New(Config{APIKey: "re_test", SenderEmail: "no-reply@erp.test", SenderName: "ERP"})

	req := s.request(&mailer.Email{
		To:      []string{"ada@example.com"},
		Subject: "Reset your password",
		HTML:    "<p>hi</p>",
		Tags:    mailer.Tags{"env": "dev", "category": "reset_password"},
		Attachments: []mailer.Attachment{
			{Filename: "a.txt", ContentType: "text/plain", Content: []byte("hi")},
		},
	})
	assert.Equal(t, "ERP <no-reply@erp.test>", req.From)
	require.Len(t, req.Tags, 2)
	assert.Equal(t, "category", req.Tags[0].Name)
	assert.Equal(t, "env", req.Tags[1].Name)
	require.Len(t, req.Attachments, 1)
	assert.Equal(t, []byte("hi"), req.Attachments[0].Content)

	req = s.request(&mailer.Email{From: "support@erp.test", To: []string{"x@example.com"}})
	assert.Equal(t, "support@erp.test", req.From)
	assert.Nil(t, req.Tags)
	assert.Empty(t, req.Attachments)
}
