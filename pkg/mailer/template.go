package mailer

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

var frontmatterDelim = []byte("---")

// Template is a parsed template file.
type Template struct {
	Metadata map[string]any
	Body     string
}

// ParseTemplate splits optional YAML front matter from the markdown body.
func ParseTemplate(content []byte) (*Template, error) {
	content = bytes.ReplaceAll(content, []byte("\r\n"), []byte("\n"))

	rest, ok := bytes.CutPrefix(content, frontmatterDelim)
	if !ok {
		return &Template{Metadata: map[string]any{}, Body: string(content)}, nil
	}

	front, body, found := bytes.Cut(rest, append([]byte("\n"), frontmatterDelim...))
	if !found {
		return nil, fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}
	body = bytes.TrimPrefix(body, []byte("\n"))

	meta := map[string]any{}
	if len(bytes.TrimSpace(front)) > 0 {
		if err := yaml.Unmarshal(front, &meta); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidFrontmatter, err)
		}
	}
	return &Template{Metadata: meta, Body: string(body)}, nil
}
