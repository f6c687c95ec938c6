package mailer

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
)

// Templates holds the built-in email templates.
//
//go:embed templates
var templates embed.FS

// Templates is the built-in template tree: reset-password.md and
// layouts/base.html.
var Templates fs.FS = mustSub(templates, "templates")

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer turns markdown templates into HTML and plain text. Parsed
// templates are cached; rendering output is not.
type Renderer struct {
	fs        fs.FS
	md        goldmark.Markdown
	bodies    map[string]*parsedBody
	layouts   map[string]*template.Template
	layoutDir string
	mu        sync.RWMutex
}

type parsedBody struct {
	metadata map[string]any
	tmpl     *texttemplate.Template
}

// NewRenderer reads templates from the root of fsys and layouts from
// fsys/layouts.
func NewRenderer(fsys fs.FS) *Renderer {
	return &Renderer{
		fs:        fsys,
		layoutDir: "layouts",
		md:        goldmark.New(goldmark.WithExtensions(NewButtonExtension())),
		bodies:    make(map[string]*parsedBody),
		layouts:   make(map[string]*template.Template),
	}
}

// RenderResult is a rendered template.
type RenderResult struct {
	Metadata map[string]any
	HTML     string
	Text     string // the executed markdown
}

// Render executes name with data and wraps it in layout.
func (r *Renderer) Render(layout, name string, data any) (*RenderResult, error) {
	body, err := r.body(name)
	if err != nil {
		return nil, err
	}

	var md bytes.Buffer
	if err := body.tmpl.Execute(&md, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}

	var content bytes.Buffer
	if err := r.md.Convert(md.Bytes(), &content); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}

	lt, err := r.layout(layout)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := lt.Execute(&out, map[string]any{
		"Content":  template.HTML(content.String()), //nolint:gosec // produced by goldmark from our own templates
		"Metadata": body.metadata,
		"Data":     data,
	}); err != nil {
		return nil, fmt.Errorf("%w: layout %s: %w", ErrRenderFailed, layout, err)
	}

	return &RenderResult{HTML: out.String(), Text: md.String(), Metadata: body.metadata}, nil
}

func (r *Renderer) body(name string) (*parsedBody, error) {
	r.mu.RLock()
	b, ok := r.bodies[name]
	r.mu.RUnlock()
	if ok {
		return b, nil
	}

	raw, err := fs.ReadFile(r.fs, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTemplateNotFound, name, err)
	}
	parsed, err := ParseTemplate(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	tmpl, err := texttemplate.New(name).Parse(parsed.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}

	b = &parsedBody{metadata: parsed.Metadata, tmpl: tmpl}
	r.mu.Lock()
	r.bodies[name] = b
	r.mu.Unlock()
	return b, nil
}

func (r *Renderer) layout(name string) (*template.Template, error) {
	r.mu.RLock()
	t, ok := r.layouts[name]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	raw, err := fs.ReadFile(r.fs, path.Join(r.layoutDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrLayoutNotFound, name, err)
	}
	t, err = template.New(name).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %w", ErrRenderFailed, name, err)
	}

	r.mu.Lock()
	r.layouts[name] = t
	r.mu.Unlock()
	return t, nil
}
