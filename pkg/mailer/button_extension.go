package mailer

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var buttonPrefix = []byte("[!button|")

// KindButton is the AST kind of ButtonNode.
var KindButton = ast.NewNodeKind("Button")

// ButtonNode is an inline call-to-action link.
type ButtonNode struct {
	ast.BaseInline
	URL   []byte
	Label []byte
}

func (n *ButtonNode) Kind() ast.NodeKind { return KindButton }

func (n *ButtonNode) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"URL":   string(n.URL),
		"Label": string(n.Label),
	}, nil)
}

type buttonParser struct{}

func (buttonParser) Trigger() []byte { return []byte{'['} }

// Parse matches "[!button|Label](URL)" on the current line.
func (buttonParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	rest, ok := bytes.CutPrefix(line, buttonPrefix)
	if !ok {
		return nil
	}
	label, rest, ok := bytes.Cut(rest, []byte("]("))
	if !ok || bytes.ContainsRune(label, ']') {
		return nil
	}
	url, _, ok := bytes.Cut(rest, []byte(")"))
	if !ok {
		return nil
	}

	block.Advance(len(buttonPrefix) + len(label) + 2 + len(url) + 1)
	return &ButtonNode{URL: url, Label: label}
}

type buttonRenderer struct {
	html.Config
}

func (r *buttonRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindButton, r.render)
}

func (r *buttonRenderer) render(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*ButtonNode)
	_, _ = w.WriteString(`<a href="`)
	_, _ = w.Write(util.EscapeHTML(util.URLEscape(n.URL, true)))
	_, _ = w.WriteString(`" class="btn">`)
	_, _ = w.Write(util.EscapeHTML(n.Label))
	_, _ = w.WriteString(`</a>`)
	return ast.WalkContinue, nil
}

type buttonExtension struct{}

func (buttonExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(util.Prioritized(buttonParser{}, 50)))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&buttonRenderer{Config: html.NewConfig()}, 50),
	))
}

// NewButtonExtension registers the "[!button|Label](URL)" syntax.
func NewButtonExtension() goldmark.Extender {
	return buttonExtension{}
}
