// Package render converts Markdown documents to HTML for the document store.
package render

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"gopkg.in/yaml.v3"
)

// Renderer turns Markdown into HTML. Implementations must be pure and safe
// for concurrent use.
type Renderer interface {
	Render(markdown []byte) ([]byte, error)
}

// Func adapts a plain function to Renderer.
type Func func(markdown []byte) ([]byte, error)

// Render calls f.
func (f Func) Render(markdown []byte) ([]byte, error) { return f(markdown) }

// Goldmark renders GFM with heading attributes, so {#id} markers become
// element ids. Leading YAML front matter is dropped.
type Goldmark struct {
	engines sync.Pool
}

// NewGoldmark returns a Goldmark renderer. Raw HTML in documents is passed
// through.
func NewGoldmark() *Goldmark {
	g := &Goldmark{}
	g.engines.New = func() any { return newEngine() }
	return g
}

func newEngine() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAttribute(),
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
}

// Render converts markdown to HTML.
func (g *Goldmark) Render(markdown []byte) ([]byte, error) {
	engine := g.engines.Get().(goldmark.Markdown)
	defer g.engines.Put(engine)

	var buf bytes.Buffer
	if err := engine.Convert(StripFrontMatter(markdown), &buf); err != nil {
		return nil, fmt.Errorf("render: convert: %w", err)
	}
	return buf.Bytes(), nil
}

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// StripFrontMatter returns markdown without a leading YAML front matter
// block. Malformed front matter is left in place.
func StripFrontMatter(markdown []byte) []byte {
	var meta map[string]any
	rest, err := frontmatter.Parse(bytes.NewReader(markdown), &meta, yamlFormat)
	if err != nil {
		return markdown
	}
	return rest
}
