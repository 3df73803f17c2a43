package summary

import (
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v3"
)

var yamlFormat = frontmatter.NewFormat("---", "---", yaml.Unmarshal)

// Document is Markdown text split at the end of its YAML front matter.
type Document struct {
	FrontMatter string // raw front matter including delimiters, empty when absent
	Body        string
	Title       string // front matter "title", if any
}

// Split separates leading YAML front matter from the body. Invalid or
// unterminated front matter is treated as body text.
func Split(text string) Document {
	var meta struct {
		Title string `yaml:"title"`
	}
	rest, err := frontmatter.Parse(strings.NewReader(text), &meta, yamlFormat)
	if err != nil {
		return Document{Body: text}
	}
	body := string(rest)
	if len(body) >= len(text) || !strings.HasSuffix(text, body) {
		return Document{Body: text}
	}
	return Document{
		FrontMatter: text[:len(text)-len(body)],
		Body:        body,
		Title:       strings.TrimSpace(meta.Title),
	}
}

func (d Document) String() string {
	return d.FrontMatter + d.Body
}
