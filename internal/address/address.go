// Package address maps content file paths to canonical document addresses.
package address

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/docsync/internal/apperr"
)

const (
	// HomeKey is the output key of the root index document.
	HomeKey   = "index.html"
	homeTitle = "Home"
	homeFile  = "index.md"
	outputExt = ".html"

	markdownExt = ".md"
)

// Address is the canonical location of a document derived from its source path.
type Address struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	OutputKey   string `json:"output_key"`
}

// IsHome reports whether a is the root index document.
func (a Address) IsHome() bool {
	return a.OutputKey == HomeKey
}

// Resolve derives the address of the file at p relative to root. Both may be
// absolute or relative, but must be expressed the same way. Files that do not
// sit at least one directory deep (other than the root index.md) return
// apperr.ErrUnaddressable.
func Resolve(p, root string) (Address, error) {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return Address{}, fmt.Errorf("address: %s: %w", p, err)
	}
	return ResolveRel(filepath.ToSlash(rel))
}

// ResolveRel derives the address of a slash-separated path relative to the content root.
func ResolveRel(rel string) (Address, error) {
	rel = strings.TrimPrefix(path.Clean(rel), "./")
	if rel == homeFile {
		return Address{Title: homeTitle, OutputKey: HomeKey}, nil
	}

	parts := strings.Split(rel, "/")
	if parts[0] == ".." {
		return Address{}, fmt.Errorf("address: %s is outside the content root: %w", rel, apperr.ErrUnaddressable)
	}

	switch {
	case len(parts) == 2:
		title := trimExt(parts[1])
		return Address{
			Title:     title,
			Category:  parts[0],
			OutputKey: parts[0] + "/" + title + outputExt,
		}, nil
	case len(parts) >= 3:
		title := trimExt(parts[2])
		if len(parts) > 3 {
			// The third segment is a directory; only a Markdown suffix is dropped.
			title = strings.TrimSuffix(parts[2], markdownExt)
		}
		return Address{
			Title:       title,
			Category:    parts[0],
			Subcategory: parts[1],
			OutputKey:   parts[0] + "/" + parts[1] + "/" + title + outputExt,
		}, nil
	}
	return Address{}, fmt.Errorf("address: %s: %w", rel, apperr.ErrUnaddressable)
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}
