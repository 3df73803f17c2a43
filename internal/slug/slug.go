// Package slug assigns stable, per-document unique heading anchors to
// Markdown text.
package slug

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Placeholder replaces heading text that is empty or a serialization artifact.
const Placeholder = "Section"

var brokenTitles = map[string]bool{
	"":          true,
	"undefined": true,
}

// Repair returns Placeholder for empty or malformed titles and the title
// unchanged otherwise.
func Repair(title string) string {
	t := strings.TrimSpace(title)
	if brokenTitles[t] || strings.Contains(t, "[object Object]") {
		return Placeholder
	}
	return t
}

// Unanchored reports whether a heading with this title is left without an
// anchor. Summary headings are never anchored.
func Unanchored(title string) bool {
	switch strings.ToLower(strings.TrimSpace(title)) {
	case "summary", "summarized by ai":
		return true
	}
	return false
}

// Slugify lowercases the title, keeps letters, digits, underscores,
// whitespace and dashes, turns whitespace runs into single dashes and trims
// and collapses dashes. The result may be empty.
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(title)) {
		switch {
		case unicode.IsSpace(r) || r == '-':
			pendingDash = true
		case isIDRune(r):
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Fallback is the identifier used when a title slugifies to nothing. position
// is the 1-based ordinal of the heading within its document.
func Fallback(level, position int) string {
	return fmt.Sprintf("section-%d-%d", level, position)
}

// Registry hands out identifiers for one document. The first claim of a base
// slug returns it unchanged, the Nth returns base-N, and the counter skips
// any candidate that is already taken.
type Registry struct {
	counts map[string]int
	used   map[string]struct{}
}

// NewRegistry returns an empty registry. Never share one across documents.
func NewRegistry() *Registry {
	return &Registry{
		counts: make(map[string]int),
		used:   make(map[string]struct{}),
	}
}

// Claim reserves and returns a unique identifier for base.
func (r *Registry) Claim(base string) string {
	n := r.counts[base]
	id := base
	if n > 0 || r.taken(base) {
		for {
			n++
			if n == 1 {
				continue
			}
			id = base + "-" + strconv.Itoa(n)
			if !r.taken(id) {
				break
			}
		}
	} else {
		n = 1
	}
	r.counts[base] = n
	r.used[id] = struct{}{}
	return id
}

// Len returns how many identifiers have been claimed.
func (r *Registry) Len() int { return len(r.used) }

func (r *Registry) taken(id string) bool {
	_, ok := r.used[id]
	return ok
}
