// Package summary classifies the summary block at the top of a Markdown
// document and applies the transitions that add, relabel or regenerate it.
package summary

import (
	"strings"

	"github.com/starford/docsync/internal/slug"
)

// State describes what kind of summary a document leads with.
type State int

const (
	// None means the document has no recognized summary.
	None State = iota
	// OtherFormat means a summary exists under a non-canonical label or marker.
	OtherFormat
	// AIGenerated means the canonical "Summarized by AI" block is present.
	AIGenerated
)

func (s State) String() string {
	switch s {
	case OtherFormat:
		return "OTHER_FORMAT"
	case AIGenerated:
		return "AI_GENERATED"
	default:
		return "NONE"
	}
}

// HasSummary mirrors the state into the stored hasSummary flag.
func (s State) HasSummary() bool { return s != None }

// Label is the canonical summary heading text.
const Label = "Summarized by AI"

var otherLabels = map[string]bool{
	"summary":    true,
	"tl;dr":      true,
	"key points": true,
}

var markerPrefixes = []string{"<summary>", "<!-- summary -->", "summary:"}

// lead is the first non-blank line of a body and what it says about the
// summary state.
type lead struct {
	state   State
	index   int // line index within the body, -1 when the body is blank
	heading slug.Heading
	isHead  bool
}

func findLead(lines []string) lead {
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		l := lead{index: i}
		if h, ok := slug.ParseHeading(line); ok {
			l.heading, l.isHead = h, true
			label := normalizeLabel(h.Title)
			switch {
			case label == strings.ToLower(Label):
				l.state = AIGenerated
			case otherLabels[label]:
				l.state = OtherFormat
			}
			return l
		}
		lower := strings.ToLower(line)
		for _, p := range markerPrefixes {
			if strings.HasPrefix(lower, p) {
				l.state = OtherFormat
				break
			}
		}
		return l
	}
	return lead{index: -1}
}

func normalizeLabel(title string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(title), ":")))
}

// Classify reports the summary state of a document. Only the first non-blank
// line after any front matter is inspected.
func Classify(text string) State {
	doc := Split(text)
	return findLead(strings.Split(doc.Body, "\n")).state
}
