package summary

import (
	"fmt"
	"strings"

	"github.com/starford/docsync/internal/apperr"
	"github.com/starford/docsync/internal/slug"
)

// Action is the transition chosen for a document.
type Action int

const (
	// Skip leaves the document untouched.
	Skip Action = iota
	// Relabel renames an existing summary heading to the canonical label.
	Relabel
	// Generate inserts a freshly generated block, replacing any existing one.
	Generate
)

func (a Action) String() string {
	switch a {
	case Relabel:
		return "relabel"
	case Generate:
		return "generate"
	default:
		return "skip"
	}
}

// Outcome is the result of applying a transition.
type Outcome struct {
	Text    string
	Action  Action
	From    State
	To      State
	Changed bool
}

// Block formats a canonical summary block.
func Block(text string) string {
	return "# " + Label + "\n\n" + strings.TrimSpace(text) + "\n\n---\n\n"
}

// Plan classifies text and picks the transition. With force every document
// is regenerated. Without it, canonical blocks are kept, summary headings
// under another label are relabeled, and documents without a summary are
// generated. Marker-only summaries have no heading to relabel and are kept.
func Plan(text string, force bool) (State, Action) {
	doc := Split(text)
	l := findLead(strings.Split(doc.Body, "\n"))
	switch {
	case force:
		return l.state, Generate
	case l.state == AIGenerated:
		return l.state, Skip
	case l.state == OtherFormat && l.isHead:
		return l.state, Relabel
	case l.state == OtherFormat:
		return l.state, Skip
	default:
		return l.state, Generate
	}
}

// Apply runs the transition chosen by Plan. generated is the summarizer's
// text and is only consulted for Generate; an empty value is a summarizer
// failure and leaves the document unchanged.
func Apply(text string, force bool, generated string) (Outcome, error) {
	from, action := Plan(text, force)
	out := Outcome{Text: text, Action: action, From: from, To: from}

	switch action {
	case Relabel:
		out.Text = relabel(text)
		out.To = AIGenerated
	case Generate:
		if strings.TrimSpace(generated) == "" {
			out.Action = Skip
			return out, fmt.Errorf("summary: empty summary text: %w", apperr.ErrSummarizer)
		}
		out.Text = insert(text, generated, force)
		out.To = AIGenerated
	}
	out.Changed = out.Text != text
	return out, nil
}

// relabel rewrites the lead heading as "<hashes> Summarized by AI" and leaves
// every other byte alone.
func relabel(text string) string {
	doc := Split(text)
	lines := strings.Split(doc.Body, "\n")
	l := findLead(lines)
	if !l.isHead {
		return text
	}
	cr := ""
	if strings.HasSuffix(lines[l.index], "\r") {
		cr = "\r"
	}
	lines[l.index] = slug.Heading{Level: l.heading.Level, Title: Label}.String() + cr
	doc.Body = strings.Join(lines, "\n")
	return doc.String()
}

// insert places a fresh block right after the front matter. When force is
// set, an existing summary section at the top is removed first.
func insert(text, generated string, force bool) string {
	doc := Split(text)
	body := doc.Body
	if force {
		body = removeBlock(body)
	}
	doc.Body = Block(generated) + strings.TrimLeft(body, "\r\n")
	return doc.String()
}

// removeBlock drops a leading summary section: the heading through the first
// horizontal rule and the blank lines after it. Without a rule the section
// ends at the next heading; when there is none the body is returned as is.
func removeBlock(body string) string {
	lines := strings.Split(body, "\n")
	l := findLead(lines)
	if !l.isHead || l.state == None {
		return body
	}

	end := -1
	for i := l.index + 1; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if isRule(line) {
			end = i + 1
			for end < len(lines) && strings.TrimSpace(lines[end]) == "" {
				end++
			}
			break
		}
		if _, ok := slug.ParseHeading(line); ok {
			end = i
			break
		}
	}
	if end < 0 {
		return body
	}
	return strings.Join(lines[end:], "\n")
}

func isRule(line string) bool {
	if len(line) < 3 {
		return false
	}
	ch := line[0]
	if ch != '-' && ch != '*' && ch != '_' {
		return false
	}
	for i := 0; i < len(line); i++ {
		if line[i] != ch && line[i] != ' ' {
			return false
		}
	}
	return strings.Count(line, string(ch)) >= 3
}
