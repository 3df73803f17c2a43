package slug

import "strings"

// Result is the outcome of one anchor pass over a document.
type Result struct {
	Text     string
	Headings []Heading
}

// Assign strips every existing anchor marker, repairs broken titles and
// writes a fresh, document-unique {#id} marker on each heading. It is pure and
// idempotent: Assign(Assign(x)) == Assign(x).
func Assign(text string) string {
	return Process(text).Text
}

// Process is Assign that also returns the headings it rewrote. Lines inside
// leading YAML front matter or fenced code blocks are never headings.
func Process(text string) Result {
	lines := strings.Split(text, "\n")
	reg := NewRegistry()
	var (
		headings []Heading
		code     fence
		position int
	)

	start := frontMatterEnd(lines)
	for i := start; i < len(lines); i++ {
		line, cr := trimCR(lines[i])
		if code.update(line) {
			continue
		}
		h, ok := ParseHeading(line)
		if !ok {
			continue
		}
		position++
		h.Title = Repair(h.Title)
		if !Unanchored(h.Title) {
			base := Slugify(h.Title)
			if base == "" {
				base = Fallback(h.Level, position)
			}
			h.ID = reg.Claim(base)
		}
		lines[i] = h.String() + cr
		headings = append(headings, h)
	}

	return Result{Text: strings.Join(lines, "\n"), Headings: headings}
}

// frontMatterEnd returns the index of the first line after a leading
// "---" ... "---" block, or 0 when the document has none.
func frontMatterEnd(lines []string) int {
	if len(lines) == 0 {
		return 0
	}
	if first, _ := trimCR(lines[0]); first != "---" {
		return 0
	}
	for i := 1; i < len(lines); i++ {
		switch l, _ := trimCR(lines[i]); l {
		case "---", "...":
			return i + 1
		}
	}
	return 0
}

func trimCR(line string) (string, string) {
	if strings.HasSuffix(line, "\r") {
		return line[:len(line)-1], "\r"
	}
	return line, ""
}
