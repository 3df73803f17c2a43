package slug

import (
	"strings"
	"unicode"
)

// Heading is one ATX heading line split into its parts.
type Heading struct {
	Level   int      // number of leading '#' characters, 1–6
	Title   string   // visible text with markers removed and spaces trimmed
	Markers []string // identifiers of the stale {#id} markers found on the line
	ID      string   // assigned identifier, empty when the heading stays unanchored
}

// ParseHeading tokenizes a single line. It reports false for anything that is
// not an ATX heading: up to six '#' followed by whitespace or end of line.
// Trailing {#id} markers are removed from the title, however many there are.
func ParseHeading(line string) (Heading, bool) {
	level := 0
	for level < len(line) && line[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return Heading{}, false
	}
	rest := line[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return Heading{}, false
	}
	title, markers := StripMarkers(rest)
	return Heading{Level: level, Title: title, Markers: markers}, true
}

// String renders the heading as "<hashes> <title>" followed by " {#id}" when
// an identifier is assigned.
func (h Heading) String() string {
	var b strings.Builder
	b.WriteString(strings.Repeat("#", h.Level))
	b.WriteByte(' ')
	b.WriteString(h.Title)
	if h.ID != "" {
		b.WriteString(" {#")
		b.WriteString(h.ID)
		b.WriteByte('}')
	}
	return b.String()
}

// StripMarkers removes the whole trailing run of {#id} markers from text and
// returns the trimmed remainder with the marker identifiers in source order.
func StripMarkers(text string) (string, []string) {
	var markers []string
	rest := strings.TrimRightFunc(text, unicode.IsSpace)
	for strings.HasSuffix(rest, "}") {
		open := strings.LastIndex(rest, "{#")
		if open < 0 {
			break
		}
		id := rest[open+2 : len(rest)-1]
		if !validID(id) {
			break
		}
		markers = append([]string{id}, markers...)
		rest = strings.TrimRightFunc(rest[:open], unicode.IsSpace)
	}
	return strings.TrimSpace(rest), markers
}

func validID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if !isIDRune(r) {
			return false
		}
	}
	return true
}

func isIDRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-'
}

// fence tracks fenced code blocks so heading-like lines inside them are left
// alone.
type fence struct {
	char  byte
	width int
}

func (f *fence) open() bool { return f.width > 0 }

// update consumes one line and reports whether it belongs to a code block,
// fence lines included.
func (f *fence) update(line string) bool {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return f.open()
	}
	ch, n := fenceRun(trimmed)
	if f.open() {
		if ch == f.char && n >= f.width && strings.TrimSpace(trimmed[n:]) == "" {
			f.width = 0
		}
		return true
	}
	if n >= 3 {
		f.char, f.width = ch, n
		return true
	}
	return false
}

func fenceRun(s string) (byte, int) {
	if s == "" || (s[0] != '`' && s[0] != '~') {
		return 0, 0
	}
	ch := s[0]
	n := 0
	for n < len(s) && s[n] == ch {
		n++
	}
	return ch, n
}
