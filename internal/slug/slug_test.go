package slug

import (
	"strings"
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Getting Started!!", "getting-started"},
		{"  Overview  ", "overview"},
		{"API -- Reference", "api-reference"},
		{"--Leading and trailing--", "leading-and-trailing"},
		{"snake_case stays", "snake_case-stays"},
		{"Café au lait", "café-au-lait"},
		{"v1.2 Release", "v12-release"},
		{"!!!", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.in); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRepair(t *testing.T) {
	for _, in := range []string{"", "  ", "undefined", "[object Object]", "Intro [object Object]"} {
		if got := Repair(in); got != Placeholder {
			t.Errorf("Repair(%q) = %q, want %q", in, got, Placeholder)
		}
	}
	if got := Repair("null"); got != "null" {
		t.Errorf("Repair(%q) = %q, want the title kept", "null", got)
	}
	if got := Repair(" Intro "); got != "Intro" {
		t.Errorf("Repair trims: got %q", got)
	}
}

func TestParseHeading(t *testing.T) {
	h, ok := ParseHeading("### Intro {#intro} {#intro-2}  ")
	if !ok {
		t.Fatal("expected heading")
	}
	if h.Level != 3 || h.Title != "Intro" {
		t.Errorf("got level=%d title=%q", h.Level, h.Title)
	}
	if len(h.Markers) != 2 || h.Markers[0] != "intro" || h.Markers[1] != "intro-2" {
		t.Errorf("markers = %v", h.Markers)
	}

	for _, line := range []string{"#hashtag", "####### seven", "plain text", "", " # indented"} {
		if _, ok := ParseHeading(line); ok {
			t.Errorf("ParseHeading(%q) should not be a heading", line)
		}
	}
}

func TestStripMarkers_KeepsInvalidMarkers(t *testing.T) {
	title, markers := StripMarkers(" Foo {#not valid} {#ok}")
	if title != "Foo {#not valid}" {
		t.Errorf("title = %q", title)
	}
	if len(markers) != 1 || markers[0] != "ok" {
		t.Errorf("markers = %v", markers)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	got := []string{
		r.Claim("overview"),
		r.Claim("overview"),
		r.Claim("overview-2"),
		r.Claim("overview"),
	}
	want := []string{"overview", "overview-2", "overview-2-2", "overview-3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("claim %d = %q, want %q", i, got[i], want[i])
		}
	}
	if r.Len() != 4 {
		t.Errorf("Len = %d, want 4", r.Len())
	}
}

func TestRegistry_SkipsTakenSuffix(t *testing.T) {
	r := NewRegistry()
	r.Claim("a-2")
	if got := r.Claim("a"); got != "a" {
		t.Errorf("first claim = %q", got)
	}
	if got := r.Claim("a"); got != "a-3" {
		t.Errorf("second claim = %q, want a-3", got)
	}
}

func TestAssign_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "punctuation dropped",
			in:   "## Getting Started!!\n",
			want: "## Getting Started!! {#getting-started}\n",
		},
		{
			name: "duplicate titles",
			in:   "# Overview\ntext\n# Overview\n",
			want: "# Overview {#overview}\ntext\n# Overview {#overview-2}\n",
		},
		{
			name: "stale marker run replaced",
			in:   "# Intro {#intro} {#intro-2}\n",
			want: "# Intro {#intro}\n",
		},
		{
			name: "stale marker with wrong id",
			in:   "## Setup {#old-id}\n",
			want: "## Setup {#setup}\n",
		},
		{
			name: "summary headings stay unanchored",
			in:   "# Summarized by AI {#summarized-by-ai}\n\ntext\n\n## Summary\n",
			want: "# Summarized by AI\n\ntext\n\n## Summary\n",
		},
		{
			name: "broken titles repaired",
			in:   "## undefined\n## [object Object]\n",
			want: "## Section {#section}\n## Section {#section-2}\n",
		},
		{
			name: "empty slug falls back to position",
			in:   "# Title\n## !!!\n",
			want: "# Title {#title}\n## !!! {#section-2-2}\n",
		},
		{
			name: "code fences ignored",
			in:   "```sh\n# not a heading\n```\n# Real\n~~~\n## also not\n~~~\n",
			want: "```sh\n# not a heading\n```\n# Real {#real}\n~~~\n## also not\n~~~\n",
		},
		{
			name: "front matter comments ignored",
			in:   "---\n# comment\ntitle: x\n---\n# Body\n",
			want: "---\n# comment\ntitle: x\n---\n# Body {#body}\n",
		},
		{
			name: "crlf preserved",
			in:   "# One\r\ntext\r\n",
			want: "# One {#one}\r\ntext\r\n",
		},
		{
			name: "no headings",
			in:   "just text\n",
			want: "just text\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Assign(tt.in); got != tt.want {
				t.Errorf("Assign() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestAssign_Idempotent(t *testing.T) {
	inputs := []string{
		"# Intro {#intro} {#intro-2}\n## Overview\n## Overview\n### Overview-2\n",
		"## !!!\n## ???\n# undefined\n# Section\n",
		"# Summary {#summary}\n## Getting Started!! {#stale}\n```\n# x\n```\n",
		"---\ntitle: t\n---\n# A\r\n## a\r\n",
		"# Foo {#a b}\n# Foo}\n#\n",
	}
	for _, in := range inputs {
		once := Assign(in)
		twice := Assign(once)
		if once != twice {
			t.Errorf("not idempotent for %q:\nonce  %q\ntwice %q", in, once, twice)
		}
	}
}

func TestProcess_UniqueIDs(t *testing.T) {
	var b strings.Builder
	for _, title := range []string{"A", "a", "A!", "a-2", "A", "", "!!", "a 2", "A"} {
		b.WriteString("## " + title + "\n")
	}
	res := Process(b.String())
	seen := make(map[string]bool)
	for _, h := range res.Headings {
		if h.ID == "" {
			t.Fatalf("heading %q has no id", h.Title)
		}
		if seen[h.ID] {
			t.Errorf("duplicate id %q", h.ID)
		}
		seen[h.ID] = true
	}
	if len(res.Headings) != 9 {
		t.Errorf("headings = %d, want 9", len(res.Headings))
	}
}
