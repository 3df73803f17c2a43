package mcpserver

// ContentConventions describes how docsync maps files to documents and what
// it writes back into them.
const ContentConventions = `# docsync Content Conventions

## Paths

| File | Output key | Title | Category | Subcategory |
|---|---|---|---|---|
| ` + "`index.md`" + ` | ` + "`index.html`" + ` | Home | | |
| ` + "`docs/intro.md`" + ` | ` + "`docs/intro.html`" + ` | intro | docs | |
| ` + "`docs/guides/setup.md`" + ` | ` + "`docs/guides/setup.html`" + ` | setup | docs | guides |

Any other file directly under the root is skipped. Segments deeper than the
third are ignored, so two files under the same third-level directory collide
and abort the sync.

## Heading anchors

Every heading gets a trailing ` + "`{#id}`" + ` marker. Existing markers are always
stripped and regenerated:

- the id is the lowercased title with punctuation removed and spaces turned into dashes;
- a repeated id gets ` + "`-2`" + `, ` + "`-3`" + `, ... in document order;
- titles that are empty, ` + "`undefined`" + ` or contain ` + "`[object Object]`" + ` become ` + "`Section`" + `;
- ` + "`Summary`" + ` and ` + "`Summarized by AI`" + ` headings are never anchored.

## Summary block

A generated summary sits at the top of the document, after any front matter:

` + "```" + `markdown
# Summarized by AI

- point one
- point two

---

` + "```" + `

A leading ` + "`Summary`" + `, ` + "`TL;DR`" + ` or ` + "`Key Points`" + ` heading is renamed to
` + "`Summarized by AI`" + ` instead of being regenerated. The root ` + "`index.md`" + ` is never summarized.
`
