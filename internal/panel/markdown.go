package panel

import (
	"bytes"
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// NewMarkdown returns the goldmark converter used for doc panels.
func NewMarkdown() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle("monokai"),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithUnsafe(),
		),
	)
}

// renderDoc converts markdown to the panel body. Without a converter the
// text is shown preformatted.
func renderDoc(md goldmark.Markdown, text []byte) (string, error) {
	if md == nil {
		return `<pre class="md-content">` + html.EscapeString(string(text)) + `</pre>`, nil
	}
	var buf bytes.Buffer
	if err := md.Convert(text, &buf); err != nil {
		return "", fmt.Errorf("converting markdown: %w", err)
	}
	return `<div class="md-content">` + postProcessMermaid(buf.String()) + `</div>`, nil
}

// postProcessMermaid converts <pre><code class="language-mermaid">...</code></pre>
// blocks into <div class="mermaid">...</div> so the page can render them.
func postProcessMermaid(s string) string {
	const openTag = `<pre><code class="language-mermaid">`
	const closeTag = `</code></pre>`

	for {
		idx := strings.Index(s, openTag)
		if idx == -1 {
			break
		}
		endIdx := strings.Index(s[idx:], closeTag)
		if endIdx == -1 {
			break
		}
		endIdx += idx

		content := s[idx+len(openTag) : endIdx]
		s = s[:idx] + `<div class="mermaid">` + content + `</div>` + s[endIdx+len(closeTag):]
	}
	return s
}

// DocTitle derives a panel title from a doc file reference:
// "jiramntr/star_schema.md" becomes "star schema".
func DocTitle(file string) string {
	base := path.Base(strings.ReplaceAll(file, "\\", "/"))
	if ext := path.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	return strings.ReplaceAll(base, "_", " ")
}

func renderTable(c *Catalog) string {
	var b strings.Builder
	if c.HasMeta() {
		b.WriteString(`<div class="table-meta">`)
		if c.Description != "" {
			fmt.Fprintf(&b, `<p class="meta-desc">%s</p>`, html.EscapeString(c.Description))
		}
		if c.Schema != "" {
			fmt.Fprintf(&b, `<span class="meta-schema">%s</span>`, html.EscapeString(c.Schema))
		}
		if c.TableType != "" {
			fmt.Fprintf(&b, `<span class="meta-type">%s</span>`, html.EscapeString(c.TableType))
		}
		b.WriteString(`</div>`)
	}

	b.WriteString(`<table><thead><tr>`)
	for _, h := range c.Headers {
		fmt.Fprintf(&b, `<th>%s</th>`, html.EscapeString(h))
	}
	b.WriteString(`</tr></thead><tbody>`)
	for _, row := range c.Rows {
		b.WriteString(`<tr>`)
		for i, cell := range row {
			class := "col-desc"
			switch {
			case i == 0:
				class = "col-name"
			case c.Shape != ShapeLabeled && i == 1:
				class = "col-type"
			}
			fmt.Fprintf(&b, `<td class="%s">%s</td>`, class, html.EscapeString(cell))
		}
		b.WriteString(`</tr>`)
	}
	b.WriteString(`</tbody></table>`)
	return b.String()
}

func renderSource(file string, text []byte) string {
	return fmt.Sprintf(`<div class="source-ref">Source: <code>%s</code></div><pre class="md-content source">%s</pre>`,
		html.EscapeString(file), html.EscapeString(string(text)))
}

func renderNotFound(kind, ref string, err error) string {
	return fmt.Sprintf(`<p class="not-found">%s not found: %s<br><small>%s</small></p>`,
		html.EscapeString(kind), html.EscapeString(ref), html.EscapeString(err.Error()))
}
