// Package panel manages the side panel that shows column catalogs and
// markdown documentation. The panel is independent of main navigation.
package panel

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"

	"github.com/gnemet/lookin/internal/metrics"
	"github.com/gnemet/lookin/internal/resource"
)

// Mode is the panel state.
type Mode int

const (
	Closed Mode = iota
	TableMode
	DocMode
)

func (m Mode) String() string {
	switch m {
	case TableMode:
		return "table"
	case DocMode:
		return "doc"
	}
	return "closed"
}

// Content is what the panel shows. The zero value is a closed panel.
type Content struct {
	Mode  Mode
	Title string
	// Ref is the resource the content was loaded from.
	Ref  string
	HTML string
	// Text is the raw doc or source text in doc mode.
	Text    string
	Catalog *Catalog
	// Err is set when loading failed. The panel is still open and HTML
	// carries the inline message.
	Err string
}

// Open reports whether the panel is showing anything.
func (c Content) Open() bool { return c.Mode != Closed }

// Options configures a Controller.
type Options struct {
	// Markdown enables rich rendering of docs. Off means escaped text.
	Markdown bool
	Logger   zerolog.Logger
	Metrics  *metrics.Metrics
}

// Controller owns the panel state of one session. Loads run without the
// lock held; a sequence token discards results of loads that were
// overtaken by a newer open or a close.
type Controller struct {
	fetcher resource.Fetcher
	md      goldmark.Markdown
	log     zerolog.Logger
	metrics *metrics.Metrics

	mu      sync.Mutex
	seq     uint64
	content Content
}

// NewController returns a closed panel reading from fetcher.
func NewController(fetcher resource.Fetcher, opts Options) *Controller {
	c := &Controller{fetcher: fetcher, log: opts.Logger, metrics: opts.Metrics}
	if opts.Markdown {
		c.md = NewMarkdown()
	}
	return c
}

// Content returns the current panel content.
func (c *Controller) Content() Content {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

// Close closes the panel and invalidates in-flight loads. It reports
// whether the panel was open.
func (c *Controller) Close() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	was := c.content.Open()
	c.content = Content{}
	return was
}

func (c *Controller) begin() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// commit installs content if token is still current.
func (c *Controller) commit(token uint64, content Content) (Content, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if token != c.seq {
		c.log.Debug().Str("ref", content.Ref).Msg("discarding stale panel load")
		return c.content, false
	}
	c.content = content
	c.metrics.IncPanelOpen(content.Mode.String(), content.Err == "")
	return content, true
}

// OpenTable loads catalogs/<file> and shows it as a column table. It
// reports whether the result was installed.
func (c *Controller) OpenTable(ctx context.Context, file string) (Content, bool) {
	token := c.begin()
	return c.commit(token, c.loadTable(ctx, file))
}

func (c *Controller) loadTable(ctx context.Context, file string) Content {
	ref := "catalogs/" + file
	content := Content{Mode: TableMode, Ref: ref, Title: DefaultTableTitle(file)}

	data, err := c.fetcher.Fetch(ctx, ref)
	if err == nil {
		var cat *Catalog
		if cat, err = ParseCatalog(file, data); err == nil {
			content.Title = cat.Title
			content.Catalog = cat
			content.HTML = renderTable(cat)
			return content
		}
	}

	c.log.Warn().Err(err).Str("catalog", file).Msg("catalog load failed")
	content.Err = err.Error()
	content.HTML = renderNotFound("Catalog", file, err)
	return content
}

// DefaultTableTitle is the title of a catalog without one.
func DefaultTableTitle(file string) string {
	return strings.TrimSuffix(file, ".json")
}

// OpenDoc loads docs/<file> and shows it.
func (c *Controller) OpenDoc(ctx context.Context, file string) (Content, bool) {
	token := c.begin()
	content, _ := c.loadDoc(ctx, file)
	return c.commit(token, content)
}

// OpenDocOrSource loads docs/<file>. When that fails and source names a
// markup file, the markup text is shown instead.
func (c *Controller) OpenDocOrSource(ctx context.Context, file, source string) (Content, bool) {
	token := c.begin()
	content, ok := c.loadDoc(ctx, file)
	if !ok && source != "" {
		if text, err := c.fetcher.Fetch(ctx, source); err == nil {
			content = Content{
				Mode:  DocMode,
				Ref:   source,
				Title: DocTitle(source),
				Text:  string(text),
				HTML:  renderSource(source, text),
			}
		} else {
			c.log.Debug().Err(err).Str("source", source).Msg("markup source fallback failed")
		}
	}
	return c.commit(token, content)
}

func (c *Controller) loadDoc(ctx context.Context, file string) (Content, bool) {
	ref := "docs/" + file
	content := Content{Mode: DocMode, Ref: ref, Title: DocTitle(file)}

	text, err := c.fetcher.Fetch(ctx, ref)
	if err == nil {
		var body string
		if body, err = renderDoc(c.md, text); err == nil {
			content.Text = string(text)
			content.HTML = body
			return content, true
		}
	}

	c.log.Warn().Err(err).Str("doc", file).Msg("doc load failed")
	content.Err = err.Error()
	content.HTML = renderNotFound("Doc", ref, err)
	return content, false
}
