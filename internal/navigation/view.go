package navigation

import (
	"github.com/gnemet/lookin/internal/binder"
	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/panel"
	"github.com/gnemet/lookin/internal/visual"
)

// Languages of titles and breadcrumbs.
const (
	LangEN = "en"
	LangHU = "hu"
)

// DefaultBadge is shown for layers without a known source.
const DefaultBadge = "LookIn"

// Crumb is one breadcrumb entry. Every crumb but the current one is a
// jump target.
type Crumb struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Current bool   `json:"current"`
}

// Badge is the source badge of the current layer.
type Badge struct {
	Label   string `json:"label"`
	Color   string `json:"color,omitempty"`
	Default bool   `json:"default"`
}

// NodeView is a resolved node of the current diagram.
type NodeView struct {
	NodeID      string `json:"node_id"`
	ElementID   string `json:"element_id"`
	Class       string `json:"class,omitempty"`
	Tooltip     string `json:"tooltip,omitempty"`
	Interactive bool   `json:"interactive"`
	Strategy    string `json:"strategy"`
}

// RegionView is a clickable overlay of the current image.
type RegionView struct {
	Index    int         `json:"index"`
	Rect     layers.Rect `json:"rect"`
	Category string      `json:"category,omitempty"`
	Label    string      `json:"label,omitempty"`
	Tooltip  string      `json:"tooltip,omitempty"`
}

// RenderView describes the visual area.
type RenderView struct {
	State    string        `json:"state"`
	Strategy string        `json:"strategy,omitempty"`
	Error    string        `json:"error,omitempty"`
	ID       string        `json:"id,omitempty"`
	SVG      string        `json:"svg,omitempty"`
	Image    *visual.Image `json:"image,omitempty"`
	Markup   string        `json:"markup,omitempty"`
}

// PanelView is the side panel.
type PanelView struct {
	Mode  string `json:"mode"`
	Title string `json:"title,omitempty"`
	Ref   string `json:"ref,omitempty"`
	HTML  string `json:"html,omitempty"`
	Error string `json:"error,omitempty"`
}

// View is an immutable snapshot of a session, published after every state
// change.
type View struct {
	Seq         uint64       `json:"seq"`
	ConfigTitle string       `json:"config_title"`
	LayerCount  int          `json:"layer_count"`
	Lang        string       `json:"lang"`
	LayerID     string       `json:"layer_id"`
	Title       string       `json:"title"`
	Badge       Badge        `json:"badge"`
	Breadcrumbs []Crumb      `json:"breadcrumbs"`
	History     []string     `json:"history"`
	CanGoBack   bool         `json:"can_go_back"`
	Render      RenderView   `json:"render"`
	Nodes       []NodeView   `json:"nodes,omitempty"`
	Regions     []RegionView `json:"regions,omitempty"`
	Unmatched   []string     `json:"unmatched,omitempty"`
	Panel       PanelView    `json:"panel"`
}

// Observer receives session output. Implementations must not call back
// into the engine synchronously.
type Observer interface {
	ViewChanged(View)
	OpenURL(url string)
}

// Breadcrumbs collapses history to first-occurrence order. Ids missing
// from the document are skipped.
func Breadcrumbs(doc *layers.Document, history []string, lang string) []Crumb {
	seen := make(map[string]bool, len(history))
	var unique []string
	for _, id := range history {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	crumbs := make([]Crumb, 0, len(unique))
	for i, id := range unique {
		l, ok := doc.Layer(id)
		if !ok {
			continue
		}
		crumbs = append(crumbs, Crumb{ID: id, Label: l.LocalizedTitle(lang), Current: i == len(unique)-1})
	}
	return crumbs
}

// SourceBadge returns the badge of a layer.
func SourceBadge(doc *layers.Document, l *layers.Layer) Badge {
	if l != nil && l.Source != "" {
		if src, ok := doc.Source(l.Source); ok {
			return Badge{Label: src.Label, Color: src.Color}
		}
	}
	return Badge{Label: DefaultBadge, Default: true}
}

func panelView(c panel.Content) PanelView {
	return PanelView{Mode: c.Mode.String(), Title: c.Title, Ref: c.Ref, HTML: c.HTML, Error: c.Err}
}

func nodeViews(set *binder.Set) []NodeView {
	var out []NodeView
	for _, b := range set.Bindings() {
		out = append(out, NodeView{
			NodeID:      b.NodeID,
			ElementID:   b.ElementID,
			Class:       b.Class,
			Tooltip:     b.Tooltip,
			Interactive: b.Interactive(),
			Strategy:    string(b.Strategy),
		})
	}
	return out
}

func regionViews(set *binder.Set) []RegionView {
	var out []RegionView
	for _, o := range set.Overlays() {
		out = append(out, RegionView{Index: o.Index, Rect: o.Rect, Category: o.Category, Label: o.Label, Tooltip: o.Tooltip})
	}
	return out
}
