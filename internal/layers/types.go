package layers

import "strings"

const (
	// DrilldownTable is the drilldown sentinel that means "open the node's catalog".
	DrilldownTable = "table"

	// TypeCatalogViewer tags a layer that shows a catalog in the side panel
	// instead of being rendered.
	TypeCatalogViewer = "catalog_viewer"

	// RenderImage selects the static image strategy for a layer.
	RenderImage = "image"

	// DefaultRoot is the layer opened on startup when the document names none.
	DefaultRoot = "enterprise"
)

// Document is the loaded viewer configuration. It is read-only after Load.
type Document struct {
	Title   string            `yaml:"title"`
	Root    string            `yaml:"root,omitempty"`
	Layers  []Layer           `yaml:"layers"`
	Sources map[string]Source `yaml:"sources,omitempty"`

	index map[string]int
}

// Source describes the system a layer's data comes from.
type Source struct {
	Label string `yaml:"label,omitempty"`
	Color string `yaml:"color,omitempty"`
}

// Layer is one level of the drillable hierarchy.
type Layer struct {
	ID           string   `yaml:"id"`
	Title        string   `yaml:"title"`
	TitleHU      string   `yaml:"title_hu,omitempty"`
	File         string   `yaml:"file,omitempty"`
	Image        string   `yaml:"image,omitempty"`
	Render       string   `yaml:"render,omitempty"`
	Nodes        Nodes    `yaml:"nodes,omitempty"`
	ClickRegions []Region `yaml:"clickRegions,omitempty"`
	Source       string   `yaml:"source,omitempty"`
	Type         string   `yaml:"type,omitempty"`
}

// Node is the declared behaviour of an addressable element in a layer.
type Node struct {
	Drilldown string `yaml:"drilldown,omitempty"`
	Catalog   string `yaml:"catalog,omitempty"`
	Doc       string `yaml:"doc,omitempty"`
	Tooltip   string `yaml:"tooltip,omitempty"`
}

// Region is a clickable rectangle over an image layer, in percent of the
// rendered image box.
type Region struct {
	Rect      []float64 `yaml:"rect,omitempty"`
	Drilldown string    `yaml:"drilldown,omitempty"`
	Doc       string    `yaml:"doc,omitempty"`
	Catalog   string    `yaml:"catalog,omitempty"`
	URL       string    `yaml:"url,omitempty"`
	Label     string    `yaml:"label,omitempty"`
	Tooltip   string    `yaml:"tooltip,omitempty"`
}

// Rect is a percentage rectangle.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// LocalizedTitle returns the layer title for the given language, falling back to
// the default title.
func (l *Layer) LocalizedTitle(lang string) string {
	if lang == "hu" && l.TitleHU != "" {
		return l.TitleHU
	}
	return l.Title
}

// IsCatalogViewer reports whether the layer is the special catalog viewer.
func (l *Layer) IsCatalogViewer() bool {
	return l.Type == TypeCatalogViewer
}

// ImageMode reports whether the layer explicitly asks for image rendering.
func (l *Layer) ImageMode() bool {
	return l.Render == RenderImage && l.Image != ""
}

// HasAction reports whether clicking the node does anything.
func (n Node) HasAction() bool {
	return n.Drilldown != "" || n.Doc != "" || n.Catalog != ""
}

// Bounds returns the region rectangle. Missing or short rects default to
// a 10% square in the top-left corner.
func (r Region) Bounds() Rect {
	if len(r.Rect) < 4 {
		return Rect{0, 0, 10, 10}
	}
	return Rect{X: r.Rect[0], Y: r.Rect[1], W: r.Rect[2], H: r.Rect[3]}
}

// Hover returns the tooltip text for a region: tooltip, else label.
func (r Region) Hover() string {
	if r.Tooltip != "" {
		return r.Tooltip
	}
	return r.Label
}

// Layer looks up a layer by id.
func (d *Document) Layer(id string) (*Layer, bool) {
	if d.index == nil {
		for i := range d.Layers {
			if d.Layers[i].ID == id {
				return &d.Layers[i], true
			}
		}
		return nil, false
	}
	i, ok := d.index[id]
	if !ok {
		return nil, false
	}
	return &d.Layers[i], true
}

// RootID returns the layer opened on startup.
func (d *Document) RootID() string {
	if strings.TrimSpace(d.Root) != "" {
		return d.Root
	}
	return DefaultRoot
}

// Source returns the source declared under name.
func (d *Document) Source(name string) (Source, bool) {
	s, ok := d.Sources[name]
	return s, ok
}

func (d *Document) reindex() {
	d.index = make(map[string]int, len(d.Layers))
	for i, l := range d.Layers {
		if _, dup := d.index[l.ID]; dup {
			continue
		}
		d.index[l.ID] = i
	}
}
