package visual

import (
	"context"
	"slices"
)

// Kind distinguishes rendered diagrams from static images.
type Kind string

const (
	KindDiagram Kind = "diagram"
	KindImage   Kind = "image"
)

// NodeClass is the class the diagram library puts on node groups.
const NodeClass = "node"

// LabelClass is the class of the element holding a node's visible label.
const LabelClass = "nodeLabel"

// Element is an addressable element of a rendered visual.
type Element struct {
	ID      string
	Classes []string
	// Label is the visible label text of node-like elements.
	Label string
	// Group is the id of the closest enclosing node group (possibly the
	// element itself); empty when the element is not inside one.
	Group string
}

// HasClass reports whether the element carries class c.
func (e Element) HasClass(c string) bool {
	return slices.Contains(e.Classes, c)
}

// NodeLike reports whether the element is a node group.
func (e Element) NodeLike() bool {
	return e.HasClass(NodeClass)
}

// Target is the id interaction should be attached to: the enclosing node
// group when there is one, the element itself otherwise.
func (e Element) Target() string {
	if e.Group != "" {
		return e.Group
	}
	return e.ID
}

// Image describes a static raster visual.
type Image struct {
	Src    string `json:"src"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
	Alt    string `json:"alt,omitempty"`
}

// Visual is the result of one render pass. It is never reused across
// renders.
type Visual struct {
	ID       string
	Kind     Kind
	SVG      string
	Image    *Image
	Elements []Element
}

// Nodes returns the node-like elements in document order.
func (v *Visual) Nodes() []Element {
	var out []Element
	for _, e := range v.Elements {
		if e.NodeLike() {
			out = append(out, e)
		}
	}
	return out
}

// Renderer is the diagram-rendering capability: markup in, addressable
// visual out.
type Renderer interface {
	Name() string
	Render(ctx context.Context, id, markup string) (*Visual, error)
}
