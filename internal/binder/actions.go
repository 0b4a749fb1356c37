// Package binder attaches click semantics to resolved nodes and image
// regions.
package binder

import (
	"fmt"

	"github.com/gnemet/lookin/internal/layers"
)

// ActionKind is what an interaction does.
type ActionKind int

const (
	ActionNone ActionKind = iota
	// ActionNavigate goes to Target, passing Catalog as context.
	ActionNavigate
	// ActionTable opens the table panel for Catalog.
	ActionTable
	// ActionDoc opens the doc panel for Target.
	ActionDoc
	// ActionDerivedDoc opens Target+".md", a doc named after a drilldown
	// layer. Layer holds the drilldown id.
	ActionDerivedDoc
	// ActionURL opens Target in a new browsing context.
	ActionURL
)

func (k ActionKind) String() string {
	switch k {
	case ActionNone:
		return "none"
	case ActionNavigate:
		return "navigate"
	case ActionTable:
		return "table"
	case ActionDoc:
		return "doc"
	case ActionDerivedDoc:
		return "derived_doc"
	case ActionURL:
		return "url"
	}
	return "unknown"
}

// Action is a resolved interaction outcome.
type Action struct {
	Kind    ActionKind
	Target  string
	Catalog string
	Layer   string
}

func (a Action) String() string {
	switch a.Kind {
	case ActionTable:
		return "table " + a.Catalog
	case ActionNavigate:
		if a.Catalog != "" {
			return fmt.Sprintf("navigate %s (%s)", a.Target, a.Catalog)
		}
		return "navigate " + a.Target
	case ActionNone:
		return "none"
	}
	return a.Kind.String() + " " + a.Target
}

// DrillAction is the single-click action of a node. A catalog without a
// drilldown, or the table sentinel with a catalog, opens the table panel;
// any other drilldown navigates.
func DrillAction(n layers.Node) Action {
	switch {
	case n.Catalog != "" && n.Drilldown == "":
		return Action{Kind: ActionTable, Catalog: n.Catalog}
	case n.Drilldown == layers.DrilldownTable && n.Catalog != "":
		return Action{Kind: ActionTable, Catalog: n.Catalog}
	case n.Drilldown != "":
		return Action{Kind: ActionNavigate, Target: n.Drilldown, Catalog: n.Catalog}
	}
	return Action{}
}

// DocAction is the double-click action of a node: an explicit doc, else a
// doc derived from a non-table drilldown, else the table panel.
func DocAction(n layers.Node) Action {
	switch {
	case n.Doc != "":
		return Action{Kind: ActionDoc, Target: n.Doc}
	case n.Drilldown != "" && n.Drilldown != layers.DrilldownTable:
		return Action{Kind: ActionDerivedDoc, Target: n.Drilldown + ".md", Layer: n.Drilldown}
	case n.Catalog != "":
		return Action{Kind: ActionTable, Catalog: n.Catalog}
	}
	return Action{}
}

// RegionAction is the immediate action of an image region: url, doc,
// catalog, drilldown in that order.
func RegionAction(r layers.Region) Action {
	switch {
	case r.URL != "":
		return Action{Kind: ActionURL, Target: r.URL}
	case r.Doc != "":
		return Action{Kind: ActionDoc, Target: r.Doc}
	case r.Catalog != "":
		return Action{Kind: ActionTable, Catalog: r.Catalog}
	case r.Drilldown != "":
		return Action{Kind: ActionNavigate, Target: r.Drilldown}
	}
	return Action{}
}

// Region categories, used for styling.
const (
	CategoryURL   = "region-url"
	CategoryDoc   = "region-doc"
	CategoryDrill = "region-drill"
)

// RegionCategory returns the styling category of r, or "" for a purely
// decorative region.
func RegionCategory(r layers.Region) string {
	switch {
	case r.URL != "":
		return CategoryURL
	case r.Doc != "":
		return CategoryDoc
	case r.Drilldown != "" || r.Catalog != "":
		return CategoryDrill
	}
	return ""
}

// Node classes for interactive nodes.
const (
	ClassDoc   = "node-doc"
	ClassDrill = "node-drill"
)

// NodeClass returns the class of an interactive node, or "" when the node
// declares no action.
func NodeClass(n layers.Node) string {
	switch {
	case !n.HasAction():
		return ""
	case n.Doc != "":
		return ClassDoc
	}
	return ClassDrill
}
