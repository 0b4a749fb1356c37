package binder

import (
	"time"

	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/resolver"
)

// Dispatch receives fired actions. It is called from the debounce timer's
// goroutine for single clicks.
type Dispatch func(Action)

// Binding is a resolved node with its interaction attached. Bindings live
// for one render and are stopped when the next render replaces them.
type Binding struct {
	NodeID    string
	ElementID string
	Strategy  resolver.Strategy
	// Class is node-doc or node-drill for interactive nodes, empty for
	// decorative ones.
	Class   string
	Tooltip string
	// Single and Double are the actions of a single and a double click.
	Single Action
	Double Action

	machine *Machine
}

// Interactive reports whether the node declares an action.
func (b *Binding) Interactive() bool { return b.machine != nil }

// Overlay is a clickable region of an image layer.
type Overlay struct {
	Index    int
	Rect     layers.Rect
	Category string
	Label    string
	Tooltip  string
	Action   Action
}

// Options tunes the click machines of a Set.
type Options struct {
	Window time.Duration
	After  AfterFunc
}

// Set holds the bindings of one render.
type Set struct {
	bindings []*Binding
	byNode   map[string]*Binding
	overlays []Overlay
	dispatch Dispatch
}

// BindNodes attaches click machines to resolved nodes. Nodes without an
// action are bound for their tooltip only and ignore clicks.
func BindNodes(layer *layers.Layer, matches []resolver.Match, dispatch Dispatch, opts Options) *Set {
	s := &Set{byNode: make(map[string]*Binding, len(matches)), dispatch: dispatch}
	for _, m := range matches {
		node, ok := layer.Nodes.Get(m.NodeID)
		if !ok {
			continue
		}
		b := &Binding{
			NodeID:    m.NodeID,
			ElementID: m.ElementID,
			Strategy:  m.Strategy,
			Class:     NodeClass(node),
			Tooltip:   node.Tooltip,
		}
		if node.HasAction() {
			single, double := DrillAction(node), DocAction(node)
			b.Single, b.Double = single, double
			b.machine = NewMachine(opts.Window, func() { s.fire(single) }, func() { s.fire(double) })
			if opts.After != nil {
				b.machine.after = opts.After
			}
		}
		s.bindings = append(s.bindings, b)
		s.byNode[m.NodeID] = b
	}
	return s
}

// BindRegions turns the click regions of an image layer into overlays.
func BindRegions(layer *layers.Layer, dispatch Dispatch) *Set {
	s := &Set{byNode: map[string]*Binding{}, dispatch: dispatch}
	for i, r := range layer.ClickRegions {
		s.overlays = append(s.overlays, Overlay{
			Index:    i,
			Rect:     r.Bounds(),
			Category: RegionCategory(r),
			Label:    r.Label,
			Tooltip:  r.Hover(),
			Action:   RegionAction(r),
		})
	}
	return s
}

func (s *Set) fire(a Action) {
	if a.Kind == ActionNone || s.dispatch == nil {
		return
	}
	s.dispatch(a)
}

// Bindings returns the node bindings in resolution order.
func (s *Set) Bindings() []*Binding {
	if s == nil {
		return nil
	}
	return s.bindings
}

// Overlays returns the region overlays in declaration order.
func (s *Set) Overlays() []Overlay {
	if s == nil {
		return nil
	}
	return s.overlays
}

// Binding looks up the binding of a node.
func (s *Set) Binding(nodeID string) (*Binding, bool) {
	if s == nil {
		return nil, false
	}
	b, ok := s.byNode[nodeID]
	return b, ok
}

// Click routes a single click to a node. It reports whether the node is
// bound and interactive.
func (s *Set) Click(nodeID string) bool {
	b, ok := s.Binding(nodeID)
	if !ok || !b.Interactive() {
		return false
	}
	b.machine.Click()
	return true
}

// DoubleClick routes a double click to a node.
func (s *Set) DoubleClick(nodeID string) bool {
	b, ok := s.Binding(nodeID)
	if !ok || !b.Interactive() {
		return false
	}
	b.machine.DoubleClick()
	return true
}

// ClickRegion fires the action of overlay i immediately.
func (s *Set) ClickRegion(i int) bool {
	if s == nil || i < 0 || i >= len(s.overlays) {
		return false
	}
	a := s.overlays[i].Action
	if a.Kind == ActionNone {
		return false
	}
	s.fire(a)
	return true
}

// Stop discards every pending click.
func (s *Set) Stop() {
	if s == nil {
		return
	}
	for _, b := range s.bindings {
		if b.machine != nil {
			b.machine.Stop()
		}
	}
}
