// Package navigation owns a viewer session: layer history, breadcrumbs,
// the current render with its bindings, and the side panel.
package navigation

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/gnemet/lookin/internal/binder"
	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/metrics"
	"github.com/gnemet/lookin/internal/panel"
	"github.com/gnemet/lookin/internal/render"
	"github.com/gnemet/lookin/internal/resolver"
	"github.com/gnemet/lookin/internal/visual"
)

// Options configures an Engine.
type Options struct {
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
	// Debounce is the click disambiguation window. Zero means
	// binder.DebounceWindow.
	Debounce time.Duration
	// After replaces time.AfterFunc for click machines in tests.
	After binder.AfterFunc
	// Lang is the initial language, LangEN by default.
	Lang string
}

// Engine is one viewer session. All methods are safe for concurrent use;
// the lock is never held across fetches or renders, and a per-navigation
// sequence token keeps a slow render from replacing a newer one.
type Engine struct {
	doc        *layers.Document
	dispatcher *render.Dispatcher
	panel      *panel.Controller
	observer   Observer
	log        zerolog.Logger
	metrics    *metrics.Metrics
	opts       Options

	// base is the context of actions fired by debounce timers.
	base   context.Context
	cancel context.CancelFunc

	pubMu sync.Mutex

	mu        sync.Mutex
	history   []string
	lang      string
	seq       uint64
	current   *layers.Layer
	state     render.State
	result    render.Result
	bindings  *binder.Set
	unmatched []string
}

// New creates a session over a loaded document. observer may be nil.
func New(doc *layers.Document, dispatcher *render.Dispatcher, pc *panel.Controller, observer Observer, opts Options) *Engine {
	lang := opts.Lang
	if lang != LangHU {
		lang = LangEN
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		doc:        doc,
		dispatcher: dispatcher,
		panel:      pc,
		observer:   observer,
		log:        opts.Logger,
		metrics:    opts.Metrics,
		opts:       opts,
		base:       ctx,
		cancel:     cancel,
		lang:       lang,
	}
}

// Document returns the session's configuration.
func (e *Engine) Document() *layers.Document { return e.doc }

// Start opens the root layer.
func (e *Engine) Start(ctx context.Context) error {
	return e.Home(ctx)
}

// Close stops pending clicks and cancels timer-driven actions.
func (e *Engine) Close() {
	e.mu.Lock()
	set := e.bindings
	e.bindings = nil
	e.mu.Unlock()
	set.Stop()
	e.cancel()
}

// transition computes, under the lock, the layer to show and the history
// it is appended to. ok=false means there is nothing to do.
type transition func(history []string) (target string, rest []string, ok bool)

// GoTo navigates to layerID. A catalog-viewer layer with a catalog context
// opens the table panel instead and leaves history alone. Unknown layers
// return ErrLayerNotFound without any state change.
func (e *Engine) GoTo(ctx context.Context, layerID, catalog string) error {
	if l, ok := e.doc.Layer(layerID); ok && l.IsCatalogViewer() && catalog != "" {
		e.metrics.IncNavigation("panel")
		e.openTable(ctx, catalog)
		return nil
	}
	_, err := e.navigate(ctx, func(h []string) (string, []string, bool) {
		return layerID, h, true
	})
	return err
}

// GoBack returns to the previous layer. It reports false, without
// rendering, when history has a single entry.
func (e *Engine) GoBack(ctx context.Context) (bool, error) {
	return e.navigate(ctx, func(h []string) (string, []string, bool) {
		if len(h) <= 1 {
			return "", h, false
		}
		return h[len(h)-2], h[:len(h)-2], true
	})
}

// JumpTo truncates history before the first occurrence of layerID and
// navigates to it.
func (e *Engine) JumpTo(ctx context.Context, layerID string) error {
	_, err := e.navigate(ctx, func(h []string) (string, []string, bool) {
		if i := slices.Index(h, layerID); i >= 0 {
			return layerID, h[:i], true
		}
		return layerID, h, true
	})
	return err
}

// Home navigates to the root layer.
func (e *Engine) Home(ctx context.Context) error {
	return e.GoTo(ctx, e.doc.RootID(), "")
}

func (e *Engine) navigate(ctx context.Context, t transition) (bool, error) {
	e.mu.Lock()
	target, rest, ok := t(e.history)
	if !ok {
		e.mu.Unlock()
		return false, nil
	}
	layer, found := e.doc.Layer(target)
	if !found {
		e.mu.Unlock()
		e.log.Warn().Str("layer", target).Msg("layer not found")
		e.metrics.IncNavigation("not_found")
		return false, fmt.Errorf("%w: %s", layers.ErrLayerNotFound, target)
	}

	e.history = append(slices.Clip(rest), target)
	e.seq++
	seq := e.seq
	e.current = layer
	e.state = render.Loading
	e.result = render.Result{}
	e.unmatched = nil
	old := e.bindings
	e.bindings = nil
	e.mu.Unlock()

	old.Stop()
	e.panel.Close()
	e.metrics.IncNavigation("ok")
	e.log.Debug().Str("layer", target).Uint64("seq", seq).Msg("navigate")
	e.publish()

	res := e.dispatcher.Render(ctx, layer, func(s render.State) {
		if s == render.Rendering && e.setState(seq, s) {
			e.publish()
		}
	})
	set, unmatched := e.bind(layer, res, seq)

	e.mu.Lock()
	if seq != e.seq {
		e.mu.Unlock()
		set.Stop()
		e.log.Debug().Str("layer", target).Uint64("seq", seq).Msg("discarding stale render")
		return true, nil
	}
	e.state = res.State
	e.result = res
	e.bindings = set
	e.unmatched = unmatched
	e.mu.Unlock()

	e.publish()
	return true, nil
}

func (e *Engine) setState(seq uint64, s render.State) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq {
		return false
	}
	e.state = s
	return true
}

// bind resolves declared nodes or regions against a finished render.
func (e *Engine) bind(layer *layers.Layer, res render.Result, seq uint64) (*binder.Set, []string) {
	if res.State != render.Displayed || res.Visual == nil {
		return nil, nil
	}
	dispatch := func(a binder.Action) { e.perform(e.base, seq, a) }
	if res.Visual.Kind == visual.KindImage {
		return binder.BindRegions(layer, dispatch), nil
	}

	ids := layer.Nodes.IDs()
	r := resolver.ResolveAll(ids, res.Visual.Elements)
	for _, id := range r.Unmatched {
		e.log.Debug().Str("layer", layer.ID).Str("node", id).Msg("node not found in diagram")
	}
	e.metrics.AddUnmatched(layer.ID, len(r.Unmatched))
	e.log.Debug().Str("layer", layer.ID).Int("matched", len(r.Matches)).Int("declared", len(ids)).Msg("nodes bound")

	set := binder.BindNodes(layer, r.Matches, dispatch, binder.Options{Window: e.opts.Debounce, After: e.opts.After})
	return set, r.Unmatched
}

// perform executes a fired action. Actions from a render that has been
// replaced are dropped.
func (e *Engine) perform(ctx context.Context, seq uint64, a binder.Action) {
	e.mu.Lock()
	stale := seq != e.seq
	e.mu.Unlock()
	if stale {
		return
	}
	e.log.Debug().Str("action", a.String()).Msg("action")

	switch a.Kind {
	case binder.ActionNavigate:
		if err := e.GoTo(ctx, a.Target, a.Catalog); err != nil {
			e.log.Debug().Err(err).Msg("drilldown ignored")
		}
	case binder.ActionTable:
		e.openTable(ctx, a.Catalog)
	case binder.ActionDoc:
		e.openDoc(ctx, a.Target, "")
	case binder.ActionDerivedDoc:
		var source string
		if l, ok := e.doc.Layer(a.Layer); ok {
			source = l.File
		}
		e.openDoc(ctx, a.Target, source)
	case binder.ActionURL:
		if e.observer != nil {
			e.observer.OpenURL(a.Target)
		}
	}
}

func (e *Engine) openTable(ctx context.Context, catalog string) {
	if _, ok := e.panel.OpenTable(ctx, catalog); ok {
		e.publish()
	}
}

func (e *Engine) openDoc(ctx context.Context, file, source string) {
	var ok bool
	if source != "" {
		_, ok = e.panel.OpenDocOrSource(ctx, file, source)
	} else {
		_, ok = e.panel.OpenDoc(ctx, file)
	}
	if ok {
		e.publish()
	}
}

// OpenCatalog shows a catalog in the panel.
func (e *Engine) OpenCatalog(ctx context.Context, catalog string) {
	e.openTable(ctx, catalog)
}

// OpenDoc shows a doc in the panel.
func (e *Engine) OpenDoc(ctx context.Context, file string) {
	e.openDoc(ctx, file, "")
}

// ClosePanel closes the side panel.
func (e *Engine) ClosePanel() bool {
	if !e.panel.Close() {
		return false
	}
	e.publish()
	return true
}

// ToggleLang switches between English and Hungarian titles.
func (e *Engine) ToggleLang() string {
	e.mu.Lock()
	if e.lang == LangEN {
		e.lang = LangHU
	} else {
		e.lang = LangEN
	}
	lang := e.lang
	e.mu.Unlock()
	e.publish()
	return lang
}

// Key handles the keyboard surface. Escape closes an open panel, else goes
// back when possible. Backspace goes back unless typed into a text input.
// It reports whether the key did anything.
func (e *Engine) Key(ctx context.Context, key string, inTextInput bool) (bool, error) {
	switch key {
	case "Escape":
		if e.ClosePanel() {
			return true, nil
		}
		return e.GoBack(ctx)
	case "Backspace":
		if inTextInput {
			return false, nil
		}
		return e.GoBack(ctx)
	}
	return false, nil
}

func (e *Engine) currentSet() *binder.Set {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bindings
}

// Click routes a single click on a node of the current diagram. Unknown
// or decorative nodes are ignored.
func (e *Engine) Click(nodeID string) bool {
	return e.currentSet().Click(nodeID)
}

// DoubleClick routes a double click on a node.
func (e *Engine) DoubleClick(nodeID string) bool {
	return e.currentSet().DoubleClick(nodeID)
}

// Activate performs the single or double click action of a node at once,
// without the debounce window, and returns it. Programmatic callers use it
// to wait for the outcome of a click.
func (e *Engine) Activate(ctx context.Context, nodeID string, double bool) (binder.Action, bool) {
	e.mu.Lock()
	seq := e.seq
	b, ok := e.bindings.Binding(nodeID)
	e.mu.Unlock()
	if !ok || !b.Interactive() {
		return binder.Action{}, false
	}
	a := b.Single
	if double {
		a = b.Double
	}
	if a.Kind == binder.ActionNone {
		return a, false
	}
	e.perform(ctx, seq, a)
	return a, true
}

// ClickRegion fires the region at index on the current image.
func (e *Engine) ClickRegion(index int) bool {
	return e.currentSet().ClickRegion(index)
}

// History returns a copy of the navigation history.
func (e *Engine) History() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.history)
}

// View builds a snapshot of the session.
func (e *Engine) View() View {
	pc := e.panel.Content()

	e.mu.Lock()
	defer e.mu.Unlock()

	v := View{
		Seq:         e.seq,
		ConfigTitle: e.doc.Title,
		LayerCount:  len(e.doc.Layers),
		Lang:        e.lang,
		History:     slices.Clone(e.history),
		CanGoBack:   len(e.history) > 1,
		Breadcrumbs: Breadcrumbs(e.doc, e.history, e.lang),
		Render:      RenderView{State: e.state.String()},
		Unmatched:   slices.Clone(e.unmatched),
		Panel:       panelView(pc),
	}
	if e.current != nil {
		v.LayerID = e.current.ID
		v.Title = e.current.LocalizedTitle(e.lang)
		v.Badge = SourceBadge(e.doc, e.current)
	} else {
		v.Badge = SourceBadge(e.doc, nil)
	}
	if e.result.Source != nil {
		v.Render.Strategy = string(e.result.Source.Strategy())
		v.Render.Markup = e.result.Markup
	}
	if e.result.Err != nil {
		v.Render.Error = e.result.Err.Error()
	}
	if vis := e.result.Visual; vis != nil {
		v.Render.ID = vis.ID
		v.Render.SVG = vis.SVG
		v.Render.Image = vis.Image
	}
	v.Nodes = nodeViews(e.bindings)
	v.Regions = regionViews(e.bindings)
	return v
}

func (e *Engine) publish() {
	if e.observer == nil {
		return
	}
	e.pubMu.Lock()
	defer e.pubMu.Unlock()
	e.observer.ViewChanged(e.View())
}
