package navigation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gnemet/lookin/internal/binder"
	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/panel"
	"github.com/gnemet/lookin/internal/render"
	"github.com/gnemet/lookin/internal/resource"
	"github.com/gnemet/lookin/internal/visual"
)

func contentDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("unable to determine test file location")
	}
	return filepath.Join(filepath.Dir(filename), "..", "..", "testdata", "content")
}

// recorder is an Observer that keeps everything it is told.
type recorder struct {
	mu    sync.Mutex
	views []View
	urls  []string
}

func (r *recorder) ViewChanged(v View) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.views = append(r.views, v)
}

func (r *recorder) OpenURL(url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.urls = append(r.urls, url)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.views)
}

// manualClock runs debounce callbacks when the test says so.
type manualClock struct {
	mu    sync.Mutex
	funcs []*manualTimer
}

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.stopped = true
	return true
}

func (c *manualClock) After(_ time.Duration, f func()) binder.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.funcs = append(c.funcs, t)
	return t
}

func (c *manualClock) elapse() {
	c.mu.Lock()
	funcs := c.funcs
	c.funcs = nil
	c.mu.Unlock()
	for _, t := range funcs {
		if !t.stopped {
			t.f()
		}
	}
}

type fixture struct {
	engine *Engine
	obs    *recorder
	clock  *manualClock
}

func newFixture(t *testing.T, fetcher resource.Fetcher, doc *layers.Document, renderer visual.Renderer) *fixture {
	t.Helper()
	log := zerolog.Nop()
	obs := &recorder{}
	clock := &manualClock{}
	d := render.NewDispatcher(fetcher, renderer, render.Options{Logger: log})
	pc := panel.NewController(fetcher, panel.Options{Markdown: true, Logger: log})
	e := New(doc, d, pc, obs, Options{Logger: log, After: clock.After})
	t.Cleanup(e.Close)
	return &fixture{engine: e, obs: obs, clock: clock}
}

func startFixture(t *testing.T) *fixture {
	t.Helper()
	f := resource.NewDirFetcher(contentDir(t))
	doc, err := layers.Load(context.Background(), f, "jira-monitor")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	fx := newFixture(t, f, doc, visual.Outline{})
	if err := fx.engine.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return fx
}

func mustGoTo(t *testing.T, e *Engine, id string) {
	t.Helper()
	if err := e.GoTo(context.Background(), id, ""); err != nil {
		t.Fatalf("GoTo(%s): %v", id, err)
	}
}

func TestStart(t *testing.T) {
	fx := startFixture(t)
	v := fx.engine.View()

	if v.LayerID != "enterprise" || v.Title != "Enterprise" {
		t.Errorf("layer = %s %q", v.LayerID, v.Title)
	}
	if !v.Badge.Default || v.Badge.Label != DefaultBadge {
		t.Errorf("badge = %+v", v.Badge)
	}
	if v.Render.State != "displayed" || v.Render.Strategy != "diagram" || v.Render.SVG == "" {
		t.Errorf("render = %+v", v.Render)
	}
	if v.ConfigTitle != "Jira Monitor" || v.LayerCount != 5 {
		t.Errorf("footer = %q %d", v.ConfigTitle, v.LayerCount)
	}
	if len(v.Nodes) != 4 || len(v.Unmatched) != 0 {
		t.Fatalf("nodes = %+v unmatched = %v", v.Nodes, v.Unmatched)
	}
	for _, n := range v.Nodes {
		switch n.NodeID {
		case "JOHANNA":
			if n.Class != binder.ClassDoc || !n.Interactive {
				t.Errorf("JOHANNA = %+v", n)
			}
		case "LDAP":
			if n.Interactive || n.Class != "" {
				t.Errorf("LDAP should be decorative: %+v", n)
			}
		case "JIRA":
			if n.Tooltip != "Jira source system" || n.ElementID != "flowchart-JIRA-0" {
				t.Errorf("JIRA = %+v", n)
			}
		}
	}
	if fx.obs.count() < 2 {
		t.Errorf("expected loading and displayed views, got %d", fx.obs.count())
	}
}

func TestHistoryLengthTracksNavigations(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine
	for _, id := range []string{"dwh", "star_schema", "ingestion"} {
		mustGoTo(t, e, id)
		h := e.History()
		if h[len(h)-1] != id {
			t.Errorf("last = %s, want %s", h[len(h)-1], id)
		}
	}
	if n := len(e.History()); n != 4 {
		t.Errorf("history length = %d, want 4", n)
	}
}

func TestGoBack(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine

	before := fx.obs.count()
	moved, err := e.GoBack(context.Background())
	if err != nil || moved {
		t.Fatalf("GoBack at root = %v, %v", moved, err)
	}
	if fx.obs.count() != before || len(e.History()) != 1 {
		t.Error("GoBack at root must not render or change history")
	}

	mustGoTo(t, e, "dwh")
	mustGoTo(t, e, "star_schema")
	if moved, _ := e.GoBack(context.Background()); !moved {
		t.Fatal("GoBack did not move")
	}
	if got := strings.Join(e.History(), ","); got != "enterprise,dwh" {
		t.Errorf("history = %s", got)
	}
	if v := e.View(); v.LayerID != "dwh" || v.Render.State != "displayed" {
		t.Errorf("view = %s %s", v.LayerID, v.Render.State)
	}
}

func TestJumpToAndBreadcrumbs(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine
	mustGoTo(t, e, "dwh")
	mustGoTo(t, e, "enterprise")
	mustGoTo(t, e, "ingestion")

	v := e.View()
	var ids []string
	for _, c := range v.Breadcrumbs {
		ids = append(ids, c.ID)
	}
	if strings.Join(ids, ",") != "enterprise,dwh,ingestion" {
		t.Errorf("crumbs = %v", ids)
	}
	last := v.Breadcrumbs[len(v.Breadcrumbs)-1]
	if !last.Current || v.Breadcrumbs[0].Current {
		t.Errorf("current flags = %+v", v.Breadcrumbs)
	}

	if err := e.JumpTo(context.Background(), "dwh"); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(e.History(), ","); got != "enterprise,dwh" {
		t.Errorf("history after jump = %s", got)
	}

	if err := e.JumpTo(context.Background(), "star_schema"); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(e.History(), ","); got != "enterprise,dwh,star_schema" {
		t.Errorf("jump to unvisited layer = %s", got)
	}
}

func TestGoTo_UnknownLayer(t *testing.T) {
	fx := startFixture(t)
	before := fx.obs.count()
	err := fx.engine.GoTo(context.Background(), "nope", "")
	if !errors.Is(err, layers.ErrLayerNotFound) {
		t.Fatalf("err = %v", err)
	}
	if len(fx.engine.History()) != 1 || fx.obs.count() != before {
		t.Error("unknown layer changed state")
	}
}

func TestGoTo_CatalogViewerOpensPanel(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine
	if err := e.GoTo(context.Background(), "columns", "dim_issue_h.json"); err != nil {
		t.Fatal(err)
	}
	v := e.View()
	if len(v.History) != 1 || v.LayerID != "enterprise" {
		t.Errorf("history changed: %v", v.History)
	}
	if v.Panel.Mode != "table" || v.Panel.Title != "dim_issue_h" {
		t.Errorf("panel = %+v", v.Panel)
	}
}

func TestNavigationClosesPanel(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine
	e.OpenDoc(context.Background(), "johanna.md")
	if e.View().Panel.Mode != "doc" {
		t.Fatal("doc panel did not open")
	}
	mustGoTo(t, e, "dwh")
	if e.View().Panel.Mode != "closed" {
		t.Error("main navigation must close the panel")
	}
}

func TestClick_DrillsDownAfterWindow(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine

	if !e.Click("DWH") {
		t.Fatal("DWH click not accepted")
	}
	if len(e.History()) != 1 {
		t.Fatal("navigated before the debounce window elapsed")
	}
	fx.clock.elapse()
	if v := e.View(); v.LayerID != "dwh" || len(v.History) != 2 {
		t.Errorf("after click: %s %v", v.LayerID, v.History)
	}
	if e.Click("LDAP") || e.Click("GHOST") {
		t.Error("decorative or unknown node accepted a click")
	}
}

func TestClick_TableSentinelOpensPanel(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine
	mustGoTo(t, e, "dwh")

	e.Click("DIM_USER")
	fx.clock.elapse()
	v := e.View()
	if v.LayerID != "dwh" || len(v.History) != 2 {
		t.Errorf("table click navigated: %v", v.History)
	}
	if v.Panel.Mode != "table" || !strings.Contains(v.Panel.HTML, "Label (EN)") {
		t.Errorf("panel = %+v", v.Panel)
	}
}

func TestClick_DrilldownWithCatalogContext(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine
	mustGoTo(t, e, "dwh")

	e.Click("DIM_ISSUE")
	fx.clock.elapse()
	v := e.View()
	if v.LayerID != "dwh" {
		t.Errorf("catalog viewer drilldown navigated to %s", v.LayerID)
	}
	if v.Panel.Title != "dim_issue_h" || !strings.Contains(v.Panel.HTML, "Workflow status") {
		t.Errorf("panel = %+v", v.Panel)
	}
}

func TestDoubleClick(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine

	e.Click("JOHANNA")
	e.DoubleClick("JOHANNA")
	fx.clock.elapse()
	v := e.View()
	if v.Panel.Mode != "doc" || v.Panel.Title != "johanna" || !strings.Contains(v.Panel.HTML, "<strong>Hungarian</strong>") {
		t.Errorf("panel = %+v", v.Panel)
	}
	if len(v.History) != 1 {
		t.Error("double click must not navigate")
	}
}

func TestActivate(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine
	ctx := context.Background()

	a, ok := e.Activate(ctx, "DWH", false)
	if !ok || a.Kind != binder.ActionNavigate || e.View().LayerID != "dwh" {
		t.Fatalf("activate DWH = %v %v, layer %s", a, ok, e.View().LayerID)
	}
	if _, ok := e.Activate(ctx, "GHOST", false); ok {
		t.Error("unknown node activated")
	}
	a, ok = e.Activate(ctx, "STAR", true)
	if !ok || a.Kind != binder.ActionDerivedDoc || e.View().Panel.Title != "star schema" {
		t.Errorf("derived doc activation = %v, panel %+v", a, e.View().Panel)
	}
	if _, ok := e.Activate(ctx, "FACT_WL", false); !ok || e.View().Panel.Mode != "table" {
		t.Error("catalog node should open its table")
	}
}

func TestDoubleClick_DerivedDocFallsBackToMarkup(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine
	mustGoTo(t, e, "ingestion")

	e.DoubleClick("EXT")
	v := e.View()
	if v.Panel.Mode != "doc" || v.Panel.Ref != "diagrams/dwh.mmd" || v.Panel.Error != "" {
		t.Errorf("panel = %+v", v.Panel)
	}
}

func TestImageRegions(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine
	mustGoTo(t, e, "star_schema")

	v := e.View()
	if v.Render.Strategy != "image" || v.Render.Image == nil || v.Render.Image.Width != 40 {
		t.Fatalf("render = %+v", v.Render)
	}
	if len(v.Regions) != 4 || v.Regions[2].Category != binder.CategoryURL {
		t.Fatalf("regions = %+v", v.Regions)
	}

	if !e.ClickRegion(2) {
		t.Fatal("url region not clicked")
	}
	if len(fx.obs.urls) != 1 || fx.obs.urls[0] != "https://example.com/wiki" {
		t.Errorf("urls = %v", fx.obs.urls)
	}

	e.ClickRegion(0)
	if p := e.View().Panel; p.Mode != "table" {
		t.Errorf("catalog region panel = %+v", p)
	}

	e.ClickRegion(3)
	if v := e.View(); v.LayerID != "dwh" || v.Panel.Mode != "closed" {
		t.Errorf("drilldown region went to %s", v.LayerID)
	}
	if e.ClickRegion(99) {
		t.Error("missing region reported clicked")
	}
}

func TestKeys(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine
	ctx := context.Background()
	mustGoTo(t, e, "dwh")
	e.OpenCatalog(ctx, "dim_user_h.json")

	if ok, _ := e.Key(ctx, "Escape", false); !ok || e.View().Panel.Mode != "closed" {
		t.Fatal("Escape should close the panel first")
	}
	if len(e.History()) != 2 {
		t.Fatal("Escape with an open panel must not go back")
	}
	if ok, _ := e.Key(ctx, "Backspace", true); ok || len(e.History()) != 2 {
		t.Error("Backspace in a text input must be ignored")
	}
	if ok, _ := e.Key(ctx, "Escape", false); !ok || e.View().LayerID != "enterprise" {
		t.Error("Escape without a panel should go back")
	}
	if ok, _ := e.Key(ctx, "Escape", false); ok {
		t.Error("Escape at root should do nothing")
	}
	mustGoTo(t, e, "dwh")
	if ok, _ := e.Key(ctx, "Backspace", false); !ok || e.View().LayerID != "enterprise" {
		t.Error("Backspace should go back")
	}
	if ok, _ := e.Key(ctx, "Enter", false); ok {
		t.Error("unbound key reported handled")
	}
}

func TestToggleLangAndBadge(t *testing.T) {
	fx := startFixture(t)
	e := fx.engine
	mustGoTo(t, e, "dwh")

	if lang := e.ToggleLang(); lang != LangHU {
		t.Fatalf("lang = %s", lang)
	}
	v := e.View()
	if v.Title != "Adattárház" || v.Breadcrumbs[0].Label != "Vállalat" {
		t.Errorf("hu view = %q %+v", v.Title, v.Breadcrumbs)
	}

	mustGoTo(t, e, "ingestion")
	v = e.View()
	if v.Title != "Ingestion" {
		t.Errorf("missing title_hu should fall back, got %q", v.Title)
	}
	if v.Badge.Label != "Jira (Oracle)" || v.Badge.Color != "#f39c12" || v.Badge.Default {
		t.Errorf("badge = %+v", v.Badge)
	}
	if e.ToggleLang() != LangEN {
		t.Error("toggle should return to en")
	}
}

func TestUnmatchedNodesCounted(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "diagrams"), 0o755); err != nil {
		t.Fatal(err)
	}
	mmd := "graph LR\n    A[\"Alpha\"] --> B[\"Data Warehouse\"]\n"
	if err := os.WriteFile(filepath.Join(dir, "diagrams", "x.mmd"), []byte(mmd), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := layers.Parse([]byte(`
layers:
  - id: enterprise
    title: X
    file: diagrams/x.mmd
    nodes:
      A: {drilldown: enterprise}
      DATA_WH: {doc: dwh.md}
      GHOST: {drilldown: enterprise}
`))
	if err != nil {
		t.Fatal(err)
	}
	fx := newFixture(t, resource.NewDirFetcher(dir), doc, visual.Outline{})
	if err := fx.engine.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	v := fx.engine.View()
	if len(v.Nodes) != 2 || strings.Join(v.Unmatched, ",") != "GHOST" {
		t.Errorf("nodes = %+v unmatched = %v", v.Nodes, v.Unmatched)
	}
	for _, n := range v.Nodes {
		if n.NodeID == "DATA_WH" && n.Strategy != "label_text" {
			t.Errorf("DATA_WH strategy = %s", n.Strategy)
		}
	}
}

func TestRenderFailureStillAdvancesHistory(t *testing.T) {
	f := resource.NewDirFetcher(contentDir(t))
	doc, err := layers.Load(context.Background(), f, "jira-monitor")
	if err != nil {
		t.Fatal(err)
	}
	fx := newFixture(t, f, doc, nil)
	if err := fx.engine.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	v := fx.engine.View()
	if v.Render.State != "error" || !strings.Contains(v.Render.Error, "no diagram renderer") {
		t.Errorf("render = %+v", v.Render)
	}
	if len(v.History) != 1 || len(v.Nodes) != 0 {
		t.Errorf("view = %+v", v)
	}
}

// gateRenderer blocks renders whose markup contains block until released.
type gateRenderer struct {
	visual.Outline
	block   string
	started chan struct{}
	release chan struct{}
}

func (g *gateRenderer) Render(ctx context.Context, id, markup string) (*visual.Visual, error) {
	if strings.Contains(markup, g.block) {
		close(g.started)
		<-g.release
	}
	return g.Outline.Render(ctx, id, markup)
}

func TestStaleRenderDiscarded(t *testing.T) {
	f := resource.NewDirFetcher(contentDir(t))
	doc, err := layers.Load(context.Background(), f, "jira-monitor")
	if err != nil {
		t.Fatal(err)
	}
	g := &gateRenderer{block: "FACT_WL", started: make(chan struct{}), release: make(chan struct{})}
	fx := newFixture(t, f, doc, g)
	e := fx.engine
	if err := e.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = e.GoTo(context.Background(), "dwh", "")
	}()
	<-g.started
	mustGoTo(t, e, "ingestion")
	close(g.release)
	<-done

	v := e.View()
	if v.LayerID != "ingestion" || v.Render.Strategy != "synthesized" {
		t.Errorf("view = %s %s", v.LayerID, v.Render.Strategy)
	}
	for _, n := range v.Nodes {
		if strings.HasPrefix(n.NodeID, "FACT") || n.NodeID == "STAR" {
			t.Errorf("stale bindings installed: %+v", v.Nodes)
		}
	}
	if got := strings.Join(v.History, ","); got != "enterprise,dwh,ingestion" {
		t.Errorf("history = %s", got)
	}
}

func TestBreadcrumbs(t *testing.T) {
	doc, err := layers.Parse([]byte(`
layers:
  - {id: a, title: A}
  - {id: b, title: B, title_hu: Bé}
  - {id: c, title: C}
`))
	if err != nil {
		t.Fatal(err)
	}
	crumbs := Breadcrumbs(doc, []string{"a", "b", "a", "c"}, LangHU)
	if len(crumbs) != 3 {
		t.Fatalf("crumbs = %+v", crumbs)
	}
	if crumbs[1].Label != "Bé" || crumbs[2].ID != "c" || !crumbs[2].Current || crumbs[0].Current {
		t.Errorf("crumbs = %+v", crumbs)
	}
	if got := Breadcrumbs(doc, []string{"a", "zzz"}, LangEN); len(got) != 1 || got[0].Current {
		t.Errorf("missing ids should be skipped, got %+v", got)
	}
}
