package render

import (
	"context"
	"errors"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/gnemet/lookin/internal/diagrams"
	"github.com/gnemet/lookin/internal/layers"
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

func loadDoc(t *testing.T) (*layers.Document, resource.Fetcher) {
	t.Helper()
	f := resource.NewDirFetcher(contentDir(t))
	doc, err := layers.Load(context.Background(), f, "jira-monitor")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return doc, f
}

func layer(t *testing.T, doc *layers.Document, id string) *layers.Layer {
	t.Helper()
	l, ok := doc.Layer(id)
	if !ok {
		t.Fatalf("layer %q missing", id)
	}
	return l
}

// recordingRenderer captures the markup it is asked to render.
type recordingRenderer struct {
	markup []string
	err    error
}

func (r *recordingRenderer) Name() string { return "recording" }

func (r *recordingRenderer) Render(ctx context.Context, id, markup string) (*visual.Visual, error) {
	r.markup = append(r.markup, markup)
	if r.err != nil {
		return nil, r.err
	}
	return visual.Outline{}.Render(ctx, id, markup)
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
}

func TestSelect(t *testing.T) {
	doc, f := loadDoc(t)
	ctx := context.Background()
	outline := visual.Outline{}

	if s, ok := Select(ctx, layer(t, doc, "star_schema"), f, outline).(ImageSource); !ok || s.File != "diagrams/star.png" || s.Fallback {
		t.Errorf("image layer source = %#v", s)
	}
	if s, ok := Select(ctx, layer(t, doc, "dwh"), f, outline).(DiagramSource); !ok || s.File != "diagrams/dwh.mmd" {
		t.Errorf("markup layer source = %#v", s)
	}
	s, ok := Select(ctx, layer(t, doc, "ingestion"), f, outline).(SynthesizedSource)
	if !ok || strings.Join(s.NodeIDs, ",") != "ORACLE,EXT,ETL" {
		t.Errorf("synthesized source = %#v", s)
	}
	// No renderer and no raster: still a diagram source.
	if _, ok := Select(ctx, layer(t, doc, "dwh"), f, nil).(DiagramSource); !ok {
		t.Error("missing raster should fall through to markup")
	}
}

func TestSelect_RasterFallback(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "diagrams", "sys.png"), 8, 6)
	f := resource.NewDirFetcher(dir)
	l := &layers.Layer{ID: "sys", File: "diagrams/sys.mmd"}

	s, ok := Select(context.Background(), l, f, nil).(ImageSource)
	if !ok || s.File != "diagrams/sys.png" || !s.Fallback {
		t.Fatalf("source = %#v", s)
	}
	if _, ok := Select(context.Background(), l, f, visual.Outline{}).(DiagramSource); !ok {
		t.Error("raster must not be probed when a renderer exists")
	}

	d := NewDispatcher(f, nil, Options{Logger: zerolog.Nop()})
	res := d.Render(context.Background(), l, nil)
	if res.State != Displayed || res.Visual.Image.Width != 8 || res.Visual.Image.Height != 6 {
		t.Errorf("result = %+v", res)
	}
}

func TestRasterFallback(t *testing.T) {
	tests := map[string]string{
		"diagrams/dwh.mmd": "diagrams/dwh.png",
		"a.b/c":            "a.b/c.png",
		"x.mermaid":        "x.png",
	}
	for in, want := range tests {
		if got := RasterFallback(in); got != want {
			t.Errorf("RasterFallback(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRender_Diagram(t *testing.T) {
	doc, f := loadDoc(t)
	r := &recordingRenderer{}
	d := NewDispatcher(f, r, Options{Logger: zerolog.Nop()})

	var states []State
	res := d.Render(context.Background(), layer(t, doc, "dwh"), func(s State) { states = append(states, s) })
	if res.State != Displayed || res.Err != nil {
		t.Fatalf("result = %+v", res)
	}
	if got := stateNames(states); got != "loading,rendering,displayed" {
		t.Errorf("states = %s", got)
	}
	// dwh.mmd has a theme-only directive: look must be injected, not a
	// second directive prepended.
	if strings.Count(r.markup[0], "%%{") != 1 || !strings.Contains(r.markup[0], "handDrawn") {
		t.Errorf("markup not normalized:\n%s", r.markup[0])
	}
	if !strings.HasPrefix(res.Visual.ID, "mmd-") {
		t.Errorf("visual id = %q", res.Visual.ID)
	}
}

func TestRender_UniqueIDs(t *testing.T) {
	doc, f := loadDoc(t)
	d := NewDispatcher(f, visual.Outline{}, Options{Logger: zerolog.Nop()})
	a := d.Render(context.Background(), layer(t, doc, "enterprise"), nil)
	b := d.Render(context.Background(), layer(t, doc, "enterprise"), nil)
	if a.Visual.ID == b.Visual.ID {
		t.Errorf("render ids repeated: %s", a.Visual.ID)
	}
}

func TestRender_Synthesized(t *testing.T) {
	doc, f := loadDoc(t)
	r := &recordingRenderer{}
	d := NewDispatcher(f, r, Options{Logger: zerolog.Nop()})

	res := d.Render(context.Background(), layer(t, doc, "ingestion"), nil)
	if res.State != Displayed {
		t.Fatalf("result = %+v", res)
	}
	want := diagrams.EnsureDirective(diagrams.ChainDiagram([]string{"ORACLE", "EXT", "ETL"}))
	if r.markup[0] != want {
		t.Errorf("markup =\n%s\nwant\n%s", r.markup[0], want)
	}
	if n := len(res.Visual.Nodes()); n != 3 {
		t.Errorf("nodes = %d, want 3", n)
	}
}

func TestRender_Image(t *testing.T) {
	doc, f := loadDoc(t)
	d := NewDispatcher(f, nil, Options{Logger: zerolog.Nop()})

	res := d.Render(context.Background(), layer(t, doc, "star_schema"), nil)
	if res.State != Displayed {
		t.Fatalf("result = %+v", res)
	}
	img := res.Visual.Image
	if res.Visual.Kind != visual.KindImage || img.Width != 40 || img.Height != 30 || img.Src != "diagrams/star.png" {
		t.Errorf("image = %+v", img)
	}
}

func TestRender_Failures(t *testing.T) {
	doc, f := loadDoc(t)
	ctx := context.Background()

	noRenderer := NewDispatcher(f, nil, Options{Logger: zerolog.Nop()})
	res := noRenderer.Render(ctx, layer(t, doc, "dwh"), nil)
	if res.State != Failed || !errors.Is(res.Err, ErrNoRenderer) || res.Visual != nil {
		t.Errorf("no renderer result = %+v", res)
	}

	d := NewDispatcher(f, visual.Outline{}, Options{Logger: zerolog.Nop()})
	res = d.Render(ctx, &layers.Layer{ID: "ghost", File: "diagrams/ghost.mmd"}, nil)
	if res.State != Failed || !errors.Is(res.Err, resource.ErrNotFound) {
		t.Errorf("missing markup result = %+v", res)
	}

	broken := NewDispatcher(f, &recordingRenderer{err: errors.New("parse error on line 2")}, Options{Logger: zerolog.Nop()})
	res = broken.Render(ctx, layer(t, doc, "enterprise"), nil)
	if res.State != Failed || !strings.Contains(res.Err.Error(), "parse error") {
		t.Errorf("renderer failure result = %+v", res)
	}

	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.png"), []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	img := NewDispatcher(resource.NewDirFetcher(dir), nil, Options{Logger: zerolog.Nop()})
	res = img.Render(ctx, &layers.Layer{ID: "bad", Render: layers.RenderImage, Image: "bad.png"}, nil)
	if res.State != Failed {
		t.Errorf("undecodable image result = %+v", res)
	}
}

func stateNames(states []State) string {
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.String()
	}
	return strings.Join(names, ",")
}
