// Package render chooses how a layer is drawn and produces its visual.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/gnemet/lookin/internal/diagrams"
	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/metrics"
	"github.com/gnemet/lookin/internal/resource"
	"github.com/gnemet/lookin/internal/visual"
)

// ErrNoRenderer is returned when markup must be rendered but no diagram
// renderer is configured.
var ErrNoRenderer = errors.New("no diagram renderer available")

// State of one render.
type State int

const (
	Idle State = iota
	Loading
	Rendering
	Displayed
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Rendering:
		return "rendering"
	case Displayed:
		return "displayed"
	case Failed:
		return "error"
	}
	return "unknown"
}

// Result is the outcome of rendering a layer. A failed result carries the
// error; the caller shows it in place of the visual.
type Result struct {
	Layer  string
	Source Source
	State  State
	Visual *visual.Visual
	// Markup is the normalized text handed to the renderer.
	Markup string
	Err    error
}

// Options configures a Dispatcher.
type Options struct {
	Logger  zerolog.Logger
	Metrics *metrics.Metrics
}

// Dispatcher renders layers. It holds no per-navigation state and may be
// shared by sessions.
type Dispatcher struct {
	fetcher  resource.Fetcher
	renderer visual.Renderer
	log      zerolog.Logger
	metrics  *metrics.Metrics
	newID    func() string
}

// NewDispatcher returns a dispatcher. renderer may be nil when no diagram
// capability is available.
func NewDispatcher(fetcher resource.Fetcher, renderer visual.Renderer, opts Options) *Dispatcher {
	return &Dispatcher{
		fetcher:  fetcher,
		renderer: renderer,
		log:      opts.Logger,
		metrics:  opts.Metrics,
		newID:    func() string { return "mmd-" + uuid.NewString() },
	}
}

// HasRenderer reports whether a diagram renderer is configured.
func (d *Dispatcher) HasRenderer() bool { return d.renderer != nil }

// RendererName names the configured renderer, or "none".
func (d *Dispatcher) RendererName() string {
	if d.renderer == nil {
		return visual.RendererNone
	}
	return d.renderer.Name()
}

// Render draws a layer. progress, when not nil, is told about the loading
// and rendering transitions. Failures never panic or retry; they come back
// as a Failed result.
func (d *Dispatcher) Render(ctx context.Context, layer *layers.Layer, progress func(State)) Result {
	if progress == nil {
		progress = func(State) {}
	}
	src := Select(ctx, layer, d.fetcher, d.renderer)
	res := Result{Layer: layer.ID, Source: src}

	progress(Loading)
	switch s := src.(type) {
	case ImageSource:
		res.Visual, res.Err = d.image(ctx, layer, s)
	case DiagramSource:
		var markup []byte
		markup, res.Err = d.fetcher.Fetch(ctx, s.File)
		if res.Err == nil {
			res.Markup = diagrams.EnsureDirective(string(markup))
			progress(Rendering)
			res.Visual, res.Err = d.diagram(ctx, res.Markup)
		}
	case SynthesizedSource:
		res.Markup = diagrams.EnsureDirective(diagrams.ChainDiagram(s.NodeIDs))
		progress(Rendering)
		res.Visual, res.Err = d.diagram(ctx, res.Markup)
	}

	res.State = Displayed
	if res.Err != nil {
		res.State = Failed
		res.Visual = nil
		d.log.Warn().Err(res.Err).Str("layer", layer.ID).Str("strategy", string(src.Strategy())).Msg("render failed")
	} else {
		d.log.Debug().Str("layer", layer.ID).Str("strategy", string(src.Strategy())).Msg("rendered")
	}
	d.metrics.IncRender(string(src.Strategy()), res.State.String())
	progress(res.State)
	return res
}

func (d *Dispatcher) diagram(ctx context.Context, markup string) (*visual.Visual, error) {
	if d.renderer == nil {
		return nil, ErrNoRenderer
	}
	v, err := d.renderer.Render(ctx, d.newID(), markup)
	if err != nil {
		return nil, fmt.Errorf("rendering diagram: %w", err)
	}
	return v, nil
}

func (d *Dispatcher) image(ctx context.Context, layer *layers.Layer, s ImageSource) (*visual.Visual, error) {
	data, err := d.fetcher.Fetch(ctx, s.File)
	if err != nil {
		return nil, err
	}
	img := &visual.Image{Src: s.File, Alt: layer.Title}
	if !strings.EqualFold(path.Ext(s.File), ".svg") {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("reading image %s: %w", s.File, err)
		}
		img.Width, img.Height = cfg.Width, cfg.Height
	}
	return &visual.Visual{ID: d.newID(), Kind: visual.KindImage, Image: img}, nil
}
