package render

import (
	"context"
	"path"
	"strings"

	"github.com/gnemet/lookin/internal/layers"
	"github.com/gnemet/lookin/internal/resource"
	"github.com/gnemet/lookin/internal/visual"
)

// Strategy names how a layer is drawn.
type Strategy string

const (
	StrategyImage       Strategy = "image"
	StrategyDiagram     Strategy = "diagram"
	StrategySynthesized Strategy = "synthesized"
)

// Source is the tagged variant chosen for a layer: exactly one of
// DiagramSource, ImageSource or SynthesizedSource.
type Source interface {
	Strategy() Strategy
}

// DiagramSource renders markup fetched from File.
type DiagramSource struct {
	File string
}

// ImageSource shows a static raster. Fallback is set when the image is a
// pre-rendered stand-in for markup that cannot be rendered.
type ImageSource struct {
	File     string
	Fallback bool
}

// SynthesizedSource renders a chain of boxes, one per declared node.
type SynthesizedSource struct {
	NodeIDs []string
}

func (DiagramSource) Strategy() Strategy     { return StrategyDiagram }
func (ImageSource) Strategy() Strategy       { return StrategyImage }
func (SynthesizedSource) Strategy() Strategy { return StrategySynthesized }

// RasterFallback is the pre-rendered image probed for markup file:
// same basename, .png extension.
func RasterFallback(file string) string {
	return strings.TrimSuffix(file, path.Ext(file)) + ".png"
}

// Select picks the source for a layer:
//
//  1. image mode with an image reference;
//  2. markup without a renderer, when the raster fallback exists;
//  3. markup;
//  4. a chain synthesized from the declared nodes.
func Select(ctx context.Context, layer *layers.Layer, fetcher resource.Fetcher, renderer visual.Renderer) Source {
	if layer.ImageMode() {
		return ImageSource{File: layer.Image}
	}
	if layer.File != "" {
		if renderer == nil {
			if png := RasterFallback(layer.File); fetcher.Exists(ctx, png) {
				return ImageSource{File: png, Fallback: true}
			}
		}
		return DiagramSource{File: layer.File}
	}
	return SynthesizedSource{NodeIDs: layer.Nodes.IDs()}
}
