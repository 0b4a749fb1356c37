package visual

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/gnemet/lookin/internal/diagrams"
)

// Renderer kinds accepted by New.
const (
	RendererAuto    = "auto"
	RendererMMDC    = "mmdc"
	RendererOutline = "outline"
	RendererNone    = "none"
)

// New resolves a renderer setting. "auto" prefers the Mermaid CLI when it
// is installed and falls back to the outline renderer; "none" returns a nil
// Renderer, meaning no diagram capability is available.
func New(kind, mmdcPath string) (Renderer, error) {
	switch kind {
	case RendererNone:
		return nil, nil
	case RendererOutline:
		return Outline{}, nil
	case RendererMMDC:
		path, err := exec.LookPath(mmdcPath)
		if err != nil {
			return nil, fmt.Errorf("mermaid cli %q not found: %w", mmdcPath, err)
		}
		return &MermaidCLI{Path: path}, nil
	case RendererAuto, "":
		if path, err := exec.LookPath(mmdcPath); err == nil {
			return &MermaidCLI{Path: path}, nil
		}
		return Outline{}, nil
	default:
		return nil, fmt.Errorf("unknown renderer %q", kind)
	}
}

// MermaidCLI renders markup by running mermaid-cli (mmdc) and scanning the
// SVG it produces.
type MermaidCLI struct {
	Path    string
	Timeout time.Duration
}

func (m *MermaidCLI) Name() string { return RendererMMDC }

// Render writes the markup to a temp dir, runs mmdc and parses the output.
func (m *MermaidCLI) Render(ctx context.Context, id, markup string) (*Visual, error) {
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dir, err := os.MkdirTemp("", "lookin-mmdc-")
	if err != nil {
		return nil, fmt.Errorf("creating temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	in := filepath.Join(dir, "in.mmd")
	out := filepath.Join(dir, "out.svg")
	if err := os.WriteFile(in, []byte(markup), 0o644); err != nil {
		return nil, fmt.Errorf("writing markup: %w", err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, m.Path, "-i", in, "-o", out, "-b", "transparent", "--svgId", id)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("mmdc: %s", msg)
	}

	svg, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("reading mmdc output: %w", err)
	}
	elements, err := ParseSVG(string(svg))
	if err != nil {
		return nil, err
	}
	return &Visual{ID: id, Kind: KindDiagram, SVG: string(svg), Elements: elements}, nil
}

// Outline is the built-in renderer. It draws the flowchart's nodes as a
// single row or column of boxes in declaration order, using the same id and
// class conventions as Mermaid so node resolution behaves identically.
type Outline struct{}

func (Outline) Name() string { return RendererOutline }

const (
	boxHeight = 44
	boxGap    = 36
	margin    = 20
	charWidth = 8
	minBox    = 120
)

// Render lays the nodes out and returns the SVG.
func (Outline) Render(ctx context.Context, id, markup string) (*Visual, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fc := diagrams.ParseFlowchart(markup)
	horizontal := fc.Direction == "LR" || fc.Direction == "RL"

	type box struct{ x, y, w int }
	boxes := make(map[string]box, len(fc.Nodes))
	maxW := 0
	for _, n := range fc.Nodes {
		if w := len([]rune(n.Label))*charWidth + 24; w > maxW {
			maxW = w
		}
	}
	if maxW < minBox {
		maxW = minBox
	}

	x, y := margin, margin
	for _, n := range fc.Nodes {
		boxes[n.ID] = box{x: x, y: y, w: maxW}
		if horizontal {
			x += maxW + boxGap
		} else {
			y += boxHeight + boxGap
		}
	}
	width, height := maxW+2*margin+60, y+margin
	if horizontal {
		width, height = x+margin, boxHeight+2*margin+60
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" id="%s" class="flowchart outline" viewBox="0 0 %d %d" width="%d" height="%d">`,
		html.EscapeString(id), width, height, width, height)
	b.WriteString(`<g class="nodes">`)
	for i, n := range fc.Nodes {
		bx := boxes[n.ID]
		fmt.Fprintf(&b, `<g class="node default" id="flowchart-%s-%d" transform="translate(%d,%d)">`, html.EscapeString(n.ID), i, bx.x, bx.y)
		fmt.Fprintf(&b, `<rect class="basic label-container" rx="6" width="%d" height="%d"></rect>`, bx.w, boxHeight)
		fmt.Fprintf(&b, `<text x="%d" y="%d" text-anchor="middle" class="nodeLabel">%s</text>`, bx.w/2, boxHeight/2+5, html.EscapeString(n.Label))
		b.WriteString(`</g>`)
	}
	b.WriteString(`</g><g class="edgePaths">`)
	for i, e := range fc.Edges {
		from, ok1 := boxes[e.From]
		to, ok2 := boxes[e.To]
		if !ok1 || !ok2 {
			continue
		}
		var d string
		if horizontal {
			x1, y1 := from.x+from.w, from.y+boxHeight/2
			x2, y2 := to.x, to.y+boxHeight/2
			if to.x < from.x {
				x1, x2 = from.x+from.w/2, to.x+to.w/2
				y1, y2 = from.y+boxHeight, to.y+boxHeight
				d = fmt.Sprintf("M%d %d C%d %d,%d %d,%d %d", x1, y1, x1, y1+50, x2, y2+50, x2, y2)
			} else {
				d = fmt.Sprintf("M%d %d L%d %d", x1, y1, x2, y2)
			}
		} else {
			x1, y1 := from.x+from.w/2, from.y+boxHeight
			x2, y2 := to.x+to.w/2, to.y
			if to.y <= from.y || to.y-from.y > boxHeight+boxGap {
				x1, y1 = from.x+from.w, from.y+boxHeight/2
				x2, y2 = to.x+to.w, to.y+boxHeight/2
				d = fmt.Sprintf("M%d %d C%d %d,%d %d,%d %d", x1, y1, x1+50, y1, x2+50, y2, x2, y2)
			} else {
				d = fmt.Sprintf("M%d %d L%d %d", x1, y1, x2, y2)
			}
		}
		fmt.Fprintf(&b, `<path class="flowchart-link" id="L-%s-%s-%d" d="%s"></path>`,
			html.EscapeString(e.From), html.EscapeString(e.To), i, d)
	}
	b.WriteString(`</g></svg>`)

	svg := b.String()
	elements, err := ParseSVG(svg)
	if err != nil {
		return nil, err
	}
	return &Visual{ID: id, Kind: KindDiagram, SVG: svg, Elements: elements}, nil
}
