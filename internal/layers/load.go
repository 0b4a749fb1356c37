package layers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gnemet/lookin/internal/resource"
)

// ErrLayerNotFound is returned when a navigation names an unknown layer.
var ErrLayerNotFound = errors.New("layer not found")

// ConfigPath returns the content-relative path of a named configuration.
func ConfigPath(name string) string {
	return "configs/" + name + ".yaml"
}

// Load fetches and parses the configuration called name.
func Load(ctx context.Context, fetcher resource.Fetcher, name string) (*Document, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("config name is required")
	}
	data, err := fetcher.Fetch(ctx, ConfigPath(name))
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", name, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %q: %w", name, err)
	}
	if doc.Title == "" {
		doc.Title = name
	}
	return doc, nil
}

// Parse decodes a configuration document.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if len(doc.Layers) == 0 {
		return nil, fmt.Errorf("config declares no layers")
	}
	doc.reindex()
	return &doc, nil
}

// Marshal encodes the document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}

// Issue is a non-fatal configuration problem found by Validate.
type Issue struct {
	Layer   string
	Subject string
	Message string
}

func (i Issue) String() string {
	if i.Subject == "" {
		return fmt.Sprintf("layer %s: %s", i.Layer, i.Message)
	}
	return fmt.Sprintf("layer %s, %s: %s", i.Layer, i.Subject, i.Message)
}

// Validate reports dangling references. None of these are fatal at runtime:
// a drilldown to a missing layer simply does nothing.
func (d *Document) Validate() []Issue {
	var issues []Issue

	seen := make(map[string]bool, len(d.Layers))
	for _, l := range d.Layers {
		if l.ID == "" {
			issues = append(issues, Issue{Layer: "?", Message: "layer without id"})
			continue
		}
		if seen[l.ID] {
			issues = append(issues, Issue{Layer: l.ID, Message: "duplicate layer id (first declaration wins)"})
		}
		seen[l.ID] = true
	}

	if _, ok := d.Layer(d.RootID()); !ok {
		issues = append(issues, Issue{Layer: d.RootID(), Message: "root layer is not declared"})
	}

	for _, l := range d.Layers {
		if l.Source != "" {
			if _, ok := d.Sources[l.Source]; !ok {
				issues = append(issues, Issue{Layer: l.ID, Message: fmt.Sprintf("unknown source %q", l.Source)})
			}
		}
		if l.Render == RenderImage && l.Image == "" {
			issues = append(issues, Issue{Layer: l.ID, Message: "render: image without an image reference"})
		}
		for _, e := range l.Nodes.Entries() {
			if msg := d.checkDrilldown(e.Node.Drilldown, e.Node.Catalog); msg != "" {
				issues = append(issues, Issue{Layer: l.ID, Subject: "node " + e.ID, Message: msg})
			}
		}
		for i, r := range l.ClickRegions {
			subject := fmt.Sprintf("region %d", i)
			if r.Label != "" {
				subject = fmt.Sprintf("region %d (%s)", i, r.Label)
			}
			if len(r.Rect) != 0 && len(r.Rect) != 4 {
				issues = append(issues, Issue{Layer: l.ID, Subject: subject, Message: "rect must have 4 values"})
			}
			if r.URL == "" {
				if msg := d.checkDrilldown(r.Drilldown, r.Catalog); msg != "" {
					issues = append(issues, Issue{Layer: l.ID, Subject: subject, Message: msg})
				}
			}
		}
	}
	return issues
}

func (d *Document) checkDrilldown(target, catalog string) string {
	switch {
	case target == "":
		return ""
	case target == DrilldownTable:
		if catalog == "" {
			return "drilldown: table without a catalog"
		}
		return ""
	}
	if _, ok := d.Layer(target); !ok {
		return fmt.Sprintf("drilldown target %q is not a layer", target)
	}
	return ""
}
