package panel

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Shape is a known catalog layout.
type Shape int

const (
	ShapeUnknown Shape = iota
	// ShapeTyped maps column name to {type, desc|description}.
	ShapeTyped
	// ShapeLabeled maps column name to {labels: {en, hu}}.
	ShapeLabeled
	// ShapeLegacyList is a list of column objects with aliased field names.
	ShapeLegacyList
)

func (s Shape) String() string {
	switch s {
	case ShapeTyped:
		return "typed"
	case ShapeLabeled:
		return "labeled"
	case ShapeLegacyList:
		return "legacy_list"
	}
	return "unknown"
}

// Catalog is a decoded catalog document.
type Catalog struct {
	Title       string
	Description string
	Schema      string
	TableType   string
	Shape       Shape
	Headers     []string
	Rows        [][]string
}

// HasMeta reports whether the catalog carries a metadata header.
func (c *Catalog) HasMeta() bool {
	return c.Description != "" || c.Schema != "" || c.TableType != ""
}

// ParseCatalog decodes a JSON or YAML catalog. Column order follows the
// document. name is the catalog file name and supplies the default title.
func ParseCatalog(name string, data []byte) (*Catalog, error) {
	// JSON is valid YAML once tabs, which JSON allows only as whitespace
	// outside strings, are replaced.
	data = bytes.ReplaceAll(data, []byte("\t"), []byte(" "))

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", name, err)
	}
	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}

	c := &Catalog{Title: DefaultTableTitle(name)}
	if root.Kind == yaml.MappingNode {
		if t := scalar(root, "title"); t != "" {
			c.Title = t
		}
		c.Description = scalar(root, "description")
		c.Schema = scalar(root, "schema")
		c.TableType = scalar(root, "table_type")
	}

	cols := Columns(root)
	c.Shape = DetectShape(cols)
	c.Headers, c.Rows = Render(c.Shape, cols)
	return c, nil
}

// Columns picks the column container: "columns", else "datagrid.columns",
// else the document itself.
func Columns(root *yaml.Node) *yaml.Node {
	if root == nil {
		return nil
	}
	if root.Kind == yaml.MappingNode {
		if cols := get(root, "columns"); cols != nil {
			return cols
		}
		if dg := get(root, "datagrid"); dg != nil {
			if cols := get(dg, "columns"); cols != nil {
				return cols
			}
		}
	}
	return root
}

// DetectShape inspects the first column entry to decide the layout.
func DetectShape(cols *yaml.Node) Shape {
	if cols == nil {
		return ShapeUnknown
	}
	switch cols.Kind {
	case yaml.SequenceNode:
		if len(cols.Content) == 0 || cols.Content[0].Kind == yaml.MappingNode {
			return ShapeLegacyList
		}
	case yaml.MappingNode:
		if len(cols.Content) < 2 {
			return ShapeUnknown
		}
		first := cols.Content[1]
		if first.Kind != yaml.MappingNode {
			return ShapeUnknown
		}
		if get(first, "type") != nil || get(first, "desc") != nil || get(first, "description") != nil {
			return ShapeTyped
		}
		return ShapeLabeled
	}
	return ShapeUnknown
}

// Render produces headers and rows for a shape. ShapeUnknown renders an
// empty body.
func Render(shape Shape, cols *yaml.Node) ([]string, [][]string) {
	switch shape {
	case ShapeTyped:
		var rows [][]string
		eachPair(cols, func(name string, v *yaml.Node) {
			desc := scalar(v, "desc")
			if desc == "" {
				desc = scalar(v, "description")
			}
			rows = append(rows, []string{name, scalar(v, "type"), desc})
		})
		return []string{"Column", "Type", "Description"}, rows
	case ShapeLabeled:
		var rows [][]string
		eachPair(cols, func(name string, v *yaml.Node) {
			labels := get(v, "labels")
			en := scalar(labels, "en")
			if en == "" {
				en = name
			}
			rows = append(rows, []string{name, en, scalar(labels, "hu")})
		})
		return []string{"Column", "Label (EN)", "Label (HU)"}, rows
	case ShapeLegacyList:
		var rows [][]string
		for _, item := range cols.Content {
			if item.Kind != yaml.MappingNode {
				continue
			}
			rows = append(rows, []string{
				first(item, "field", "name", "column_name"),
				first(item, "type", "data_type"),
				first(item, "label", "description", "comment"),
			})
		}
		return []string{"Column", "Type", "Description"}, rows
	}
	return nil, nil
}

func eachPair(m *yaml.Node, fn func(key string, value *yaml.Node)) {
	if m == nil || m.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		fn(m.Content[i].Value, m.Content[i+1])
	}
}

func get(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

func scalar(m *yaml.Node, key string) string {
	v := get(m, key)
	if v == nil || v.Kind != yaml.ScalarNode || v.Tag == "!!null" {
		return ""
	}
	return v.Value
}

func first(m *yaml.Node, keys ...string) string {
	for _, k := range keys {
		if v := scalar(m, k); v != "" {
			return v
		}
	}
	return ""
}
