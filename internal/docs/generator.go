// Package docs generates markdown documentation from the catalog files of
// a content directory.
package docs

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/rs/zerolog"

	"github.com/gnemet/lookin/internal/panel"
	"github.com/gnemet/lookin/internal/progress"
	"github.com/gnemet/lookin/internal/resource"
)

// CatalogPattern selects the catalogs the generator reads.
const CatalogPattern = "catalogs/**/*.json"

// Source is a fetcher that can also list its resources.
type Source interface {
	resource.Fetcher
	List(pattern string) ([]string, error)
}

// CatalogFile is a discovered catalog. Catalog is nil when Err is set.
type CatalogFile struct {
	Name    string // file name without extension
	Path    string
	Catalog *panel.Catalog
	Err     error
}

// Kind classifies a catalog by its name prefix.
func (c CatalogFile) Kind() string {
	switch {
	case strings.HasPrefix(c.Name, "fact_"):
		return "Fact"
	case strings.HasPrefix(c.Name, "dim_"):
		return "Dim"
	}
	return ""
}

func (c CatalogFile) description() string {
	if c.Catalog == nil {
		return ""
	}
	return c.Catalog.Description
}

// Output is one generated document.
type Output struct {
	Name  string
	Path  string
	Lines int
}

type document struct {
	name string
	tmpl string
	data func(cats []CatalogFile) any
}

var documents = []document{
	{name: "architecture", tmpl: architectureTemplate, data: architectureData},
	{name: "star_schema", tmpl: starSchemaTemplate, data: starSchemaData},
	{name: "catalogs", tmpl: catalogsTemplate, data: catalogsData},
}

// Plan returns the file names Generate would write.
func Plan() []string {
	names := make([]string, len(documents))
	for i, d := range documents {
		names[i] = d.name + ".md"
	}
	return names
}

// Generator writes catalog-driven documentation.
type Generator struct {
	Source    Source
	OutputDir string
	Reporter  progress.Reporter
	Log       zerolog.Logger
}

// Catalogs discovers and decodes every catalog. Unreadable catalogs are
// returned with Err set.
func (g *Generator) Catalogs(ctx context.Context) ([]CatalogFile, error) {
	names, err := g.Source.List(CatalogPattern)
	if err != nil {
		return nil, err
	}
	cats := make([]CatalogFile, 0, len(names))
	for _, p := range names {
		base := path.Base(p)
		cf := CatalogFile{Name: strings.TrimSuffix(base, path.Ext(base)), Path: p}
		data, err := g.Source.Fetch(ctx, p)
		if err == nil {
			cf.Catalog, err = panel.ParseCatalog(base, data)
		}
		if err != nil {
			g.Log.Warn().Err(err).Str("catalog", p).Msg("skipping unreadable catalog")
			cf.Err = err
		}
		cats = append(cats, cf)
	}
	return cats, nil
}

// Generate writes every document to OutputDir.
func (g *Generator) Generate(ctx context.Context) ([]Output, error) {
	cats, err := g.Catalogs(ctx)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		return nil, err
	}

	rep := g.Reporter
	if rep == nil {
		rep = progress.Nop{}
	}
	rep.Start(len(documents))
	defer rep.Finish()

	var outputs []Output
	for i, d := range documents {
		content, err := render(d, cats)
		if err != nil {
			return outputs, fmt.Errorf("rendering %s: %w", d.name, err)
		}
		content = strings.TrimSpace(content) + "\n"
		outPath := filepath.Join(g.OutputDir, d.name+".md")
		if err := os.WriteFile(outPath, []byte(content), 0o644); err != nil {
			return outputs, err
		}
		outputs = append(outputs, Output{Name: d.name + ".md", Path: outPath, Lines: strings.Count(content, "\n")})
		rep.Update(i+1, d.name+".md")
	}
	return outputs, nil
}

func render(d document, cats []CatalogFile) (string, error) {
	tmpl, err := template.New(d.name).Funcs(templateFuncs).Parse(d.tmpl)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, d.data(cats)); err != nil {
		return "", err
	}
	return b.String(), nil
}

// templateFuncs provides helper functions for the markdown templates.
var templateFuncs = template.FuncMap{
	"section": Section,
	"table":   Table,
	"code":    code,
}

func architectureData(cats []CatalogFile) any {
	var rows [][]string
	schemas := map[string]int{}
	var order []string
	for _, c := range cats {
		if k := c.Kind(); k != "" {
			rows = append(rows, []string{code(c.Name), k, c.description()})
		}
		if c.Catalog != nil && c.Catalog.Schema != "" {
			if schemas[c.Catalog.Schema] == 0 {
				order = append(order, c.Catalog.Schema)
			}
			schemas[c.Catalog.Schema]++
		}
	}

	keyTables := "No fact or dimension catalogs found."
	if len(rows) > 0 {
		keyTables = Table([]string{"Table", "Type", "Description"}, rows)
	}
	var schemaRows [][]string
	for _, s := range order {
		schemaRows = append(schemaRows, []string{code(s), fmt.Sprintf("%d", schemas[s])})
	}
	var schemaTable string
	if len(schemaRows) > 0 {
		schemaTable = Table([]string{"Schema", "Catalogs"}, schemaRows)
	}
	return struct {
		Count     int
		KeyTables string
		Schemas   string
	}{len(cats), keyTables, schemaTable}
}

func starSchemaData(cats []CatalogFile) any {
	var facts []CatalogFile
	var dimRows [][]string
	for _, c := range cats {
		if c.Catalog == nil {
			continue
		}
		switch c.Kind() {
		case "Fact":
			facts = append(facts, c)
		case "Dim":
			key := ""
			if len(c.Catalog.Rows) > 0 && len(c.Catalog.Rows[0]) > 0 {
				key = code(c.Catalog.Rows[0][0])
			}
			dimRows = append(dimRows, []string{code(c.Name), key, c.Catalog.Description})
		}
	}
	var dims string
	if len(dimRows) > 0 {
		dims = Table([]string{"Dim", "Key", "Description"}, dimRows)
	}
	return struct {
		Facts []CatalogFile
		Dims  string
	}{facts, dims}
}

func catalogsData(cats []CatalogFile) any {
	var rows, broken [][]string
	for _, c := range cats {
		if c.Catalog == nil {
			broken = append(broken, []string{code(c.Path), c.Err.Error()})
			continue
		}
		rows = append(rows, []string{
			code(c.Path),
			c.Catalog.Title,
			c.Catalog.Shape.String(),
			fmt.Sprintf("%d", len(c.Catalog.Rows)),
			c.Catalog.Description,
		})
	}
	index := "No catalogs found."
	if len(rows) > 0 {
		index = Table([]string{"File", "Title", "Shape", "Columns", "Description"}, rows)
	}
	var brokenTable string
	if len(broken) > 0 {
		brokenTable = Table([]string{"File", "Error"}, broken)
	}
	return struct {
		Count  int
		Index  string
		Broken string
		Shapes string
	}{
		Count:  len(cats),
		Index:  index,
		Broken: brokenTable,
		Shapes: Steps([]string{
			"Typed: each column maps to a type and a description.",
			"Labeled: each column maps to English and Hungarian labels.",
			"Legacy list: a list of column objects with aliased field names.",
			"Unknown: shown with headers and an empty column table.",
		}),
	}
}
