package docs

const architectureTemplate = `# Data Warehouse

> *Consolidated analytics layer, generated from {{ .Count }} catalog(s)*
{{ section "Key Tables" .KeyTables }}
{{- if .Schemas }}{{ section "Schemas" .Schemas }}{{ end }}
{{- section "Historization" "All ` + "`_h`" + ` tables keep SCD2 history. Use the views without the ` + "`_h`" + ` suffix for current-state queries." }}`

const starSchemaTemplate = `# Star Schema

> *Fact tables with their columns, dimensions with their keys*

## Fact Tables
{{ range .Facts }}
### {{ .Name }}
{{ with .Catalog.Description }}
{{ . }}
{{ end }}
{{ table .Catalog.Headers .Catalog.Rows }}
{{ else }}
See the catalog files for details.
{{ end }}
## Dimension Tables

{{ if .Dims }}{{ .Dims }}{{ else }}See the catalog files.{{ end }}
`

const catalogsTemplate = `# Catalogs

{{ .Count }} catalog file(s) under ` + "`catalogs/`" + `.
{{ section "Index" .Index }}
{{- if .Broken }}{{ section "Unreadable" .Broken }}{{ end }}
{{- section "Shapes" .Shapes }}`
