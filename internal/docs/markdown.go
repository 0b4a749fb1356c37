package docs

import (
	"fmt"
	"strings"
)

// Table renders a GitHub-flavored markdown table.
func Table(headers []string, rows [][]string) string {
	var b strings.Builder
	b.WriteString("| " + strings.Join(escapeCells(headers), " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(headers)) + "\n")
	for _, row := range rows {
		cells := make([]string, len(headers))
		copy(cells, row)
		b.WriteString("| " + strings.Join(escapeCells(cells), " | ") + " |\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Section renders a level-2 heading followed by body.
func Section(title, body string) string {
	return fmt.Sprintf("\n## %s\n%s\n", title, body)
}

// Steps renders numbered steps as a two-column table.
func Steps(steps []string) string {
	rows := make([][]string, len(steps))
	for i, s := range steps {
		rows[i] = []string{fmt.Sprintf("%d", i+1), s}
	}
	return Table([]string{"Step", "What happens"}, rows)
}

func escapeCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "|", `\|`)
		out[i] = strings.ReplaceAll(c, "\n", " ")
	}
	return out
}

func code(s string) string {
	if s == "" {
		return ""
	}
	return "`" + s + "`"
}
