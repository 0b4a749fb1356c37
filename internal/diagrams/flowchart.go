package diagrams

import (
	"regexp"
	"strings"
)

// Flowchart is the structural content of a Mermaid flowchart: enough to
// draw an outline of it without a layout engine.
type Flowchart struct {
	Direction string
	Nodes     []FlowNode
	Edges     []FlowEdge
}

// FlowNode is a node in first-appearance order.
type FlowNode struct {
	ID    string
	Label string
}

// FlowEdge links two node ids.
type FlowEdge struct {
	From  string
	To    string
	Label string
}

// arrow matches a link operator at the start of the input, with an
// optional |label|.
var arrow = regexp.MustCompile(`^\s*(?:<?(?:-{2,}|={2,}|-\.+-)[>ox]?)\s*(?:\|([^|]*)\|)?\s*`)

// ParseFlowchart extracts nodes and edges from graph/flowchart markup.
// Directives, comments, styling and subgraph framing are skipped.
func ParseFlowchart(markup string) Flowchart {
	var fc Flowchart
	index := make(map[string]int)

	addNode := func(id, label string) {
		if id == "" {
			return
		}
		if i, ok := index[id]; ok {
			if label != "" && fc.Nodes[i].Label == fc.Nodes[i].ID {
				fc.Nodes[i].Label = label
			}
			return
		}
		if label == "" {
			label = id
		}
		index[id] = len(fc.Nodes)
		fc.Nodes = append(fc.Nodes, FlowNode{ID: id, Label: label})
	}

	for _, rawLine := range strings.Split(markup, "\n") {
		line := strings.TrimSuffix(strings.TrimSpace(rawLine), ";")
		switch {
		case line == "", strings.HasPrefix(line, "%%"), strings.HasPrefix(line, "```"):
			continue
		case strings.HasPrefix(line, "graph ") || strings.HasPrefix(line, "flowchart "):
			if f := strings.Fields(line); len(f) > 1 {
				fc.Direction = f[1]
			}
			continue
		case line == "graph" || line == "flowchart" || line == "end":
			continue
		case strings.HasPrefix(line, "subgraph "),
			strings.HasPrefix(line, "classDef "),
			strings.HasPrefix(line, "class "),
			strings.HasPrefix(line, "style "),
			strings.HasPrefix(line, "linkStyle "),
			strings.HasPrefix(line, "click "),
			strings.HasPrefix(line, "direction "):
			continue
		}

		groups, labels := splitChain(line)
		var prev []string
		for gi, group := range groups {
			var ids []string
			for _, ref := range splitAmp(group) {
				id, label := parseNodeRef(ref)
				addNode(id, label)
				if id != "" {
					ids = append(ids, id)
				}
			}
			if gi > 0 {
				for _, from := range prev {
					for _, to := range ids {
						fc.Edges = append(fc.Edges, FlowEdge{From: from, To: to, Label: labels[gi-1]})
					}
				}
			}
			prev = ids
		}
	}
	return fc
}

// splitChain splits "A --> B -->|x| C" into node groups and edge labels,
// ignoring operators inside brackets or quotes.
func splitChain(line string) (groups []string, labels []string) {
	depth := 0
	quoted := false
	start := 0
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			quoted = !quoted
			continue
		case quoted:
			continue
		case strings.IndexByte("[({", c) >= 0:
			depth++
			continue
		case strings.IndexByte("])}", c) >= 0:
			if depth > 0 {
				depth--
			}
			continue
		case depth > 0:
			continue
		}
		if c != '-' && c != '=' && c != '<' && c != ' ' {
			continue
		}
		m := arrow.FindStringSubmatchIndex(line[i:])
		if m == nil || m[1] == 0 || !strings.ContainsAny(line[i:i+m[1]], "-=") {
			continue
		}
		groups = append(groups, strings.TrimSpace(line[start:i]))
		label := ""
		if m[2] >= 0 {
			label = strings.TrimSpace(line[i+m[2] : i+m[3]])
		}
		labels = append(labels, label)
		i += m[1] - 1
		start = i + 1
	}
	groups = append(groups, strings.TrimSpace(line[start:]))
	return groups, labels
}

func splitAmp(group string) []string {
	var out []string
	depth, start := 0, 0
	quoted := false
	for i := 0; i <= len(group); i++ {
		if i < len(group) {
			switch c := group[i]; {
			case c == '"':
				quoted = !quoted
			case quoted:
			case strings.IndexByte("[({", c) >= 0:
				depth++
			case strings.IndexByte("])}", c) >= 0 && depth > 0:
				depth--
			}
			if quoted || depth > 0 || group[i] != '&' {
				continue
			}
		}
		if p := strings.TrimSpace(group[start:i]); p != "" {
			out = append(out, p)
		}
		start = i + 1
	}
	return out
}

// parseNodeRef splits a node reference such as ID["label"]:::cls into its
// id and display label.
func parseNodeRef(s string) (id, label string) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ":::"); i >= 0 && !strings.ContainsAny(s[:i], "[({") {
		s = s[:i]
	}
	open := strings.IndexAny(s, "[({>")
	if open < 0 {
		return strings.TrimSpace(s), ""
	}
	id = strings.TrimSpace(s[:open])
	body := s[open:]
	if i := strings.LastIndex(body, ":::"); i >= 0 && strings.ContainsAny(body[:i], "])}") {
		body = body[:i]
	}
	label = strings.Trim(body, "[](){}>/\\ ")
	label = strings.Trim(label, `"`)
	return id, unescapeMermaid(label)
}
