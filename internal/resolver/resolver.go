// Package resolver maps declared node ids onto the elements of a rendered
// visual. Element ids produced by the diagram library are not stable, so
// resolution is heuristic and tries matchers in a fixed order.
package resolver

import (
	"strings"

	"github.com/gnemet/lookin/internal/visual"
)

// Strategy names the matcher that produced a match.
type Strategy string

const (
	StructuralPattern   Strategy = "structural_pattern"
	StructuralSubstring Strategy = "structural_substring"
	LabelText           Strategy = "label_text"
)

// Match is a resolved element.
type Match struct {
	NodeID string
	// ElementID is the id interaction is attached to: the enclosing node
	// group for structural matches, the node element for label matches.
	ElementID string
	Label     string
	Strategy  Strategy
}

// Matcher looks for nodeID among elements. Elements are in document order.
type Matcher func(nodeID string, elements []visual.Element) (Match, bool)

// Matchers is the fixed resolution order.
var Matchers = []Matcher{
	MatchPattern,
	MatchSubstring,
	MatchLabel,
}

// MatchPattern finds an element whose id contains "flowchart-<nodeID>-".
func MatchPattern(nodeID string, elements []visual.Element) (Match, bool) {
	needle := "flowchart-" + nodeID + "-"
	return matchID(nodeID, needle, StructuralPattern, elements)
}

// MatchSubstring finds an element whose id contains nodeID anywhere.
func MatchSubstring(nodeID string, elements []visual.Element) (Match, bool) {
	return matchID(nodeID, nodeID, StructuralSubstring, elements)
}

func matchID(nodeID, needle string, s Strategy, elements []visual.Element) (Match, bool) {
	if nodeID == "" {
		return Match{}, false
	}
	for _, e := range elements {
		if e.ID != "" && strings.Contains(e.ID, needle) {
			return Match{NodeID: nodeID, ElementID: e.Target(), Label: e.Label, Strategy: s}, true
		}
	}
	return Match{}, false
}

// MatchLabel scans node-like elements and accepts the first whose label
// contains nodeID (case-insensitive), or whose label prefix is contained in
// nodeID. The prefix is the first four letters of the upper-cased label.
func MatchLabel(nodeID string, elements []visual.Element) (Match, bool) {
	if nodeID == "" {
		return Match{}, false
	}
	upperID := strings.ToUpper(nodeID)
	for _, e := range elements {
		if !e.NodeLike() || e.Label == "" {
			continue
		}
		label := strings.ToUpper(strings.TrimSpace(e.Label))
		prefix := LabelPrefix(label)
		if strings.Contains(label, upperID) || (prefix != "" && strings.Contains(upperID, prefix)) {
			id := e.ID
			if id == "" {
				id = e.Target()
			}
			return Match{NodeID: nodeID, ElementID: id, Label: e.Label, Strategy: LabelText}, true
		}
	}
	return Match{}, false
}

// LabelPrefix upper-cases s, drops everything but A-Z and keeps at most
// four characters.
func LabelPrefix(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(s) {
		if r < 'A' || r > 'Z' {
			continue
		}
		b.WriteRune(r)
		if b.Len() == 4 {
			break
		}
	}
	return b.String()
}

// Resolve runs the matchers in order and returns the first match.
func Resolve(nodeID string, elements []visual.Element) (Match, bool) {
	for _, m := range Matchers {
		if match, ok := m(nodeID, elements); ok {
			return match, true
		}
	}
	return Match{}, false
}

// Result is the outcome of resolving every declared node of a layer.
type Result struct {
	Matches   []Match
	Unmatched []string
}

// ResolveAll resolves ids in order. Unmatched ids are collected, never
// reported as errors.
func ResolveAll(ids []string, elements []visual.Element) Result {
	var res Result
	for _, id := range ids {
		if m, ok := Resolve(id, elements); ok {
			res.Matches = append(res.Matches, m)
		} else {
			res.Unmatched = append(res.Unmatched, id)
		}
	}
	return res
}
