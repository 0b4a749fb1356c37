package resolver

import (
	"context"
	"testing"

	"github.com/gnemet/lookin/internal/visual"
)

func node(id, label string) visual.Element {
	return visual.Element{ID: id, Classes: []string{"node", "default"}, Label: label, Group: id}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name      string
		nodeID    string
		elements  []visual.Element
		wantID    string
		wantStrat Strategy
		wantOK    bool
	}{
		{
			name:      "structural pattern",
			nodeID:    "JOHANNA",
			elements:  []visual.Element{node("flowchart-DWH-1", "DWH"), node("flowchart-JOHANNA-3", "Johanna")},
			wantID:    "flowchart-JOHANNA-3",
			wantStrat: StructuralPattern,
			wantOK:    true,
		},
		{
			name:   "pattern beats earlier substring",
			nodeID: "DWH",
			elements: []visual.Element{
				{ID: "L-DWH-ETL-0", Classes: []string{"flowchart-link"}},
				node("flowchart-DWH-2", "Warehouse"),
			},
			wantID:    "flowchart-DWH-2",
			wantStrat: StructuralPattern,
			wantOK:    true,
		},
		{
			name:   "substring binds to enclosing group",
			nodeID: "LDAP",
			elements: []visual.Element{
				node("node-7", "Directory"),
				{ID: "label-LDAP", Group: "node-7"},
			},
			wantID:    "node-7",
			wantStrat: StructuralSubstring,
			wantOK:    true,
		},
		{
			name:      "label contains id",
			nodeID:    "JOHANNA",
			elements:  []visual.Element{node("n1", "Oracle"), node("n2", "Johanna DB")},
			wantID:    "n2",
			wantStrat: LabelText,
			wantOK:    true,
		},
		{
			name:      "id contains label prefix",
			nodeID:    "DATA_WH",
			elements:  []visual.Element{node("n1", "Data Warehouse")},
			wantID:    "n1",
			wantStrat: LabelText,
			wantOK:    true,
		},
		{
			name:     "label without letters never matches",
			nodeID:   "X",
			elements: []visual.Element{node("n1", "123")},
		},
		{
			name:     "non node elements are not label-scanned",
			nodeID:   "ORACLE",
			elements: []visual.Element{{ID: "t1", Label: "Oracle"}},
		},
		{
			name:     "no match",
			nodeID:   "MISSING",
			elements: []visual.Element{node("flowchart-A-0", "Alpha")},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := Resolve(tt.nodeID, tt.elements)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v (match %+v)", ok, tt.wantOK, m)
			}
			if !ok {
				return
			}
			if m.ElementID != tt.wantID {
				t.Errorf("element = %q, want %q", m.ElementID, tt.wantID)
			}
			if m.Strategy != tt.wantStrat {
				t.Errorf("strategy = %q, want %q", m.Strategy, tt.wantStrat)
			}
			if m.NodeID != tt.nodeID {
				t.Errorf("node id = %q", m.NodeID)
			}
		})
	}
}

func TestMatchLabel_FirstInDocumentOrder(t *testing.T) {
	els := []visual.Element{node("a", "Jira one"), node("b", "Jira two")}
	m, ok := MatchLabel("jira", els)
	if !ok || m.ElementID != "a" {
		t.Errorf("got %+v, %v", m, ok)
	}
}

func TestLabelPrefix(t *testing.T) {
	tests := map[string]string{
		"Johanna DB":   "JOHA",
		"dwh":          "DWH",
		"1-a-2-b c d":  "ABCD",
		"Árvíztűrő":    "RVZT",
		"":             "",
		"42":           "",
		"Star schema!": "STAR",
	}
	for in, want := range tests {
		if got := LabelPrefix(in); got != want {
			t.Errorf("LabelPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveAll(t *testing.T) {
	els := []visual.Element{node("flowchart-JIRA-0", "Jira"), node("flowchart-DWH-1", "DWH")}
	res := ResolveAll([]string{"JIRA", "GHOST", "DWH"}, els)
	if len(res.Matches) != 2 {
		t.Fatalf("matches = %+v", res.Matches)
	}
	if res.Matches[0].NodeID != "JIRA" || res.Matches[1].NodeID != "DWH" {
		t.Errorf("order not preserved: %+v", res.Matches)
	}
	if len(res.Unmatched) != 1 || res.Unmatched[0] != "GHOST" {
		t.Errorf("unmatched = %v", res.Unmatched)
	}
}

func TestResolve_IgnoresRenderID(t *testing.T) {
	// The render id contains "db"; only the label may match.
	v, err := visual.Outline{}.Render(context.Background(), "mmd-0db5adb1", "graph LR\n    SRV[\"db server\"]\n    APP[\"App\"]\n    SRV --> APP\n")
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range v.Elements {
		if e.ID == v.ID {
			t.Fatalf("render root %q returned as an element", e.ID)
		}
	}
	m, ok := Resolve("db", v.Elements)
	if !ok || m.Strategy != LabelText || m.ElementID != "flowchart-SRV-0" {
		t.Errorf("match = %+v, ok = %v", m, ok)
	}
}
