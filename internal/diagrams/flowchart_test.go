package diagrams

import (
	"testing"
)

func TestParseFlowchart(t *testing.T) {
	fc := ParseFlowchart(`%%{init: {'theme': 'dark'}}%%
flowchart LR
    %% comment
    FACT_WL["fact_daily_worklogs_h"] --> DIM_USER["dim_user_h"]
    FACT_WL -->|issue_id| DIM_ISSUE("dim_issue_h")
    STAR(["Star schema"]):::gold
    A & B --> C;
    subgraph group
      D{"R&D -> ops"} -.-> E
    end
    classDef gold fill:#fc0
    style A fill:#f00
`)
	if fc.Direction != "LR" {
		t.Errorf("direction = %q", fc.Direction)
	}

	wantNodes := []FlowNode{
		{"FACT_WL", "fact_daily_worklogs_h"},
		{"DIM_USER", "dim_user_h"},
		{"DIM_ISSUE", "dim_issue_h"},
		{"STAR", "Star schema"},
		{"A", "A"},
		{"B", "B"},
		{"C", "C"},
		{"D", "R&D -> ops"},
		{"E", "E"},
	}
	if len(fc.Nodes) != len(wantNodes) {
		t.Fatalf("nodes = %+v", fc.Nodes)
	}
	for i, want := range wantNodes {
		if fc.Nodes[i] != want {
			t.Errorf("node %d = %+v, want %+v", i, fc.Nodes[i], want)
		}
	}

	wantEdges := []FlowEdge{
		{"FACT_WL", "DIM_USER", ""},
		{"FACT_WL", "DIM_ISSUE", "issue_id"},
		{"A", "C", ""},
		{"B", "C", ""},
		{"D", "E", ""},
	}
	if len(fc.Edges) != len(wantEdges) {
		t.Fatalf("edges = %+v", fc.Edges)
	}
	for i, want := range wantEdges {
		if fc.Edges[i] != want {
			t.Errorf("edge %d = %+v, want %+v", i, fc.Edges[i], want)
		}
	}
}

func TestParseFlowchart_ChainRoundTrip(t *testing.T) {
	fc := ParseFlowchart(ChainDiagram([]string{"ORACLE", "EXT", "ETL"}))
	if len(fc.Nodes) != 3 || len(fc.Edges) != 2 {
		t.Fatalf("got nodes=%v edges=%v", fc.Nodes, fc.Edges)
	}
	if fc.Edges[1] != (FlowEdge{From: "EXT", To: "ETL"}) {
		t.Errorf("second edge = %+v", fc.Edges[1])
	}
}

func TestParseFlowchart_LaterLabelWins(t *testing.T) {
	fc := ParseFlowchart("graph TD\n  A --> B\n  B[\"Bravo\"]\n")
	if fc.Nodes[1].Label != "Bravo" {
		t.Errorf("label = %q", fc.Nodes[1].Label)
	}
}
