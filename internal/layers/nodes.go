package layers

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Nodes is the node mapping of a layer. Declaration order is kept because
// synthesized diagrams chain nodes in that order and the resolver scans
// them in it.
type Nodes struct {
	order []string
	byID  map[string]Node
}

// NodeEntry pairs a node id with its declaration.
type NodeEntry struct {
	ID   string
	Node Node
}

// NewNodes builds a Nodes value in the given order. Later duplicates
// replace the declaration but keep the first position.
func NewNodes(entries ...NodeEntry) Nodes {
	var n Nodes
	for _, e := range entries {
		n.set(e.ID, e.Node)
	}
	return n
}

func (n *Nodes) set(id string, node Node) {
	if n.byID == nil {
		n.byID = make(map[string]Node)
	}
	if _, exists := n.byID[id]; !exists {
		n.order = append(n.order, id)
	}
	n.byID[id] = node
}

// UnmarshalYAML decodes a YAML mapping while keeping key order.
func (n *Nodes) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode && value.Tag == "!!null" {
		return nil
	}
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: nodes must be a mapping", value.Line)
	}
	for i := 0; i+1 < len(value.Content); i += 2 {
		key, val := value.Content[i], value.Content[i+1]
		var node Node
		if !(val.Kind == yaml.ScalarNode && val.Tag == "!!null") {
			if err := val.Decode(&node); err != nil {
				return fmt.Errorf("node %q: %w", key.Value, err)
			}
		}
		n.set(key.Value, node)
	}
	return nil
}

// MarshalYAML writes the nodes back as an ordered mapping.
func (n Nodes) MarshalYAML() (interface{}, error) {
	out := &yaml.Node{Kind: yaml.MappingNode}
	for _, id := range n.order {
		var val yaml.Node
		if err := val.Encode(n.byID[id]); err != nil {
			return nil, err
		}
		out.Content = append(out.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: id}, &val)
	}
	return out, nil
}

// Len returns the number of declared nodes.
func (n Nodes) Len() int { return len(n.order) }

// IDs returns node ids in declaration order.
func (n Nodes) IDs() []string {
	return append([]string(nil), n.order...)
}

// Get returns the declaration of a node.
func (n Nodes) Get(id string) (Node, bool) {
	node, ok := n.byID[id]
	return node, ok
}

// Entries returns the declarations in order.
func (n Nodes) Entries() []NodeEntry {
	out := make([]NodeEntry, 0, len(n.order))
	for _, id := range n.order {
		out = append(out, NodeEntry{ID: id, Node: n.byID[id]})
	}
	return out
}

// IsZero lets yaml omitempty drop layers without nodes.
func (n Nodes) IsZero() bool { return len(n.order) == 0 }
