package vocab

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Entry is one named position in a Tree. An entry with no children is a leaf.
type Entry struct {
	Name     string
	Children Tree
}

// Tree is an ordered nested mapping of annotation names.
//
// It decodes from a YAML mapping whose values are either nested mappings or
// empty ({} or null), preserving document order:
//
//	primary class:
//	  motor neuron: {}
//	  sensory neuron:
//	    chordotonal neuron: {}
type Tree []Entry

// UnmarshalYAML decodes a YAML mapping node into an ordered Tree.
func (t *Tree) UnmarshalYAML(node *yaml.Node) error {
	tree, err := decodeTree(node)
	if err != nil {
		return err
	}
	*t = tree
	return nil
}

// MarshalYAML encodes the Tree back into an ordered YAML mapping.
func (t Tree) MarshalYAML() (interface{}, error) {
	return encodeTree(t), nil
}

func decodeTree(node *yaml.Node) (Tree, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" || node.Value == "" {
			return nil, nil
		}
		return nil, fmt.Errorf("line %d: expected mapping, got scalar %q", node.Line, node.Value)
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("line %d: expected mapping", node.Line)
	}

	tree := make(Tree, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: annotation names must be strings", key.Line)
		}
		children, err := decodeTree(value)
		if err != nil {
			return nil, err
		}
		tree = append(tree, Entry{Name: key.Value, Children: children})
	}
	return tree, nil
}

func encodeTree(t Tree) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, e := range t {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: e.Name},
			encodeTree(e.Children),
		)
	}
	return node
}

// Names returns the top-level names of the tree in order.
func (t Tree) Names() []string {
	names := make([]string, len(t))
	for i, e := range t {
		names[i] = e.Name
	}
	return names
}
