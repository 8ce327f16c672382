package vocab

import (
	"fmt"
	"io"
)

// Render writes the subtree rooted at n using box-drawing prefixes:
//
//	primary class
//	├── sensory neuron
//	│   └── chordotonal neuron
//	└── motor neuron
func Render(w io.Writer, n *Node) error {
	if _, err := fmt.Fprintln(w, n.Name); err != nil {
		return err
	}
	return renderChildren(w, n.Children, "")
}

func renderChildren(w io.Writer, children []*Node, prefix string) error {
	for i, c := range children {
		branch, next := "├── ", "│   "
		if i == len(children)-1 {
			branch, next = "└── ", "    "
		}
		if _, err := fmt.Fprintf(w, "%s%s%s\n", prefix, branch, c.Name); err != nil {
			return err
		}
		if err := renderChildren(w, c.Children, prefix+next); err != nil {
			return err
		}
	}
	return nil
}

// RenderAll writes every root of h in declaration order.
func RenderAll(w io.Writer, h *Hierarchy) error {
	for _, r := range h.Roots() {
		if err := Render(w, r); err != nil {
			return err
		}
	}
	return nil
}
