package vocab

import (
	"sort"
)

// Hierarchy indexes every name in an annotation forest to the nodes that
// carry it. It is built once by Build and never modified afterwards.
type Hierarchy struct {
	nodes map[string][]*Node
	roots []*Node
}

// Build converts a declarative Tree into a Hierarchy.
//
// Each call starts from a fresh index, so independent builds never share
// nodes. A name appearing at several positions keeps every node, in the
// order encountered.
func Build(tree Tree) *Hierarchy {
	h := &Hierarchy{nodes: make(map[string][]*Node)}
	h.roots = h.build(tree, nil)
	return h
}

func (h *Hierarchy) build(tree Tree, parent *Node) []*Node {
	built := make([]*Node, 0, len(tree))
	for _, e := range tree {
		n := &Node{Name: e.Name, Parent: parent}
		h.nodes[e.Name] = append(h.nodes[e.Name], n)
		n.Children = h.build(e.Children, n)
		built = append(built, n)
	}
	return built
}

// Tree rebuilds the declarative Tree the hierarchy was built from.
func (h *Hierarchy) Tree() Tree {
	return nodeTree(h.roots)
}

func nodeTree(nodes []*Node) Tree {
	if len(nodes) == 0 {
		return nil
	}
	t := make(Tree, len(nodes))
	for i, n := range nodes {
		t[i] = Entry{Name: n.Name, Children: nodeTree(n.Children)}
	}
	return t
}

// Lookup returns every node with the given name, or nil if the name is unknown.
// The returned slice must not be modified.
func (h *Hierarchy) Lookup(name string) []*Node {
	return h.nodes[name]
}

// Has reports whether name appears anywhere in the hierarchy.
func (h *Hierarchy) Has(name string) bool {
	_, ok := h.nodes[name]
	return ok
}

// Roots returns the root nodes in declaration order.
func (h *Hierarchy) Roots() []*Node {
	return h.roots
}

// RootNames returns the names of the root classes in declaration order.
func (h *Hierarchy) RootNames() []string {
	names := make([]string, len(h.roots))
	for i, r := range h.roots {
		names[i] = r.Name
	}
	return names
}

// IsRootName reports whether name is a root class.
func (h *Hierarchy) IsRootName(name string) bool {
	for _, r := range h.roots {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Names returns every distinct name in sorted order.
func (h *Hierarchy) Names() []string {
	names := make([]string, 0, len(h.nodes))
	for name := range h.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of distinct names.
func (h *Hierarchy) Len() int {
	return len(h.nodes)
}

// ParentNames returns the parent class of every node named name, using
// NoClass for roots.
func (h *Hierarchy) ParentNames(name string) []string {
	nodes := h.nodes[name]
	parents := make([]string, len(nodes))
	for i, n := range nodes {
		parents[i] = n.ParentName()
	}
	return parents
}

// IsEdge reports whether any node named class has a direct child named value.
func (h *Hierarchy) IsEdge(class, value string) bool {
	for _, c := range h.nodes[class] {
		for _, v := range h.nodes[value] {
			if c.HasChild(v) {
				return true
			}
		}
	}
	return false
}

// Walk visits every node depth-first in declaration order. Returning false
// from fn stops descent into that node's children.
func (h *Hierarchy) Walk(fn func(n *Node) bool) {
	var visit func(nodes []*Node)
	visit = func(nodes []*Node) {
		for _, n := range nodes {
			if fn(n) {
				visit(n.Children)
			}
		}
	}
	visit(h.roots)
}
