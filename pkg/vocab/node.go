package vocab

// NoClass is reported as the parent name of a root node.
const NoClass = "<no class>"

// Node is a single entry in the annotation forest.
// A node owns its children; Parent is a back-reference and is nil for roots.
type Node struct {
	Name     string
	Parent   *Node
	Children []*Node
}

// IsRoot reports whether the node is a root class.
func (n *Node) IsRoot() bool {
	return n.Parent == nil
}

// ParentName returns the name of the parent node, or NoClass for a root.
func (n *Node) ParentName() string {
	if n.Parent == nil {
		return NoClass
	}
	return n.Parent.Name
}

// HasChild reports whether c is a direct child of n.
func (n *Node) HasChild(c *Node) bool {
	for _, child := range n.Children {
		if child == c {
			return true
		}
	}
	return false
}

// Path returns the names from the root down to this node.
func (n *Node) Path() []string {
	var depth int
	for p := n; p != nil; p = p.Parent {
		depth++
	}
	path := make([]string, depth)
	for p := n; p != nil; p = p.Parent {
		depth--
		path[depth] = p.Name
	}
	return path
}

// Root walks up to the root of the tree containing n.
func (n *Node) Root() *Node {
	r := n
	for r.Parent != nil {
		r = r.Parent
	}
	return r
}
