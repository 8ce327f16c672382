package vocab

import "fmt"

// Problem describes one structural inconsistency found by CheckConsistency.
type Problem struct {
	Name    string
	Message string
}

func (p Problem) String() string {
	return fmt.Sprintf("%q: %s", p.Name, p.Message)
}

// CheckConsistency walks h and verifies that every node is reachable through
// the index under its own name, that every non-root node's parent is itself
// indexed, and that every name in classes resolves in the hierarchy.
//
// classes lists names that table rules use as annotation classes (exempt
// classes, open classes, exclusivity group members).
func CheckConsistency(h *Hierarchy, classes ...string) []Problem {
	var problems []Problem

	h.Walk(func(n *Node) bool {
		if !containsNode(h.Lookup(n.Name), n) {
			problems = append(problems, Problem{Name: n.Name, Message: "node missing from index"})
		}
		if n.Parent != nil && !h.Has(n.Parent.Name) {
			problems = append(problems, Problem{Name: n.Name, Message: fmt.Sprintf("parent class %q is not indexed", n.Parent.Name)})
		}
		if n.Parent != nil && !n.Parent.HasChild(n) {
			problems = append(problems, Problem{Name: n.Name, Message: "parent does not list node as a child"})
		}
		return true
	})

	for _, c := range classes {
		if !h.Has(c) {
			problems = append(problems, Problem{Name: c, Message: "class used by table rules is not in the hierarchy"})
		}
	}

	return problems
}

func containsNode(nodes []*Node, n *Node) bool {
	for _, m := range nodes {
		if m == n {
			return true
		}
	}
	return false
}
