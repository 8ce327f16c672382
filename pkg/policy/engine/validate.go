package engine

import (
	"fmt"
	"strings"
)

// ValidPair checks that p is allowed by the table's vocabulary.
//
// Open classes accept any non-blank value that is not itself a vocabulary
// term. Other classes require class and value to be recognized and
// connected by a parent-child edge. Flat tables require a classless value from the list.
func (t *Table) ValidPair(p Pair) *PolicyError {
	if t.kind == KindFlat {
		return t.validFlat(p)
	}

	h := t.hierarchy
	if t.open[p.Class] {
		if strings.TrimSpace(p.Value) == "" {
			return t.reject(KindNotRecognized, p, func(e *PolicyError) {
				e.Role = RoleValue
				e.Message = fmt.Sprintf("Annotation class %q needs a value.", p.Class)
			})
		}
		if h.Has(p.Value) {
			return t.reject(KindMismatchedPair, p, func(e *PolicyError) {
				e.ParentClasses = h.ParentNames(p.Value)
				e.Message = fmt.Sprintf("The term %q is a class, not %s.", p.Value, article(p.Class))
			})
		}
		return nil
	}

	if !h.Has(p.Class) {
		return t.reject(KindNotRecognized, p, func(e *PolicyError) { e.Role = RoleClass })
	}
	if !h.Has(p.Value) {
		return t.reject(KindNotRecognized, p, func(e *PolicyError) { e.Role = RoleValue })
	}
	if h.IsEdge(p.Class, p.Value) {
		return nil
	}
	return t.reject(KindMismatchedPair, p, func(e *PolicyError) {
		e.ParentClasses = h.ParentNames(p.Value)
	})
}

func (t *Table) validFlat(p Pair) *PolicyError {
	if p.Class != "" {
		return t.reject(KindNotRecognized, p, func(e *PolicyError) {
			e.Role = RoleClass
			e.Message = fmt.Sprintf("Table %q does not use annotation classes, got class %q.", t.name, p.Class)
		})
	}
	if !t.flat.Contains(p.Value) {
		return t.reject(KindNotRecognized, p, func(e *PolicyError) { e.Role = RoleValue })
	}
	return nil
}

// article renders "neuron identity" as "an identity" in open-class messages.
func article(class string) string {
	if class == DefaultOpenClass {
		return "an identity"
	}
	return fmt.Sprintf("a %q", class)
}
