package engine

import "strings"

// ParsePair normalizes in into a Pair for this table.
//
// Tuples pass through unchanged. Strings containing a separator are split on
// the first separator found, in the priority order of Separators, and both
// halves are trimmed. A bare string on a paired table has its class inferred
// from the vocabulary: it must name exactly one node, and that node must not
// be a root. Flat tables take bare strings as the value and never split.
func (t *Table) ParsePair(in Input) (Pair, *PolicyError) {
	if in.tuple {
		return in.pair, nil
	}

	if t.kind == KindFlat {
		return Pair{Value: strings.TrimSpace(in.text)}, nil
	}

	if class, value, ok := splitText(in.text); ok {
		return Pair{Class: class, Value: value}, nil
	}

	value := strings.TrimSpace(in.text)
	class, err := t.GuessClass(value)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Class: class, Value: value}, nil
}

// GuessClass returns the class a bare value belongs to.
func (t *Table) GuessClass(value string) (string, *PolicyError) {
	if t.kind == KindFlat {
		return "", nil
	}
	nodes := t.hierarchy.Lookup(value)
	switch {
	case len(nodes) == 0:
		return "", t.reject(KindNotRecognized, Pair{Value: value}, func(e *PolicyError) {
			e.Role = RoleValue
		})
	case len(nodes) > 1:
		return "", t.reject(KindAmbiguousClass, Pair{Value: value}, func(e *PolicyError) {
			e.ParentClasses = t.hierarchy.ParentNames(value)
		})
	case nodes[0].IsRoot():
		return "", t.reject(KindAmbiguousClass, Pair{Value: value}, nil)
	}
	return nodes[0].Parent.Name, nil
}

func (t *Table) reject(kind Kind, p Pair, fill func(e *PolicyError)) *PolicyError {
	e := &PolicyError{
		Kind:    kind,
		Table:   t.name,
		Class:   p.Class,
		Value:   p.Value,
		HelpURL: t.helpURL,
	}
	if fill != nil {
		fill(e)
	}
	return e
}
