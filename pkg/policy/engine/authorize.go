package engine

// Authorize decides whether p may be added to a segment that already carries
// existing. The rules run in order and stop at the first failure:
//
//  1. p must be valid for the table.
//  2. p must not already be on the segment.
//  3. For paired tables, a non-exempt class may carry only one value; values
//     under an exempt class must not share an exclusivity group with a value
//     already on the segment.
//  4. For paired tables, p's class must be a root class or a value already on
//     the segment.
func (t *Table) Authorize(segment uint64, p Pair, existing []Pair) *PolicyError {
	if err := t.ValidPair(p); err != nil {
		err.Segment = segment
		return err
	}

	for i := range existing {
		if existing[i] == p {
			return t.denyWith(KindDuplicate, segment, p, &existing[i], nil)
		}
	}

	if t.kind == KindFlat {
		return nil
	}

	if t.exempt[p.Class] {
		if group, other := t.exclusiveConflict(p, existing); other != nil {
			return t.denyWith(KindMutuallyExclusive, segment, p, other, group)
		}
	} else {
		for i := range existing {
			if existing[i].Class == p.Class {
				return t.denyWith(KindClassAssigned, segment, p, &existing[i], nil)
			}
		}
	}

	if t.hierarchy.IsRootName(p.Class) {
		return nil
	}
	for _, e := range existing {
		if e.Value == p.Class {
			return nil
		}
	}
	return t.denyWith(KindMissingParent, segment, p, nil, nil)
}

// exclusiveConflict finds an existing value sharing an exclusivity group with p.
func (t *Table) exclusiveConflict(p Pair, existing []Pair) ([]string, *Pair) {
	for _, group := range t.groups {
		if !contains(group, p.Value) {
			continue
		}
		for i := range existing {
			if contains(group, existing[i].Value) {
				return group, &existing[i]
			}
		}
	}
	return nil, nil
}

func (t *Table) denyWith(kind Kind, segment uint64, p Pair, existing *Pair, group []string) *PolicyError {
	return t.reject(kind, p, func(e *PolicyError) {
		e.Segment = segment
		if existing != nil {
			conflict := *existing
			e.Existing = &conflict
		}
		if group != nil {
			e.Group = append([]string(nil), group...)
		}
	})
}

func contains(items []string, s string) bool {
	for _, item := range items {
		if item == s {
			return true
		}
	}
	return false
}
