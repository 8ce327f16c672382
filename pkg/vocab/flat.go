package vocab

// Flat is the allowed-value set of a table that has no class/value pairing.
type Flat struct {
	values map[string]struct{}
	order  []string
}

// NewFlat builds a Flat set. Duplicate values are ignored; order is kept.
func NewFlat(values ...string) *Flat {
	f := &Flat{values: make(map[string]struct{}, len(values))}
	for _, v := range values {
		if _, ok := f.values[v]; ok {
			continue
		}
		f.values[v] = struct{}{}
		f.order = append(f.order, v)
	}
	return f
}

// Contains reports whether v is an allowed value.
func (f *Flat) Contains(v string) bool {
	_, ok := f.values[v]
	return ok
}

// Values returns the allowed values in declaration order.
func (f *Flat) Values() []string {
	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Len returns the number of allowed values.
func (f *Flat) Len() int {
	return len(f.order)
}
