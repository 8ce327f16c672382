package engine

import (
	"htem/fanc/pkg/vocab"
)

// DefaultOpenClass accepts free-text values that are not vocabulary terms.
const DefaultOpenClass = "neuron identity"

// InlineTableName names tables resolved from inline references.
const InlineTableName = "<inline>"

// TableKind distinguishes paired (class/value) tables from flat value lists.
type TableKind int

const (
	// KindPaired tables store a class and a value per annotation.
	KindPaired TableKind = iota
	// KindFlat tables store a single value from a fixed list.
	KindFlat
)

// String returns the lowercase name of the kind.
func (k TableKind) String() string {
	if k == KindFlat {
		return "flat"
	}
	return "paired"
}

// Rules are the table-specific posting rules layered on a vocabulary.
type Rules struct {
	// OpenClasses accept any value that is not itself a vocabulary term.
	OpenClasses []string `yaml:"open_classes" json:"open_classes"`

	// ExemptClasses may carry several values on the same segment.
	ExemptClasses []string `yaml:"exempt_classes" json:"exempt_classes"`

	// ExclusivityGroups are sets of values that may not coexist on a segment,
	// even under an exempt class.
	ExclusivityGroups [][]string `yaml:"exclusivity_groups" json:"exclusivity_groups"`

	// HelpURL is appended to user-facing error messages.
	HelpURL string `yaml:"help_url" json:"help_url"`
}

// DefaultRules are applied to inline vocabularies.
func DefaultRules() Rules {
	return Rules{
		OpenClasses:   []string{DefaultOpenClass},
		ExemptClasses: []string{DefaultOpenClass, "publication"},
	}
}

// Table is a governed annotation table: its vocabulary plus posting rules.
// A Table is immutable after construction and safe for concurrent use.
type Table struct {
	name      string
	kind      TableKind
	hierarchy *vocab.Hierarchy
	flat      *vocab.Flat

	open    map[string]bool
	exempt  map[string]bool
	groups  [][]string
	helpURL string
}

// NewTreeTable builds a paired table from a vocabulary tree.
func NewTreeTable(name string, tree vocab.Tree, rules Rules) *Table {
	t := &Table{
		name:      name,
		kind:      KindPaired,
		hierarchy: vocab.Build(tree),
		open:      toSet(rules.OpenClasses),
		exempt:    toSet(rules.ExemptClasses),
		helpURL:   rules.HelpURL,
	}
	for _, g := range rules.ExclusivityGroups {
		t.groups = append(t.groups, append([]string(nil), g...))
	}
	return t
}

// NewFlatTable builds a flat table from its allowed values.
func NewFlatTable(name string, values []string, helpURL string) *Table {
	return &Table{
		name:    name,
		kind:    KindFlat,
		flat:    vocab.NewFlat(values...),
		helpURL: helpURL,
	}
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Kind returns whether the table is paired or flat.
func (t *Table) Kind() TableKind { return t.kind }

// Hierarchy returns the vocabulary of a paired table, or nil for flat tables.
func (t *Table) Hierarchy() *vocab.Hierarchy { return t.hierarchy }

// Flat returns the allowed values of a flat table, or nil for paired tables.
func (t *Table) Flat() *vocab.Flat { return t.flat }

// HelpURL returns the documentation link for this table's vocabulary.
func (t *Table) HelpURL() string { return t.helpURL }

// IsOpen reports whether class accepts free-text values.
func (t *Table) IsOpen(class string) bool { return t.open[class] }

// IsExempt reports whether class may carry several values per segment.
func (t *Table) IsExempt(class string) bool { return t.exempt[class] }

// ExclusivityGroups returns a copy of the table's exclusivity groups.
func (t *Table) ExclusivityGroups() [][]string {
	out := make([][]string, len(t.groups))
	for i, g := range t.groups {
		out[i] = append([]string(nil), g...)
	}
	return out
}

// RuleClasses lists every name the table rules treat as a class or value,
// for load-time consistency checks.
func (t *Table) RuleClasses() []string {
	var names []string
	for c := range t.open {
		names = append(names, c)
	}
	for c := range t.exempt {
		names = append(names, c)
	}
	for _, g := range t.groups {
		names = append(names, g...)
	}
	return names
}

// Check runs the vocabulary consistency check for a paired table.
func (t *Table) Check() []vocab.Problem {
	if t.kind == KindFlat {
		return nil
	}
	return vocab.CheckConsistency(t.hierarchy, t.RuleClasses()...)
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// TableSource looks up governed tables by name.
type TableSource interface {
	Table(name string) (*Table, bool)
}

type refKind int

const (
	refNamed refKind = iota
	refTree
	refFlat
)

// TableRef identifies the table a call is evaluated against: a registered
// table by name, or an inline vocabulary.
type TableRef struct {
	kind  refKind
	name  string
	tree  vocab.Tree
	flat  []string
	rules Rules
}

// Named refers to a registered table.
func Named(name string) TableRef {
	return TableRef{kind: refNamed, name: name}
}

// InlineTree refers to an unregistered vocabulary with DefaultRules.
func InlineTree(tree vocab.Tree) TableRef {
	return TableRef{kind: refTree, tree: tree, rules: DefaultRules()}
}

// InlineTreeWithRules refers to an unregistered vocabulary with explicit rules.
func InlineTreeWithRules(tree vocab.Tree, rules Rules) TableRef {
	return TableRef{kind: refTree, tree: tree, rules: rules}
}

// InlineFlat refers to an unregistered flat value list.
func InlineFlat(values ...string) TableRef {
	return TableRef{kind: refFlat, flat: values}
}

// String returns the table name, or InlineTableName for inline references.
func (r TableRef) String() string {
	if r.kind == refNamed {
		return r.name
	}
	return InlineTableName
}

// Resolve turns a reference into a Table. Named references that src does not
// know fail with KindUnknownTable.
func Resolve(src TableSource, ref TableRef) (*Table, *PolicyError) {
	switch ref.kind {
	case refTree:
		return NewTreeTable(InlineTableName, ref.tree, ref.rules), nil
	case refFlat:
		return NewFlatTable(InlineTableName, ref.flat, ""), nil
	}
	if src != nil {
		if t, ok := src.Table(ref.name); ok {
			return t, nil
		}
	}
	return nil, &PolicyError{Kind: KindUnknownTable, Table: ref.name}
}
