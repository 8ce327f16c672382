// Package vocab holds the controlled vocabulary used to annotate segments:
// a forest of named nodes describing annotation classes and the values
// permitted beneath them.
//
// # Core Components
//
// Tree is the declarative input: an ordered nested mapping of names, usually
// decoded from a YAML vocabulary file. Build converts a Tree into a
// Hierarchy, an index from every name to each node that carries it. Names are
// not globally unique ("descending neuron" sits under both "sensory neuron"
// and "central neuron"), so lookups return every match and callers that need
// exactly one must check for ambiguity themselves.
//
// Flat is the alternative for tables that carry a single free-standing value
// per annotation, such as proofreading notes.
//
// # Basic Usage
//
//	tree := vocab.Tree{
//	    {Name: "primary class", Children: vocab.Tree{
//	        {Name: "motor neuron"},
//	        {Name: "sensory neuron"},
//	    }},
//	}
//	h := vocab.Build(tree)
//	h.IsEdge("primary class", "motor neuron") // true
//
// Hierarchies are immutable once built and safe for concurrent readers.
package vocab
