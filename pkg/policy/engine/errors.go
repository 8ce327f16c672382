package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies why an annotation was rejected.
type Kind int

const (
	// KindUnknownTable means the table name is not registered.
	KindUnknownTable Kind = iota + 1
	// KindTypeMismatch means the input was not a string or a pair.
	KindTypeMismatch
	// KindNotRecognized means a class or value is absent from the vocabulary.
	KindNotRecognized
	// KindAmbiguousClass means a bare value maps to several classes, or is a root.
	KindAmbiguousClass
	// KindMismatchedPair means class and value exist but are not parent and child.
	KindMismatchedPair
	// KindDuplicate means the segment already carries the exact pair.
	KindDuplicate
	// KindClassAssigned means a non-exempt class already has a value on the segment.
	KindClassAssigned
	// KindMissingParent means the class is neither a root nor a value on the segment.
	KindMissingParent
	// KindMutuallyExclusive means a value conflicts with one already on the segment.
	KindMutuallyExclusive
)

var kindNames = map[Kind]string{
	KindUnknownTable:      "UnknownTable",
	KindTypeMismatch:      "TypeMismatch",
	KindNotRecognized:     "AnnotationNotRecognized",
	KindAmbiguousClass:    "AmbiguousClass",
	KindMismatchedPair:    "MismatchedPair",
	KindDuplicate:         "DuplicateAnnotation",
	KindClassAssigned:     "ClassAlreadyAssigned",
	KindMissingParent:     "MissingParentAnnotation",
	KindMutuallyExclusive: "MutuallyExclusive",
}

// String returns the kind name used in logs, metrics and API responses.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Sentinel errors, one per Kind, for use with errors.Is.
var (
	ErrUnknownTable      = errors.New("unknown table")
	ErrTypeMismatch      = errors.New("type mismatch")
	ErrNotRecognized     = errors.New("annotation not recognized")
	ErrAmbiguousClass    = errors.New("ambiguous annotation class")
	ErrMismatchedPair    = errors.New("mismatched annotation pair")
	ErrDuplicate         = errors.New("duplicate annotation")
	ErrClassAssigned     = errors.New("class already assigned")
	ErrMissingParent     = errors.New("missing parent annotation")
	ErrMutuallyExclusive = errors.New("mutually exclusive annotation")
)

var kindSentinels = map[Kind]error{
	KindUnknownTable:      ErrUnknownTable,
	KindTypeMismatch:      ErrTypeMismatch,
	KindNotRecognized:     ErrNotRecognized,
	KindAmbiguousClass:    ErrAmbiguousClass,
	KindMismatchedPair:    ErrMismatchedPair,
	KindDuplicate:         ErrDuplicate,
	KindClassAssigned:     ErrClassAssigned,
	KindMissingParent:     ErrMissingParent,
	KindMutuallyExclusive: ErrMutuallyExclusive,
}

// Term roles for KindNotRecognized.
const (
	RoleClass = "class"
	RoleValue = "value"
)

// PolicyError is the structured reason an annotation was rejected.
type PolicyError struct {
	Kind    Kind
	Table   string
	Segment uint64

	// Class and Value are the proposed annotation, as far as it was parsed.
	Class string
	Value string

	// Role names which term was not recognized ("class" or "value").
	Role string

	// ParentClasses are the classes the value actually belongs to.
	ParentClasses []string

	// Existing is the annotation already on the segment that caused the rejection.
	Existing *Pair

	// Group is the exclusivity group that was violated.
	Group []string

	HelpURL string

	// Message overrides the generated description.
	Message string
}

// Error returns a human-readable description of the rejection.
func (e *PolicyError) Error() string {
	msg := e.describe()
	if e.HelpURL != "" {
		msg += " See the annotation scheme described at " + e.HelpURL
	}
	return msg
}

func (e *PolicyError) describe() string {
	if e.Message != "" {
		return e.Message
	}
	switch e.Kind {
	case KindUnknownTable:
		return fmt.Sprintf("Table %q is not a governed annotation table.", e.Table)
	case KindNotRecognized:
		if e.Role == RoleClass {
			return fmt.Sprintf("Annotation class %q not recognized.", e.Class)
		}
		return fmt.Sprintf("Annotation %q not recognized.", e.Value)
	case KindAmbiguousClass:
		if len(e.ParentClasses) > 1 {
			return fmt.Sprintf("Class of %q could not be guessed because it has multiple possible classes %s.", e.Value, quoteList(e.ParentClasses))
		}
		return fmt.Sprintf("Class of %q could not be guessed because it is itself a root class.", e.Value)
	case KindMismatchedPair:
		if len(e.ParentClasses) == 1 {
			return fmt.Sprintf("Annotation %q belongs to class %q but you specified class %q.", e.Value, e.ParentClasses[0], e.Class)
		}
		return fmt.Sprintf("Annotation %q belongs to classes %s but you specified class %q.", e.Value, quoteList(e.ParentClasses), e.Class)
	case KindDuplicate:
		return fmt.Sprintf("Segment %d already has this exact annotation pair.", e.Segment)
	case KindClassAssigned:
		if e.Existing != nil {
			return fmt.Sprintf("Segment %d already has an annotation with class %q (%q).", e.Segment, e.Class, e.Existing.Value)
		}
		return fmt.Sprintf("Segment %d already has an annotation with class %q.", e.Segment, e.Class)
	case KindMissingParent:
		return fmt.Sprintf("Segment %d must be annotated with %q before this term can be used as an annotation class.", e.Segment, e.Class)
	case KindMutuallyExclusive:
		return fmt.Sprintf("Segment %d already has an annotation in the group %s.", e.Segment, quoteList(e.Group))
	case KindTypeMismatch:
		return "Annotation must be a string or a (class, value) pair."
	}
	return e.Kind.String()
}

// Unwrap returns the sentinel error for the kind.
func (e *PolicyError) Unwrap() error {
	return kindSentinels[e.Kind]
}

func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// KindOf returns the Kind of a *PolicyError in err's chain, or 0.
func KindOf(err error) Kind {
	var pe *PolicyError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
