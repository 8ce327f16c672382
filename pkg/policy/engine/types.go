package engine

import (
	"context"
	"fmt"
	"strings"
)

// Pair is an annotation split into its class and value.
// Flat tables leave Class empty.
type Pair struct {
	Class string `json:"annotation_class,omitempty" yaml:"annotation_class,omitempty"`
	Value string `json:"annotation" yaml:"annotation"`
}

// String renders the pair as "class: value", or just the value for flat pairs.
func (p Pair) String() string {
	if p.Class == "" {
		return p.Value
	}
	return p.Class + ": " + p.Value
}

// Separators split a "class<sep>value" string, checked in this priority order.
var Separators = []string{":", ">", ","}

// Input is one of the accepted annotation shapes: free text or an explicit
// class/value tuple.
type Input struct {
	text  string
	pair  Pair
	tuple bool
}

// Text wraps a string annotation, either a bare value or "class<sep>value".
func Text(s string) Input {
	return Input{text: s}
}

// Tuple wraps an explicit class/value pair. It is passed through unchanged.
func Tuple(class, value string) Input {
	return Input{pair: Pair{Class: class, Value: value}, tuple: true}
}

// InputFrom converts a loosely typed value (as decoded from JSON or YAML)
// into an Input. Strings, two-element string arrays or slices and Pairs are
// accepted; anything else is a TypeMismatch.
func InputFrom(v any) (Input, error) {
	switch x := v.(type) {
	case string:
		return Text(x), nil
	case Pair:
		return Tuple(x.Class, x.Value), nil
	case [2]string:
		return Tuple(x[0], x[1]), nil
	case []string:
		if len(x) == 2 {
			return Tuple(x[0], x[1]), nil
		}
	case []any:
		if len(x) == 2 {
			c, ok1 := x[0].(string)
			val, ok2 := x[1].(string)
			if ok1 && ok2 {
				return Tuple(c, val), nil
			}
		}
	case Input:
		return x, nil
	}
	return Input{}, &PolicyError{
		Kind:    KindTypeMismatch,
		Message: fmt.Sprintf("expected a string or a (class, value) pair, got %T", v),
	}
}

// IsTuple reports whether the input was given as an explicit pair.
func (in Input) IsTuple() bool {
	return in.tuple
}

// String renders the input as the user wrote it.
func (in Input) String() string {
	if in.tuple {
		return in.pair.String()
	}
	return in.text
}

// splitText splits s on the first separator present, in priority order.
// ok is false when s contains no separator.
func splitText(s string) (class, value string, ok bool) {
	for _, sep := range Separators {
		if i := strings.Index(s, sep); i >= 0 {
			return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):]), true
		}
	}
	return "", strings.TrimSpace(s), false
}

// AnnotationFetcher reads the annotations currently attached to a segment in
// a table. Implementations are expected to be eventually consistent; the
// engine never retries.
type AnnotationFetcher interface {
	FetchAnnotations(ctx context.Context, table string, segment uint64) ([]Pair, error)
}

// FetcherFunc adapts a function to AnnotationFetcher.
type FetcherFunc func(ctx context.Context, table string, segment uint64) ([]Pair, error)

// FetchAnnotations calls f.
func (f FetcherFunc) FetchAnnotations(ctx context.Context, table string, segment uint64) ([]Pair, error) {
	return f(ctx, table, segment)
}
