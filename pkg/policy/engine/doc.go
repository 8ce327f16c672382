// Package engine decides whether an annotation may be attached to a segment.
//
// The engine works in three layers, each usable on its own:
//
//   - Pair parsing normalizes the accepted input shapes (a bare value, a
//     "class: value" string, or an explicit class/value tuple) into a Pair,
//     inferring the class from the vocabulary when it is omitted.
//   - Validation checks that a Pair is an edge of the table's vocabulary, or
//     a member of its flat value list.
//   - Authorization checks a valid Pair against the annotations already on a
//     segment: exact duplicates, one value per non-exempt class, mutually
//     exclusive values within exempt classes, and posting only beneath a root
//     class or a value the segment already carries.
//
// # Results
//
// Every check produces a Result. Callers that want an error use
// Result.Error or Result.Unpack(true); callers that want a plain boolean use
// Result.Unpack(false). The same evaluation runs in both cases.
//
// # Collaborators
//
// Existing annotations are read through an AnnotationFetcher exactly once per
// authorization, immediately before the rules are evaluated. Fetch errors are
// returned unchanged. The engine does not lock across check-then-post; hosts
// that need exactly-once posting must serialize posts per segment.
//
// # Basic Usage
//
//	eng, err := engine.New(registry, engine.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	ok, err := eng.IsAllowedToPost(ctx, segID,
//	    engine.Text("motor neuron > T1 leg motor neuron"),
//	    engine.Named("neuron_information"), store, true)
package engine
