// Package datastore reads and writes segment annotations.
//
// A Store is what the policy engine fetches existing annotations from and
// what approved annotations are posted to. Three backends are provided:
//
//   - MemoryStore keeps everything in process, for tests and dry runs
//   - SQLiteStore persists to a local SQLite file
//   - CAVEClient talks JSON over HTTP to a remote annotation service
//
// Annotations are stored the way the remote service stores them: the value
// in Tag and, for paired tables, the class in Tag2.
//
// Instrument wraps any Store with metrics and tracing:
//
//	store = datastore.Instrument(store, collector, tracer)
//	eng.AuthorizePost(ctx, segment, in, ref, store)
//
// No backend retries. A fetch or post that fails returns its error to the
// caller unchanged.
package datastore
