// Package uploads keeps a ledger of the annotations posted through fanc.
//
// Every successful post is recorded with the datastore's annotation ID, the
// segment, the annotation text, the datastore user ID and the chat user
// who asked for it. The ledger answers "who posted what, when" without a
// round trip to the datastore and can be exported in the same CSV layout
// the bot's upload log has always used:
//
//	annotation_id,segment_id,annotation,user_id
//
// Two implementations are provided: MemoryLedger and SQLiteLedger. A Pruner
// removes entries older than the retention period, on a cron schedule when
// started.
package uploads
