// Package bot turns chat messages into annotation lookups and uploads.
//
// A message is parsed into a Command and handled by a Processor, which
// returns the text to send back. Supported messages:
//
//	help                                   usage text
//	find chordotonal neuron and ascending  segments carrying every term
//	648518346486614449?                    annotations on a segment
//	648518346486614449??                   the same, with details
//	48848 114737 2690? all                 a point instead of a segment ID
//	648518346486614449! primary class > central neuron
//
// Uploads are validated against each configured table in order, checked
// against the sender's permissions and the table's posting rules, then
// posted and recorded in the upload ledger. Every collaborator error is
// rendered into the reply; Process never fails.
package bot
