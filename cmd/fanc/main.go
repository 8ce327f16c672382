// Command fanc checks and posts FANC neuron annotations against governed
// vocabularies.
//
// Usage:
//
//	# Serve the HTTP API, and the chat bot endpoint when enabled
//	fanc serve --config fanc.yaml
//
//	# Check an annotation without posting it
//	fanc validate --table neuron_information "neuron identity: DNa02"
//	fanc check --table neuron_information --segment 648518346486614449 "left"
//
//	# Post an annotation and record it in the uploads ledger
//	fanc annotate --table neuron_information --segment 648518346486614449 --user-id 42 "left"
//
//	# Inspect and lint vocabularies
//	fanc tables
//	fanc tree neuron_information
//	fanc lint vocab/
//
//	# Export or prune the uploads ledger
//	fanc uploads export --output uploads.csv
package main

func main() {
	Execute()
}
