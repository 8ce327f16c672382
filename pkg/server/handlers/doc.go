// Package handlers implements the fanc HTTP API.
//
//	POST /v1/annotations/parse      split an annotation into class and value
//	POST /v1/annotations/validate   check an annotation against a vocabulary
//	POST /v1/annotations/authorize  check an annotation against a segment
//	GET  /v1/tables                 list governed tables
//	GET  /v1/tables/{name}/tree     render a table's vocabulary
//	POST /v1/bot/messages           answer a chat message
//
// Annotation requests name a registered table or carry an inline vocabulary:
//
//	{"table": "neuron_information", "annotation": "primary class > central neuron"}
//	{"tree": {"color": {"red": {}, "blue": {}}}, "annotation": ["color", "red"]}
//	{"values": ["orphan", "merge error"], "annotation": "orphan"}
//
// Policy rejections are not HTTP errors: validate and authorize answer 200
// with "ok": false and the structured reason.
package handlers
