// Package middleware provides the HTTP middleware chain for the fanc API.
//
// The server applies, from outermost to innermost:
//
//	Recovery    turns handler panics into 500 responses
//	RequestID   assigns or propagates X-Request-ID
//	Logging     logs one line per request
//	Metrics     records request counts and latency per route pattern
//
// Metrics must wrap the ServeMux directly so it observes the matched
// route pattern.
package middleware
