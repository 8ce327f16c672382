// Package telemetry groups the observability packages used by the fanc
// server and CLI.
//
//   - logging: slog setup with secret redaction and request-scoped fields
//   - metrics: Prometheus collectors for decisions, requests, datastore
//     calls and vocabulary reloads
//   - tracing: OpenTelemetry spans exported over OTLP/gRPC
//   - health: liveness, readiness and version endpoints
//
// cmd/fanc builds one of each per process and hands them to the engine,
// the datastore wrapper and the HTTP server.
package telemetry
