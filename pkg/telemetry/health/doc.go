// Package health provides liveness, readiness and version endpoints for
// the fanc service.
//
//   - /health: the process is running
//   - /ready: vocabulary tables are loaded and the datastore answers
//   - /version: build information
//
// Components register readiness checks by name:
//
//	checker := health.New(5 * time.Second)
//	checker.RegisterCheck("vocabulary", health.TablesLoaded(registry))
//	checker.RegisterCheck("datastore", health.Ping(store))
//
// Checks run concurrently, each bounded by the checker timeout. Readiness
// is "degraded" and the endpoint answers 503 when any check fails.
package health
