// Package server runs the fanc HTTP API.
//
// It mounts the annotation, table and bot routes from the handlers package
// next to the health, version and metrics endpoints, wraps them in the
// middleware chain, and manages graceful shutdown on context cancellation,
// SIGINT or SIGTERM.
//
//	api, err := handlers.New(handlers.Deps{Engine: eng, Tables: registry, Fetcher: store})
//	if err != nil {
//		return err
//	}
//	srv := server.NewServer(&cfg.Server, api, server.Options{
//		Health:      checker,
//		Metrics:     collector,
//		MetricsPath: cfg.Telemetry.Metrics.Path,
//		Logger:      logger,
//	})
//	return srv.Start(ctx)
package server
