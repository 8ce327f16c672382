package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"htem/fanc/pkg/config"
	"htem/fanc/pkg/server/handlers"
	"htem/fanc/pkg/server/middleware"
	"htem/fanc/pkg/telemetry/health"
	"htem/fanc/pkg/telemetry/metrics"
	"htem/fanc/pkg/telemetry/tracing"
)

// BuildInfo is reported by /version.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}

// Options are the server's collaborators beyond the API itself.
type Options struct {
	// Health serves /health and /ready. Optional.
	Health *health.Checker

	// Metrics records request metrics and serves MetricsPath. Optional.
	Metrics     *metrics.Collector
	MetricsPath string

	// Tracer starts a span per request. Optional.
	Tracer *tracing.Tracer

	Build  BuildInfo
	Logger *slog.Logger
}

// Server is the fanc HTTP server.
type Server struct {
	config       *config.ServerConfig
	api          *handlers.API
	opts         Options
	logger       *slog.Logger
	httpServer   *http.Server
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
	addr         net.Addr
}

// NewServer creates a server for api.
func NewServer(cfg *config.ServerConfig, api *handlers.API, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		config: cfg,
		api:    api,
		opts:   opts,
		logger: logger.With("component", "server"),
	}
}

// Start listens on the configured address and blocks until ctx is
// cancelled, SIGINT or SIGTERM arrives, or the server fails.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		ln.Close()
		return errors.New("server is already running")
	}
	s.isRunning = true
	s.addr = ln.Addr()
	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}
	srv := s.httpServer
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}
	return s.Shutdown(context.Background())
}

// Shutdown gracefully stops the server, waiting up to the configured
// shutdown timeout for in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.RLock()
		srv, running := s.httpServer, s.isRunning
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.api.Register(mux)

	if s.opts.Health != nil {
		mux.HandleFunc("GET /health", s.opts.Health.LivenessHandler())
		mux.HandleFunc("GET /ready", s.opts.Health.ReadinessHandler())
	}
	b := s.opts.Build
	mux.HandleFunc("GET /version", health.VersionHandler(b.Version, b.Commit, b.BuildTime))

	var recorder middleware.HTTPRecorder
	if s.opts.Metrics != nil && s.opts.Metrics.Enabled() {
		path := s.opts.MetricsPath
		if path == "" {
			path = config.DefaultMetricsPath
		}
		mux.Handle("GET "+path, s.opts.Metrics.Handler())
		recorder = s.opts.Metrics
	}

	chain := []func(http.Handler) http.Handler{
		middleware.Recovery(s.logger),
		middleware.RequestID,
	}
	if s.opts.Tracer != nil && s.opts.Tracer.Enabled() {
		chain = append(chain, tracing.HTTPMiddleware(s.opts.Tracer))
	}
	chain = append(chain, middleware.Logging(s.logger), middleware.Metrics(recorder))

	return middleware.Chain(mux, chain...)
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the listening address once the server has started.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}
