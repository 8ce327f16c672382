package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"htem/fanc/pkg/bot"
	"htem/fanc/pkg/cli"
	"htem/fanc/pkg/config"
	"htem/fanc/pkg/datastore"
	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/policy/git"
	"htem/fanc/pkg/policy/manager"
	"htem/fanc/pkg/server"
	"htem/fanc/pkg/server/handlers"
	"htem/fanc/pkg/telemetry/health"
	"htem/fanc/pkg/telemetry/metrics"
	"htem/fanc/pkg/telemetry/tracing"
	"htem/fanc/pkg/uploads"
)

var serveFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fanc HTTP server",
	Long: `Start the HTTP API. The chat bot endpoint is mounted when bot.enabled is
set, vocabulary files are reloaded on change when vocabulary.watch is set
or pulled from vocabulary.git.repository on its poll interval, and the
uploads ledger is pruned on its retention schedule.

Examples:
  # Start with defaults and FANC_* environment overrides
  fanc serve

  # Start with a config file and a different listen address
  fanc serve --config /etc/fanc/config.yaml --listen 0.0.0.0:8080

  # Build every component and exit
  fanc serve --dry-run`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "build every component and exit without serving")
}

// service is everything serve builds, with the order to tear it down in.
type service struct {
	logger  *slog.Logger
	manager *manager.Manager
	syncer  *git.Syncer
	pruner  *uploads.Pruner
	server  *server.Server
	closers []func(context.Context) error
}

func (s *service) close(ctx context.Context) {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](ctx); err != nil {
			s.logger.Warn("shutdown step failed", "error", err)
		}
	}
}

func (s *service) onClose(fn func(context.Context) error) {
	s.closers = append(s.closers, fn)
}

func closeFunc(c interface{ Close() error }) func(context.Context) error {
	return func(context.Context) error { return c.Close() }
}

// buildService wires the server from cfg. On error everything already
// built is closed.
func buildService(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *service, err error) {
	svc := &service{logger: logger}
	defer func() {
		if err != nil {
			svc.close(context.Background())
		}
	}()

	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	tracer, err := tracing.New(ctx, &cfg.Telemetry.Tracing, Version)
	if err != nil {
		return nil, fmt.Errorf("failed to start tracing: %w", err)
	}
	svc.onClose(tracer.Shutdown)

	mcfg := managerConfig(cfg)
	mcfg.OnReload = collector.RecordReload
	repo, err := vocabularyRepository(ctx, cfg, &mcfg)
	if err != nil {
		return nil, fmt.Errorf("failed to sync vocabulary repository: %w", err)
	}
	svc.manager, err = manager.New(mcfg, logger)
	if err != nil {
		return nil, err
	}
	svc.onClose(closeFunc(svc.manager))
	if err := svc.manager.Load(); err != nil {
		return nil, fmt.Errorf("failed to load vocabularies: %w", err)
	}
	if repo != nil {
		svc.syncer = git.NewSyncer(repo, svc.manager.Reload, git.SyncerConfig{
			Interval: cfg.Vocabulary.Git.PollInterval,
		}, logger)
	}
	registry := svc.manager.Registry()

	eng, err := engine.New(registry,
		engine.WithLogger(logger),
		engine.WithRecorder(collector),
		engine.WithTracer(tracer.Tracer()),
	)
	if err != nil {
		return nil, err
	}

	stores := manager.NewClientRegistry(func(dataset string) (datastore.Store, error) {
		s, err := datastore.Open(&cfg.Datastore, dataset)
		if err != nil {
			return nil, err
		}
		svc.onClose(closeFunc(s))
		return datastore.Instrument(s, collector, tracer.Tracer()), nil
	})
	dataset := manager.ResolveDataset(cfg.Datastore.Dataset)
	store, err := stores.Get(dataset)
	if err != nil {
		return nil, err
	}

	ledger, err := uploads.Open(&cfg.Uploads, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open uploads ledger: %w", err)
	}
	if ledger != nil {
		svc.onClose(closeFunc(ledger))
		svc.pruner = uploads.NewPruner(ledger, uploads.RetentionConfig{
			Days:     cfg.Uploads.Retention.Days,
			Schedule: cfg.Uploads.Retention.Schedule,
		}, logger)
	}

	checker := health.New(5 * time.Second)
	checker.RegisterCheck("vocabulary", health.TablesLoaded(registry))
	checker.RegisterCheck("datastore", health.Ping(store))
	if ledger != nil {
		checker.RegisterCheck("uploads", health.Ping(ledger))
	}

	deps := handlers.Deps{
		Engine:       eng,
		Tables:       registry,
		Fetcher:      store,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       logger,
	}
	if cfg.Bot.Enabled {
		deps.Bot, err = newBot(cfg, eng, store, ledger, dataset, logger)
		if err != nil {
			return nil, err
		}
	}
	api, err := handlers.New(deps)
	if err != nil {
		return nil, err
	}

	svc.server = server.NewServer(&cfg.Server, api, server.Options{
		Health:      checker,
		Metrics:     collector,
		MetricsPath: cfg.Telemetry.Metrics.Path,
		Tracer:      tracer,
		Build:       server.BuildInfo{Version: Version, Commit: GitCommit, BuildTime: BuildDate},
		Logger:      logger,
	})
	return svc, nil
}

func newBot(cfg *config.Config, eng *engine.Engine, store datastore.Store, ledger uploads.Ledger, dataset string, logger *slog.Logger) (*bot.Processor, error) {
	perms := bot.Permissions{}
	if cfg.Bot.PermissionsFile != "" {
		var err error
		perms, err = bot.LoadPermissions(cfg.Bot.PermissionsFile)
		if err != nil {
			return nil, err
		}
	}
	return bot.NewProcessor(bot.Options{
		Engine:      eng,
		Store:       store,
		Ledger:      ledger,
		Permissions: perms,
		Tables:      cfg.Bot.Tables,
		Fake:        cfg.Bot.Fake,
		SearchURL:   cfg.Bot.SearchURL,
		Dataset:     dataset,
		Contact:     cfg.Bot.Contact,
		Logger:      logger,
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	ctx, stop := cli.SignalContext(commandContext(cmd))
	defer stop()

	svc, err := buildService(ctx, cfg, logger)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer svc.close(context.Background())

	if serveFlags.dryRun {
		fmt.Fprintln(output(cmd), "Configuration OK")
		return nil
	}

	go func() {
		if err := svc.manager.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("vocabulary watcher stopped", "error", err)
		}
	}()
	if svc.syncer != nil {
		go svc.syncer.Run(ctx)
	}
	if svc.pruner != nil {
		if err := svc.pruner.Start(ctx); err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer svc.pruner.Stop()
	}

	return svc.server.Start(ctx)
}
