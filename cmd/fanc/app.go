package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"htem/fanc/pkg/cli"
	"htem/fanc/pkg/config"
	"htem/fanc/pkg/datastore"
	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/policy/git"
	"htem/fanc/pkg/policy/manager"
	"htem/fanc/pkg/telemetry/logging"
	"htem/fanc/pkg/vocab"
)

// session is what a one-shot command needs: configuration, a logger and
// an engine over the configured vocabularies.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *manager.Registry
	engine   *engine.Engine
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewCommandError("config", err)
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*slog.Logger, error) {
	l := cfg.Telemetry.Logging
	return logging.New(logging.Config{
		Level:         l.Level,
		Format:        l.Format,
		AddSource:     l.AddSource,
		RedactSecrets: l.RedactionEnabled(),
		Writer:        os.Stderr,
	})
}

func managerConfig(cfg *config.Config) manager.Config {
	return manager.Config{
		Path:             cfg.Vocabulary.Path,
		IncludeDefaults:  cfg.Vocabulary.DefaultsEnabled(),
		Watch:            cfg.Vocabulary.Watch,
		DebounceInterval: cfg.Vocabulary.DebounceInterval,
	}
}

// vocabularyRepository clones the configured git vocabulary repository,
// or opens an existing clone, and points mcfg at the files inside it. It
// returns nil when no repository is configured. The local file watcher is
// turned off since the clone only changes through the syncer.
func vocabularyRepository(ctx context.Context, cfg *config.Config, mcfg *manager.Config) (*git.Repository, error) {
	if !cfg.Vocabulary.Git.Enabled() {
		return nil, nil
	}
	repo, err := git.NewRepository(cfg.Vocabulary.Git, cfg.Vocabulary.Path)
	if err != nil {
		return nil, err
	}
	if err := repo.Clone(ctx); err != nil {
		return nil, err
	}
	mcfg.Path = repo.VocabularyPath()
	mcfg.Watch = false
	return repo, nil
}

// newSession loads configuration and vocabularies for a one-shot command.
// A git vocabulary source is used as cloned; it is not pulled.
func newSession(ctx context.Context) (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, cli.NewCommandError("logging", err)
	}

	mcfg := managerConfig(cfg)
	mcfg.Watch = false
	if _, err := vocabularyRepository(ctx, cfg, &mcfg); err != nil {
		return nil, cli.NewCommandError("vocabulary", err)
	}
	m, err := manager.New(mcfg, logger)
	if err != nil {
		return nil, cli.NewCommandError("vocabulary", err)
	}
	if err := m.Load(); err != nil {
		return nil, cli.NewCommandError("vocabulary", err)
	}

	eng, err := engine.New(m.Registry(), engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	return &session{cfg: cfg, logger: logger, registry: m.Registry(), engine: eng}, nil
}

// openStore opens the configured datastore for the configured dataset.
func (s *session) openStore() (datastore.Store, string, error) {
	dataset := manager.ResolveDataset(s.cfg.Datastore.Dataset)
	store, err := datastore.Open(&s.cfg.Datastore, dataset)
	if err != nil {
		return nil, "", cli.NewCommandError("datastore", err)
	}
	return store, dataset, nil
}

// tableFlags select the table a command evaluates against.
type tableFlags struct {
	table    string
	treeFile string
	values   []string
}

func (f *tableFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.table, "table", "t", "", "registered table name")
	cmd.Flags().StringVar(&f.treeFile, "tree-file", "", "YAML file holding an inline vocabulary tree")
	cmd.Flags().StringSliceVar(&f.values, "values", nil, "inline flat vocabulary values")
}

// ref builds the table reference. Exactly one of the flags must be set.
func (f *tableFlags) ref() (engine.TableRef, error) {
	set := 0
	for _, ok := range []bool{f.table != "", f.treeFile != "", len(f.values) > 0} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return engine.TableRef{}, cli.NewUsageError("--table", "exactly one of --table, --tree-file or --values is required")
	}

	switch {
	case f.table != "":
		return engine.Named(f.table), nil
	case len(f.values) > 0:
		return engine.InlineFlat(f.values...), nil
	}

	data, err := os.ReadFile(f.treeFile)
	if err != nil {
		return engine.TableRef{}, cli.NewCommandError("tree-file", err)
	}
	var tree vocab.Tree
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return engine.TableRef{}, cli.NewCommandError("tree-file", fmt.Errorf("failed to parse %s: %w", f.treeFile, err))
	}
	return engine.InlineTree(tree), nil
}

// annotationInput builds the input from the positional argument and an
// optional explicit class.
func annotationInput(args []string, class string) (engine.Input, error) {
	if len(args) != 1 || strings.TrimSpace(args[0]) == "" {
		return engine.Input{}, cli.NewUsageError("annotation", "exactly one annotation argument is required")
	}
	if class != "" {
		return engine.Tuple(class, args[0]), nil
	}
	return engine.Text(args[0]), nil
}

// parseExisting splits "class: value" into a pair. Text without a colon
// is a bare value.
func parseExisting(s string) engine.Pair {
	class, value, ok := strings.Cut(s, ":")
	if !ok {
		return engine.Pair{Value: strings.TrimSpace(s)}
	}
	return engine.Pair{Class: strings.TrimSpace(class), Value: strings.TrimSpace(value)}
}

// write renders v in the format named by the --format flag.
func write(cmd *cobra.Command, format string, v any) error {
	f, err := cli.ParseFormat(format)
	if err != nil {
		return err
	}
	formatter, err := cli.NewFormatter(f)
	if err != nil {
		return err
	}
	return formatter.Write(output(cmd), v)
}

func output(cmd *cobra.Command) io.Writer {
	if cmd == nil {
		return os.Stdout
	}
	return cmd.OutOrStdout()
}
