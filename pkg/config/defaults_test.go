package config

import (
	"testing"
	"time"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	if cfg.Server.ListenAddress != DefaultListenAddress {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Datastore.Backend != "sqlite" || cfg.Datastore.SQLite.Path != DefaultDatastorePath {
		t.Errorf("Datastore = %+v", cfg.Datastore)
	}
	if !cfg.Vocabulary.DefaultsEnabled() {
		t.Error("built-in tables should be enabled by default")
	}
	if !cfg.Uploads.LedgerEnabled() {
		t.Error("upload ledger should be enabled by default")
	}
	if !cfg.Telemetry.Logging.RedactionEnabled() {
		t.Error("redaction should be enabled by default")
	}
	if !cfg.Telemetry.Metrics.MetricsEnabled() {
		t.Error("metrics should be enabled by default")
	}
	if len(cfg.Bot.Tables) != 1 || cfg.Bot.Tables[0] != DefaultBotTable {
		t.Errorf("Bot.Tables = %v", cfg.Bot.Tables)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("default configuration does not validate: %v", err)
	}
}

func TestApplyDefaults_KeepsSetValues(t *testing.T) {
	off := false
	cfg := &Config{
		Server:     ServerConfig{ListenAddress: ":9000", ReadTimeout: time.Second},
		Vocabulary: VocabularyConfig{IncludeDefaults: &off},
		Datastore:  DatastoreConfig{Backend: "memory"},
		Telemetry:  TelemetryConfig{Logging: LoggingConfig{Level: "debug"}},
	}
	ApplyDefaults(cfg)

	if cfg.Server.ListenAddress != ":9000" || cfg.Server.ReadTimeout != time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Vocabulary.DefaultsEnabled() {
		t.Error("include_defaults: false was overridden")
	}
	if cfg.Datastore.SQLite.Path != "" {
		t.Errorf("memory backend got sqlite path %q", cfg.Datastore.SQLite.Path)
	}
	if cfg.Telemetry.Logging.Level != "debug" {
		t.Errorf("Level = %q", cfg.Telemetry.Logging.Level)
	}
}

func TestApplyDefaults_BucketsNotShared(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Telemetry.Metrics.DurationBuckets[0] = 42
	if DefaultDurationBuckets[0] == 42 {
		t.Error("DurationBuckets aliases DefaultDurationBuckets")
	}
}

func TestApplyDefaults_Git(t *testing.T) {
	cfg := NewDefaultConfig()
	if cfg.Vocabulary.Git.Branch != "" {
		t.Errorf("git defaults applied without a repository: %+v", cfg.Vocabulary.Git)
	}

	cfg = &Config{Vocabulary: VocabularyConfig{Git: GitConfig{Repository: "/srv/vocab", Branch: "dev"}}}
	ApplyDefaults(cfg)
	g := cfg.Vocabulary.Git
	if g.Branch != "dev" {
		t.Errorf("Branch = %q, want dev", g.Branch)
	}
	if g.LocalPath != DefaultGitLocalPath || g.PollInterval != DefaultGitPollInterval || g.Timeout != DefaultGitTimeout {
		t.Errorf("Git = %+v", g)
	}
	if g.Auth.Type != "none" {
		t.Errorf("Auth.Type = %q", g.Auth.Type)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}
