package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fanc.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := m[key]
		return v, ok
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  listen_address: ":8443"
  read_timeout: 5s
vocabulary:
  path: vocab/
  include_defaults: false
  watch: true
datastore:
  backend: cave
  dataset: sandbox
  cave:
    base_url: https://cave.example.org
bot:
  enabled: true
  tables: [neuron_information, proofreading_notes]
  permissions_file: perms.json
telemetry:
  logging:
    level: debug
    format: text
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Server.ListenAddress != ":8443" || cfg.Server.ReadTimeout != 5*time.Second {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.Server.WriteTimeout != DefaultWriteTimeout {
		t.Errorf("WriteTimeout default not applied: %v", cfg.Server.WriteTimeout)
	}
	if cfg.Vocabulary.DefaultsEnabled() || !cfg.Vocabulary.Watch {
		t.Errorf("Vocabulary = %+v", cfg.Vocabulary)
	}
	if cfg.Datastore.Backend != "cave" || cfg.Datastore.Dataset != "sandbox" {
		t.Errorf("Datastore = %+v", cfg.Datastore)
	}
	if cfg.Datastore.CAVE.Timeout != DefaultCAVETimeout {
		t.Errorf("CAVE.Timeout = %v", cfg.Datastore.CAVE.Timeout)
	}
	if len(cfg.Bot.Tables) != 2 {
		t.Errorf("Bot.Tables = %v", cfg.Bot.Tables)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{name: "bad yaml", content: "server: [", want: "failed to parse"},
		{name: "bad backend", content: "datastore:\n  backend: postgres\n", want: "datastore.backend"},
		{name: "cave without url", content: "datastore:\n  backend: cave\n", want: "datastore.cave.base_url"},
		{name: "bad schedule", content: "uploads:\n  retention:\n    days: 30\n    schedule: nightly\n", want: "uploads.retention.schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("LoadConfig() expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want substring %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestLoadWithEnv(t *testing.T) {
	env := envFrom(map[string]string{
		"FANC_SERVER_LISTEN_ADDRESS":          "0.0.0.0:9090",
		"FANC_DATASTORE_BACKEND":              "memory",
		"FANC_VOCABULARY_INCLUDE_DEFAULTS":    "false",
		"FANC_BOT_TABLES":                     "neuron_information, proofreading_notes,",
		"FANC_TELEMETRY_LOGGING_LEVEL":        "warn",
		"FANC_TELEMETRY_TRACING_SAMPLE_RATIO": "0.25",
	})

	cfg, err := loadWithEnv("", env)
	if err != nil {
		t.Fatalf("loadWithEnv() error = %v", err)
	}
	if cfg.Server.ListenAddress != "0.0.0.0:9090" {
		t.Errorf("ListenAddress = %q", cfg.Server.ListenAddress)
	}
	if cfg.Datastore.Backend != "memory" {
		t.Errorf("Backend = %q", cfg.Datastore.Backend)
	}
	if cfg.Vocabulary.DefaultsEnabled() {
		t.Error("FANC_VOCABULARY_INCLUDE_DEFAULTS=false ignored")
	}
	if got := strings.Join(cfg.Bot.Tables, "|"); got != "neuron_information|proofreading_notes" {
		t.Errorf("Bot.Tables = %q", got)
	}
	if cfg.Telemetry.Logging.Level != "warn" || cfg.Telemetry.Tracing.SampleRatio != 0.25 {
		t.Errorf("Telemetry = %+v", cfg.Telemetry)
	}
}

func TestLoadWithEnv_OverridesFile(t *testing.T) {
	path := writeConfig(t, "datastore:\n  backend: cave\n  cave:\n    base_url: https://cave.example.org\n")
	env := envFrom(map[string]string{"FANC_DATASTORE_BACKEND": "sqlite"})

	cfg, err := loadWithEnv(path, env)
	if err != nil {
		t.Fatalf("loadWithEnv() error = %v", err)
	}
	if cfg.Datastore.Backend != "sqlite" || cfg.Datastore.SQLite.Path != DefaultDatastorePath {
		t.Errorf("Datastore = %+v", cfg.Datastore)
	}
}

func TestLoadWithEnv_InvalidValue(t *testing.T) {
	env := envFrom(map[string]string{
		"FANC_SERVER_READ_TIMEOUT": "soon",
		"FANC_BOT_FAKE":            "maybe",
	})

	_, err := loadWithEnv("", env)
	var verr ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want ValidationError", err)
	}
	if len(verr.Errors) != 2 {
		t.Errorf("got %d field errors, want 2: %v", len(verr.Errors), verr)
	}
}

func TestReadSecrets(t *testing.T) {
	tokenFile := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(tokenFile, []byte("s3cr3t\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	cfg.Datastore.CAVE.TokenFile = tokenFile
	if err := ReadSecrets(cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Datastore.CAVE.Token != "s3cr3t" {
		t.Errorf("Token = %q", cfg.Datastore.CAVE.Token)
	}

	cfg.Datastore.CAVE.Token = "direct"
	cfg.Datastore.CAVE.TokenFile = filepath.Join(t.TempDir(), "missing")
	if err := ReadSecrets(cfg); err != nil {
		t.Errorf("token file read although token was set: %v", err)
	}
}

func TestLoadWithEnv_GitVocabulary(t *testing.T) {
	env := envFrom(map[string]string{
		"FANC_VOCABULARY_GIT_REPOSITORY":    "https://github.com/fanc/vocab.git",
		"FANC_VOCABULARY_GIT_TOKEN":         "ghp_abc",
		"FANC_VOCABULARY_GIT_POLL_INTERVAL": "1m",
	})
	path := writeConfig(t, "vocabulary:\n  path: tables\n  git:\n    auth:\n      type: token\n")

	cfg, err := loadWithEnv(path, env)
	if err != nil {
		t.Fatalf("loadWithEnv() error = %v", err)
	}
	g := cfg.Vocabulary.Git
	if !g.Enabled() || g.Auth.Token != "ghp_abc" || g.PollInterval != time.Minute {
		t.Errorf("Git = %+v", g)
	}
	if g.Branch != DefaultGitBranch || g.LocalPath != DefaultGitLocalPath {
		t.Errorf("git defaults not applied: %+v", g)
	}
}
