package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FANC_"

// LoadConfig loads configuration from a YAML file, applies defaults and
// validates the result.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from path and applies
// FANC_* environment overrides on top. An empty path starts from defaults.
//
// The loading sequence is:
//  1. Load YAML from file (or start from defaults)
//  2. Apply default values
//  3. Apply environment variable overrides
//  4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	return loadWithEnv(path, os.LookupEnv)
}

func loadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = NewDefaultConfig()
	} else {
		var err error
		cfg, err = LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg, lookup); err != nil {
		return nil, err
	}
	// A backend switched by the environment may need its own defaults.
	ApplyDefaults(cfg)
	if err := ReadSecrets(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}
	return cfg, nil
}

// ReadSecrets fills the datastore token from its token file when no token
// is set directly.
func ReadSecrets(cfg *Config) error {
	cave := &cfg.Datastore.CAVE
	if cave.Token != "" || cave.TokenFile == "" {
		return nil
	}
	data, err := os.ReadFile(cave.TokenFile)
	if err != nil {
		return fmt.Errorf("failed to read datastore token file %q: %w", cave.TokenFile, err)
	}
	cave.Token = strings.TrimSpace(string(data))
	return nil
}

// envOverride binds one environment variable to a field.
type envOverride struct {
	name  string
	apply func(val string) error
}

func stringVar(dst *string) func(string) error {
	return func(val string) error {
		*dst = val
		return nil
	}
}

func boolVar(dst *bool) func(string) error {
	return func(val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func boolPtrVar(dst **bool) func(string) error {
	return func(val string) error {
		b, err := strconv.ParseBool(val)
		if err != nil {
			return err
		}
		*dst = &b
		return nil
	}
}

func durationVar(dst *time.Duration) func(string) error {
	return func(val string) error {
		d, err := time.ParseDuration(val)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func intVar(dst *int) func(string) error {
	return func(val string) error {
		i, err := strconv.Atoi(val)
		if err != nil {
			return err
		}
		*dst = i
		return nil
	}
}

func floatVar(dst *float64) func(string) error {
	return func(val string) error {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return err
		}
		*dst = f
		return nil
	}
}

func listVar(dst *[]string) func(string) error {
	return func(val string) error {
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*dst = out
		return nil
	}
}

func envOverrides(cfg *Config) []envOverride {
	return []envOverride{
		{"SERVER_LISTEN_ADDRESS", stringVar(&cfg.Server.ListenAddress)},
		{"SERVER_READ_TIMEOUT", durationVar(&cfg.Server.ReadTimeout)},
		{"SERVER_WRITE_TIMEOUT", durationVar(&cfg.Server.WriteTimeout)},
		{"SERVER_SHUTDOWN_TIMEOUT", durationVar(&cfg.Server.ShutdownTimeout)},

		{"VOCABULARY_PATH", stringVar(&cfg.Vocabulary.Path)},
		{"VOCABULARY_INCLUDE_DEFAULTS", boolPtrVar(&cfg.Vocabulary.IncludeDefaults)},
		{"VOCABULARY_WATCH", boolVar(&cfg.Vocabulary.Watch)},
		{"VOCABULARY_GIT_REPOSITORY", stringVar(&cfg.Vocabulary.Git.Repository)},
		{"VOCABULARY_GIT_BRANCH", stringVar(&cfg.Vocabulary.Git.Branch)},
		{"VOCABULARY_GIT_TOKEN", stringVar(&cfg.Vocabulary.Git.Auth.Token)},
		{"VOCABULARY_GIT_POLL_INTERVAL", durationVar(&cfg.Vocabulary.Git.PollInterval)},

		{"DATASTORE_BACKEND", stringVar(&cfg.Datastore.Backend)},
		{"DATASTORE_DATASET", stringVar(&cfg.Datastore.Dataset)},
		{"DATASTORE_SQLITE_PATH", stringVar(&cfg.Datastore.SQLite.Path)},
		{"DATASTORE_CAVE_BASE_URL", stringVar(&cfg.Datastore.CAVE.BaseURL)},
		{"DATASTORE_CAVE_TOKEN", stringVar(&cfg.Datastore.CAVE.Token)},
		{"DATASTORE_CAVE_TOKEN_FILE", stringVar(&cfg.Datastore.CAVE.TokenFile)},
		{"DATASTORE_CAVE_TIMEOUT", durationVar(&cfg.Datastore.CAVE.Timeout)},

		{"UPLOADS_ENABLED", boolPtrVar(&cfg.Uploads.Enabled)},
		{"UPLOADS_BACKEND", stringVar(&cfg.Uploads.Backend)},
		{"UPLOADS_SQLITE_PATH", stringVar(&cfg.Uploads.SQLite.Path)},
		{"UPLOADS_RETENTION_DAYS", intVar(&cfg.Uploads.Retention.Days)},
		{"UPLOADS_RETENTION_SCHEDULE", stringVar(&cfg.Uploads.Retention.Schedule)},

		{"BOT_ENABLED", boolVar(&cfg.Bot.Enabled)},
		{"BOT_TABLES", listVar(&cfg.Bot.Tables)},
		{"BOT_PERMISSIONS_FILE", stringVar(&cfg.Bot.PermissionsFile)},
		{"BOT_FAKE", boolVar(&cfg.Bot.Fake)},

		{"TELEMETRY_LOGGING_LEVEL", stringVar(&cfg.Telemetry.Logging.Level)},
		{"TELEMETRY_LOGGING_FORMAT", stringVar(&cfg.Telemetry.Logging.Format)},
		{"TELEMETRY_METRICS_ENABLED", boolPtrVar(&cfg.Telemetry.Metrics.Enabled)},
		{"TELEMETRY_TRACING_ENABLED", boolVar(&cfg.Telemetry.Tracing.Enabled)},
		{"TELEMETRY_TRACING_ENDPOINT", stringVar(&cfg.Telemetry.Tracing.Endpoint)},
		{"TELEMETRY_TRACING_SAMPLE_RATIO", floatVar(&cfg.Telemetry.Tracing.SampleRatio)},
	}
}

// applyEnvOverrides applies FANC_* variables. Values that do not parse are
// reported as validation errors rather than silently ignored.
func applyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	var errs []FieldError
	for _, o := range envOverrides(cfg) {
		val, ok := lookup(EnvPrefix + o.name)
		if !ok || val == "" {
			continue
		}
		if err := o.apply(val); err != nil {
			errs = append(errs, FieldError{
				Field:   EnvPrefix + o.name,
				Message: fmt.Sprintf("invalid value %q: %v", val, err),
			})
		}
	}
	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}
