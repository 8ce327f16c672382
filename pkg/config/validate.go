package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError is a validation error for a single configuration field.
type FieldError struct {
	// Field is the dotted path to the field, e.g. "server.listen_address".
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every field error found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "configuration validation failed"
	case 1:
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// listing every problem, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateVocabulary(&cfg.Vocabulary)...)
	errs = append(errs, validateDatastore(&cfg.Datastore)...)
	errs = append(errs, validateUploads(&cfg.Uploads)...)
	errs = append(errs, validateBot(&cfg.Bot)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{Field: "server.listen_address", Message: "listen address is required"})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be positive"})
	}
	if cfg.MaxBodyBytes < 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "max body bytes must be non-negative"})
	}
	return errs
}

func validateVocabulary(cfg *VocabularyConfig) []FieldError {
	var errs []FieldError

	g := cfg.Git
	if !g.Enabled() {
		return nil
	}
	if strings.Contains(g.Repository, "://") {
		if u, err := url.Parse(g.Repository); err != nil || u.Host == "" {
			errs = append(errs, FieldError{Field: "vocabulary.git.repository", Message: fmt.Sprintf("invalid URL %q", g.Repository)})
		}
	}
	if g.Branch == "" {
		errs = append(errs, FieldError{Field: "vocabulary.git.branch", Message: "branch is required"})
	}
	if g.LocalPath == "" {
		errs = append(errs, FieldError{Field: "vocabulary.git.local_path", Message: "local path is required"})
	}
	if g.Depth < 0 {
		errs = append(errs, FieldError{Field: "vocabulary.git.depth", Message: "depth must be non-negative"})
	}
	if g.PollInterval < 0 {
		errs = append(errs, FieldError{Field: "vocabulary.git.poll_interval", Message: "poll interval must be non-negative"})
	}
	if g.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "vocabulary.git.timeout", Message: "timeout must be positive"})
	}
	if filepath.IsAbs(cfg.Path) {
		errs = append(errs, FieldError{Field: "vocabulary.path", Message: "path must be relative to the repository when git is enabled"})
	}

	switch g.Auth.Type {
	case "none":
	case "token":
		if g.Auth.Token == "" {
			errs = append(errs, FieldError{Field: "vocabulary.git.auth.token", Message: "token is required for token auth"})
		}
	case "ssh":
		if g.Auth.SSHKeyPath == "" {
			errs = append(errs, FieldError{Field: "vocabulary.git.auth.ssh_key_path", Message: "key path is required for ssh auth"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "vocabulary.git.auth.type",
			Message: fmt.Sprintf("unknown auth type %q (must be none, token or ssh)", g.Auth.Type),
		})
	}
	return errs
}

func validateDatastore(cfg *DatastoreConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "datastore.sqlite.path", Message: "path is required for the sqlite backend"})
		}
	case "cave":
		if cfg.CAVE.BaseURL == "" {
			errs = append(errs, FieldError{Field: "datastore.cave.base_url", Message: "base URL is required for the cave backend"})
		} else if u, err := url.Parse(cfg.CAVE.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, FieldError{Field: "datastore.cave.base_url", Message: fmt.Sprintf("invalid URL %q", cfg.CAVE.BaseURL)})
		}
		if cfg.CAVE.Timeout <= 0 {
			errs = append(errs, FieldError{Field: "datastore.cave.timeout", Message: "timeout must be positive"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "datastore.backend",
			Message: fmt.Sprintf("unknown backend %q (must be memory, sqlite or cave)", cfg.Backend),
		})
	}
	return errs
}

func validateUploads(cfg *UploadsConfig) []FieldError {
	var errs []FieldError

	if !cfg.LedgerEnabled() {
		return nil
	}
	switch cfg.Backend {
	case "memory":
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "uploads.sqlite.path", Message: "path is required for the sqlite backend"})
		}
	default:
		errs = append(errs, FieldError{
			Field:   "uploads.backend",
			Message: fmt.Sprintf("unknown backend %q (must be memory or sqlite)", cfg.Backend),
		})
	}

	if cfg.Retention.Days < 0 {
		errs = append(errs, FieldError{Field: "uploads.retention.days", Message: "retention days must be non-negative"})
	}
	if cfg.Retention.Days > 0 {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "uploads.retention.schedule",
				Message: fmt.Sprintf("invalid cron expression %q: %v", cfg.Retention.Schedule, err),
			})
		}
	}
	return errs
}

func validateBot(cfg *BotConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return nil
	}
	if len(cfg.Tables) == 0 {
		errs = append(errs, FieldError{Field: "bot.tables", Message: "at least one table is required"})
	}
	if cfg.PermissionsFile == "" {
		errs = append(errs, FieldError{Field: "bot.permissions_file", Message: "permissions file is required when the bot is enabled"})
	}
	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.level", Message: fmt.Sprintf("unknown level %q", cfg.Logging.Level)})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{Field: "telemetry.logging.format", Message: fmt.Sprintf("unknown format %q", cfg.Logging.Format)})
	}

	if !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "path must start with /"})
	}
	for i := 1; i < len(cfg.Metrics.DurationBuckets); i++ {
		if cfg.Metrics.DurationBuckets[i] <= cfg.Metrics.DurationBuckets[i-1] {
			errs = append(errs, FieldError{Field: "telemetry.metrics.duration_buckets", Message: "buckets must be strictly increasing"})
			break
		}
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{Field: "telemetry.tracing.sample_ratio", Message: "sample ratio must be between 0 and 1"})
	}
	return errs
}
