package config

import "time"

// Config is the root configuration for the fanc service and CLI.
type Config struct {
	// Server configures the HTTP API.
	Server ServerConfig `yaml:"server"`

	// Vocabulary configures where governed tables come from.
	Vocabulary VocabularyConfig `yaml:"vocabulary"`

	// Datastore configures where existing annotations are read and new ones
	// are posted.
	Datastore DatastoreConfig `yaml:"datastore"`

	// Uploads configures the ledger of annotations posted through fanc.
	Uploads UploadsConfig `yaml:"uploads"`

	// Bot configures the chat message endpoint.
	Bot BotConfig `yaml:"bot"`

	// Telemetry configures logging, metrics and tracing.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig contains configuration for the HTTP server.
type ServerConfig struct {
	// ListenAddress is the "host:port" to listen on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout bounds reading a request, including the body.
	// Default: 15s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout bounds writing a response.
	// Default: 30s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// IdleTimeout bounds keep-alive idle time.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 15s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// MaxBodyBytes limits request bodies.
	// Default: 1MB
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

// VocabularyConfig controls table loading.
type VocabularyConfig struct {
	// Path is a vocabulary YAML file or a directory of them. Empty serves
	// only the built-in tables.
	Path string `yaml:"path"`

	// IncludeDefaults registers the built-in FANC tables.
	// Default: true
	IncludeDefaults *bool `yaml:"include_defaults"`

	// Watch reloads tables when vocabulary files change.
	// Default: false
	Watch bool `yaml:"watch"`

	// DebounceInterval is the quiet period before a reload.
	// Default: 100ms
	DebounceInterval time.Duration `yaml:"debounce_interval"`

	// Git syncs vocabularies from a git repository. When Git.Repository is
	// set, Path is resolved inside the local clone.
	Git GitConfig `yaml:"git"`
}

// GitConfig configures a git-backed vocabulary source.
type GitConfig struct {
	// Repository is the clone URL or a local repository path.
	Repository string `yaml:"repository"`

	// Branch is checked out after cloning.
	// Default: "main"
	Branch string `yaml:"branch"`

	// LocalPath is where the repository is cloned.
	// Default: "data/vocabularies"
	LocalPath string `yaml:"local_path"`

	// Depth limits clone history. Zero clones the full history.
	Depth int `yaml:"depth"`

	// PollInterval is how often the remote is pulled. Zero disables polling.
	// Default: 5m
	PollInterval time.Duration `yaml:"poll_interval"`

	// Timeout bounds a single clone or pull.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// Auth selects credentials for the remote.
	Auth GitAuthConfig `yaml:"auth"`
}

// Enabled reports whether a repository is configured.
func (g GitConfig) Enabled() bool {
	return g.Repository != ""
}

// GitAuthConfig holds git credentials.
type GitAuthConfig struct {
	// Type is "none", "token" or "ssh".
	// Default: "none"
	Type string `yaml:"type"`

	// Token is an access token for HTTPS remotes. Prefer FANC_VOCABULARY_GIT_TOKEN.
	Token string `yaml:"token"`

	// SSHKeyPath is a private key file for SSH remotes.
	SSHKeyPath string `yaml:"ssh_key_path"`

	// SSHKeyPassphrase decrypts SSHKeyPath.
	SSHKeyPassphrase string `yaml:"ssh_key_passphrase"`
}

// DefaultsEnabled reports whether the built-in tables are registered.
func (v VocabularyConfig) DefaultsEnabled() bool {
	return v.IncludeDefaults == nil || *v.IncludeDefaults
}

// DatastoreConfig selects the annotation datastore.
type DatastoreConfig struct {
	// Backend is "memory", "sqlite" or "cave".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// Dataset is the dataset name or nickname ("production", "sandbox").
	// Default: "production"
	Dataset string `yaml:"dataset"`

	// SQLite configures the local SQLite datastore.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// CAVE configures the remote annotation service client.
	CAVE CAVEConfig `yaml:"cave"`
}

// SQLiteConfig configures a SQLite database file.
type SQLiteConfig struct {
	// Path is the database file.
	Path string `yaml:"path"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// CAVEConfig configures the remote annotation service.
type CAVEConfig struct {
	// BaseURL is the annotation service root, e.g. "https://cave.fanc-fly.com".
	BaseURL string `yaml:"base_url"`

	// Token is the bearer token. Prefer TokenFile or FANC_DATASTORE_CAVE_TOKEN.
	Token string `yaml:"token"`

	// TokenFile is a file holding the bearer token.
	TokenFile string `yaml:"token_file"`

	// Timeout bounds each request.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// UploadsConfig configures the upload ledger.
type UploadsConfig struct {
	// Enabled records every posted annotation.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Backend is "memory" or "sqlite".
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite configures the ledger database.
	SQLite SQLiteConfig `yaml:"sqlite"`

	// Retention configures pruning of old entries.
	Retention RetentionConfig `yaml:"retention"`
}

// LedgerEnabled reports whether uploads are recorded.
func (u UploadsConfig) LedgerEnabled() bool {
	return u.Enabled == nil || *u.Enabled
}

// RetentionConfig configures ledger pruning.
type RetentionConfig struct {
	// Days is how long entries are kept. Zero keeps them forever.
	// Default: 0
	Days int `yaml:"days"`

	// Schedule is a cron expression for the pruning job.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule"`
}

// BotConfig configures the chat message processor.
type BotConfig struct {
	// Enabled mounts the bot message endpoint.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Tables are tried in order when annotating.
	// Default: ["neuron_information"]
	Tables []string `yaml:"tables"`

	// PermissionsFile maps table name to chat user to datastore user ID, as JSON.
	PermissionsFile string `yaml:"permissions_file"`

	// Fake checks annotations without posting them.
	// Default: false
	Fake bool `yaml:"fake"`

	// SearchURL is the template for search result links. "{ids}" is
	// replaced with comma-separated segment IDs.
	SearchURL string `yaml:"search_url"`

	// Contact is who users are told to ask for upload permissions.
	Contact string `yaml:"contact"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Tracing TracingConfig `yaml:"tracing"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level"`

	// Format is "json" or "text".
	// Default: "json"
	Format string `yaml:"format"`

	// AddSource includes file and line in log entries.
	AddSource bool `yaml:"add_source"`

	// RedactSecrets scrubs tokens from log entries.
	// Default: true
	RedactSecrets *bool `yaml:"redact_secrets"`
}

// RedactionEnabled reports whether secrets are scrubbed from logs.
func (l LoggingConfig) RedactionEnabled() bool {
	return l.RedactSecrets == nil || *l.RedactSecrets
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	// Enabled exposes Prometheus metrics.
	// Default: true
	Enabled *bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace prefixes metric names.
	// Default: "fanc"
	Namespace string `yaml:"namespace"`

	// DurationBuckets are histogram buckets for decision latency, in seconds.
	DurationBuckets []float64 `yaml:"duration_buckets"`
}

// MetricsEnabled reports whether metrics are exposed.
func (m MetricsConfig) MetricsEnabled() bool {
	return m.Enabled == nil || *m.Enabled
}

// TracingConfig contains tracing configuration.
type TracingConfig struct {
	// Enabled exports spans over OTLP/gRPC.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Endpoint is the OTLP collector "host:port".
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// Insecure disables TLS to the collector.
	Insecure bool `yaml:"insecure"`

	// ServiceName is reported on every span.
	// Default: "fanc"
	ServiceName string `yaml:"service_name"`

	// SampleRatio is the fraction of traces kept, 0 to 1.
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio"`
}
