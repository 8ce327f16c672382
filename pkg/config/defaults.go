package config

import "time"

// Default values for configuration fields.
const (
	DefaultListenAddress   = "127.0.0.1:8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
	DefaultShutdownTimeout = 15 * time.Second
	DefaultMaxBodyBytes    = int64(1 << 20)

	DefaultDebounceInterval = 100 * time.Millisecond
	DefaultGitBranch        = "main"
	DefaultGitLocalPath     = "data/vocabularies"
	DefaultGitPollInterval  = 5 * time.Minute
	DefaultGitTimeout       = 30 * time.Second
	DefaultGitAuthType      = "none"

	DefaultDatastoreBackend = "sqlite"
	DefaultDataset          = "production"
	DefaultDatastorePath    = "data/annotations.db"
	DefaultBusyTimeout      = 5 * time.Second
	DefaultCAVETimeout      = 30 * time.Second

	DefaultUploadsBackend    = "sqlite"
	DefaultUploadsPath       = "data/uploads.db"
	DefaultRetentionSchedule = "0 3 * * *"

	DefaultBotTable = "neuron_information"

	DefaultLoggingLevel   = "info"
	DefaultLoggingFormat  = "json"
	DefaultMetricsPath    = "/metrics"
	DefaultMetricsNS      = "fanc"
	DefaultTracingAddress = "localhost:4317"
	DefaultServiceName    = "fanc"
	DefaultSampleRatio    = 1.0
)

// DefaultDurationBuckets cover in-memory decisions through remote fetches.
var DefaultDurationBuckets = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

// NewDefaultConfig returns a configuration with every default applied.
func NewDefaultConfig() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued fields with defaults. Fields already set
// are left alone.
func ApplyDefaults(cfg *Config) {
	applyServerDefaults(&cfg.Server)
	applyVocabularyDefaults(&cfg.Vocabulary)
	applyDatastoreDefaults(&cfg.Datastore)
	applyUploadsDefaults(&cfg.Uploads)
	applyBotDefaults(&cfg.Bot)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = DefaultShutdownTimeout
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
}

func applyVocabularyDefaults(cfg *VocabularyConfig) {
	if cfg.DebounceInterval == 0 {
		cfg.DebounceInterval = DefaultDebounceInterval
	}
	if !cfg.Git.Enabled() {
		return
	}
	if cfg.Git.Branch == "" {
		cfg.Git.Branch = DefaultGitBranch
	}
	if cfg.Git.LocalPath == "" {
		cfg.Git.LocalPath = DefaultGitLocalPath
	}
	if cfg.Git.PollInterval == 0 {
		cfg.Git.PollInterval = DefaultGitPollInterval
	}
	if cfg.Git.Timeout == 0 {
		cfg.Git.Timeout = DefaultGitTimeout
	}
	if cfg.Git.Auth.Type == "" {
		cfg.Git.Auth.Type = DefaultGitAuthType
	}
}

func applyDatastoreDefaults(cfg *DatastoreConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultDatastoreBackend
	}
	if cfg.Dataset == "" {
		cfg.Dataset = DefaultDataset
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultDatastorePath
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultBusyTimeout
	}
	if cfg.CAVE.Timeout == 0 {
		cfg.CAVE.Timeout = DefaultCAVETimeout
	}
}

func applyUploadsDefaults(cfg *UploadsConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultUploadsBackend
	}
	if cfg.Backend == "sqlite" && cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultUploadsPath
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultBusyTimeout
	}
	if cfg.Retention.Schedule == "" {
		cfg.Retention.Schedule = DefaultRetentionSchedule
	}
}

func applyBotDefaults(cfg *BotConfig) {
	if len(cfg.Tables) == 0 {
		cfg.Tables = []string{DefaultBotTable}
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLoggingLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLoggingFormat
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNS
	}
	if len(cfg.Metrics.DurationBuckets) == 0 {
		cfg.Metrics.DurationBuckets = append([]float64(nil), DefaultDurationBuckets...)
	}
	if cfg.Tracing.Endpoint == "" {
		cfg.Tracing.Endpoint = DefaultTracingAddress
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultServiceName
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultSampleRatio
	}
}
