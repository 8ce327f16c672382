package config

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		fields []string
	}{
		{name: "defaults", modify: func(*Config) {}},
		{
			name:   "empty listen address",
			modify: func(c *Config) { c.Server.ListenAddress = "" },
			fields: []string{"server.listen_address"},
		},
		{
			name:   "negative timeout",
			modify: func(c *Config) { c.Server.WriteTimeout = -1 },
			fields: []string{"server.write_timeout"},
		},
		{
			name: "git vocabulary",
			modify: func(c *Config) {
				c.Vocabulary.Git = GitConfig{
					Repository: "https://github.com/fanc/vocab.git",
					Branch:     "main",
					LocalPath:  "data/vocab",
					Timeout:    DefaultGitTimeout,
					Auth:       GitAuthConfig{Type: "none"},
				}
			},
		},
		{
			name: "git vocabulary problems",
			modify: func(c *Config) {
				c.Vocabulary.Path = "/abs/vocab"
				c.Vocabulary.Git = GitConfig{
					Repository: "https://",
					Depth:      -1,
					Auth:       GitAuthConfig{Type: "token"},
				}
			},
			fields: []string{
				"vocabulary.git.repository",
				"vocabulary.git.branch",
				"vocabulary.git.local_path",
				"vocabulary.git.depth",
				"vocabulary.git.timeout",
				"vocabulary.path",
				"vocabulary.git.auth.token",
			},
		},
		{
			name: "git unknown auth",
			modify: func(c *Config) {
				c.Vocabulary.Git = GitConfig{
					Repository: "/srv/vocab",
					Branch:     "main",
					LocalPath:  "data/vocab",
					Timeout:    DefaultGitTimeout,
					Auth:       GitAuthConfig{Type: "kerberos"},
				}
			},
			fields: []string{"vocabulary.git.auth.type"},
		},
		{
			name: "cave with relative url",
			modify: func(c *Config) {
				c.Datastore.Backend = "cave"
				c.Datastore.CAVE.BaseURL = "cave.example.org"
			},
			fields: []string{"datastore.cave.base_url"},
		},
		{
			name:   "unknown uploads backend",
			modify: func(c *Config) { c.Uploads.Backend = "s3" },
			fields: []string{"uploads.backend"},
		},
		{
			name: "disabled ledger skips checks",
			modify: func(c *Config) {
				off := false
				c.Uploads.Enabled = &off
				c.Uploads.Backend = "s3"
			},
		},
		{
			name: "bot without permissions",
			modify: func(c *Config) {
				c.Bot.Enabled = true
				c.Bot.Tables = nil
			},
			fields: []string{"bot.tables", "bot.permissions_file"},
		},
		{
			name: "telemetry",
			modify: func(c *Config) {
				c.Telemetry.Logging.Level = "trace"
				c.Telemetry.Logging.Format = "xml"
				c.Telemetry.Metrics.Path = "metrics"
				c.Telemetry.Metrics.DurationBuckets = []float64{1, 0.5}
				c.Telemetry.Tracing.SampleRatio = 2
			},
			fields: []string{
				"telemetry.logging.level",
				"telemetry.logging.format",
				"telemetry.metrics.path",
				"telemetry.metrics.duration_buckets",
				"telemetry.tracing.sample_ratio",
			},
		},
		{
			name: "tracing without endpoint",
			modify: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = ""
			},
			fields: []string{"telemetry.tracing.endpoint"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.modify(cfg)

			err := Validate(cfg)
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want ValidationError", err)
			}
			if len(verr.Errors) != len(tt.fields) {
				t.Fatalf("got %d errors, want %d: %v", len(verr.Errors), len(tt.fields), verr)
			}
			for i, field := range tt.fields {
				if verr.Errors[i].Field != field {
					t.Errorf("error[%d].Field = %q, want %q", i, verr.Errors[i].Field, field)
				}
			}
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	one := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}}}
	if got := one.Error(); got != "a: bad" {
		t.Errorf("Error() = %q", got)
	}

	two := ValidationError{Errors: []FieldError{{Field: "a", Message: "bad"}, {Field: "b", Message: "worse"}}}
	got := two.Error()
	if !strings.HasPrefix(got, "2 errors:") || !strings.Contains(got, "b: worse") {
		t.Errorf("Error() = %q", got)
	}
}
