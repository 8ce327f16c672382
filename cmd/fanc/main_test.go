package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

// memoryConfig keeps every store in memory and logging quiet.
const memoryConfig = `
datastore:
  backend: memory
uploads:
  backend: memory
telemetry:
  logging:
    level: error
`

// useConfig writes a config file and points --config at it for the test.
func useConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fanc.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	prev := cfgFile
	cfgFile = path
	t.Cleanup(func() { cfgFile = prev })
	return dir
}

// sqliteConfig keeps the datastore and ledger in SQLite files under dir.
func sqliteConfig(dir string) string {
	return `
datastore:
  backend: sqlite
  dataset: sandbox
  sqlite:
    path: ` + filepath.Join(dir, "annotations.db") + `
uploads:
  backend: sqlite
  sqlite:
    path: ` + filepath.Join(dir, "uploads.db") + `
telemetry:
  logging:
    level: error
`
}

// run calls a RunE function with a command capturing its output.
func run(fn func(*cobra.Command, []string) error, args ...string) (string, error) {
	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	err := fn(cmd, args)
	return buf.String(), err
}

func TestRootCommands(t *testing.T) {
	want := []string{"version", "tables", "tree", "lint", "parse", "validate", "check", "annotate", "serve", "uploads"}
	registered := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		registered[c.Name()] = true
	}
	for _, name := range want {
		if !registered[name] {
			t.Errorf("command %q not registered", name)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	prev := Version
	Version = "0.1.0-test"
	defer func() { Version = prev }()

	cmd := &cobra.Command{}
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	versionCmd.Run(cmd, nil)

	if !bytes.HasPrefix(buf.Bytes(), []byte("fanc 0.1.0-test\n")) {
		t.Errorf("version output = %q", buf.String())
	}
}
