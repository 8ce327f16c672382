package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"htem/fanc/pkg/cli"
)

func TestRunTables(t *testing.T) {
	useConfig(t, memoryConfig)
	saved := tablesFlags
	t.Cleanup(func() { tablesFlags = saved })

	tablesFlags.format = "json"
	out, err := run(runTables)
	if err != nil {
		t.Fatalf("runTables() error = %v", err)
	}
	var list tableList
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(list.Tables) != 2 || list.Version == "" {
		t.Fatalf("tables = %+v", list)
	}
	byName := map[string]tableSummary{}
	for _, s := range list.Tables {
		byName[s.Name] = s
	}
	if byName["neuron_information"].Kind != "paired" || len(byName["neuron_information"].Roots) == 0 {
		t.Errorf("neuron_information summary = %+v", byName["neuron_information"])
	}
	if byName["proofreading_notes"].Kind != "flat" || byName["proofreading_notes"].Size == 0 {
		t.Errorf("proofreading_notes summary = %+v", byName["proofreading_notes"])
	}

	tablesFlags.format = "csv"
	out, err = run(runTables)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "name,kind,size,help_url\n") {
		t.Errorf("csv output = %q", out)
	}
}

func TestRunTree(t *testing.T) {
	useConfig(t, memoryConfig)
	saved := treeFlags
	t.Cleanup(func() { treeFlags = saved })

	treeFlags.format = "text"
	out, err := run(runTree, "neuron_information")
	if err != nil {
		t.Fatalf("runTree() error = %v", err)
	}
	for _, want := range []string{"primary class", "soma side", "left"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree missing %q", want)
		}
	}

	out, err = run(runTree, "proofreading_notes")
	if err != nil || !strings.Contains(out, "orphan\n") {
		t.Errorf("flat tree = (%q, %v)", out, err)
	}

	treeFlags.format = "yaml"
	out, err = run(runTree, "neuron_information")
	if err != nil || !strings.HasPrefix(out, "primary class:\n") {
		t.Errorf("yaml tree = (%q, %v)", out, err)
	}

	treeFlags.format = "dot"
	if _, err := run(runTree, "neuron_information"); cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("unknown format error = %v, want usage error", err)
	}

	treeFlags.format = "text"
	if _, err := run(runTree, "missing"); err == nil {
		t.Error("runTree() on an unknown table should fail")
	}
}

func TestRunLint(t *testing.T) {
	saved := lintFlags
	t.Cleanup(func() { lintFlags = saved })
	dir := t.TempDir()

	good := filepath.Join(dir, "good.yaml")
	if err := os.WriteFile(good, []byte("tables:\n  colors:\n    kind: flat\n    values: [red, blue]\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	inconsistent := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(inconsistent, []byte(
		"tables:\n  animals:\n    kind: paired\n    exempt_classes: [plant]\n    hierarchy:\n      animal:\n        cat: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	broken := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(broken, []byte("tables: ["), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		paths    []string
		defaults bool
		findings int
		want     string
	}{
		{name: "clean file", paths: []string{good}, want: "1 tables OK"},
		{name: "defaults", defaults: true, want: "2 tables OK"},
		{name: "rule class missing", paths: []string{inconsistent}, findings: 1, want: `table animals: "plant"`},
		{name: "parse error", paths: []string{broken}, findings: 1, want: broken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lintFlags.defaults = tt.defaults
			lintFlags.format = "text"
			out, err := run(runLint, tt.paths...)
			var findings *cli.FindingsError
			switch {
			case tt.findings == 0 && err != nil:
				t.Fatalf("runLint() error = %v", err)
			case tt.findings > 0 && (!errors.As(err, &findings) || findings.Count != tt.findings):
				t.Fatalf("runLint() error = %v, want %d findings", err, tt.findings)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("runLint() output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestRunLint_MissingPath(t *testing.T) {
	saved := lintFlags
	t.Cleanup(func() { lintFlags = saved })
	lintFlags.defaults = false

	if _, err := run(runLint, filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("runLint() on a missing path should fail")
	}
}
