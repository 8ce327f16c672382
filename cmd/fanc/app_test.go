package main

import (
	"os"
	"path/filepath"
	"testing"

	"htem/fanc/pkg/cli"
	"htem/fanc/pkg/policy/engine"
)

func TestTableFlags_Ref(t *testing.T) {
	dir := t.TempDir()
	treeFile := filepath.Join(dir, "tree.yaml")
	if err := os.WriteFile(treeFile, []byte("animal:\n  cat: {}\n  dog: {}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	badTree := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(badTree, []byte("animal: [cat\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		flags    tableFlags
		want     string
		wantCode int
	}{
		{name: "named", flags: tableFlags{table: "neuron_information"}, want: "neuron_information"},
		{name: "values", flags: tableFlags{values: []string{"cool", "neat"}}, want: engine.InlineTableName},
		{name: "tree file", flags: tableFlags{treeFile: treeFile}, want: engine.InlineTableName},
		{name: "none", flags: tableFlags{}, wantCode: cli.ExitUsage},
		{name: "two", flags: tableFlags{table: "a", values: []string{"x"}}, wantCode: cli.ExitUsage},
		{name: "missing tree file", flags: tableFlags{treeFile: filepath.Join(dir, "nope.yaml")}, wantCode: cli.ExitError},
		{name: "malformed tree file", flags: tableFlags{treeFile: badTree}, wantCode: cli.ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref, err := tt.flags.ref()
			if code := cli.ExitCode(err); code != tt.wantCode {
				t.Fatalf("ref() error = %v (exit %d), want exit %d", err, code, tt.wantCode)
			}
			if err == nil && ref.String() != tt.want {
				t.Errorf("ref() = %q, want %q", ref.String(), tt.want)
			}
		})
	}
}

func TestAnnotationInput(t *testing.T) {
	in, err := annotationInput([]string{"left"}, "soma side")
	if err != nil {
		t.Fatal(err)
	}
	if !in.IsTuple() || in.String() != "soma side: left" {
		t.Errorf("annotationInput() = %q (tuple %v)", in.String(), in.IsTuple())
	}

	in, err = annotationInput([]string{"soma side > left"}, "")
	if err != nil || in.IsTuple() {
		t.Errorf("annotationInput() = (%v, %v), want text input", in, err)
	}

	if _, err := annotationInput([]string{"  "}, ""); cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("blank annotation error = %v, want usage error", err)
	}
}

func TestParseExisting(t *testing.T) {
	tests := map[string]engine.Pair{
		"soma side: left":          {Class: "soma side", Value: "left"},
		" primary class :  motor ": {Class: "primary class", Value: "motor"},
		"orphan":                   {Value: "orphan"},
	}
	for in, want := range tests {
		if got := parseExisting(in); got != want {
			t.Errorf("parseExisting(%q) = %+v, want %+v", in, got, want)
		}
	}
}
