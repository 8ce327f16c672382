package manager

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"htem/fanc/pkg/policy/engine"
)

const validVocabulary = `
tables:
  neuron_information:
    help_url: https://example.org/annotations
    open_classes: [neuron identity]
    exempt_classes: [neuron identity, projection pattern]
    exclusivity_groups:
      - [unilateral, bilateral]
    hierarchy:
      primary class:
        motor neuron:
          T1 leg motor neuron:
        sensory neuron:
      projection pattern:
        unilateral:
        bilateral:
      neuron identity:
  proofreading_notes:
    kind: flat
    values: [backbone proofread, orphan]
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestLoader(t *testing.T) *Loader {
	t.Helper()
	l, err := NewLoader(nil)
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	return l
}

func TestLoader_LoadFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "fanc.yaml", validVocabulary)

	tables, err := newTestLoader(t).LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("loaded %d tables, want 2", len(tables))
	}

	byName := map[string]*engine.Table{}
	for _, tbl := range tables {
		byName[tbl.Name()] = tbl
	}

	ni := byName["neuron_information"]
	if ni == nil || ni.Kind() != engine.KindPaired {
		t.Fatalf("neuron_information missing or wrong kind: %v", ni)
	}
	if got := ni.Hierarchy().RootNames(); strings.Join(got, ",") != "primary class,projection pattern,neuron identity" {
		t.Errorf("root order = %v", got)
	}
	if !ni.IsExempt("projection pattern") || !ni.IsOpen("neuron identity") {
		t.Error("rules were not loaded")
	}
	if ni.HelpURL() != "https://example.org/annotations" {
		t.Errorf("HelpURL() = %q", ni.HelpURL())
	}

	notes := byName["proofreading_notes"]
	if notes == nil || notes.Kind() != engine.KindFlat || !notes.Flat().Contains("orphan") {
		t.Errorf("proofreading_notes not loaded as flat table: %v", notes)
	}
}

func TestLoader_SchemaViolations(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "missing tables", content: "vocabulary: {}\n"},
		{name: "flat without values", content: "tables:\n  notes:\n    kind: flat\n"},
		{name: "paired without hierarchy", content: "tables:\n  info:\n    open_classes: [a]\n"},
		{name: "unknown kind", content: "tables:\n  info:\n    kind: nested\n    hierarchy:\n      a:\n"},
		{name: "scalar child", content: "tables:\n  info:\n    hierarchy:\n      a: b\n"},
		{name: "singleton exclusivity group", content: "tables:\n  info:\n    exclusivity_groups: [[a]]\n    hierarchy:\n      a:\n"},
		{name: "unknown field", content: "tables:\n  info:\n    colour: red\n    hierarchy:\n      a:\n"},
	}

	l := newTestLoader(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.Parse("test.yaml", []byte(tt.content))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Parse() error = %v, want *ParseError", err)
			}
		})
	}
}

func TestLoader_SyntaxErrorLine(t *testing.T) {
	_, err := newTestLoader(t).Parse("bad.yaml", []byte("tables:\n  info:\n    hierarchy: [\n"))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Parse() error = %v, want *ParseError", err)
	}
}

func TestLoader_RulesMustNameVocabularyTerms(t *testing.T) {
	content := `
tables:
  info:
    exempt_classes: [projection pattern]
    hierarchy:
      primary class:
        motor neuron:
`
	_, err := newTestLoader(t).Parse("info.yaml", []byte(content))
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("Parse() error = %v, want *ValidationError", err)
	}
	if ve.Table != "info" || !strings.Contains(ve.Message, "projection pattern") {
		t.Errorf("ValidationError = %+v", ve)
	}
}

func TestLoader_LoadDirectory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "tables:\n  a:\n    hierarchy:\n      root:\n        leaf:\n")
	writeFile(t, dir, "b.yml", "tables:\n  b:\n    kind: flat\n    values: [x]\n")
	writeFile(t, dir, "notes.txt", "not a vocabulary")
	if err := os.Mkdir(filepath.Join(dir, ".hidden"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, ".hidden"), "c.yaml", "broken: [")

	tables, err := newTestLoader(t).Load(dir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(tables) != 2 {
		t.Errorf("loaded %d tables, want 2", len(tables))
	}
}

func TestLoader_LoadDirectoryPartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "good.yaml", "tables:\n  good:\n    kind: flat\n    values: [x]\n")
	writeFile(t, dir, "bad.yaml", "tables: [")

	tables, err := newTestLoader(t).LoadDirectory(dir)
	if len(tables) != 1 {
		t.Errorf("loaded %d tables, want 1", len(tables))
	}
	var list *ErrorList
	if !errors.As(err, &list) || len(list.Errors) != 1 {
		t.Errorf("error = %v, want ErrorList with one error", err)
	}
}

func TestLoader_FileErrors(t *testing.T) {
	dir := t.TempDir()
	l := newTestLoader(t)

	var le *LoadError
	if _, err := l.Load(filepath.Join(dir, "missing.yaml")); !errors.As(err, &le) {
		t.Errorf("missing file error = %v, want *LoadError", err)
	}

	if _, err := l.LoadDirectory(dir); !errors.As(err, &le) {
		t.Errorf("empty directory error = %v, want *LoadError", err)
	}

	small, err := NewLoader(&LoaderConfig{MaxFileSize: 10, AllowedExtensions: []string{".yaml"}})
	if err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, dir, "big.yaml", validVocabulary)
	if _, err := small.LoadFile(path); !errors.As(err, &le) {
		t.Errorf("oversized file error = %v, want *LoadError", err)
	}

	if _, err := l.Parse("latin1.yaml", []byte{0xff, 0xfe}); !errors.As(err, &le) {
		t.Errorf("invalid UTF-8 error = %v, want *LoadError", err)
	}
}
