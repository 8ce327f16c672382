package manager

import (
	"errors"
	"reflect"
	"testing"
)

func TestNew_RequiresSource(t *testing.T) {
	if _, err := New(Config{}, nil); err == nil {
		t.Error("New() without path or defaults should fail")
	}
}

func TestManager_LoadDefaults(t *testing.T) {
	m, err := New(Config{IncludeDefaults: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	want := []string{NeuronInformationTable, ProofreadingNotesTable}
	if got := m.Registry().Names(); !reflect.DeepEqual(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if err := m.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestManager_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.yaml", "tables:\n  proofreading_notes:\n    kind: flat\n    values: [custom]\n")

	m, err := New(Config{Path: path, IncludeDefaults: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}

	notes, ok := m.Registry().Table(ProofreadingNotesTable)
	if !ok {
		t.Fatal("proofreading_notes missing")
	}
	if !notes.Flat().Contains("custom") || notes.Flat().Contains("orphan") {
		t.Errorf("file table did not replace built-in: %v", notes.Flat().Values())
	}
	if _, ok := m.Registry().Table(NeuronInformationTable); !ok {
		t.Error("built-in neuron_information missing")
	}
}

func TestManager_ReloadKeepsPreviousOnError(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "fanc.yaml", "tables:\n  a:\n    kind: flat\n    values: [x]\n")

	type reload struct {
		ok     bool
		tables int
	}
	var reloads []reload
	m, err := New(Config{Path: path, OnReload: func(ok bool, tables int) {
		reloads = append(reloads, reload{ok, tables})
	}}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Load(); err != nil {
		t.Fatal(err)
	}
	version := m.Registry().Version()

	writeFile(t, dir, "fanc.yaml", "tables: [")
	err = m.Reload()
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Reload() error = %v, want *ParseError", err)
	}
	if m.Registry().Version() != version {
		t.Error("failed reload replaced the registry")
	}
	if _, ok := m.Registry().Table("a"); !ok {
		t.Error("table a lost after failed reload")
	}

	want := []reload{{true, 1}, {false, 1}}
	if !reflect.DeepEqual(reloads, want) {
		t.Errorf("OnReload calls = %v, want %v", reloads, want)
	}
}

func TestManager_WatchDisabled(t *testing.T) {
	m, err := New(Config{IncludeDefaults: true}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.Watch(t.Context()); err != nil {
		t.Errorf("Watch() with watching disabled = %v, want nil", err)
	}
}
