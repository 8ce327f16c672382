package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"htem/fanc/pkg/cli"
	"htem/fanc/pkg/uploads"
)

// seedLedger records entries in the SQLite ledger under dir.
func seedLedger(t *testing.T, dir string, entries ...uploads.Entry) {
	t.Helper()
	ledger, err := uploads.NewSQLiteLedger(uploads.SQLiteConfig{Path: filepath.Join(dir, "uploads.db")}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ledger.Close()
	for i := range entries {
		if err := ledger.Record(t.Context(), &entries[i]); err != nil {
			t.Fatal(err)
		}
	}
}

func TestParseTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: ""},
		{in: "2026-03-01", want: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		{in: "2026-03-01T12:30:00Z", want: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC)},
		{in: "yesterday", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseTime("--since", tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRunUploads(t *testing.T) {
	dir := t.TempDir()
	useConfig(t, sqliteConfig(dir))
	savedList, savedExport, savedPrune := uploadsListFlags, uploadsExportFlags, uploadsPruneFlags
	t.Cleanup(func() {
		uploadsListFlags = savedList
		uploadsExportFlags = savedExport
		uploadsPruneFlags = savedPrune
	})

	old := time.Now().AddDate(0, 0, -90)
	recent := time.Now().Add(-time.Hour)
	seedLedger(t, dir,
		uploads.Entry{AnnotationID: 1, Table: "neuron_information", Segment: 11, Annotation: "soma side: left", UserID: 42, CreatedAt: old},
		uploads.Entry{AnnotationID: 2, Table: "proofreading_notes", Segment: 12, Annotation: "orphan", UserID: 42, CreatedAt: recent},
	)

	uploadsListFlags.query = queryFlags{table: "neuron_information"}
	uploadsListFlags.format = "csv"
	out, err := run(runUploadsList)
	if err != nil {
		t.Fatalf("runUploadsList() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "id,created_at,table") || !strings.Contains(lines[1], "soma side: left") {
		t.Errorf("list output = %q", out)
	}

	uploadsExportFlags.query = queryFlags{}
	out, err = run(runUploadsExport)
	if err != nil {
		t.Fatalf("runUploadsExport() error = %v", err)
	}
	want := "annotation_id,segment_id,annotation,user_id\n1,11,soma side: left,42\n2,12,orphan,42\n"
	if out != want {
		t.Errorf("export = %q, want %q", out, want)
	}

	path := filepath.Join(dir, "export.csv")
	uploadsExportFlags.output = path
	uploadsExportFlags.extended = true
	uploadsExportFlags.noHeader = true
	if _, err := run(runUploadsExport); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "1,11,soma side: left,42,neuron_information,") {
		t.Errorf("extended export = %q", data)
	}

	uploadsPruneFlags.days = 30
	out, err = run(runUploadsPrune)
	if err != nil {
		t.Fatalf("runUploadsPrune() error = %v", err)
	}
	if out != "Deleted 1 uploads older than 30 days.\n" {
		t.Errorf("prune output = %q", out)
	}
}

func TestRunUploads_Errors(t *testing.T) {
	savedList, savedPrune := uploadsListFlags, uploadsPruneFlags
	t.Cleanup(func() {
		uploadsListFlags = savedList
		uploadsPruneFlags = savedPrune
	})

	useConfig(t, memoryConfig)
	uploadsPruneFlags.days = 0
	if _, err := run(runUploadsPrune); cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("prune without retention error = %v, want usage error", err)
	}

	uploadsListFlags.query = queryFlags{since: "soon"}
	if _, err := run(runUploadsList); cli.ExitCode(err) != cli.ExitUsage {
		t.Errorf("bad --since error = %v, want usage error", err)
	}

	useConfig(t, "uploads:\n  enabled: false\ntelemetry:\n  logging:\n    level: error\n")
	uploadsListFlags.query = queryFlags{}
	uploadsListFlags.format = "text"
	if _, err := run(runUploadsList); err == nil || !strings.Contains(err.Error(), "disabled") {
		t.Errorf("disabled ledger error = %v", err)
	}
}
