package cli

import (
	"bytes"
	"io"
	"strings"
	"testing"
)

type segments struct {
	IDs []string `json:"ids" yaml:"ids"`
}

func (s segments) Text(w io.Writer) error {
	_, err := io.WriteString(w, strings.Join(s.IDs, "\n")+"\n")
	return err
}

func (s segments) Header() []string { return []string{"segment_id"} }

func (s segments) Rows() [][]string {
	rows := make([][]string, len(s.IDs))
	for i, id := range s.IDs {
		rows[i] = []string{id}
	}
	return rows
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "", want: FormatText},
		{in: "json", want: FormatJSON},
		{in: "yaml", want: FormatYAML},
		{in: "csv", want: FormatCSV},
		{in: "xml", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatters(t *testing.T) {
	data := segments{IDs: []string{"648518346486614449", "648518346486614450"}}

	tests := []struct {
		format Format
		want   string
	}{
		{format: FormatText, want: "648518346486614449\n648518346486614450\n"},
		{format: FormatJSON, want: "{\n  \"ids\": [\n    \"648518346486614449\",\n    \"648518346486614450\"\n  ]\n}\n"},
		{format: FormatCSV, want: "segment_id\n648518346486614449\n648518346486614450\n"},
	}
	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			f, err := NewFormatter(tt.format)
			if err != nil {
				t.Fatal(err)
			}
			var buf bytes.Buffer
			if err := f.Write(&buf, data); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if buf.String() != tt.want {
				t.Errorf("Write() = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (YAMLFormatter{}).Write(&buf, segments{IDs: []string{"648518346486614449"}}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "ids:\n") || !strings.Contains(out, "648518346486614449") {
		t.Errorf("Write() = %q", out)
	}
}

func TestTextFormatter_Fallback(t *testing.T) {
	var buf bytes.Buffer
	if err := (TextFormatter{}).Write(&buf, 42); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "42\n" {
		t.Errorf("Write() = %q", buf.String())
	}
}

func TestCSVFormatter_RequiresTable(t *testing.T) {
	if err := (CSVFormatter{}).Write(io.Discard, "not a table"); err == nil {
		t.Error("Write() of a non-table should fail")
	}
}
