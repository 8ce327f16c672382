package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Format is the output format for command results.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a --format flag value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(s); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatYAML, FormatCSV:
		return f, nil
	}
	return "", NewUsageError("--format", fmt.Sprintf("unknown format %q (want text, json, yaml or csv)", s))
}

// Formatter writes a command result.
type Formatter interface {
	Write(w io.Writer, v any) error
}

// Texter is implemented by results with their own text rendering.
type Texter interface {
	Text(w io.Writer) error
}

// Table is implemented by results that can be written as CSV.
type Table interface {
	Header() []string
	Rows() [][]string
}

// NewFormatter returns the formatter for f.
func NewFormatter(f Format) (Formatter, error) {
	switch f {
	case FormatText, "":
		return TextFormatter{}, nil
	case FormatJSON:
		return JSONFormatter{Indent: true}, nil
	case FormatYAML:
		return YAMLFormatter{}, nil
	case FormatCSV:
		return CSVFormatter{Header: true}, nil
	}
	return nil, NewUsageError("--format", fmt.Sprintf("unknown format %q", f))
}

// TextFormatter writes Texter values with their Text method and anything
// else with fmt.
type TextFormatter struct{}

func (TextFormatter) Write(w io.Writer, v any) error {
	if t, ok := v.(Texter); ok {
		return t.Text(w)
	}
	_, err := fmt.Fprintln(w, v)
	return err
}

// JSONFormatter writes JSON.
type JSONFormatter struct {
	Indent bool
}

func (f JSONFormatter) Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	if f.Indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// YAMLFormatter writes YAML.
type YAMLFormatter struct{}

func (YAMLFormatter) Write(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// CSVFormatter writes a Table as CSV.
type CSVFormatter struct {
	Header bool
}

func (f CSVFormatter) Write(w io.Writer, v any) error {
	t, ok := v.(Table)
	if !ok {
		return fmt.Errorf("%T cannot be written as CSV", v)
	}
	cw := csv.NewWriter(w)
	if f.Header {
		if err := cw.Write(t.Header()); err != nil {
			return err
		}
	}
	if err := cw.WriteAll(t.Rows()); err != nil {
		return err
	}
	return cw.Error()
}
