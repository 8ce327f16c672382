package manager

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/vocab"
)

//go:embed schema.json
var vocabularySchema string

// LoaderConfig controls how vocabulary files are discovered and read.
type LoaderConfig struct {
	// MaxFileSize is the largest file the loader will read, in bytes.
	MaxFileSize int64

	// AllowedExtensions lists the file extensions read from directories.
	AllowedExtensions []string

	// SkipHidden skips dot files and dot directories.
	SkipHidden bool
}

// DefaultLoaderConfig returns the default loader configuration.
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		MaxFileSize:       1 << 20,
		AllowedExtensions: []string{".yaml", ".yml"},
		SkipHidden:        true,
	}
}

// document is the decoded form of a vocabulary file.
type document struct {
	Tables map[string]tableDoc `yaml:"tables"`
}

type tableDoc struct {
	Kind      string       `yaml:"kind"`
	Rules     engine.Rules `yaml:",inline"`
	Hierarchy vocab.Tree   `yaml:"hierarchy"`
	Values    []string     `yaml:"values"`
}

// Loader reads vocabulary files into tables.
type Loader struct {
	config *LoaderConfig
	schema *jsonschema.Schema
}

// NewLoader creates a loader. A nil config uses DefaultLoaderConfig.
func NewLoader(config *LoaderConfig) (*Loader, error) {
	if config == nil {
		config = DefaultLoaderConfig()
	}
	schema, err := jsonschema.CompileString("schema.json", vocabularySchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile vocabulary schema: %w", err)
	}
	return &Loader{config: config, schema: schema}, nil
}

// Load reads path, which may be a single file or a directory.
func (l *Loader) Load(path string) ([]*engine.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, statError(path, err)
	}
	if info.IsDir() {
		return l.LoadDirectory(path)
	}
	return l.LoadFile(path)
}

// LoadFile reads every table defined in a single vocabulary file.
func (l *Loader) LoadFile(path string) ([]*engine.Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, statError(path, err)
	}
	if !info.Mode().IsRegular() {
		return nil, &LoadError{FilePath: path, Message: "not a regular file"}
	}
	if info.Size() > l.config.MaxFileSize {
		return nil, &LoadError{
			FilePath: path,
			Message:  fmt.Sprintf("file size %d bytes exceeds maximum %d bytes", info.Size(), l.config.MaxFileSize),
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{FilePath: path, Message: "failed to read file", Cause: err}
	}
	return l.Parse(path, data)
}

// Parse builds tables from the contents of a vocabulary file. path is used
// only in error messages.
func (l *Loader) Parse(path string, data []byte) ([]*engine.Table, error) {
	if !utf8.Valid(data) {
		return nil, &LoadError{FilePath: path, Message: "file contains invalid UTF-8 encoding"}
	}

	if err := l.validateSchema(path, data); err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, yamlError(path, err)
	}

	names := make([]string, 0, len(doc.Tables))
	for name := range doc.Tables {
		names = append(names, name)
	}
	sort.Strings(names)

	errList := &ErrorList{}
	tables := make([]*engine.Table, 0, len(names))
	for _, name := range names {
		t, err := buildTable(path, name, doc.Tables[name])
		if err != nil {
			errList.Add(err)
			continue
		}
		tables = append(tables, t)
	}
	if errList.HasErrors() {
		return nil, errList.ToError()
	}
	return tables, nil
}

// validateSchema checks the raw document against the embedded schema.
func (l *Loader) validateSchema(path string, data []byte) error {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return yamlError(path, err)
	}

	// The validator expects JSON-decoded values.
	encoded, err := json.Marshal(raw)
	if err != nil {
		return &ParseError{FilePath: path, Message: "document is not representable as JSON", Cause: err}
	}
	var v any
	if err := json.Unmarshal(encoded, &v); err != nil {
		return &ParseError{FilePath: path, Message: "document is not representable as JSON", Cause: err}
	}

	if err := l.schema.Validate(v); err != nil {
		return &ParseError{FilePath: path, Message: "vocabulary schema violation", Cause: err}
	}
	return nil
}

func buildTable(path, name string, td tableDoc) (*engine.Table, error) {
	if td.Kind == engine.KindFlat.String() {
		return engine.NewFlatTable(name, td.Values, td.Rules.HelpURL), nil
	}

	t := engine.NewTreeTable(name, td.Hierarchy, td.Rules)
	if problems := t.Check(); len(problems) > 0 {
		msgs := make([]string, len(problems))
		for i, p := range problems {
			msgs[i] = p.String()
		}
		return nil, &ValidationError{FilePath: path, Table: name, Message: strings.Join(msgs, "; ")}
	}
	return t, nil
}

// LoadDirectory reads every vocabulary file under dir. Files that fail are
// reported together; tables from the other files are still returned.
func (l *Loader) LoadDirectory(dir string) ([]*engine.Table, error) {
	files, err := l.collectFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, &LoadError{FilePath: dir, Message: "no vocabulary files found in directory"}
	}

	var tables []*engine.Table
	errList := &ErrorList{}
	for _, f := range files {
		loaded, err := l.LoadFile(f)
		if err != nil {
			errList.Add(err)
			continue
		}
		tables = append(tables, loaded...)
	}

	if len(tables) == 0 && errList.HasErrors() {
		return nil, errList.ToError()
	}
	if errList.HasErrors() {
		return tables, errList
	}
	return tables, nil
}

func (l *Loader) collectFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if l.config.SkipHidden && strings.HasPrefix(d.Name(), ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !l.hasValidExtension(path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, &LoadError{FilePath: dir, Message: "failed to walk directory", Cause: err}
	}
	return files, nil
}

func (l *Loader) hasValidExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, valid := range l.config.AllowedExtensions {
		if ext == strings.ToLower(valid) {
			return true
		}
	}
	return false
}

func statError(path string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return &LoadError{FilePath: path, Message: "file not found", Cause: err}
	case errors.Is(err, fs.ErrPermission):
		return &LoadError{FilePath: path, Message: "permission denied", Cause: err}
	}
	return &LoadError{FilePath: path, Message: "failed to access file", Cause: err}
}

func yamlError(path string, err error) error {
	pe := &ParseError{FilePath: path, Message: "YAML parsing failed", Cause: err}
	_, _ = fmt.Sscanf(err.Error(), "yaml: line %d:", &pe.Line)
	return pe
}
