package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"htem/fanc/pkg/cli"
	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/policy/manager"
	"htem/fanc/pkg/vocab"
)

var tablesFlags struct {
	format string
}

var treeFlags struct {
	format string
}

var lintFlags struct {
	defaults bool
	format   string
}

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the governed tables",
	Args:  cobra.NoArgs,
	RunE:  runTables,
}

var treeCmd = &cobra.Command{
	Use:   "tree TABLE",
	Short: "Print a table's vocabulary",
	Long: `Print a table's vocabulary as an indented tree, or as YAML in the format
vocabulary files use.`,
	Args: cobra.ExactArgs(1),
	RunE: runTree,
}

var lintCmd = &cobra.Command{
	Use:   "lint [PATH...]",
	Short: "Check vocabulary files",
	Long: `Load vocabulary files and check each table for structural problems:
schema violations, classes used by rules that are missing from the
hierarchy, and broken parent links. Without arguments the configured
vocabulary path is linted. Exits with code 3 when problems are found.

Examples:
  fanc lint vocab/
  fanc lint --defaults
  fanc lint --format json vocab/neurons.yaml`,
	RunE: runLint,
}

func init() {
	rootCmd.AddCommand(tablesCmd, treeCmd, lintCmd)

	tablesCmd.Flags().StringVarP(&tablesFlags.format, "format", "f", "text", "output format (text, json, yaml, csv)")
	treeCmd.Flags().StringVarP(&treeFlags.format, "format", "f", "text", "output format (text, yaml)")
	lintCmd.Flags().BoolVar(&lintFlags.defaults, "defaults", false, "also lint the built-in tables")
	lintCmd.Flags().StringVarP(&lintFlags.format, "format", "f", "text", "output format (text, json, yaml, csv)")
}

// tableSummary describes one registered table.
type tableSummary struct {
	Name    string   `json:"name" yaml:"name"`
	Kind    string   `json:"kind" yaml:"kind"`
	Size    int      `json:"size" yaml:"size"`
	Roots   []string `json:"roots,omitempty" yaml:"roots,omitempty"`
	HelpURL string   `json:"help_url,omitempty" yaml:"help_url,omitempty"`
}

type tableList struct {
	Version string         `json:"version" yaml:"version"`
	Tables  []tableSummary `json:"tables" yaml:"tables"`
}

func summarize(t *engine.Table) tableSummary {
	s := tableSummary{Name: t.Name(), Kind: t.Kind().String(), HelpURL: t.HelpURL()}
	if t.Kind() == engine.KindFlat {
		s.Size = t.Flat().Len()
	} else {
		s.Size = t.Hierarchy().Len()
		s.Roots = t.Hierarchy().RootNames()
	}
	return s
}

func (l tableList) Text(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tKIND\tSIZE")
	for _, t := range l.Tables {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", t.Name, t.Kind, t.Size)
	}
	return tw.Flush()
}

func (l tableList) Header() []string {
	return []string{"name", "kind", "size", "help_url"}
}

func (l tableList) Rows() [][]string {
	rows := make([][]string, len(l.Tables))
	for i, t := range l.Tables {
		rows[i] = []string{t.Name, t.Kind, strconv.Itoa(t.Size), t.HelpURL}
	}
	return rows
}

func runTables(cmd *cobra.Command, args []string) error {
	s, err := newSession(commandContext(cmd))
	if err != nil {
		return err
	}
	list := tableList{Version: s.registry.Version()}
	for _, t := range s.registry.All() {
		list.Tables = append(list.Tables, summarize(t))
	}
	return write(cmd, tablesFlags.format, list)
}

func runTree(cmd *cobra.Command, args []string) error {
	s, err := newSession(commandContext(cmd))
	if err != nil {
		return err
	}
	t, ok := s.registry.Table(args[0])
	if !ok {
		return cli.NewCommandError("tree", &engine.PolicyError{Kind: engine.KindUnknownTable, Table: args[0]})
	}

	w := output(cmd)
	switch treeFlags.format {
	case "", "text":
		if t.Kind() == engine.KindFlat {
			for _, v := range t.Flat().Values() {
				fmt.Fprintln(w, v)
			}
			return nil
		}
		return vocab.RenderAll(w, t.Hierarchy())
	case "yaml":
		if t.Kind() == engine.KindFlat {
			return write(cmd, "yaml", t.Flat().Values())
		}
		return write(cmd, "yaml", t.Hierarchy().Tree())
	}
	return cli.NewUsageError("--format", "must be text or yaml")
}

// lintFinding is one problem reported by fanc lint.
type lintFinding struct {
	Source  string `json:"source" yaml:"source"`
	Table   string `json:"table,omitempty" yaml:"table,omitempty"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Message string `json:"message" yaml:"message"`
}

type lintReport struct {
	Tables   int           `json:"tables" yaml:"tables"`
	Findings []lintFinding `json:"findings" yaml:"findings"`
}

func (r lintReport) Text(w io.Writer) error {
	for _, f := range r.Findings {
		switch {
		case f.Table == "":
			fmt.Fprintf(w, "%s: %s\n", f.Source, f.Message)
		case f.Name == "":
			fmt.Fprintf(w, "%s: table %s: %s\n", f.Source, f.Table, f.Message)
		default:
			fmt.Fprintf(w, "%s: table %s: %q: %s\n", f.Source, f.Table, f.Name, f.Message)
		}
	}
	if len(r.Findings) == 0 {
		_, err := fmt.Fprintf(w, "%d tables OK\n", r.Tables)
		return err
	}
	return nil
}

func (r lintReport) Header() []string {
	return []string{"source", "table", "name", "message"}
}

func (r lintReport) Rows() [][]string {
	rows := make([][]string, len(r.Findings))
	for i, f := range r.Findings {
		rows[i] = []string{f.Source, f.Table, f.Name, f.Message}
	}
	return rows
}

func (r *lintReport) check(source string, tables []*engine.Table) {
	for _, t := range tables {
		r.Tables++
		for _, p := range t.Check() {
			r.Findings = append(r.Findings, lintFinding{Source: source, Table: t.Name(), Name: p.Name, Message: p.Message})
		}
	}
}

func runLint(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 && !lintFlags.defaults {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		mcfg := managerConfig(cfg)
		if _, err := vocabularyRepository(commandContext(cmd), cfg, &mcfg); err != nil {
			return cli.NewCommandError("vocabulary", err)
		}
		if mcfg.Path == "" {
			return cli.NewUsageError("PATH", "no vocabulary path given or configured")
		}
		paths = []string{mcfg.Path}
	}

	loader, err := manager.NewLoader(nil)
	if err != nil {
		return err
	}

	var report lintReport
	if lintFlags.defaults {
		report.check("built-in", manager.Defaults())
	}
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return cli.NewCommandError("lint", err)
		}
		tables, err := loader.Load(path)
		if err != nil {
			report.Findings = append(report.Findings, loadFindings(path, err)...)
			continue
		}
		report.check(path, tables)
	}

	if err := write(cmd, lintFlags.format, report); err != nil {
		return err
	}
	if n := len(report.Findings); n > 0 {
		return &cli.FindingsError{Count: n}
	}
	return nil
}

// loadFindings flattens a loader error, which may join one error per file.
func loadFindings(path string, err error) []lintFinding {
	errs := []error{err}
	var list *manager.ErrorList
	if errors.As(err, &list) {
		errs = list.Errors
	}

	out := make([]lintFinding, 0, len(errs))
	for _, e := range errs {
		var ve *manager.ValidationError
		if errors.As(e, &ve) {
			source := ve.FilePath
			if source == "" {
				source = path
			}
			out = append(out, lintFinding{Source: source, Table: ve.Table, Message: ve.Message})
			continue
		}
		out = append(out, lintFinding{Source: path, Message: e.Error()})
	}
	return out
}
