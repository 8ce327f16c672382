package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"htem/fanc/pkg/cli"
	"htem/fanc/pkg/datastore"
	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/telemetry/logging"
	"htem/fanc/pkg/uploads"
)

var parseFlags struct {
	tables tableFlags
	class  string
	format string
}

var validateFlags struct {
	tables tableFlags
	class  string
	format string
}

var checkFlags struct {
	tables   tableFlags
	class    string
	segment  uint64
	existing []string
	format   string
}

var annotateFlags struct {
	table   string
	class   string
	segment uint64
	userID  int64
	dryRun  bool
	format  string
}

var parseCmd = &cobra.Command{
	Use:   "parse ANNOTATION",
	Short: "Split an annotation into its class and value",
	Long: `Parse an annotation against a table. A bare value has its class inferred
from the vocabulary; "class: value" is split on the first separator.

Examples:
  fanc parse --table neuron_information "DNa02"
  fanc parse --values cool,neat "neat"`,
	Args: cobra.ExactArgs(1),
	RunE: runParse,
}

var validateCmd = &cobra.Command{
	Use:   "validate ANNOTATION",
	Short: "Check that an annotation is valid for a table",
	Long: `Validate an annotation against a table's vocabulary, ignoring what any
segment already carries. Exits with code 3 when the annotation is invalid.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

var checkCmd = &cobra.Command{
	Use:   "check ANNOTATION",
	Short: "Check that an annotation may be posted to a segment",
	Long: `Authorize an annotation for a segment. The segment's existing annotations
come from --existing when given, otherwise from the configured datastore.
Exits with code 3 when the annotation would be denied.

Examples:
  fanc check --table neuron_information --segment 648518346486614449 "left"
  fanc check --table neuron_information --segment 1 --existing "soma side: left" "right"`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var annotateCmd = &cobra.Command{
	Use:   "annotate ANNOTATION",
	Short: "Authorize and post an annotation",
	Long: `Authorize an annotation for a segment and post it to the configured
datastore as --user-id. Successful posts are recorded in the uploads ledger.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

func init() {
	rootCmd.AddCommand(parseCmd, validateCmd, checkCmd, annotateCmd)

	parseFlags.tables.register(parseCmd)
	parseCmd.Flags().StringVar(&parseFlags.class, "class", "", "explicit annotation class")
	parseCmd.Flags().StringVarP(&parseFlags.format, "format", "f", "text", "output format (text, json, yaml)")

	validateFlags.tables.register(validateCmd)
	validateCmd.Flags().StringVar(&validateFlags.class, "class", "", "explicit annotation class")
	validateCmd.Flags().StringVarP(&validateFlags.format, "format", "f", "text", "output format (text, json, yaml, csv)")

	checkFlags.tables.register(checkCmd)
	checkCmd.Flags().StringVar(&checkFlags.class, "class", "", "explicit annotation class")
	checkCmd.Flags().Uint64VarP(&checkFlags.segment, "segment", "s", 0, "segment ID")
	checkCmd.Flags().StringArrayVar(&checkFlags.existing, "existing", nil, `annotation already on the segment, "class: value" (repeatable)`)
	checkCmd.Flags().StringVarP(&checkFlags.format, "format", "f", "text", "output format (text, json, yaml, csv)")

	annotateCmd.Flags().StringVarP(&annotateFlags.table, "table", "t", "", "table to post to")
	annotateCmd.Flags().StringVar(&annotateFlags.class, "class", "", "explicit annotation class")
	annotateCmd.Flags().Uint64VarP(&annotateFlags.segment, "segment", "s", 0, "segment ID")
	annotateCmd.Flags().Int64Var(&annotateFlags.userID, "user-id", 0, "datastore user ID to post as")
	annotateCmd.Flags().BoolVar(&annotateFlags.dryRun, "dry-run", false, "authorize without posting")
	annotateCmd.Flags().StringVarP(&annotateFlags.format, "format", "f", "text", "output format (text, json, yaml)")
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd == nil || cmd.Context() == nil {
		return context.Background()
	}
	return cmd.Context()
}

// parseResult is the output of fanc parse.
type parseResult struct {
	Table string `json:"table" yaml:"table"`
	Class string `json:"class,omitempty" yaml:"class,omitempty"`
	Value string `json:"value" yaml:"value"`
}

func (r parseResult) Text(w io.Writer) error {
	_, err := fmt.Fprintln(w, engine.Pair{Class: r.Class, Value: r.Value})
	return err
}

// decisionResult is the output of fanc validate and fanc check.
type decisionResult struct {
	Table   string `json:"table" yaml:"table"`
	Segment uint64 `json:"segment_id,omitempty" yaml:"segment_id,omitempty"`
	OK      bool   `json:"ok" yaml:"ok"`
	Outcome string `json:"outcome" yaml:"outcome"`
	Reason  string `json:"reason,omitempty" yaml:"reason,omitempty"`
}

func newDecision(ref engine.TableRef, segment uint64, res engine.Result) decisionResult {
	d := decisionResult{Table: ref.String(), Segment: segment, OK: res.OK, Outcome: res.Outcome()}
	if res.Err != nil {
		d.Reason = res.Err.Error()
	}
	return d
}

func (d decisionResult) Text(w io.Writer) error {
	if d.OK {
		_, err := fmt.Fprintf(w, "%s: allowed\n", d.Table)
		return err
	}
	_, err := fmt.Fprintf(w, "%s: %s\n  %s\n", d.Table, d.Outcome, d.Reason)
	return err
}

func (d decisionResult) Header() []string {
	return []string{"table", "segment_id", "ok", "outcome", "reason"}
}

func (d decisionResult) Rows() [][]string {
	return [][]string{{d.Table, strconv.FormatUint(d.Segment, 10), strconv.FormatBool(d.OK), d.Outcome, d.Reason}}
}

// finish writes d and turns a denial into a findings error.
func finish(cmd *cobra.Command, format string, d decisionResult) error {
	if err := write(cmd, format, d); err != nil {
		return err
	}
	if !d.OK {
		return &cli.FindingsError{Count: 1}
	}
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	ref, err := parseFlags.tables.ref()
	if err != nil {
		return err
	}
	in, err := annotationInput(args, parseFlags.class)
	if err != nil {
		return err
	}
	s, err := newSession(commandContext(cmd))
	if err != nil {
		return err
	}

	pair, err := s.engine.ParsePair(ref, in)
	if err != nil {
		return cli.NewCommandError("parse", err)
	}
	return write(cmd, parseFlags.format, parseResult{Table: ref.String(), Class: pair.Class, Value: pair.Value})
}

func runValidate(cmd *cobra.Command, args []string) error {
	ref, err := validateFlags.tables.ref()
	if err != nil {
		return err
	}
	in, err := annotationInput(args, validateFlags.class)
	if err != nil {
		return err
	}
	s, err := newSession(commandContext(cmd))
	if err != nil {
		return err
	}

	res := s.engine.Validate(ref, in)
	return finish(cmd, validateFlags.format, newDecision(ref, 0, res))
}

func runCheck(cmd *cobra.Command, args []string) error {
	ref, err := checkFlags.tables.ref()
	if err != nil {
		return err
	}
	in, err := annotationInput(args, checkFlags.class)
	if err != nil {
		return err
	}
	if checkFlags.segment == 0 {
		return cli.NewUsageError("--segment", "is required")
	}
	s, err := newSession(commandContext(cmd))
	if err != nil {
		return err
	}

	var fetcher engine.AnnotationFetcher
	if len(checkFlags.existing) > 0 {
		existing := make([]engine.Pair, len(checkFlags.existing))
		for i, e := range checkFlags.existing {
			existing[i] = parseExisting(e)
		}
		fetcher = engine.FetcherFunc(func(context.Context, string, uint64) ([]engine.Pair, error) {
			return existing, nil
		})
	} else {
		store, _, err := s.openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		fetcher = store
	}

	ctx := logging.WithSegment(commandContext(cmd), checkFlags.segment)
	res, err := s.engine.AuthorizePost(ctx, checkFlags.segment, in, ref, fetcher)
	if err != nil {
		return cli.NewCommandError("check", err)
	}
	return finish(cmd, checkFlags.format, newDecision(ref, checkFlags.segment, res))
}

// uploadResult is the output of fanc annotate.
type uploadResult struct {
	DryRun       bool   `json:"dry_run,omitempty" yaml:"dry_run,omitempty"`
	AnnotationID int64  `json:"annotation_id,omitempty" yaml:"annotation_id,omitempty"`
	Table        string `json:"table" yaml:"table"`
	Segment      uint64 `json:"segment_id" yaml:"segment_id"`
	Annotation   string `json:"annotation" yaml:"annotation"`
	UserID       int64  `json:"user_id" yaml:"user_id"`
}

func (r uploadResult) Text(w io.Writer) error {
	if r.DryRun {
		_, err := fmt.Fprintf(w, "Would upload segment %d, annotation `%s` to `%s`.\n", r.Segment, r.Annotation, r.Table)
		return err
	}
	_, err := fmt.Fprintf(w, "Upload to `%s` succeeded:\n- Segment %d\n- Annotation ID: %d\n- Annotation: `%s`\n",
		r.Table, r.Segment, r.AnnotationID, r.Annotation)
	return err
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	if annotateFlags.table == "" {
		return cli.NewUsageError("--table", "is required")
	}
	if annotateFlags.segment == 0 {
		return cli.NewUsageError("--segment", "is required")
	}
	if annotateFlags.userID == 0 {
		return cli.NewUsageError("--user-id", "is required")
	}
	in, err := annotationInput(args, annotateFlags.class)
	if err != nil {
		return err
	}
	s, err := newSession(commandContext(cmd))
	if err != nil {
		return err
	}
	store, dataset, err := s.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ref := engine.Named(annotateFlags.table)
	ctx := logging.WithTable(commandContext(cmd), annotateFlags.table)
	ctx = logging.WithSegment(ctx, annotateFlags.segment)
	ctx = logging.WithDataset(ctx, dataset)

	res, err := s.engine.AuthorizePost(ctx, annotateFlags.segment, in, ref, store)
	if err != nil {
		return cli.NewCommandError("annotate", err)
	}
	if !res.OK {
		return finish(cmd, annotateFlags.format, newDecision(ref, annotateFlags.segment, res))
	}

	pair, err := s.engine.ParsePair(ref, in)
	if err != nil {
		return cli.NewCommandError("annotate", err)
	}
	result := uploadResult{
		Table:      annotateFlags.table,
		Segment:    annotateFlags.segment,
		Annotation: pair.String(),
		UserID:     annotateFlags.userID,
	}
	if annotateFlags.dryRun {
		result.DryRun = true
		return write(cmd, annotateFlags.format, result)
	}

	id, err := store.PostAnnotation(ctx, datastore.Record{
		Table:   annotateFlags.table,
		Segment: annotateFlags.segment,
		Pair:    pair,
		UserID:  annotateFlags.userID,
	})
	if err != nil {
		return cli.NewCommandError("annotate", err)
	}
	result.AnnotationID = id
	s.logger.InfoContext(ctx, "annotation posted", "annotation_id", id, "annotation", result.Annotation)

	if err := recordUpload(ctx, s, &uploads.Entry{
		AnnotationID: id,
		Table:        annotateFlags.table,
		Segment:      annotateFlags.segment,
		Dataset:      dataset,
		Annotation:   result.Annotation,
		UserID:       annotateFlags.userID,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to record upload", "annotation_id", id, "error", err)
	}
	return write(cmd, annotateFlags.format, result)
}

func recordUpload(ctx context.Context, s *session, e *uploads.Entry) error {
	ledger, err := uploads.Open(&s.cfg.Uploads, s.logger)
	if err != nil || ledger == nil {
		return err
	}
	defer ledger.Close()
	return ledger.Record(ctx, e)
}
