package main

import (
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"htem/fanc/pkg/cli"
	"htem/fanc/pkg/config"
	"htem/fanc/pkg/telemetry/logging"
	"htem/fanc/pkg/uploads"
)

// queryFlags filter ledger entries.
type queryFlags struct {
	table   string
	segment uint64
	userID  int64
	since   string
	until   string
	limit   int
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.table, "table", "t", "", "only entries for this table")
	cmd.Flags().Uint64VarP(&f.segment, "segment", "s", 0, "only entries for this segment")
	cmd.Flags().Int64Var(&f.userID, "user-id", 0, "only entries posted as this user")
	cmd.Flags().StringVar(&f.since, "since", "", "only entries at or after this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.until, "until", "", "only entries before this time (RFC3339 or YYYY-MM-DD)")
	cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum entries (0 for all)")
}

func (f *queryFlags) query() (uploads.Query, error) {
	q := uploads.Query{Table: f.table, Segment: f.segment, UserID: f.userID, Limit: f.limit}
	var err error
	if q.Since, err = parseTime("--since", f.since); err != nil {
		return q, err
	}
	if q.Until, err = parseTime("--until", f.until); err != nil {
		return q, err
	}
	if f.limit < 0 {
		return q, cli.NewUsageError("--limit", "must not be negative")
	}
	return q, nil
}

func parseTime(flag, s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, cli.NewUsageError(flag, fmt.Sprintf("cannot parse %q as RFC3339 or YYYY-MM-DD", s))
}

var uploadsListFlags struct {
	query  queryFlags
	format string
}

var uploadsExportFlags struct {
	query    queryFlags
	output   string
	extended bool
	noHeader bool
}

var uploadsPruneFlags struct {
	days int
}

var uploadsCmd = &cobra.Command{
	Use:   "uploads",
	Short: "Inspect the ledger of posted annotations",
}

var uploadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded uploads, newest first",
	Args:  cobra.NoArgs,
	RunE:  runUploadsList,
}

var uploadsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export recorded uploads as CSV, oldest first",
	Long: `Export recorded uploads as CSV with the columns annotation_id, segment_id,
annotation and user_id. --extended adds table, dataset, chat_user and
created_at.

Examples:
  fanc uploads export --output uploads.csv
  fanc uploads export --table neuron_information --since 2026-01-01 --extended`,
	Args: cobra.NoArgs,
	RunE: runUploadsExport,
}

var uploadsPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete uploads older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runUploadsPrune,
}

func init() {
	rootCmd.AddCommand(uploadsCmd)
	uploadsCmd.AddCommand(uploadsListCmd, uploadsExportCmd, uploadsPruneCmd)

	uploadsListFlags.query.register(uploadsListCmd)
	uploadsListCmd.Flags().StringVarP(&uploadsListFlags.format, "format", "f", "text", "output format (text, json, yaml, csv)")

	uploadsExportFlags.query.register(uploadsExportCmd)
	uploadsExportCmd.Flags().StringVarP(&uploadsExportFlags.output, "output", "o", "", "output file (stdout when empty)")
	uploadsExportCmd.Flags().BoolVar(&uploadsExportFlags.extended, "extended", false, "include table, dataset, chat user and timestamp")
	uploadsExportCmd.Flags().BoolVar(&uploadsExportFlags.noHeader, "no-header", false, "omit the header row")

	uploadsPruneCmd.Flags().IntVar(&uploadsPruneFlags.days, "days", 0, "retention in days (overrides uploads.retention.days)")
}

// openLedger opens the configured ledger. A disabled ledger is an error
// for the uploads commands.
func openLedger() (uploads.Ledger, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	ledger, err := uploads.Open(&cfg.Uploads, logger)
	if err != nil {
		return nil, nil, cli.NewCommandError("uploads", err)
	}
	if ledger == nil {
		return nil, nil, cli.NewCommandError("uploads", fmt.Errorf("the uploads ledger is disabled"))
	}
	return ledger, cfg, nil
}

// entryList is the output of fanc uploads list.
type entryList []uploads.Entry

func (l entryList) Text(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "CREATED\tTABLE\tSEGMENT\tANNOTATION_ID\tUSER_ID\tANNOTATION")
	for _, e := range l {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			e.CreatedAt.Format(time.RFC3339), e.Table, e.Segment, e.AnnotationID, e.UserID, e.Annotation)
	}
	return tw.Flush()
}

func (l entryList) Header() []string {
	return []string{"id", "created_at", "table", "dataset", "segment_id", "annotation_id", "user_id", "chat_user", "annotation"}
}

func (l entryList) Rows() [][]string {
	rows := make([][]string, len(l))
	for i, e := range l {
		rows[i] = []string{
			e.ID,
			e.CreatedAt.Format(time.RFC3339),
			e.Table,
			e.Dataset,
			strconv.FormatUint(e.Segment, 10),
			strconv.FormatInt(e.AnnotationID, 10),
			strconv.FormatInt(e.UserID, 10),
			e.ChatUser,
			e.Annotation,
		}
	}
	return rows
}

func runUploadsList(cmd *cobra.Command, args []string) error {
	q, err := uploadsListFlags.query.query()
	if err != nil {
		return err
	}
	ledger, _, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	entries, err := ledger.List(commandContext(cmd), q)
	if err != nil {
		return cli.NewCommandError("uploads list", err)
	}
	return write(cmd, uploadsListFlags.format, entryList(entries))
}

func runUploadsExport(cmd *cobra.Command, args []string) error {
	q, err := uploadsExportFlags.query.query()
	if err != nil {
		return err
	}
	ledger, _, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	entries, err := ledger.List(commandContext(cmd), q)
	if err != nil {
		return cli.NewCommandError("uploads export", err)
	}
	slices.Reverse(entries)

	w := output(cmd)
	if uploadsExportFlags.output != "" {
		f, err := os.Create(uploadsExportFlags.output)
		if err != nil {
			return cli.NewCommandError("uploads export", err)
		}
		defer f.Close()
		w = f
	}

	exporter := &uploads.CSVExporter{
		IncludeHeader: !uploadsExportFlags.noHeader,
		Extended:      uploadsExportFlags.extended,
	}
	if err := exporter.Export(w, entries); err != nil {
		return cli.NewCommandError("uploads export", err)
	}
	return nil
}

func runUploadsPrune(cmd *cobra.Command, args []string) error {
	ledger, cfg, err := openLedger()
	if err != nil {
		return err
	}
	defer ledger.Close()

	days := cfg.Uploads.Retention.Days
	if uploadsPruneFlags.days != 0 {
		days = uploadsPruneFlags.days
	}
	if days <= 0 {
		return cli.NewUsageError("--days", "retention is disabled; set --days or uploads.retention.days")
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	pruner := uploads.NewPruner(ledger, uploads.RetentionConfig{Days: days}, logger)
	deleted, err := pruner.Prune(logging.WithDataset(commandContext(cmd), cfg.Datastore.Dataset))
	if err != nil {
		return cli.NewCommandError("uploads prune", err)
	}
	fmt.Fprintf(output(cmd), "Deleted %d uploads older than %d days.\n", deleted, days)
	return nil
}
