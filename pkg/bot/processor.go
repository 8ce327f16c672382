package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"htem/fanc/pkg/datastore"
	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/telemetry/logging"
	"htem/fanc/pkg/uploads"
)

// ThreadThreshold is the reply length above which chat clients should post
// the reply in a thread.
const ThreadThreshold = 1500

// ShouldThread reports whether reply is long enough to go in a thread.
func ShouldThread(reply string) bool {
	return len(reply) > ThreadThreshold
}

// Options configures a Processor.
type Options struct {
	Engine *engine.Engine
	Store  datastore.Store

	// Ledger records successful uploads. Optional.
	Ledger uploads.Ledger

	Permissions Permissions

	// Tables are tried in order when annotating. The first is used for
	// find and query commands.
	Tables []string

	// Fake checks uploads without posting them.
	Fake bool

	// SearchURL is the link template for find results. "{ids}" is replaced
	// with comma-separated segment IDs. When empty the IDs are listed.
	SearchURL string

	// Dataset is recorded with each upload.
	Dataset string

	// Contact is who users should ask for permissions.
	Contact string

	Logger *slog.Logger
}

// Processor answers chat messages.
type Processor struct {
	opts   Options
	logger *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(opts Options) (*Processor, error) {
	if opts.Engine == nil {
		return nil, errors.New("engine cannot be nil")
	}
	if opts.Store == nil {
		return nil, errors.New("datastore cannot be nil")
	}
	if len(opts.Tables) == 0 {
		return nil, errors.New("at least one table is required")
	}
	if opts.Permissions == nil {
		opts.Permissions = Permissions{}
	}
	if opts.Contact == "" {
		opts.Contact = "an administrator"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{opts: opts, logger: logger.With("component", "bot")}, nil
}

// Process handles one message from user and returns the reply.
func (p *Processor) Process(ctx context.Context, user, text string) string {
	ctx = logging.WithUser(ctx, user)

	cmd, err := ParseCommand(text)
	p.logger.DebugContext(ctx, "processing message", "command", cmd.Kind.String())
	if err != nil {
		return "ERROR: " + err.Error()
	}

	switch cmd.Kind {
	case CommandHelp:
		return p.help()
	case CommandFind:
		return p.find(ctx, cmd.Terms)
	case CommandQuery:
		return p.query(ctx, cmd)
	case CommandAnnotate:
		return p.annotate(ctx, user, cmd)
	}
	return "ERROR: Your message does not contain a '?' or '!' character, so I don't know what you want me to do." +
		" Make a post containing the word 'help' for instructions."
}

func (p *Processor) find(ctx context.Context, terms []string) string {
	segments, err := p.opts.Store.FindSegments(ctx, p.opts.Tables[0], terms)
	if err != nil {
		return errorBlock(err)
	}
	if len(segments) == 0 {
		return "No neurons found annotated with " + quoteTerms(terms) + "."
	}

	ids := make([]string, len(segments))
	for i, s := range segments {
		ids[i] = strconv.FormatUint(s, 10)
	}
	if p.opts.SearchURL == "" {
		return "Search successful. Found " + strconv.Itoa(len(ids)) + " neurons:\n```" + strings.Join(ids, "\n") + "```"
	}
	return "Search successful. View your results: " + strings.ReplaceAll(p.opts.SearchURL, "{ids}", strings.Join(ids, ","))
}

func (p *Processor) resolve(ctx context.Context, t Target) (uint64, error) {
	if t.Point == nil {
		return t.Segment, nil
	}
	return p.opts.Store.ResolvePoint(ctx, *t.Point)
}

func (p *Processor) query(ctx context.Context, cmd Command) string {
	segment, err := p.resolve(ctx, cmd.Target)
	if err != nil {
		return errorBlock(err)
	}
	ctx = logging.WithSegment(ctx, segment)

	var rows []datastore.Annotation
	for _, table := range p.opts.Tables {
		found, err := p.opts.Store.Annotations(ctx, table, segment)
		if err != nil {
			return errorBlock(err)
		}
		rows = append(rows, found...)
	}
	if len(rows) == 0 {
		return "No annotations found."
	}
	if cmd.Details {
		return "```" + detailTable(rows) + "```"
	}

	labels := make([]string, len(rows))
	for i, a := range rows {
		labels[i] = a.Label()
	}
	return "```" + strings.Join(labels, "\n") + "```"
}

func (p *Processor) annotate(ctx context.Context, user string, cmd Command) string {
	segment, err := p.resolve(ctx, cmd.Target)
	if err != nil {
		return errorBlock(err)
	}
	ctx = logging.WithSegment(ctx, segment)

	annotation := cmd.Annotation
	in := engine.Text(annotation)

	var invalid []tableError
	for _, table := range p.opts.Tables {
		ref := engine.Named(table)
		if res := p.opts.Engine.Validate(ref, in); !res.OK {
			invalid = append(invalid, tableError{table: table, err: res.Error()})
			continue
		}
		tctx := logging.WithTable(ctx, table)

		if !p.opts.Permissions.Listed(table) {
			return fmt.Sprintf("ERROR: `%s` not listed in permissions file.", table)
		}
		userID, ok := p.opts.Permissions.UserID(table, user)
		if !ok {
			return fmt.Sprintf("You have not yet been given permissions to post to `%s`."+
				" Please send %s a DM to request permissions.", table, p.opts.Contact)
		}

		res, err := p.opts.Engine.AuthorizePost(tctx, segment, in, ref, p.opts.Store)
		if err == nil && !res.OK {
			err = res.Error()
		}
		if p.opts.Fake {
			if err != nil {
				return errorBlock(err)
			}
			return p.fakeReply(segment, cmd.Target, annotation)
		}
		if err != nil {
			return "ERROR: Annotation failed due to\n" + errorBlock(err)
		}
		return p.post(tctx, user, userID, table, segment, cmd.Target, in)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "ERROR: Annotation `%s` is not valid for any of the tables I know how to post to:", annotation)
	for _, te := range invalid {
		fmt.Fprintf(&b, "\n\nTable `%s` gave `%s`:\n```%s```", te.table, errorType(te.err), te.err)
	}
	return b.String()
}

type tableError struct {
	table string
	err   error
}

func (p *Processor) fakeReply(segment uint64, target Target, annotation string) string {
	if target.Point != nil {
		return fmt.Sprintf("FAKE: Would upload segment %d, point `%s`, annotation `%s`.", segment, formatPoint(*target.Point), annotation)
	}
	return fmt.Sprintf("FAKE: Would upload segment %d, annotation `%s`.", segment, annotation)
}

func (p *Processor) post(ctx context.Context, user string, userID int64, table string, segment uint64, target Target, in engine.Input) string {
	pair, err := p.opts.Engine.ParsePair(engine.Named(table), in)
	if err != nil {
		return "ERROR: Annotation failed due to\n" + errorBlock(err)
	}

	id, err := p.opts.Store.PostAnnotation(ctx, datastore.Record{
		Table:   table,
		Segment: segment,
		Pair:    pair,
		UserID:  userID,
	})
	if err != nil {
		return "ERROR: Annotation failed due to\n" + errorBlock(err)
	}

	uploaded, err := p.opts.Store.GetAnnotation(ctx, table, id)
	if err != nil {
		return "ERROR: Annotation failed due to\n" + errorBlock(err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Upload to `%s` succeeded:\n- Segment %d", table, segment)
	if target.Point != nil {
		fmt.Fprintf(&b, "\n- Point coordinate `%s`", formatPoint(*target.Point))
	}
	fmt.Fprintf(&b, "\n- Annotation ID: %d\n- Annotation: `%s`", id, uploaded.Tag)
	if uploaded.Tag2 != "" {
		fmt.Fprintf(&b, "\n- Annotation class: `%s`", uploaded.Tag2)
	}

	p.logger.InfoContext(ctx, "annotation posted", "annotation_id", id, "annotation", uploaded.Label())
	p.record(ctx, &uploads.Entry{
		AnnotationID: id,
		Table:        table,
		Segment:      segment,
		Dataset:      p.opts.Dataset,
		Annotation:   uploaded.Label(),
		UserID:       userID,
		ChatUser:     user,
	})
	return b.String()
}

func (p *Processor) record(ctx context.Context, e *uploads.Entry) {
	if p.opts.Ledger == nil {
		return
	}
	if err := p.opts.Ledger.Record(ctx, e); err != nil {
		p.logger.ErrorContext(ctx, "failed to record upload", "annotation_id", e.AnnotationID, "error", err)
	}
}
