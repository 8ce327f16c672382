package engine

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Operation labels used for metrics and spans.
const (
	OpParse     = "parse"
	OpValidate  = "validate"
	OpAuthorize = "authorize"
)

// DecisionRecorder receives one observation per engine call.
type DecisionRecorder interface {
	RecordDecision(operation, table, outcome string, duration time.Duration)
}

// Engine evaluates annotations against governed tables.
// It holds no per-call state and is safe for concurrent use.
type Engine struct {
	tables   TableSource
	logger   *slog.Logger
	recorder DecisionRecorder
	tracer   trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r DecisionRecorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithTracer sets the tracer used for authorization spans.
func WithTracer(t trace.Tracer) Option {
	return func(e *Engine) {
		if t != nil {
			e.tracer = t
		}
	}
}

// New creates an Engine over the given table source.
func New(tables TableSource, opts ...Option) (*Engine, error) {
	if tables == nil {
		return nil, errors.New("table source cannot be nil")
	}
	e := &Engine{
		tables: tables,
		logger: slog.Default(),
		tracer: noop.NewTracerProvider().Tracer("htem/fanc/policy"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Table resolves ref to a Table.
func (e *Engine) Table(ref TableRef) (*Table, error) {
	t, perr := Resolve(e.tables, ref)
	if perr != nil {
		return nil, perr
	}
	return t, nil
}

// ParsePair normalizes in into a Pair for the referenced table.
func (e *Engine) ParsePair(ref TableRef, in Input) (Pair, error) {
	start := time.Now()
	t, perr := Resolve(e.tables, ref)
	if perr == nil {
		var p Pair
		p, perr = t.ParsePair(in)
		if perr == nil {
			e.record(OpParse, ref.String(), Allowed(), start)
			return p, nil
		}
	}
	e.record(OpParse, ref.String(), Denied(perr), start)
	return Pair{}, perr
}

// Validate checks in against the referenced table's vocabulary.
func (e *Engine) Validate(ref TableRef, in Input) Result {
	start := time.Now()
	res := e.validate(ref, in)
	e.record(OpValidate, ref.String(), res, start)
	return res
}

func (e *Engine) validate(ref TableRef, in Input) Result {
	t, perr := Resolve(e.tables, ref)
	if perr != nil {
		return Denied(perr)
	}
	p, perr := t.ParsePair(in)
	if perr != nil {
		return Denied(perr)
	}
	if perr := t.ValidPair(p); perr != nil {
		return Denied(perr)
	}
	return Allowed()
}

// IsValidAnnotation is Validate with the boolean/error convention.
func (e *Engine) IsValidAnnotation(ref TableRef, in Input, raise bool) (bool, error) {
	return e.Validate(ref, in).Unpack(raise)
}

// AuthorizePost decides whether in may be posted to segment in the referenced
// table. Existing annotations are fetched once, after the annotation has been
// validated. A non-nil error is a fetch failure, returned unchanged; rule
// violations are reported in the Result.
func (e *Engine) AuthorizePost(ctx context.Context, segment uint64, in Input, ref TableRef, fetcher AnnotationFetcher) (Result, error) {
	start := time.Now()
	tableName := ref.String()

	ctx, span := e.tracer.Start(ctx, "policy.AuthorizePost", trace.WithAttributes(
		attribute.String("fanc.table", tableName),
		attribute.String("fanc.segment", strconv.FormatUint(segment, 10)),
		attribute.String("fanc.annotation", in.String()),
	))
	defer span.End()

	res, err := e.authorize(ctx, segment, in, ref, fetcher)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch existing annotations")
		e.logger.ErrorContext(ctx, "failed to fetch existing annotations",
			"table", tableName,
			"segment", segment,
			"error", err,
		)
		e.record(OpAuthorize, tableName, Result{}, start)
		return Result{}, err
	}

	span.SetAttributes(attribute.String("fanc.outcome", res.Outcome()))
	e.record(OpAuthorize, tableName, res, start)
	e.logger.DebugContext(ctx, "authorization evaluated",
		"table", tableName,
		"segment", segment,
		"annotation", in.String(),
		"outcome", res.Outcome(),
	)
	return res, nil
}

func (e *Engine) authorize(ctx context.Context, segment uint64, in Input, ref TableRef, fetcher AnnotationFetcher) (Result, error) {
	t, perr := Resolve(e.tables, ref)
	if perr != nil {
		return Denied(perr), nil
	}
	p, perr := t.ParsePair(in)
	if perr != nil {
		perr.Segment = segment
		return Denied(perr), nil
	}
	if perr := t.ValidPair(p); perr != nil {
		perr.Segment = segment
		return Denied(perr), nil
	}
	if fetcher == nil {
		return Result{}, errors.New("annotation fetcher cannot be nil")
	}

	existing, err := fetcher.FetchAnnotations(ctx, t.Name(), segment)
	if err != nil {
		return Result{}, err
	}

	if perr := t.Authorize(segment, p, existing); perr != nil {
		return Denied(perr), nil
	}
	return Allowed(), nil
}

// IsAllowedToPost is AuthorizePost with the boolean/error convention. Fetch
// errors are always returned.
func (e *Engine) IsAllowedToPost(ctx context.Context, segment uint64, in Input, ref TableRef, fetcher AnnotationFetcher, raise bool) (bool, error) {
	res, err := e.AuthorizePost(ctx, segment, in, ref, fetcher)
	if err != nil {
		return false, err
	}
	return res.Unpack(raise)
}

func (e *Engine) record(op, table string, res Result, start time.Time) {
	if e.recorder == nil {
		return
	}
	outcome := res.Outcome()
	if !res.OK && res.Err == nil {
		outcome = "error"
	}
	e.recorder.RecordDecision(op, table, outcome, time.Since(start))
}
