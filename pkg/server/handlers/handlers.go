package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"htem/fanc/pkg/bot"
	"htem/fanc/pkg/policy/engine"
	"htem/fanc/pkg/telemetry/logging"
	"htem/fanc/pkg/vocab"

	"gopkg.in/yaml.v3"
)

// TableLister exposes the registered tables.
type TableLister interface {
	engine.TableSource
	Names() []string
	Version() string
}

// Deps are the collaborators behind the API.
type Deps struct {
	Engine *engine.Engine
	Tables TableLister

	// Fetcher reads existing annotations for authorize requests that do
	// not supply them. Optional.
	Fetcher engine.AnnotationFetcher

	// Bot answers chat messages. The bot route is not registered when nil.
	Bot *bot.Processor

	// MaxBodyBytes limits request bodies. Zero means no limit.
	MaxBodyBytes int64

	Logger *slog.Logger
}

// API serves the fanc endpoints.
type API struct {
	deps   Deps
	logger *slog.Logger
}

// New creates the API.
func New(deps Deps) (*API, error) {
	if deps.Engine == nil {
		return nil, errors.New("engine cannot be nil")
	}
	if deps.Tables == nil {
		return nil, errors.New("table lister cannot be nil")
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &API{deps: deps, logger: logger.With("component", "api")}, nil
}

// Register mounts the API routes on mux.
func (a *API) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /v1/annotations/parse", a.Parse)
	mux.HandleFunc("POST /v1/annotations/validate", a.Validate)
	mux.HandleFunc("POST /v1/annotations/authorize", a.Authorize)
	mux.HandleFunc("GET /v1/tables", a.ListTables)
	mux.HandleFunc("GET /v1/tables/{name}/tree", a.Tree)
	if a.deps.Bot != nil {
		mux.HandleFunc("POST /v1/bot/messages", a.BotMessage)
	}
}

// request decodes an annotation request and resolves its table reference
// and input.
func (a *API) request(w http.ResponseWriter, r *http.Request) (AnnotationRequest, engine.TableRef, engine.Input, error) {
	var req AnnotationRequest
	if err := decode(w, r, a.deps.MaxBodyBytes, &req); err != nil {
		return req, engine.TableRef{}, engine.Input{}, err
	}

	ref, err := tableRef(req)
	if err != nil {
		return req, ref, engine.Input{}, err
	}
	if req.Annotation == nil {
		return req, ref, engine.Input{}, &RequestError{Param: "annotation", Message: "annotation is required"}
	}
	in, err := engine.InputFrom(req.Annotation)
	if err != nil {
		return req, ref, in, err
	}
	return req, ref, in, nil
}

func tableRef(req AnnotationRequest) (engine.TableRef, error) {
	set := 0
	for _, present := range []bool{req.Table != "", len(req.Tree) > 0, len(req.Values) > 0} {
		if present {
			set++
		}
	}
	if set != 1 {
		return engine.TableRef{}, &RequestError{Param: "table", Message: "exactly one of table, tree or values is required"}
	}

	switch {
	case req.Table != "":
		return engine.Named(req.Table), nil
	case len(req.Values) > 0:
		return engine.InlineFlat(req.Values...), nil
	}

	// JSON is YAML, and the YAML decoder keeps mapping order.
	var tree vocab.Tree
	if err := yaml.Unmarshal(req.Tree, &tree); err != nil {
		return engine.TableRef{}, &RequestError{Param: "tree", Message: err.Error()}
	}
	if req.Rules != nil {
		return engine.InlineTreeWithRules(tree, *req.Rules), nil
	}
	return engine.InlineTree(tree), nil
}

// Parse serves POST /v1/annotations/parse.
func (a *API) Parse(w http.ResponseWriter, r *http.Request) {
	_, ref, in, err := a.request(w, r)
	if err != nil {
		handleError(w, r, a.logger, err)
		return
	}

	pair, err := a.deps.Engine.ParsePair(ref, in)
	if err != nil {
		handleError(w, r, a.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ParseResponse{Table: ref.String(), Pair: pair})
}

// Validate serves POST /v1/annotations/validate.
func (a *API) Validate(w http.ResponseWriter, r *http.Request) {
	_, ref, in, err := a.request(w, r)
	if err != nil {
		handleError(w, r, a.logger, err)
		return
	}

	res := a.deps.Engine.Validate(ref, in)
	if kind := engine.KindOf(res.Error()); kind == engine.KindUnknownTable {
		handleError(w, r, a.logger, res.Error())
		return
	}
	writeJSON(w, http.StatusOK, decision(ref, 0, res))
}

// Authorize serves POST /v1/annotations/authorize.
func (a *API) Authorize(w http.ResponseWriter, r *http.Request) {
	req, ref, in, err := a.request(w, r)
	if err != nil {
		handleError(w, r, a.logger, err)
		return
	}
	if req.Segment == 0 {
		handleError(w, r, a.logger, &RequestError{Param: "segment", Message: "segment is required"})
		return
	}

	fetcher := a.deps.Fetcher
	if req.Existing != nil {
		existing := req.Existing
		fetcher = engine.FetcherFunc(func(ctx context.Context, table string, segment uint64) ([]engine.Pair, error) {
			return existing, nil
		})
	}
	if fetcher == nil {
		handleError(w, r, a.logger, &RequestError{Param: "existing", Message: "no datastore is configured; existing annotations are required"})
		return
	}

	ctx := logging.WithSegment(r.Context(), req.Segment)
	ctx = logging.WithTable(ctx, ref.String())

	res, err := a.deps.Engine.AuthorizePost(ctx, req.Segment, in, ref, fetcher)
	if err != nil {
		handleError(w, r, a.logger, err)
		return
	}
	if kind := engine.KindOf(res.Error()); kind == engine.KindUnknownTable {
		handleError(w, r, a.logger, res.Error())
		return
	}
	writeJSON(w, http.StatusOK, decision(ref, req.Segment, res))
}

func decision(ref engine.TableRef, segment uint64, res engine.Result) DecisionResponse {
	return DecisionResponse{
		OK:      res.OK,
		Outcome: res.Outcome(),
		Table:   ref.String(),
		Segment: segment,
		Reason:  policyErrorBody(res.Err),
	}
}

// ListTables serves GET /v1/tables.
func (a *API) ListTables(w http.ResponseWriter, r *http.Request) {
	resp := TablesResponse{Tables: []TableInfo{}, Version: a.deps.Tables.Version()}
	for _, name := range a.deps.Tables.Names() {
		t, ok := a.deps.Tables.Table(name)
		if !ok {
			continue
		}
		info := TableInfo{
			Name:    t.Name(),
			Kind:    t.Kind().String(),
			HelpURL: t.HelpURL(),
		}
		if t.Kind() == engine.KindFlat {
			info.Values = t.Flat().Values()
		} else {
			info.Roots = t.Hierarchy().RootNames()
			info.ExclusivityGroups = t.ExclusivityGroups()
		}
		resp.Tables = append(resp.Tables, info)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Tree serves GET /v1/tables/{name}/tree. The vocabulary is rendered as a
// text tree, or as YAML with ?format=yaml.
func (a *API) Tree(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	t, ok := a.deps.Tables.Table(name)
	if !ok {
		handleError(w, r, a.logger, &engine.PolicyError{Kind: engine.KindUnknownTable, Table: name})
		return
	}

	var buf bytes.Buffer
	switch format := r.URL.Query().Get("format"); format {
	case "", "text":
		if t.Kind() == engine.KindFlat {
			for _, v := range t.Flat().Values() {
				buf.WriteString(v + "\n")
			}
		} else if err := vocab.RenderAll(&buf, t.Hierarchy()); err != nil {
			handleError(w, r, a.logger, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	case "yaml":
		var doc any
		if t.Kind() == engine.KindFlat {
			doc = t.Flat().Values()
		} else {
			doc = t.Hierarchy().Tree()
		}
		if err := yaml.NewEncoder(&buf).Encode(doc); err != nil {
			handleError(w, r, a.logger, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
	default:
		handleError(w, r, a.logger, &RequestError{Param: "format", Message: "format must be text or yaml"})
		return
	}
	_, _ = w.Write(buf.Bytes())
}

// BotMessage serves POST /v1/bot/messages.
func (a *API) BotMessage(w http.ResponseWriter, r *http.Request) {
	var req BotRequest
	if err := decode(w, r, a.deps.MaxBodyBytes, &req); err != nil {
		handleError(w, r, a.logger, err)
		return
	}
	if req.User == "" {
		handleError(w, r, a.logger, &RequestError{Param: "user", Message: "user is required"})
		return
	}

	reply := a.deps.Bot.Process(r.Context(), req.User, req.Text)
	writeJSON(w, http.StatusOK, BotResponse{Reply: reply, Thread: bot.ShouldThread(reply)})
}
