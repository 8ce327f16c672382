package handlers

import (
	"encoding/json"
	"time"

	"htem/fanc/pkg/policy/engine"
)

// AnnotationRequest is the body of the annotation endpoints.
type AnnotationRequest struct {
	// Table names a registered table.
	Table string `json:"table,omitempty"`

	// Tree is an inline hierarchical vocabulary. Key order is significant.
	Tree json.RawMessage `json:"tree,omitempty"`

	// Rules apply to an inline tree. Omitted rules mean the default rules.
	Rules *engine.Rules `json:"rules,omitempty"`

	// Values is an inline flat vocabulary.
	Values []string `json:"values,omitempty"`

	// Annotation is a string or a two-element [class, value] array.
	Annotation any `json:"annotation"`

	// Segment is required by authorize.
	Segment uint64 `json:"segment,omitempty"`

	// Existing replaces the datastore lookup of the segment's annotations.
	Existing []engine.Pair `json:"existing,omitempty"`
}

// ParseResponse answers /v1/annotations/parse.
type ParseResponse struct {
	Table string      `json:"table"`
	Pair  engine.Pair `json:"pair"`
}

// DecisionResponse answers validate and authorize.
type DecisionResponse struct {
	OK      bool             `json:"ok"`
	Outcome string           `json:"outcome"`
	Table   string           `json:"table"`
	Segment uint64           `json:"segment,omitempty"`
	Reason  *PolicyErrorBody `json:"reason,omitempty"`
}

// PolicyErrorBody is the JSON form of engine.PolicyError.
type PolicyErrorBody struct {
	Kind          string       `json:"kind"`
	Message       string       `json:"message"`
	Class         string       `json:"annotation_class,omitempty"`
	Value         string       `json:"annotation,omitempty"`
	ParentClasses []string     `json:"parent_classes,omitempty"`
	Existing      *engine.Pair `json:"existing,omitempty"`
	Group         []string     `json:"group,omitempty"`
	HelpURL       string       `json:"help_url,omitempty"`
}

func policyErrorBody(e *engine.PolicyError) *PolicyErrorBody {
	if e == nil {
		return nil
	}
	return &PolicyErrorBody{
		Kind:          e.Kind.String(),
		Message:       e.Error(),
		Class:         e.Class,
		Value:         e.Value,
		ParentClasses: e.ParentClasses,
		Existing:      e.Existing,
		Group:         e.Group,
		HelpURL:       e.HelpURL,
	}
}

// TableInfo describes one governed table.
type TableInfo struct {
	Name              string     `json:"name"`
	Kind              string     `json:"kind"`
	HelpURL           string     `json:"help_url,omitempty"`
	Roots             []string   `json:"roots,omitempty"`
	Values            []string   `json:"values,omitempty"`
	ExclusivityGroups [][]string `json:"exclusivity_groups,omitempty"`
}

// TablesResponse answers GET /v1/tables.
type TablesResponse struct {
	Tables   []TableInfo `json:"tables"`
	Version  string      `json:"version,omitempty"`
	LoadedAt *time.Time  `json:"loaded_at,omitempty"`
}

// BotRequest is a chat message.
type BotRequest struct {
	User string `json:"user"`
	Text string `json:"text"`
}

// BotResponse is the reply to a chat message.
type BotResponse struct {
	Reply string `json:"reply"`

	// Thread suggests posting the reply in a thread.
	Thread bool `json:"thread"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Param   string `json:"param,omitempty"`

	// Kind is the policy error kind, when there is one.
	Kind string `json:"kind,omitempty"`
}

// Error types.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeNotFound       = "not_found"
	ErrorTypeUnprocessable  = "unprocessable_annotation"
	ErrorTypeUpstream       = "datastore_error"
	ErrorTypeUnavailable    = "service_unavailable"
)
