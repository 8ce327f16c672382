package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"htem/fanc/pkg/policy/engine"
)

// RequestError is a malformed request.
type RequestError struct {
	Param   string
	Message string
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Param == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Param, e.Message)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, detail ErrorDetail) {
	writeJSON(w, status, ErrorResponse{Error: detail})
}

// handleError maps err to a response. Unknown errors are logged and
// reported as upstream failures since they come from the datastore.
func handleError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var (
		reqErr *RequestError
		perr   *engine.PolicyError
		maxErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &reqErr):
		writeError(w, http.StatusBadRequest, ErrorDetail{Type: ErrorTypeInvalidRequest, Message: reqErr.Message, Param: reqErr.Param})
	case errors.As(err, &maxErr):
		writeError(w, http.StatusRequestEntityTooLarge, ErrorDetail{Type: ErrorTypeInvalidRequest, Message: "request body too large"})
	case errors.As(err, &perr) && perr.Kind == engine.KindUnknownTable:
		writeError(w, http.StatusNotFound, ErrorDetail{Type: ErrorTypeNotFound, Message: perr.Error(), Param: "table", Kind: perr.Kind.String()})
	case errors.As(err, &perr):
		writeError(w, http.StatusUnprocessableEntity, ErrorDetail{Type: ErrorTypeUnprocessable, Message: perr.Error(), Param: "annotation", Kind: perr.Kind.String()})
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusBadGateway, ErrorDetail{Type: ErrorTypeUpstream, Message: err.Error()})
	}
}

// decode reads a JSON body of at most limit bytes into v.
func decode(w http.ResponseWriter, r *http.Request, limit int64, v any) error {
	if limit > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return err
		}
		return &RequestError{Message: "invalid JSON body: " + err.Error()}
	}
	return nil
}
