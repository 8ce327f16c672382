package datastore

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an annotation or point has no match.
	ErrNotFound = errors.New("not found")

	// ErrClosed is returned by a store after Close.
	ErrClosed = errors.New("datastore closed")
)

// StatusError is a non-2xx response from the remote annotation service.
type StatusError struct {
	// Operation names the call, e.g. "fetch" or "post".
	Operation string

	// StatusCode is the HTTP status.
	StatusCode int

	// Message is the response body, truncated.
	Message string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("annotation service %s failed (status %d): %s", e.Operation, e.StatusCode, e.Message)
}

// Is matches ErrNotFound for 404 responses.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == 404
}

// InvalidRecordError reports a record that cannot be posted.
type InvalidRecordError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *InvalidRecordError) Error() string {
	return fmt.Sprintf("invalid annotation record: %s: %s", e.Field, e.Message)
}

func validateRecord(r Record) error {
	switch {
	case r.Table == "":
		return &InvalidRecordError{Field: "table", Message: "table is required"}
	case r.Segment == 0:
		return &InvalidRecordError{Field: "segment", Message: "segment ID is required"}
	case r.Pair.Value == "":
		return &InvalidRecordError{Field: "annotation", Message: "annotation is required"}
	}
	return nil
}
