package manager

import (
	"fmt"
	"strings"
)

// LoadError is a file system failure while reading a vocabulary file.
type LoadError struct {
	FilePath string
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *LoadError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to load vocabulary file %q: %s: %v", e.FilePath, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to load vocabulary file %q: %s", e.FilePath, e.Message)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ParseError is a YAML syntax or schema failure.
type ParseError struct {
	FilePath string
	Line     int
	Message  string
	Cause    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse error in %q at line %d: %s", e.FilePath, e.Line, msg)
	}
	return fmt.Sprintf("parse error in %q: %s", e.FilePath, msg)
}

// Unwrap implements the errors.Unwrap interface for error chain support.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// ValidationError is a semantic problem in a table definition, such as a
// rule naming a class the hierarchy does not contain.
type ValidationError struct {
	FilePath string
	Table    string
	Message  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	parts := []string{"validation error"}
	if e.FilePath != "" {
		parts = append(parts, fmt.Sprintf("in %q", e.FilePath))
	}
	if e.Table != "" {
		parts = append(parts, fmt.Sprintf("in table %q", e.Table))
	}
	parts = append(parts, e.Message)
	return strings.Join(parts, " ")
}

// RegistryError is a failed registry operation.
type RegistryError struct {
	Table     string
	Operation string
	Message   string
}

// Error implements the error interface.
func (e *RegistryError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("registry error for table %q during %s: %s", e.Table, e.Operation, e.Message)
	}
	return fmt.Sprintf("registry error during %s: %s", e.Operation, e.Message)
}

// ErrorList collects errors from loading several files or tables.
type ErrorList struct {
	Errors []error
}

// Error implements the error interface.
func (e *ErrorList) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d errors occurred:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %v\n", i+1, err)
	}
	return sb.String()
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e *ErrorList) Unwrap() []error {
	return e.Errors
}

// Add appends err if it is non-nil.
func (e *ErrorList) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors reports whether any error was collected.
func (e *ErrorList) HasErrors() bool {
	return len(e.Errors) > 0
}

// ToError returns nil, the single error, or the list itself.
func (e *ErrorList) ToError() error {
	switch len(e.Errors) {
	case 0:
		return nil
	case 1:
		return e.Errors[0]
	}
	return e
}
