package uploads

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by a ledger after Close.
var ErrClosed = errors.New("ledger closed")

// StorageError reports a failed ledger operation.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s ledger %s failed: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func storageError(backend, op string, err error) error {
	return &StorageError{Backend: backend, Operation: op, Cause: err}
}
