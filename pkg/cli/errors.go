package cli

import (
	"errors"
	"fmt"
)

// Exit codes returned by the fanc command.
const (
	ExitOK       = 0
	ExitError    = 1
	ExitUsage    = 2
	ExitFindings = 3
)

// UsageError reports a missing or malformed flag or argument.
type UsageError struct {
	Flag    string
	Message string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Flag, e.Message)
}

// NewUsageError creates a UsageError.
func NewUsageError(flag, message string) *UsageError {
	return &UsageError{Flag: flag, Message: message}
}

// CommandError wraps a failure from a subcommand.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError creates a CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{Command: command, Err: err}
}

// FindingsError reports that a command ran but found problems, such as a
// denied annotation or an inconsistent vocabulary.
type FindingsError struct {
	Count int
}

func (e *FindingsError) Error() string {
	if e.Count == 1 {
		return "1 problem found"
	}
	return fmt.Sprintf("%d problems found", e.Count)
}

// ExitCode maps err to the process exit code.
func ExitCode(err error) int {
	var usage *UsageError
	var findings *FindingsError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &findings):
		return ExitFindings
	case errors.As(err, &usage):
		return ExitUsage
	default:
		return ExitError
	}
}
