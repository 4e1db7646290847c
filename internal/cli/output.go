package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/reglet-dev/ankibridge/domain/entities"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // The call ran but its outcome was not a success
	ExitCommandError = 2 // Command error (bad config, unreadable file, etc.)
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Err     error
	Message string
	Code    int
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// writeOutcome prints out as indented JSON and turns a non-success outcome
// into an ExitFailure error.
func writeOutcome(w io.Writer, out entities.Outcome) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return WrapExitError(ExitCommandError, "failed to encode outcome", err)
	}
	if !out.IsSuccess() {
		return NewExitError(ExitFailure, fmt.Sprintf("call finished with status %s", out.Status))
	}
	return nil
}
