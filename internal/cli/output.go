package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Evaluation, validation or scenario failure
	ExitCommandError = 2 // Command error (bad flags, missing files, unknown engine)
)

// Error codes reported in JSON output.
const (
	ErrCodeGeneric      = "E001" // Generic/unknown error
	ErrCodeNotFound     = "E002" // Path, engine or vehicle not found
	ErrCodeLoadFailed   = "E003" // Rule or catalog source failed to compile
	ErrCodeDatabase     = "E004" // SQLite open/read/write failure
	ErrCodeInvalidInput = "E005" // Bad flag combination or argument
	ErrCodeLintFailed   = "E006" // Lint findings present
	ErrCodeTestFailed   = "E007" // One or more scenarios failed
)

// ExitError represents an error with a specific exit code.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)

	// Reported is set when the error was already written by an
	// OutputFormatter, so main must not print it again.
	Reported bool
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
// Returns ExitSuccess for nil and ExitFailure if err is not an ExitError.
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

// IsReported reports whether err was already written to the user.
func IsReported(err error) bool {
	var exitErr *ExitError
	return errors.As(err, &exitErr) && exitErr.Reported
}

func reported(e *ExitError) *ExitError {
	e.Reported = true
	return e
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; keeps JSON on Writer parseable
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// IsJSON reports whether JSON output was requested.
func (f *OutputFormatter) IsJSON() bool {
	return f.Format == "json"
}

// Success writes data. In text mode, text renders it; a nil text prints
// data with fmt.Fprintln.
func (f *OutputFormatter) Success(data any, text func(w io.Writer)) error {
	if f.IsJSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}
	if text != nil {
		text(f.Writer)
		return nil
	}
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Failure writes a result that represents a failed check (exit code 1)
// along with its data, and returns the matching ExitError.
func (f *OutputFormatter) Failure(code, message string, data any, text func(w io.Writer)) error {
	if f.IsJSON() {
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   data,
			Error:  &CLIError{Code: code, Message: message},
		}); err != nil {
			return err
		}
	} else if text != nil {
		text(f.Writer)
	}
	return reported(NewExitError(ExitFailure, message))
}

// Error writes a command error and returns it as an ExitError with
// exitCode.
func (f *OutputFormatter) Error(exitCode int, code, message string, err error) error {
	if f.IsJSON() {
		var details any
		if err != nil {
			details = err.Error()
		}
		if encErr := f.encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		}); encErr != nil {
			return encErr
		}
	} else {
		fmt.Fprintf(f.errWriter(), "Error [%s]: %s\n", code, message)
		if err != nil {
			fmt.Fprintf(f.errWriter(), "  %v\n", err)
		}
	}
	if err != nil {
		return reported(WrapExitError(exitCode, message, err))
	}
	return reported(NewExitError(exitCode, message))
}

// VerboseLog outputs a message only if verbose mode is enabled. It always
// goes to ErrWriter so JSON output stays clean.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.errWriter(), format+"\n", args...)
}

func (f *OutputFormatter) errWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	enc := json.NewEncoder(f.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}
