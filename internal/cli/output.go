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
	ExitFailure      = 1 // Scenarios failed, replay diverged, schema check failed
	ExitCommandError = 2 // Command error (invalid paths, unknown kind, unreadable journal)
)

// ExitError carries the process exit code of a failed command.
type ExitError struct {
	Code    int
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError attaches an exit code and context to err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode maps err to a process exit code. Errors that carry no code,
// such as cobra's own argument errors, are failures.
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

// Response is the envelope of every --format json output.
type Response struct {
	Status string         `json:"status"` // "ok" or "error"
	Data   any            `json:"data,omitempty"`
	Error  *ResponseError `json:"error,omitempty"`
}

// ResponseError describes a failed command in a Response. Code is an ir
// error code for kernel and catalog errors, or an E_* code for command
// outcomes.
type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Output renders command results. Text goes through the command's own
// renderer; JSON is one Response per command. Diagnostics always go to
// Diag so they cannot corrupt JSON on Out.
type Output struct {
	Format  string
	Out     io.Writer
	Diag    io.Writer
	Verbose bool
}

// JSON reports whether results are rendered as JSON.
func (o *Output) JSON() bool { return o.Format == "json" }

// Result renders a successful result.
func (o *Output) Result(data any, text func(w io.Writer)) error {
	if o.JSON() {
		return o.encode(Response{Status: "ok", Data: data})
	}
	if text != nil {
		text(o.Out)
	}
	return nil
}

// Fail renders a failed result and returns the ExitError the command
// should return. In text mode, text renders the failure; nil prints
// message.
func (o *Output) Fail(exit int, code, message string, details any, text func(w io.Writer)) error {
	if o.JSON() {
		if err := o.encode(Response{Status: "error", Error: &ResponseError{Code: code, Message: message, Details: details}}); err != nil {
			return err
		}
		return NewExitError(exit, message)
	}
	if text != nil {
		text(o.Out)
	} else {
		fmt.Fprintf(o.Out, "Error [%s]: %s\n", code, message)
		if o.Verbose && details != nil {
			fmt.Fprintf(o.Out, "Details: %v\n", details)
		}
	}
	return NewExitError(exit, message)
}

// Debugf writes a diagnostic line when verbose.
func (o *Output) Debugf(format string, args ...any) {
	if !o.Verbose || o.Diag == nil {
		return
	}
	fmt.Fprintf(o.Diag, format+"\n", args...)
}

func (o *Output) encode(r Response) error {
	enc := json.NewEncoder(o.Out)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
