package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Input failure (source does not parse, unsupported module layout)
	ExitCommandError = 2 // Command error (I/O, existing files, bad config or flags)
)

// ExitError carries the exit code of a failed command. Commands report the
// failure through their OutputFormatter before returning one, so Main only
// has to exit with Code.
type ExitError struct {
	Code    int
	Message string
	Err     error // optional cause
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// NewExitError returns an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError returns an ExitError caused by err.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode returns the exit code for err: ExitSuccess for nil, the code
// of an ExitError anywhere in the chain, and ExitCommandError otherwise,
// which covers cobra's own unknown command and bad flag errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// TextWriter is implemented by command results that render themselves in
// text format. Other values are printed with fmt.
type TextWriter interface {
	WriteText(w io.Writer) error
}

// OutputFormatter writes the outcome of a command to stdout, either as text
// or as a single JSON CLIResponse.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; falls back to Writer
	Verbose   bool
	RunID     string // matches the run_id of log records
}

// CLIResponse is the JSON document written for every command.
type CLIResponse struct {
	Status string    `json:"status"` // "ok" or "error"
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
	RunID  string    `json:"run_id,omitempty"`
}

// CLIError describes a failed command. Details carries the context of a
// split error: its kind, operation, path, module and source position.
type CLIError struct {
	Code    string            `json:"code"` // E001..E009
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

// Success writes the result of a command.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == FormatJSON {
		return f.respond(CLIResponse{Status: "ok", Data: data})
	}
	if tw, ok := data.(TextWriter); ok {
		return tw.WriteText(f.Writer)
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error writes a failure. In text format the details are listed only in
// verbose mode, one `key: value` line each, followed by the run id.
func (f *OutputFormatter) Error(code, message string, details map[string]string) error {
	if f.Format == FormatJSON {
		return f.respond(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}

	if _, err := fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message); err != nil {
		return err
	}
	if !f.Verbose {
		return nil
	}
	for _, key := range slices.Sorted(maps.Keys(details)) {
		fmt.Fprintf(f.Writer, "  %s: %s\n", key, details[key])
	}
	if f.RunID != "" {
		fmt.Fprintf(f.Writer, "  run_id: %s\n", f.RunID)
	}
	return nil
}

func (f *OutputFormatter) respond(resp CLIResponse) error {
	resp.RunID = f.RunID
	return json.NewEncoder(f.Writer).Encode(resp)
}

// VerboseLog writes a progress line to the diagnostic writer in verbose
// mode. It never writes to stdout when ErrWriter is set, so JSON output
// stays parseable.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter, or Writer when it is unset.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
