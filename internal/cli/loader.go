package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/roach88/form/internal/split"
	"github.com/roach88/form/internal/syntax"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeReadFailed  = "E002" // Input could not be read
	ErrCodeParseFailed = "E003" // Input is not valid source
	ErrCodeUnsupported = "E004" // Module layout the split cannot handle
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeConflict    = "E006" // Output file already exists
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeConfig      = "E008" // Configuration could not be loaded
	ErrCodeInvalidFlag = "E009" // Invalid flag value
)

// stdinName is the input path that selects standard input.
const stdinName = "-"

// Input is a source file loaded for splitting.
type Input struct {
	// Name is the path the source was read from, or empty for stdin.
	Name   string
	Source string
}

// DisplayName returns Name, or "<stdin>".
func (in *Input) DisplayName() string {
	if in.Name == "" {
		return "<stdin>"
	}
	return in.Name
}

// LoadError represents an error that occurred while reading input.
type LoadError struct {
	Code    string
	Message string
	Path    string
	Err     error
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadInput reads the source to split from path on fsys, or from stdin when
// path is empty or "-".
func LoadInput(fsys afero.Fs, path string, stdin io.Reader) (*Input, error) {
	if path == "" || path == stdinName {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeReadFailed, Message: "reading standard input", Err: err}
		}
		return newInput("", data)
	}

	info, err := fsys.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: "input file not found", Path: path, Err: err}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: "cannot stat input file", Path: path, Err: err}
	}
	if info.IsDir() {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: "input is a directory", Path: path}
	}

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: "reading input file", Path: path, Err: err}
	}
	return newInput(path, data)
}

func newInput(name string, data []byte) (*Input, error) {
	if !utf8.Valid(data) {
		return nil, &LoadError{Code: ErrCodeReadFailed, Message: "input is not valid UTF-8", Path: name}
	}
	return &Input{Name: name, Source: string(data)}, nil
}

// classifySplitError maps a split failure onto an error code and exit code.
// Input problems exit with ExitFailure; everything else is a command error.
func classifySplitError(err error) (string, int) {
	switch {
	case split.IsParseError(err):
		return ErrCodeParseFailed, ExitFailure
	case split.IsUnsupported(err):
		return ErrCodeUnsupported, ExitFailure
	case split.IsConflict(err):
		return ErrCodeConflict, ExitCommandError
	case split.IsFilesystemError(err):
		return ErrCodeWriteFailed, ExitCommandError
	}
	return ErrCodeGeneric, ExitCommandError
}

// splitErrorDetails collects the context carried by a split error.
func splitErrorDetails(err error) map[string]string {
	var se *split.Error
	if !errors.As(err, &se) {
		return nil
	}
	details := map[string]string{"kind": string(se.Code), "op": se.Op}
	if se.Path != "" {
		details["path"] = se.Path
	}
	if se.Module != "" {
		details["module"] = se.Module
	}
	if se.Pos.Line > 0 {
		details["position"] = se.Pos.String()
	}
	var pe *syntax.ParseError
	if errors.As(err, &pe) {
		details["position"] = pe.Pos.String()
	}
	return details
}
