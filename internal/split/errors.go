package split

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/form/internal/syntax"
)

// ErrorCode categorizes split failures.
type ErrorCode string

const (
	// ErrCodeParse indicates the input is not valid source.
	ErrCodeParse ErrorCode = "PARSE_FAILED"

	// ErrCodeUnsupported indicates input the transform cannot relocate,
	// such as an out-of-line module below the top level.
	ErrCodeUnsupported ErrorCode = "UNSUPPORTED"

	// ErrCodeConflict indicates an output file already exists.
	ErrCodeConflict ErrorCode = "FILE_CONFLICT"

	// ErrCodeFilesystem indicates a directory or file operation failed.
	ErrCodeFilesystem ErrorCode = "FS_FAILURE"
)

var (
	// ErrNestedExternal is wrapped when a module below the top level is
	// already declared without a body: its content is not in the input.
	ErrNestedExternal = errors.New("nested out-of-line modules are not supported")

	// ErrNestedInItem is wrapped when a module is declared inside a
	// function body or another non-module item.
	ErrNestedInItem = errors.New("modules declared inside non-module items are not supported")

	// ErrFileExists is wrapped when a destination file is already present.
	ErrFileExists = errors.New("file already exists")

	// ErrSharedDestination is wrapped when two modules of one input map to
	// the same file, such as `con` and `con_`, or a top-level module named
	// after the root file.
	ErrSharedDestination = errors.New("two modules map to the same file")
)

// Error is returned for every failure of a split run. Every failure is
// fatal: the run stops at the first one and files written before it stay
// on disk.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Op names the operation that failed ("parse", "extract",
	// "create directory", "write file").
	Op string

	// Path is the filesystem path involved, if any.
	Path string

	// Module is the module path (`a::b`) being processed, if any.
	Module string

	// Pos is the source position involved, if any.
	Pos syntax.Position

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Code, e.Op)
	if e.Path != "" {
		fmt.Fprintf(&b, " %s", e.Path)
	}
	if e.Module != "" {
		fmt.Fprintf(&b, " (module %s)", e.Module)
	}
	if e.Pos.Line > 0 {
		fmt.Fprintf(&b, " at %s", e.Pos)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

func hasCode(err error, code ErrorCode) bool {
	var se *Error
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

// IsParseError reports whether err is a parse failure.
// Uses errors.As to handle wrapped errors.
func IsParseError(err error) bool { return hasCode(err, ErrCodeParse) }

// IsUnsupported reports whether err rejects unsupported input structure.
func IsUnsupported(err error) bool { return hasCode(err, ErrCodeUnsupported) }

// IsConflict reports whether err is an existing-file conflict.
func IsConflict(err error) bool { return hasCode(err, ErrCodeConflict) }

// IsFilesystemError reports whether err is an I/O failure.
func IsFilesystemError(err error) bool { return hasCode(err, ErrCodeFilesystem) }
