package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/form/internal/split"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
		RunID:  "run-1",
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Equal(t, "run-1", resp.RunID)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E003", "parse failed", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, "E003", resp.Error.Code)
	assert.Equal(t, "parse failed", resp.Error.Message)
	assert.NotContains(t, buf.String(), "run_id", "empty run id is omitted")
}

func TestOutputFormatter_JSONErrorWithDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"path": "in.rs", "position": "in.rs:4:2"}
	err := formatter.Error("E003", "syntax error", details)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	assert.NotNil(t, resp.Error)
	assert.Equal(t, details, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("form dev")
	require.NoError(t, err)
	assert.Equal(t, "form dev\n", buf.String())
}

func TestOutputFormatter_TextSuccessUsesWriteText(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: FormatText, Writer: buf}

	result := &SplitResult{
		Input: "in.rs",
		Report: &split.Report{
			BaseDir: "/out",
			Files: []split.EmittedFile{
				{Path: "/out/con_.rs", Module: "con", PathAttr: "con_.rs"},
				{Path: "/out/lib.rs", Module: split.RootModule},
			},
		},
	}
	require.NoError(t, formatter.Success(result))
	assert.Equal(t, "✓ Split in.rs into 2 file(s)\n\n  con_.rs (con)\n  lib.rs (crate)\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	err := formatter.Error("E006", "file exists", map[string]string{"path": "lib.rs"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [E006]")
	assert.Contains(t, buf.String(), "file exists")
	assert.Equal(t, "Error [E006]: file exists\n", buf.String(), "details are listed in verbose mode only")
}

func TestOutputFormatter_TextErrorVerbose(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	details := map[string]string{"path": "lib.rs", "kind": "FILE_CONFLICT"}
	formatter.RunID = "run-7"
	err := formatter.Error("E006", "file exists", details)
	require.NoError(t, err)
	assert.Equal(t, "Error [E006]: file exists\n"+
		"  kind: FILE_CONFLICT\n"+
		"  path: lib.rs\n"+
		"  run_id: run-7\n", buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("Splitting %s", "in.rs")

			assert.Empty(t, out.String(), "diagnostics never reach stdout")
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "Splitting in.rs")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestOutputFormatter_GetErrWriterFallsBack(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Writer: buf}
	assert.Same(t, buf, formatter.GetErrWriter())
}

func TestGetExitCode(t *testing.T) {
	base := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"exit failure", NewExitError(ExitFailure, "bad input"), ExitFailure},
		{"wrapped command error", fmt.Errorf("outer: %w", WrapExitError(ExitCommandError, "write", base)), ExitCommandError},
		{"plain error", base, ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

func TestExitError_Message(t *testing.T) {
	base := errors.New("disk full")
	err := WrapExitError(ExitCommandError, "split failed", base)

	assert.Equal(t, "split failed: disk full", err.Error())
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "bad input", NewExitError(ExitFailure, "bad input").Error())
}
