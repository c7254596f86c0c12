package harness

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"path"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/roach88/form/internal/split"
	"github.com/roach88/form/internal/syntax"
)

// OutputDir is the directory scenarios are split into.
const OutputDir = "/out"

// Harness is the scenario execution engine.
// It runs each scenario against its own in-memory filesystem.
type Harness struct {
	fs     afero.Fs
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Execution flow:
// 1. Create a fresh in-memory filesystem holding the existing files
// 2. Split the input into OutputDir
// 3. Compare the outcome with the expect clause
// 4. Check the invariants of a successful split
// 5. Evaluate the assertions
//
// The returned error reports a harness failure; scenario failures are
// recorded in the result.
func Run(scenario *Scenario) (*Result, error) {
	h := &Harness{
		fs:     afero.NewMemMapFs(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	for p, content := range scenario.Existing {
		if err := afero.WriteFile(h.fs, path.Join(OutputDir, p), []byte(content), 0o644); err != nil {
			return nil, fmt.Errorf("failed to write existing file %s: %w", p, err)
		}
	}

	style, err := syntax.ParseStyle(scenario.Style)
	if err != nil {
		return nil, err
	}
	splitter := split.New(split.Options{
		FS:        h.fs,
		Style:     style,
		RootFile:  scenario.RootFile,
		Overwrite: scenario.Overwrite,
		Logger:    h.logger,
	})

	result := NewResult()
	report, splitErr := splitter.Split(OutputDir, scenario.Name+".rs", scenario.Input)
	if report != nil {
		for _, f := range report.Files {
			rel, err := relPath(f.Path)
			if err != nil {
				return nil, err
			}
			f.Path = rel
			result.Emitted = append(result.Emitted, f)
		}
	}
	if splitErr != nil {
		var se *split.Error
		if !errors.As(splitErr, &se) {
			return nil, fmt.Errorf("split failed without an error code: %w", splitErr)
		}
		result.ErrorCode = se.Code
		result.ErrorMessage = splitErr.Error()
	}

	if result.Files, err = h.readTree(); err != nil {
		return nil, err
	}

	checkExpectation(scenario.Expect, result)
	if result.ErrorCode == "" {
		checkInvariants(scenario.Input, result)
	}
	for _, errMsg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(errMsg)
	}

	return result, nil
}

// readTree returns the files under OutputDir, keyed by relative path. A
// missing directory yields no files.
func (h *Harness) readTree() (map[string]string, error) {
	files := make(map[string]string)
	exists, err := afero.DirExists(h.fs, OutputDir)
	if err != nil || !exists {
		return files, err
	}

	err = afero.Walk(h.fs, OutputDir, func(p string, info fs.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		data, err := afero.ReadFile(h.fs, p)
		if err != nil {
			return err
		}
		rel, err := relPath(p)
		if err != nil {
			return err
		}
		files[rel] = string(data)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read output tree: %w", err)
	}
	return files, nil
}

func relPath(p string) (string, error) {
	rel, err := filepath.Rel(OutputDir, p)
	if err != nil {
		return "", fmt.Errorf("path %s is outside %s: %w", p, OutputDir, err)
	}
	return filepath.ToSlash(rel), nil
}

// checkExpectation compares the outcome with the expect clause.
func checkExpectation(expect ExpectClause, result *Result) {
	switch {
	case expect.Error != "" && result.ErrorCode == "":
		result.AddError(fmt.Sprintf("expected split to fail with %s, but it succeeded", expect.Error))
	case expect.Error != "" && result.ErrorCode != expect.Error:
		result.AddError(fmt.Sprintf("expected error %s, got %s", expect.Error, result.ErrorMessage))
	case expect.Error == "" && result.ErrorCode != "":
		result.AddError(fmt.Sprintf("unexpected split failure: %s", result.ErrorMessage))
	}

	for _, p := range sortedKeys(expect.Files) {
		got, ok := result.Files[p]
		if !ok {
			result.AddError(fmt.Sprintf("expected file %s was not written", p))
			continue
		}
		if got != expect.Files[p] {
			result.AddError(fmt.Sprintf("file %s:\n  Expected: %q\n  Actual: %q", p, expect.Files[p], got))
		}
	}
}

// checkInvariants verifies properties every successful split has: each
// written file parses and declares no inline module, and every inline
// module of the input got its own file.
func checkInvariants(input string, result *Result) {
	for _, f := range result.Emitted {
		parsed, err := syntax.Parse(f.Path, result.Files[f.Path])
		if err != nil {
			result.AddError(fmt.Sprintf("invariant: written file %s does not parse: %v", f.Path, err))
			continue
		}
		syntax.Inspect(parsed.Items, func(it syntax.Item) bool {
			if m, ok := it.(*syntax.Module); ok && m.IsInline() {
				result.AddError(fmt.Sprintf("invariant: %s still declares inline module %s", f.Path, m.Name()))
			}
			return true
		})
	}

	file, err := syntax.Parse("input.rs", input)
	if err != nil {
		result.AddError(fmt.Sprintf("invariant: input does not parse after a successful split: %v", err))
		return
	}
	inline := 0
	syntax.Inspect(file.Items, func(it syntax.Item) bool {
		if m, ok := it.(*syntax.Module); ok && m.IsInline() {
			inline++
		}
		return true
	})
	if want := inline + 1; len(result.Emitted) != want {
		result.AddError(fmt.Sprintf("invariant: %d inline module(s) should give %d file(s), got %d", inline, want, len(result.Emitted)))
	}
}
