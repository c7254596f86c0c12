package harness

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/form/internal/split"
	"github.com/roach88/form/internal/syntax"
)

// Scenario defines a split scenario: an input, the options to split it
// with, and the expected outcome.
type Scenario struct {
	// Name uniquely identifies this scenario. It names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Input is the source to split.
	Input string `yaml:"input,omitempty"`

	// InputFile is a path to read the source from, relative to the
	// scenario file. Exactly one of Input and InputFile is set.
	InputFile string `yaml:"input_file,omitempty"`

	// Style is the output style name. Defaults to "source".
	Style string `yaml:"style,omitempty"`

	// RootFile is the crate root file name. Defaults to lib.rs.
	RootFile string `yaml:"root_file,omitempty"`

	// Overwrite replaces existing files instead of failing.
	Overwrite bool `yaml:"overwrite,omitempty"`

	// Existing lists files present in the output directory before the
	// split, keyed by relative path.
	Existing map[string]string `yaml:"existing,omitempty"`

	// Expect specifies the expected outcome.
	Expect ExpectClause `yaml:"expect"`

	// Assertions validate the written tree.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// ExpectClause specifies the expected outcome of the split.
type ExpectClause struct {
	// Error is the expected split error code. Empty means the split must
	// succeed.
	Error split.ErrorCode `yaml:"error,omitempty"`

	// Files maps relative paths to their exact expected content. Files not
	// listed are not compared.
	Files map[string]string `yaml:"files,omitempty"`
}

// Assertion validates the written tree.
type Assertion struct {
	// Type specifies the assertion type:
	// - "file_exists": Path is present after the split
	// - "file_absent": Path is not present after the split
	// - "file_contains": Path contains Text
	// - "emit_order": Paths were written in this relative order
	// - "file_count": exactly Count files were written
	// - "path_attr": Module was declared with path attribute Value
	Type string `yaml:"type"`

	// Path is a file path relative to the output directory.
	Path string `yaml:"path,omitempty"`

	// Paths is the expected emission order (used by emit_order).
	Paths []string `yaml:"paths,omitempty"`

	// Text is the expected substring (used by file_contains).
	Text string `yaml:"text,omitempty"`

	// Count is the expected number of written files (used by file_count).
	Count int `yaml:"count,omitempty"`

	// Module is a module path such as a::b (used by path_attr).
	Module string `yaml:"module,omitempty"`

	// Value is the expected path attribute, empty for none (used by
	// path_attr).
	Value string `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertFileExists   = "file_exists"
	AssertFileAbsent   = "file_absent"
	AssertFileContains = "file_contains"
	AssertEmitOrder    = "emit_order"
	AssertFileCount    = "file_count"
	AssertPathAttr     = "path_attr"
)

var errorCodes = []split.ErrorCode{
	split.ErrCodeParse,
	split.ErrCodeUnsupported,
	split.ErrCodeConflict,
	split.ErrCodeFilesystem,
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// An input_file is read relative to the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.InputFile != "" {
		inputPath := scenario.InputFile
		if !filepath.IsAbs(inputPath) {
			inputPath = filepath.Join(filepath.Dir(path), inputPath)
		}
		src, err := os.ReadFile(inputPath)
		if err != nil {
			return nil, fmt.Errorf("invalid scenario: input file: %w", err)
		}
		scenario.Input = string(src)
	}
	return scenario, nil
}

// ParseScenario parses and validates scenario YAML. An input_file is left
// unread.
func ParseScenario(data []byte) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if (s.Input == "") == (s.InputFile == "") {
		return fmt.Errorf("exactly one of input and input_file is required")
	}

	if _, err := syntax.ParseStyle(s.Style); err != nil {
		return err
	}

	if s.RootFile != "" && (path.Base(s.RootFile) != s.RootFile || strings.Contains(s.RootFile, `\`)) {
		return fmt.Errorf("root_file must be a file name: %q", s.RootFile)
	}

	for p := range s.Existing {
		if err := validateRelPath(p); err != nil {
			return fmt.Errorf("existing: %w", err)
		}
	}

	if s.Expect.Error != "" && !slices.Contains(errorCodes, s.Expect.Error) {
		return fmt.Errorf("expect.error: unknown error code %q", s.Expect.Error)
	}

	for p := range s.Expect.Files {
		if err := validateRelPath(p); err != nil {
			return fmt.Errorf("expect.files: %w", err)
		}
	}

	if s.Expect.Error == "" && len(s.Expect.Files) == 0 && len(s.Assertions) == 0 {
		return fmt.Errorf("a successful scenario needs expect.files or assertions")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateRelPath checks that p is a clean slash-separated relative path.
func validateRelPath(p string) error {
	if p == "" || path.IsAbs(p) || path.Clean(p) != p || p == "." || strings.HasPrefix(p, "../") || p == ".." {
		return fmt.Errorf("path must be clean and relative: %q", p)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertFileExists, AssertFileAbsent:
		if a.Path == "" {
			return fmt.Errorf("assertions[%d]: path is required for %s", index, a.Type)
		}
	case AssertFileContains:
		if a.Path == "" || a.Text == "" {
			return fmt.Errorf("assertions[%d]: path and text are required for file_contains", index)
		}
	case AssertEmitOrder:
		if len(a.Paths) < 2 {
			return fmt.Errorf("assertions[%d]: at least two paths are required for emit_order", index)
		}
	case AssertFileCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for file_count", index)
		}
	case AssertPathAttr:
		if a.Module == "" {
			return fmt.Errorf("assertions[%d]: module is required for path_attr", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
