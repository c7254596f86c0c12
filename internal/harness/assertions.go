package harness

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string   // Assertion type for categorization
	Expected string   // Human-readable expected outcome
	Actual   string   // Human-readable actual outcome
	Emitted  []string // Written files, in order, for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	// Header with assertion type
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)

	// Expected vs Actual (most important info)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nWritten files:\n")
	for i, p := range e.Emitted {
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, p)
	}

	return buf.String()
}

// EvaluateAssertions runs every assertion against result and returns the
// failure messages.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errs []string
	for _, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			errs = append(errs, err.Error())
		}
	}
	return errs
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertFileExists:
		return assertFileExists(result, a)
	case AssertFileAbsent:
		return assertFileAbsent(result, a)
	case AssertFileContains:
		return assertFileContains(result, a)
	case AssertEmitOrder:
		return assertEmitOrder(result, a)
	case AssertFileCount:
		return assertFileCount(result, a)
	case AssertPathAttr:
		return assertPathAttr(result, a)
	}
	return fmt.Errorf("unknown assertion type: %s", a.Type)
}

func assertFileExists(result *Result, a Assertion) error {
	if _, ok := result.Files[a.Path]; ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertFileExists,
		Expected: fmt.Sprintf("file %s", a.Path),
		Actual:   fmt.Sprintf("not found; files: %v", sortedKeys(result.Files)),
		Emitted:  result.EmittedPaths(),
	}
}

func assertFileAbsent(result *Result, a Assertion) error {
	if _, ok := result.Files[a.Path]; !ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertFileAbsent,
		Expected: fmt.Sprintf("no file %s", a.Path),
		Actual:   "file present",
		Emitted:  result.EmittedPaths(),
	}
}

func assertFileContains(result *Result, a Assertion) error {
	content, ok := result.Files[a.Path]
	if ok && strings.Contains(content, a.Text) {
		return nil
	}
	actual := "file not found"
	if ok {
		actual = fmt.Sprintf("%q", content)
	}
	return &AssertionError{
		Type:     AssertFileContains,
		Expected: fmt.Sprintf("%s containing %q", a.Path, a.Text),
		Actual:   actual,
		Emitted:  result.EmittedPaths(),
	}
}

// assertEmitOrder checks that the files were written in the given order.
// Files written in between are allowed.
func assertEmitOrder(result *Result, a Assertion) error {
	emitted := result.EmittedPaths()

	// Step 1: Find the position of each expected file
	positions := make([]int, len(a.Paths))
	for i, p := range a.Paths {
		positions[i] = slices.Index(emitted, p)
		if positions[i] < 0 {
			return &AssertionError{
				Type:     AssertEmitOrder,
				Expected: fmt.Sprintf("all files written: %v", a.Paths),
				Actual:   fmt.Sprintf("missing file: %s", p),
				Emitted:  emitted,
			}
		}
	}

	// Step 2: Verify order
	for i := 1; i < len(positions); i++ {
		if positions[i-1] >= positions[i] {
			return &AssertionError{
				Type:     AssertEmitOrder,
				Expected: fmt.Sprintf("files written in order: %v", a.Paths),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					a.Paths[i-1], positions[i-1]+1, a.Paths[i], positions[i]+1),
				Emitted: emitted,
			}
		}
	}

	return nil
}

func assertFileCount(result *Result, a Assertion) error {
	if len(result.Emitted) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFileCount,
		Expected: fmt.Sprintf("%d file(s) written", a.Count),
		Actual:   fmt.Sprintf("%d file(s) written", len(result.Emitted)),
		Emitted:  result.EmittedPaths(),
	}
}

func assertPathAttr(result *Result, a Assertion) error {
	for _, f := range result.Emitted {
		if f.Module != a.Module {
			continue
		}
		if f.PathAttr == a.Value {
			return nil
		}
		return &AssertionError{
			Type:     AssertPathAttr,
			Expected: fmt.Sprintf("module %s with path attribute %q", a.Module, a.Value),
			Actual:   fmt.Sprintf("path attribute %q", f.PathAttr),
			Emitted:  result.EmittedPaths(),
		}
	}
	return &AssertionError{
		Type:     AssertPathAttr,
		Expected: fmt.Sprintf("module %s with path attribute %q", a.Module, a.Value),
		Actual:   "module not written",
		Emitted:  result.EmittedPaths(),
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
