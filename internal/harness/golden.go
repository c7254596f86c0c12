package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/form/internal/testutil"
)

// Snapshot renders a result for golden comparison: the emission order,
// the error code if the split failed, and every file in the output
// directory.
func Snapshot(result *Result) string {
	var b strings.Builder

	b.WriteString("# emitted\n")
	for i, f := range result.Emitted {
		fmt.Fprintf(&b, "%d. %s (%s)", i+1, f.Path, f.Module)
		if f.PathAttr != "" {
			fmt.Fprintf(&b, " path=%s", f.PathAttr)
		}
		b.WriteString("\n")
	}
	if result.ErrorCode != "" {
		fmt.Fprintf(&b, "# error\n%s\n", result.ErrorCode)
	}
	b.WriteString("# files\n")
	b.WriteString(testutil.RenderTree(result.Files))
	return b.String()
}

// RunWithGolden executes a scenario and compares its snapshot against a
// golden file. The golden file is stored in
// testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the snapshot doesn't match.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares the snapshot of an existing result against a
// golden file.
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, []byte(Snapshot(result)))
}
