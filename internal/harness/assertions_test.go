package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/form/internal/split"
)

// sampleResult is the result of splitting
//
//	mod CON { mod inner {} }
//	mod b {}
func sampleResult() *Result {
	result := NewResult()
	result.Emitted = []split.EmittedFile{
		{Path: "CON_/inner.rs", Module: "CON::inner", PathAttr: "CON_/inner.rs"},
		{Path: "CON_.rs", Module: "CON", PathAttr: "CON_.rs"},
		{Path: "b.rs", Module: "b"},
		{Path: "lib.rs", Module: split.RootModule},
	}
	result.Files = map[string]string{
		"CON_/inner.rs": "",
		"CON_.rs":       "#[path = \"CON_/inner.rs\"]\nmod inner;\n",
		"b.rs":          "",
		"lib.rs":        "#[path = \"CON_.rs\"]\nmod CON;\nmod b;\n",
	}
	return result
}

func TestEvaluateAssertions(t *testing.T) {
	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string // empty means the assertion holds
	}{
		{"file exists", Assertion{Type: AssertFileExists, Path: "CON_.rs"}, ""},
		{"file exists fails", Assertion{Type: AssertFileExists, Path: "CON.rs"}, "Expected: file CON.rs"},
		{"file absent", Assertion{Type: AssertFileAbsent, Path: "CON.rs"}, ""},
		{"file absent fails", Assertion{Type: AssertFileAbsent, Path: "b.rs"}, "Actual: file present"},
		{"file contains", Assertion{Type: AssertFileContains, Path: "lib.rs", Text: "mod b;"}, ""},
		{"file contains wrong text", Assertion{Type: AssertFileContains, Path: "lib.rs", Text: "mod c;"}, `lib.rs containing "mod c;"`},
		{"file contains missing file", Assertion{Type: AssertFileContains, Path: "c.rs", Text: "x"}, "Actual: file not found"},
		{"emit order", Assertion{Type: AssertEmitOrder, Paths: []string{"CON_/inner.rs", "b.rs", "lib.rs"}}, ""},
		{"emit order reversed", Assertion{Type: AssertEmitOrder, Paths: []string{"CON_.rs", "CON_/inner.rs"}}, "CON_.rs (pos 2) should be before CON_/inner.rs (pos 1)"},
		{"emit order missing", Assertion{Type: AssertEmitOrder, Paths: []string{"b.rs", "c.rs"}}, "missing file: c.rs"},
		{"file count", Assertion{Type: AssertFileCount, Count: 4}, ""},
		{"file count fails", Assertion{Type: AssertFileCount, Count: 3}, "Actual: 4 file(s) written"},
		{"path attr", Assertion{Type: AssertPathAttr, Module: "CON::inner", Value: "CON_/inner.rs"}, ""},
		{"path attr none", Assertion{Type: AssertPathAttr, Module: "b"}, ""},
		{"path attr wrong", Assertion{Type: AssertPathAttr, Module: "b", Value: "b_.rs"}, `Actual: path attribute ""`},
		{"path attr unknown module", Assertion{Type: AssertPathAttr, Module: "c"}, "module not written"},
		{"unknown type", Assertion{Type: "file_size"}, "unknown assertion type: file_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(sampleResult(), []Assertion{tt.assertion})
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertFileCount,
		Expected: "3 file(s) written",
		Actual:   "2 file(s) written",
		Emitted:  []string{"a.rs", "lib.rs"},
	}

	assert.Equal(t, "Assertion failed: file_count\n"+
		"  Expected: 3 file(s) written\n"+
		"  Actual: 2 file(s) written\n"+
		"\nWritten files:\n"+
		"  [1] a.rs\n"+
		"  [2] lib.rs\n", err.Error())
}

func TestEvaluateAssertions_CollectsAllFailures(t *testing.T) {
	errs := EvaluateAssertions(sampleResult(), []Assertion{
		{Type: AssertFileExists, Path: "x.rs"},
		{Type: AssertFileCount, Count: 4},
		{Type: AssertFileAbsent, Path: "lib.rs"},
	})
	assert.Len(t, errs, 2)
}
