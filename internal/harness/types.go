package harness

import "github.com/roach88/form/internal/split"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if the expectation, the assertions and the invariants all hold.
	Pass bool `json:"pass"`

	// Files is the output directory after the run, keyed by slash-separated
	// relative path. Files listed in the scenario's existing section are
	// included.
	Files map[string]string `json:"files"`

	// Emitted lists the files written, in emission order, with paths
	// relative to the output directory.
	Emitted []split.EmittedFile `json:"emitted"`

	// ErrorCode is the code of the split failure, empty on success.
	ErrorCode split.ErrorCode `json:"error_code,omitempty"`

	// ErrorMessage is the split failure message, empty on success.
	ErrorMessage string `json:"error_message,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
// Used as the starting point for test execution.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Files:  make(map[string]string),
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// EmittedPaths returns the relative paths of the written files in
// emission order.
func (r *Result) EmittedPaths() []string {
	paths := make([]string, len(r.Emitted))
	for i, f := range r.Emitted {
		paths[i] = f.Path
	}
	return paths
}
