// Package harness runs split scenarios and checks their output.
//
// A scenario is a YAML file holding an input source, the splitter options
// to apply, files already present in the output directory, and what the
// resulting tree must look like:
//
//	name: reserved_parent
//	description: "Modules below a reserved name inherit the path attribute"
//	input: |
//	  mod nul {
//	      mod inner {}
//	  }
//	style: source
//	existing:
//	  notes.txt: "kept"
//	expect:
//	  files:
//	    lib.rs: |
//	      #[path = "nul_.rs"]
//	      mod nul;
//	assertions:
//	  - type: file_exists
//	    path: nul_/inner.rs
//	  - type: path_attr
//	    module: nul::inner
//	    value: nul_/inner.rs
//
// When expect.error is set the split must fail with that error code
// (PARSE_FAILED, UNSUPPORTED, FILE_CONFLICT or FS_FAILURE).
//
// # Assertion Types
//
//   - file_exists: a file is present after the split
//   - file_absent: a file is not present after the split
//   - file_contains: a file contains the given text
//   - emit_order: the listed files were written in this relative order
//   - file_count: exactly N files were written
//   - path_attr: a module was declared with the given path attribute
//
// # Invariants
//
// Every successful run is also checked without being asked: each written
// file must parse, must hold no inline module, and the run must write one
// file per inline module of the input plus the root.
//
// Each scenario runs against a fresh in-memory filesystem, so results are
// reproducible and can be compared with golden snapshots.
package harness
