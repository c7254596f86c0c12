package split

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/form/internal/syntax"
	"github.com/roach88/form/internal/testutil"
)

const nestedSource = `pub mod interrupt { pub const X: u8 = 3; }
pub mod ac {
    pub mod ac2 {
        pub const Y: u8 = 1;
        pub mod ac3 { pub const Z: u8 = 2; }
    }
    pub const W: u8 = 4;
}
`

func newMemSplitter(opts Options) (*Splitter, afero.Fs) {
	if opts.FS == nil {
		opts.FS = afero.NewMemMapFs()
	}
	return New(opts), opts.FS
}

func emittedPaths(r *Report) []string {
	paths := make([]string, 0, len(r.Files))
	for _, f := range r.Files {
		paths = append(paths, f.Path)
	}
	return paths
}

func TestSplit_NestedModules(t *testing.T) {
	s, fsys := newMemSplitter(Options{})

	report, err := s.Split("/D", "lib.rs", nestedSource)
	require.NoError(t, err)

	files := testutil.ReadTree(t, fsys, "/D")
	assert.Equal(t, map[string]string{
		"lib.rs":        "pub mod interrupt;\npub mod ac;\n",
		"interrupt.rs":  "pub const X: u8 = 3;\n",
		"ac.rs":         "pub mod ac2;\npub const W: u8 = 4;\n",
		"ac/ac2.rs":     "pub const Y: u8 = 1;\npub mod ac3;\n",
		"ac/ac2/ac3.rs": "pub const Z: u8 = 2;\n",
	}, files)

	// Descendants are written before their parent; siblings in document order.
	assert.Equal(t, []string{
		"/D/interrupt.rs",
		"/D/ac/ac2/ac3.rs",
		"/D/ac/ac2.rs",
		"/D/ac.rs",
		"/D/lib.rs",
	}, emittedPaths(report))
	assert.Equal(t, []string{"/D", "/D/ac", "/D/ac/ac2"}, report.Directories)
	assert.Equal(t, 4, report.ModuleCount())
	assert.Equal(t, "ac::ac2::ac3", report.Files[1].Module)
	assert.Equal(t, RootModule, report.Files[4].Module)
}

func TestSplit_ReservedName(t *testing.T) {
	s, fsys := newMemSplitter(Options{})

	_, err := s.Split("/D", "", "pub mod CON {\n    pub mod inner {\n        pub fn f() {}\n    }\n}\n")
	require.NoError(t, err)

	files := testutil.ReadTree(t, fsys, "/D")
	assert.Equal(t, map[string]string{
		"lib.rs":        "#[path = \"CON_.rs\"]\npub mod CON;\n",
		"CON_.rs":       "#[path = \"CON_/inner.rs\"]\npub mod inner;\n",
		"CON_/inner.rs": "pub fn f() {}\n",
	}, files)
}

func TestSplit_PathAttrMonotonic(t *testing.T) {
	src := `mod a {
    mod nul {
        mod b {
            mod c {}
        }
    }
    mod d {}
}
`
	s, _ := newMemSplitter(Options{})

	report, err := s.Split("/D", "", src)
	require.NoError(t, err)

	attrs := make(map[string]string)
	for _, f := range report.Files {
		attrs[f.Module] = f.PathAttr
	}
	assert.Equal(t, map[string]string{
		"a":            "",
		"a::nul":       "a/nul_.rs",
		"a::nul::b":    "nul_/b.rs",
		"a::nul::b::c": "b/c.rs",
		"a::d":         "",
		RootModule:     "",
	}, attrs)
	assert.Equal(t, "/D/a/nul_/b/c.rs", report.Files[0].Path)
}

func TestSplit_EveryModuleBecomesExternal(t *testing.T) {
	src := `//! Crate.
#![allow(dead_code)]

use std::fmt;

mod a {
    //! Inner docs.
    #[derive(Debug)]
    pub struct S;

    pub mod b {
        pub fn f() {}

        mod c {
            const _: u8 = 0;
        }
    }
}

mod external;

#[cfg(test)]
mod tests {
    use super::*;
}
`
	s, fsys := newMemSplitter(Options{})
	report, err := s.Split("/D", "lib.rs", src)
	require.NoError(t, err)

	for path, content := range testutil.ReadTree(t, fsys, "/D") {
		f, err := syntax.Parse(path, content)
		require.NoError(t, err, "emitted file %s must parse", path)
		syntax.Inspect(f.Items, func(it syntax.Item) bool {
			if m, ok := it.(*syntax.Module); ok {
				assert.True(t, m.IsExternal(), "%s: module %s kept its body", path, m.Name())
			}
			return true
		})
	}
	assert.Equal(t, 4, report.ModuleCount())
}

func TestSplit_SiblingOrderIndependent(t *testing.T) {
	first, fsA := newMemSplitter(Options{})
	second, fsB := newMemSplitter(Options{})

	_, err := first.Split("/D", "", "mod a { fn x() {} }\nmod b { fn y() {} }\n")
	require.NoError(t, err)
	_, err = second.Split("/D", "", "mod b { fn y() {} }\nmod a { fn x() {} }\n")
	require.NoError(t, err)

	treeA := testutil.ReadTree(t, fsA, "/D")
	treeB := testutil.ReadTree(t, fsB, "/D")
	assert.Equal(t, treeA["a.rs"], treeB["a.rs"])
	assert.Equal(t, treeA["b.rs"], treeB["b.rs"])
	assert.NotEqual(t, treeA["lib.rs"], treeB["lib.rs"])
}

func TestSplit_SecondRunConflicts(t *testing.T) {
	s, fsys := newMemSplitter(Options{})

	_, err := s.Split("/D", "", nestedSource)
	require.NoError(t, err)
	before := testutil.ReadTree(t, fsys, "/D")

	_, err = s.Split("/D", "", nestedSource)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.True(t, errors.Is(err, ErrFileExists))
	assert.Contains(t, err.Error(), "/D/lib.rs")

	assert.Equal(t, before, testutil.ReadTree(t, fsys, "/D"))
}

func TestSplit_ChildConflictStopsRun(t *testing.T) {
	s, fsys := newMemSplitter(Options{})
	require.NoError(t, afero.WriteFile(fsys, "/D/ac.rs", []byte("// keep\n"), 0o644))

	report, err := s.Split("/D", "", nestedSource)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "/D/ac.rs", se.Path)
	assert.Equal(t, "ac", se.Module)

	files := testutil.ReadTree(t, fsys, "/D")
	assert.Equal(t, "// keep\n", files["ac.rs"], "existing file must not be touched")
	assert.NotContains(t, files, "lib.rs")
	assert.Contains(t, files, "interrupt.rs", "files written before the failure stay")
	assert.Equal(t, []string{"/D/interrupt.rs", "/D/ac/ac2/ac3.rs", "/D/ac/ac2.rs"}, emittedPaths(report))
}

func TestSplit_Overwrite(t *testing.T) {
	s, fsys := newMemSplitter(Options{Overwrite: true})
	require.NoError(t, afero.WriteFile(fsys, "/D/interrupt.rs", []byte("stale stale stale stale stale\n"), 0o644))

	_, err := s.Split("/D", "", nestedSource)
	require.NoError(t, err)
	_, err = s.Split("/D", "", nestedSource)
	require.NoError(t, err)

	files := testutil.ReadTree(t, fsys, "/D")
	assert.Equal(t, "pub const X: u8 = 3;\n", files["interrupt.rs"])
}

func TestSplit_SharedDestination(t *testing.T) {
	tests := []struct {
		name       string
		src        string
		wantPath   string
		wantModule string
		wantOwner  string
	}{
		{
			name:       "reserved name renamed onto a sibling",
			src:        "mod con { const A: u8 = 1; }\nmod con_ { const B: u8 = 2; }\n",
			wantPath:   "/D/con_.rs",
			wantModule: "con_",
			wantOwner:  "con",
		},
		{
			name:       "top-level module named after the root file",
			src:        "mod lib { const A: u8 = 1; }\n",
			wantPath:   "/D/lib.rs",
			wantModule: "lib",
			wantOwner:  RootModule,
		},
		{
			name:       "nested",
			src:        "mod a {\n    mod nul { fn f() {} }\n    mod nul_ { fn g() {} }\n}\n",
			wantPath:   "/D/a/nul_.rs",
			wantModule: "a::nul_",
			wantOwner:  "a::nul",
		},
	}

	for _, tt := range tests {
		for _, overwrite := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/overwrite=%t", tt.name, overwrite), func(t *testing.T) {
				s, fsys := newMemSplitter(Options{Overwrite: overwrite})

				report, err := s.Split("/D", "", tt.src)
				require.Error(t, err)
				assert.Nil(t, report)
				assert.True(t, IsConflict(err))
				assert.ErrorIs(t, err, ErrSharedDestination)
				assert.Contains(t, err.Error(), "already the file of "+tt.wantOwner)

				var se *Error
				require.ErrorAs(t, err, &se)
				assert.Equal(t, tt.wantPath, se.Path)
				assert.Equal(t, tt.wantModule, se.Module)

				exists, err := afero.DirExists(fsys, "/D")
				require.NoError(t, err)
				assert.False(t, exists, "nothing is written")
			})
		}
	}
}

func TestSplit_UnsupportedStructureWritesNothing(t *testing.T) {
	s, fsys := newMemSplitter(Options{})

	_, err := s.Split("/D", "", "mod a { fn f() {} }\nmod b {\n    fn g() { mod hidden {} }\n}\n")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNestedInItem)

	exists, err := afero.Exists(fsys, "/D/a.rs")
	require.NoError(t, err)
	assert.False(t, exists, "a.rs precedes the failure but is not written")
}

func TestSplit_ExistingDirectoriesAreFine(t *testing.T) {
	s, fsys := newMemSplitter(Options{})
	require.NoError(t, fsys.MkdirAll("/D/ac/ac2", 0o755))

	report, err := s.Split("/D", "", nestedSource)
	require.NoError(t, err)
	assert.Empty(t, report.Directories)
	assert.Len(t, report.Files, 5)
}

func TestSplit_NestedExternalUnsupported(t *testing.T) {
	s, fsys := newMemSplitter(Options{})

	_, err := s.Split("/D", "", "mod top;\nmod a {\n    mod b;\n}\n")
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
	assert.ErrorIs(t, err, ErrNestedExternal)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "a::b", se.Module)
	assert.Equal(t, 3, se.Pos.Line)

	exists, err := afero.Exists(fsys, "/D/a.rs")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSplit_ModuleInsideFunctionUnsupported(t *testing.T) {
	s, _ := newMemSplitter(Options{})

	_, err := s.Split("/D", "", "mod a {\n    fn f() {\n        mod hidden {}\n    }\n}\n")
	require.Error(t, err)
	assert.True(t, IsUnsupported(err))
	assert.ErrorIs(t, err, ErrNestedInItem)
	assert.Contains(t, err.Error(), "a::hidden")
}

func TestSplit_MacroBodiesIgnored(t *testing.T) {
	s, fsys := newMemSplitter(Options{})

	_, err := s.Split("/D", "", "macro_rules! m { () => { mod generated {} } }\nmod a { m!(); }\n")
	require.NoError(t, err)

	files := testutil.ReadTree(t, fsys, "/D")
	assert.Equal(t, "m!();\n", files["a.rs"])
}

func TestSplit_ParseError(t *testing.T) {
	s, fsys := newMemSplitter(Options{})

	_, err := s.Split("/D", "broken.rs", "mod a {\n    fn f() {}\n")
	require.Error(t, err)
	assert.True(t, IsParseError(err))

	var pe *syntax.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "broken.rs", pe.Pos.Filename)

	exists, err := afero.DirExists(fsys, "/D")
	require.NoError(t, err)
	assert.False(t, exists, "nothing is created for unparseable input")
}

func TestSplit_FilesystemFailure(t *testing.T) {
	s, _ := newMemSplitter(Options{FS: afero.NewReadOnlyFs(afero.NewMemMapFs())})

	_, err := s.Split("/D", "", nestedSource)
	require.Error(t, err)
	assert.True(t, IsFilesystemError(err))
	assert.Contains(t, err.Error(), "create directory /D")
}

func TestSplit_TokensStyleAndRootFile(t *testing.T) {
	s, fsys := newMemSplitter(Options{Style: syntax.StyleTokens, RootFile: "main.rs"})

	report, err := s.Split("/D", "", "mod interrupt { pub const X: u8 = 3; }\nfn main() {}\n")
	require.NoError(t, err)
	assert.Equal(t, "main.rs", report.RootFile)

	files := testutil.ReadTree(t, fsys, "/D")
	assert.Equal(t, map[string]string{
		"main.rs":      "mod interrupt ;\nfn main ( ) { }\n",
		"interrupt.rs": "pub const X : u8 = 3 ;\n",
	}, files)
}

func TestSplit_LogsDirectoryCreationOnce(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, _ := newMemSplitter(Options{Logger: logger})

	_, err := s.Split("/D", "lib.rs", "mod a { fn x() {} }\nmod b { mod c {} }\nmod d { mod e {} mod f {} }\n")
	require.NoError(t, err)

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "dir=/D/d"), "shared directory is created once")
	assert.Equal(t, 7, strings.Count(out, `msg="writing file"`))
	assert.Contains(t, out, `msg="parsing input" file=lib.rs`)
}

func TestCreateDirectoryStructure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	require.NoError(t, CreateDirectoryStructure(dir, nestedSource))

	files := testutil.ReadTree(t, afero.NewOsFs(), dir)
	assert.Len(t, files, 5)
	assert.Equal(t, "pub const Z: u8 = 2;\n", files["ac/ac2/ac3.rs"])

	err := CreateDirectoryStructure(dir, nestedSource)
	assert.True(t, IsConflict(err))
}
