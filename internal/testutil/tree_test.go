package testutil

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTree(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/out/lib.rs", []byte("mod a;\n"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/out/a/b.rs", []byte("fn f() {}\n"), 0o644))
	require.NoError(t, fsys.MkdirAll("/out/empty", 0o755))

	files := ReadTree(t, fsys, "/out")
	assert.Equal(t, map[string]string{
		"lib.rs": "mod a;\n",
		"a/b.rs": "fn f() {}\n",
	}, files)
}

func TestRenderTree_SortedByPath(t *testing.T) {
	out := RenderTree(map[string]string{
		"lib.rs": "mod a;\n",
		"a.rs":   "fn f() {}",
	})
	assert.Equal(t, "=== a.rs ===\nfn f() {}\n=== lib.rs ===\nmod a;\n", out)
}
