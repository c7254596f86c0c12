package testutil

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// ReadTree returns the regular files under root, keyed by slash-separated
// path relative to root.
func ReadTree(t testing.TB, fsys afero.Fs, root string) map[string]string {
	t.Helper()

	files := make(map[string]string)
	err := afero.Walk(fsys, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := afero.ReadFile(fsys, path)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = string(data)
		return nil
	})
	require.NoError(t, err, "read tree %s", root)
	return files
}

// RenderTree renders files as one document, sorted by path, for golden
// comparison:
//
//	=== ac.rs ===
//	pub mod ac2;
func RenderTree(files map[string]string) string {
	paths := make([]string, 0, len(files))
	for p := range files {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var b strings.Builder
	for _, p := range paths {
		b.WriteString("=== ")
		b.WriteString(p)
		b.WriteString(" ===\n")
		b.WriteString(files[p])
		if !strings.HasSuffix(files[p], "\n") {
			b.WriteString("\n")
		}
	}
	return b.String()
}
