package split

import (
	"fmt"
	"path/filepath"

	"github.com/roach88/form/internal/syntax"
)

// treeFolder relocates every inline module it meets, depth first. Each
// level of the tree gets its own treeFolder holding that level's Context.
type treeFolder struct {
	run *run
	ctx Context
}

var _ syntax.Folder = (*treeFolder)(nil)

// FoldModule extracts m, writes the body of an inline module to its own
// file once the body's own modules have been written, and returns the
// declaration that replaces m.
func (f *treeFolder) FoldModule(m *syntax.Module) (syntax.Item, error) {
	decl, reloc, err := Extract(m, f.ctx)
	if err != nil {
		return nil, err
	}
	if reloc == nil {
		return syntax.WalkModule(f, m)
	}

	if err := f.run.ensureDir(f.ctx.Dir); err != nil {
		return nil, err
	}

	child := f.ctx.Child(reloc)
	content, err := syntax.FoldFile(&treeFolder{run: f.run, ctx: child}, reloc.Content)
	if err != nil {
		return nil, err
	}

	dest := filepath.Join(f.ctx.Dir, reloc.FileName())
	if err := f.run.emit(dest, child.ModulePath, reloc.PathAttr, content); err != nil {
		return nil, err
	}
	return decl, nil
}

// FoldVerbatim rejects items that hide a module declaration inside a body,
// since nothing could declare that module from a file of its own.
func (f *treeFolder) FoldVerbatim(v *syntax.Verbatim) (syntax.Item, error) {
	if err := checkVerbatim(v, f.ctx); err != nil {
		return nil, err
	}
	return v, nil
}

func checkVerbatim(v *syntax.Verbatim, ctx Context) error {
	if name, pos, ok := v.NestedModule(); ok {
		return &Error{
			Code:   ErrCodeUnsupported,
			Op:     "extract",
			Module: ctx.qualify(name),
			Pos:    pos,
			Err:    ErrNestedInItem,
		}
	}
	return nil
}

// plan walks the module tree the way the fold will, without touching the
// filesystem, and records the destination of every module file. It fails
// on the same structure the fold rejects and on two modules sharing a
// destination, so such a run stops before anything is written.
func (r *run) plan(items []syntax.Item, ctx Context) error {
	for _, it := range items {
		if v, ok := it.(*syntax.Verbatim); ok {
			if err := checkVerbatim(v, ctx); err != nil {
				return err
			}
			continue
		}
		_, reloc, err := Extract(it, ctx)
		if err != nil {
			return err
		}
		if reloc == nil {
			continue
		}
		child := ctx.Child(reloc)
		if err := r.reserve(filepath.Join(ctx.Dir, reloc.FileName()), child.ModulePath); err != nil {
			return err
		}
		if err := r.plan(reloc.Content.Items, child); err != nil {
			return err
		}
	}
	return nil
}

// reserve claims path for module. Each path is written by one module only.
func (r *run) reserve(path, module string) error {
	if owner, ok := r.planned[path]; ok {
		return &Error{
			Code:   ErrCodeConflict,
			Op:     "plan",
			Path:   path,
			Module: module,
			Err:    fmt.Errorf("%w: already the file of %s", ErrSharedDestination, owner),
		}
	}
	r.planned[path] = module
	return nil
}
