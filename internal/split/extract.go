package split

import (
	"path/filepath"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/form/internal/syntax"
)

// Context is the directory state inherited by the items of one module body.
// A Context is a value: each recursion level builds its own with Child and
// never modifies its parent's.
type Context struct {
	// Dir is the directory that files for the items at this level are
	// written to.
	Dir string

	// EnclosingFSName is the filesystem name of the enclosing module, or
	// empty at the crate root.
	EnclosingFSName string

	// PathAttrRequired is set once any enclosing module needed an explicit
	// path attribute. It never resets further down the tree.
	PathAttrRequired bool

	// ModulePath is the `a::b` path of the enclosing module, for
	// diagnostics.
	ModulePath string
}

// RootContext returns the context for the items of the crate root.
func RootContext(dir string) Context {
	return Context{Dir: dir}
}

// TopLevel reports whether the context is the crate root.
func (c Context) TopLevel() bool {
	return c.EnclosingFSName == ""
}

// Child returns the context for the items inside the relocated module r.
func (c Context) Child(r *Relocation) Context {
	return Context{
		Dir:              filepath.Join(c.Dir, r.FSName),
		EnclosingFSName:  r.FSName,
		PathAttrRequired: r.NeedsPathAttr,
		ModulePath:       c.qualify(r.Ident),
	}
}

func (c Context) qualify(name string) string {
	if c.ModulePath == "" {
		return name
	}
	return c.ModulePath + "::" + name
}

// Relocation describes where the body of an inline module goes.
type Relocation struct {
	// Ident is the module name, raw prefix removed and NFC normalised.
	Ident string

	// FSName is the file stem: Ident, with an underscore appended when
	// Ident is a reserved device name.
	FSName string

	// NeedsPathAttr is set when the declaration carries an explicit
	// `#[path]` attribute: below such a module, for a reserved name, or for
	// a name that is not ASCII.
	NeedsPathAttr bool

	// PathAttr is the attribute value, relative to the directory of the
	// declaring file. Empty unless NeedsPathAttr is set.
	PathAttr string

	// Content is the module body as a standalone file, before its own
	// modules are relocated.
	Content *syntax.File
}

// FileName returns the name of the file the module body is written to.
func (r *Relocation) FileName() string {
	return r.FSName + ".rs"
}

// Extract decides what happens to item under ctx.
//
// Items that are not inline modules come back unchanged with a nil
// Relocation, except an external module below the crate root, which fails
// with ErrCodeUnsupported. An inline module comes back as a new bodiless
// declaration, with a path attribute appended when one is needed, plus the
// Relocation describing its body. item itself is never modified.
func Extract(item syntax.Item, ctx Context) (syntax.Item, *Relocation, error) {
	mod, ok := item.(*syntax.Module)
	if !ok {
		return item, nil, nil
	}
	if mod.IsExternal() {
		if ctx.TopLevel() {
			return item, nil, nil
		}
		return nil, nil, &Error{
			Code:   ErrCodeUnsupported,
			Op:     "extract",
			Module: ctx.qualify(mod.Name()),
			Pos:    mod.Pos(),
			Err:    ErrNestedExternal,
		}
	}

	name := norm.NFC.String(mod.Name())
	fsName, reserved := FSName(name)
	reloc := &Relocation{
		Ident:         name,
		FSName:        fsName,
		NeedsPathAttr: ctx.PathAttrRequired || reserved || !isASCII(name),
		Content:       mod.File(),
	}

	// An existing path attribute on an inline module names a directory for
	// its children; it is meaningless on the bodiless declaration.
	decl := mod.WithoutContent()
	decl.Attrs = withoutPathAttrs(decl.Attrs)
	if reloc.NeedsPathAttr {
		reloc.PathAttr = pathAttrValue(ctx.EnclosingFSName, fsName)
		decl.Attrs = append(decl.Attrs, syntax.PathAttribute(reloc.PathAttr))
	}
	return decl, reloc, nil
}

// pathAttrValue is relative to the directory of the declaring file, and
// always uses forward slashes.
func pathAttrValue(enclosing, fsName string) string {
	if enclosing == "" {
		return fsName + ".rs"
	}
	return enclosing + "/" + fsName + ".rs"
}

func withoutPathAttrs(attrs []syntax.Attribute) []syntax.Attribute {
	out := attrs[:0]
	for _, a := range attrs {
		if a.Name() != "path" {
			out = append(out, a)
		}
	}
	return out
}
