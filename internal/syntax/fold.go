package syntax

import "fmt"

// Folder rewrites items during a depth-first traversal. FoldItem dispatches
// each item to the method for its variant; the returned item replaces it.
//
// Implementations that only care about one variant can delegate the other
// to WalkModule or return the item unchanged.
type Folder interface {
	FoldModule(m *Module) (Item, error)
	FoldVerbatim(v *Verbatim) (Item, error)
}

// FoldFile folds every item of f and returns a new file. f is not modified.
func FoldFile(fo Folder, f *File) (*File, error) {
	items, err := FoldItems(fo, f.Items)
	if err != nil {
		return nil, err
	}
	out := *f
	out.Items = items
	return &out, nil
}

// FoldItems folds items in document order. The first error stops the
// traversal.
func FoldItems(fo Folder, items []Item) ([]Item, error) {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		folded, err := FoldItem(fo, it)
		if err != nil {
			return nil, err
		}
		out = append(out, folded)
	}
	return out, nil
}

// FoldItem dispatches it to fo.
func FoldItem(fo Folder, it Item) (Item, error) {
	switch it := it.(type) {
	case *Module:
		return fo.FoldModule(it)
	case *Verbatim:
		return fo.FoldVerbatim(it)
	}
	return nil, fmt.Errorf("unknown item type %T", it)
}

// WalkModule is the pass-through FoldModule: it folds the items of an inline
// module and returns a copy holding the results. External modules are
// returned as is.
func WalkModule(fo Folder, m *Module) (Item, error) {
	if m.Content == nil {
		return m, nil
	}
	items, err := FoldItems(fo, m.Content.Items)
	if err != nil {
		return nil, err
	}
	return m.WithItems(items), nil
}

// Inspect calls fn for every item in depth-first order, descending into
// inline module bodies while fn returns true.
func Inspect(items []Item, fn func(Item) bool) {
	for _, it := range items {
		if !fn(it) {
			continue
		}
		if m, ok := it.(*Module); ok && m.Content != nil {
			Inspect(m.Content.Items, fn)
		}
	}
}
