package typed

import (
	"github.com/applyops/structmerge/fieldpath"
	"github.com/applyops/structmerge/schema"
	"github.com/applyops/structmerge/value"
)

// compareWalker computes the symmetric difference of two values of the
// same type. One-sided subtrees contribute their full field sets to
// Removed or Added so ownership and conflict checks can see every path
// they touch; two-sided differences land in Modified at the finest
// granularity the schema allows.
type compareWalker struct {
	schema     *schema.Schema
	comparison *Comparison
	errs       ValidationErrors
}

func (w *compareWalker) errorf(path fieldpath.Path, format string, args ...any) {
	w.errs = append(w.errs, errorf(path, format, args...)...)
}

func (w *compareWalker) walk(path fieldpath.Path, lhs, rhs *value.Value, tr schema.TypeRef) {
	a, ok := w.schema.Resolve(tr)
	if !ok {
		w.errorf(path, "unresolved type reference %v", describeTypeRef(tr))
		return
	}
	if lhs.IsNull() && rhs.IsNull() {
		return
	}
	if lhs.IsNull() {
		w.recordSubtree(path, rhs, tr, w.comparison.Added)
		return
	}
	if rhs.IsNull() {
		w.recordSubtree(path, lhs, tr, w.comparison.Removed)
		return
	}
	if lhs.Kind != rhs.Kind {
		w.comparison.Modified.Insert(path)
		return
	}
	switch lhs.Kind {
	case value.ListKind:
		if a.List == nil || a.List.ElementRelationship != schema.Associative {
			if !lhs.Equals(rhs) {
				w.comparison.Modified.Insert(path)
			}
			return
		}
		w.walkList(path, lhs, rhs, a.List)
	case value.MapKind:
		if a.Map == nil || a.Map.ElementRelationship == schema.Atomic {
			if !lhs.Equals(rhs) {
				w.comparison.Modified.Insert(path)
			}
			return
		}
		w.walkMap(path, lhs, rhs, a.Map)
	default:
		if !lhs.Equals(rhs) {
			w.comparison.Modified.Insert(path)
		}
	}
}

// recordSubtree adds the full field set of a one-sided subtree, rooted at
// path, into the given set.
func (w *compareWalker) recordSubtree(path fieldpath.Path, v *value.Value, tr schema.TypeRef, into *fieldpath.Set) {
	fw := &fieldSetWalker{schema: w.schema, set: into}
	fw.walk(path, v, tr)
	w.errs = append(w.errs, fw.errs...)
}

// recordItemSubtree is recordSubtree for one keyed list item: the item's
// key path plus its interior.
func (w *compareWalker) recordItemSubtree(itemPath fieldpath.Path, item *value.Value, tr schema.TypeRef, into *fieldpath.Set) {
	into.Insert(itemPath)
	fw := &fieldSetWalker{schema: w.schema, set: into}
	fw.walkItemFields(itemPath, item, tr)
	w.errs = append(w.errs, fw.errs...)
}

func (w *compareWalker) walkMap(path fieldpath.Path, lhs, rhs *value.Value, m *schema.Map) {
	fieldType := func(key string) schema.TypeRef {
		if f, ok := m.FindField(key); ok {
			return f.Type
		}
		return m.ElementType
	}
	for i := range lhs.Map.Pairs {
		key, lv := lhs.Map.Pairs[i].Key, lhs.Map.Pairs[i].Val
		keyPath := append(path, fieldpath.FieldElement(key))
		if rv, ok := rhs.Map.Get(key); ok {
			w.walk(keyPath, lv, rv, fieldType(key))
			continue
		}
		w.recordSubtree(keyPath, lv, fieldType(key), w.comparison.Removed)
	}
	for i := range rhs.Map.Pairs {
		key, rv := rhs.Map.Pairs[i].Key, rhs.Map.Pairs[i].Val
		if _, ok := lhs.Map.Get(key); ok {
			continue
		}
		keyPath := append(path, fieldpath.FieldElement(key))
		w.recordSubtree(keyPath, rv, fieldType(key), w.comparison.Added)
	}
}

func (w *compareWalker) walkList(path fieldpath.Path, lhs, rhs *value.Value, list *schema.List) {
	lhsIndex := w.indexListItems(path, lhs, list)
	rhsIndex := w.indexListItems(path, rhs, list)
	for i := range lhsIndex.elements {
		pe, item := lhsIndex.elements[i], lhsIndex.items[i]
		itemPath := append(path, pe)
		if other, ok := rhsIndex.find(pe); ok {
			if pe.Value == nil {
				w.walk(itemPath, item, other, list.ElementType)
			}
			// value-set items equal by identity
			continue
		}
		if pe.Value != nil {
			w.comparison.Removed.Insert(itemPath)
			continue
		}
		w.recordItemSubtree(itemPath, item, list.ElementType, w.comparison.Removed)
	}
	for i := range rhsIndex.elements {
		pe, item := rhsIndex.elements[i], rhsIndex.items[i]
		if _, ok := lhsIndex.find(pe); ok {
			continue
		}
		itemPath := append(path, pe)
		if pe.Value != nil {
			w.comparison.Added.Insert(itemPath)
			continue
		}
		w.recordItemSubtree(itemPath, item, list.ElementType, w.comparison.Added)
	}
}

// itemIndex associates list items with their identity elements, in list
// order. Later duplicates replace earlier ones.
type itemIndex struct {
	elements []fieldpath.PathElement
	items    []*value.Value
}

func (idx *itemIndex) add(pe fieldpath.PathElement, item *value.Value) {
	for i := range idx.elements {
		if idx.elements[i].Equals(pe) {
			idx.items[i] = item
			return
		}
	}
	idx.elements = append(idx.elements, pe)
	idx.items = append(idx.items, item)
}

func (idx *itemIndex) find(pe fieldpath.PathElement) (*value.Value, bool) {
	for i := range idx.elements {
		if idx.elements[i].Equals(pe) {
			return idx.items[i], true
		}
	}
	return nil, false
}

func (w *compareWalker) indexListItems(path fieldpath.Path, v *value.Value, list *schema.List) *itemIndex {
	idx := &itemIndex{}
	for i, item := range v.Items {
		pe, errs := listItemToPathElement(w.schema, list, item)
		if len(errs) > 0 {
			for _, e := range errs {
				w.errorf(append(path, fieldpath.IndexElement(i)), "%s", e.Message)
			}
			continue
		}
		idx.add(pe, item)
	}
	return idx
}
