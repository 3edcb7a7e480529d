package typed

import (
	"github.com/applyops/structmerge/fieldpath"
	"github.com/applyops/structmerge/schema"
	"github.com/applyops/structmerge/value"
)

// fieldSetWalker collects every path a value contains: scalars as leaves,
// atomic containers as their own root only, separable maps per present
// key, associative lists per item key plus the item's interior.
type fieldSetWalker struct {
	schema *schema.Schema
	set    *fieldpath.Set
	errs   ValidationErrors
}

func (w *fieldSetWalker) errorf(path fieldpath.Path, format string, args ...any) {
	w.errs = append(w.errs, errorf(path, format, args...)...)
}

func (w *fieldSetWalker) walk(path fieldpath.Path, v *value.Value, tr schema.TypeRef) {
	a, ok := w.schema.Resolve(tr)
	if !ok {
		w.errorf(path, "unresolved type reference %v", describeTypeRef(tr))
		return
	}
	switch {
	case v.IsNull(), v.IsScalar():
		w.set.Insert(path)
	case v.Kind == value.ListKind:
		if a.List == nil || a.List.ElementRelationship != schema.Associative {
			// atomic (or positional) lists contribute their root only
			w.set.Insert(path)
			return
		}
		w.walkList(path, v, a.List)
	case v.Kind == value.MapKind:
		if a.Map == nil || a.Map.ElementRelationship == schema.Atomic {
			w.set.Insert(path)
			return
		}
		w.walkMap(path, v, a.Map)
	}
}

func (w *fieldSetWalker) walkList(path fieldpath.Path, v *value.Value, list *schema.List) {
	for i, item := range v.Items {
		pe, errs := listItemToPathElement(w.schema, list, item)
		if len(errs) > 0 {
			for _, e := range errs {
				w.errorf(append(path, fieldpath.IndexElement(i)), "%s", e.Message)
			}
			continue
		}
		itemPath := append(path, pe)
		if pe.Value != nil {
			// value-set item: identity is the leaf itself
			w.set.Insert(itemPath)
			continue
		}
		w.set.Insert(itemPath)
		w.walkItemFields(itemPath, item, list.ElementType)
	}
}

// walkItemFields records the interior paths of one keyed list item
// without re-inserting the item root.
func (w *fieldSetWalker) walkItemFields(path fieldpath.Path, item *value.Value, tr schema.TypeRef) {
	a, ok := w.schema.Resolve(tr)
	if !ok {
		w.errorf(path, "unresolved type reference %v", describeTypeRef(tr))
		return
	}
	if item.Kind == value.MapKind && a.Map != nil && a.Map.ElementRelationship != schema.Atomic {
		w.walkMap(path, item, a.Map)
	}
}

func (w *fieldSetWalker) walkMap(path fieldpath.Path, v *value.Value, m *schema.Map) {
	for i := range v.Map.Pairs {
		key, val := v.Map.Pairs[i].Key, v.Map.Pairs[i].Val
		keyPath := append(path, fieldpath.FieldElement(key))
		tr := m.ElementType
		if f, ok := m.FindField(key); ok {
			tr = f.Type
		}
		w.walk(keyPath, val, tr)
	}
}
