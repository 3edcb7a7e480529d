package typed

import (
	"github.com/applyops/structmerge/fieldpath"
	"github.com/applyops/structmerge/schema"
	"github.com/applyops/structmerge/value"
)

// mergeWalker combines two values of the same type, rhs winning wherever
// both sides are present. Null (or absence) on one side keeps the other
// side's subtree intact.
type mergeWalker struct {
	schema *schema.Schema
	errs   ValidationErrors
}

func (w *mergeWalker) errorf(path fieldpath.Path, format string, args ...any) {
	w.errs = append(w.errs, errorf(path, format, args...)...)
}

func (w *mergeWalker) merge(path fieldpath.Path, lhs, rhs *value.Value, tr schema.TypeRef) *value.Value {
	a, ok := w.schema.Resolve(tr)
	if !ok {
		w.errorf(path, "unresolved type reference %v", describeTypeRef(tr))
		return lhs
	}
	if rhs.IsNull() {
		return lhs
	}
	if lhs.IsNull() {
		return rhs
	}
	if lhs.Kind != rhs.Kind {
		// rhs is the writer's declared state
		return rhs
	}
	switch lhs.Kind {
	case value.ListKind:
		if a.List == nil || a.List.ElementRelationship != schema.Associative {
			// atomic or positional lists replace wholesale
			return rhs
		}
		return w.mergeList(path, lhs, rhs, a.List)
	case value.MapKind:
		if a.Map == nil || a.Map.ElementRelationship == schema.Atomic {
			return rhs
		}
		return w.mergeMap(path, lhs, rhs, a.Map)
	default:
		return rhs
	}
}

func (w *mergeWalker) mergeMap(path fieldpath.Path, lhs, rhs *value.Value, m *schema.Map) *value.Value {
	fieldType := func(key string) schema.TypeRef {
		if f, ok := m.FindField(key); ok {
			return f.Type
		}
		return m.ElementType
	}
	out := &value.Map{}
	for i := range lhs.Map.Pairs {
		key, lv := lhs.Map.Pairs[i].Key, lhs.Map.Pairs[i].Val
		if rv, ok := rhs.Map.Get(key); ok {
			merged := w.merge(append(path, fieldpath.FieldElement(key)), lv, rv, fieldType(key))
			out.Pairs = append(out.Pairs, value.Pair{Key: key, Val: merged})
			continue
		}
		out.Pairs = append(out.Pairs, value.Pair{Key: key, Val: lv})
	}
	for i := range rhs.Map.Pairs {
		key, rv := rhs.Map.Pairs[i].Key, rhs.Map.Pairs[i].Val
		if _, ok := lhs.Map.Get(key); ok {
			continue
		}
		out.Pairs = append(out.Pairs, value.Pair{Key: key, Val: rv})
	}
	return value.FromMap(out)
}

// mergeList merges two associative lists by item identity. Items whose
// key exists only in lhs keep their relative order and are emitted before
// every item also present in rhs; rhs items follow in rhs order, merged
// with their lhs match where one exists. Downstream consumers rely on
// this exact ordering.
func (w *mergeWalker) mergeList(path fieldpath.Path, lhs, rhs *value.Value, list *schema.List) *value.Value {
	type indexed struct {
		pe   fieldpath.PathElement
		item *value.Value
	}
	lhsItems := make([]indexed, 0, len(lhs.Items))
	for i, item := range lhs.Items {
		pe, errs := listItemToPathElement(w.schema, list, item)
		if len(errs) > 0 {
			for _, e := range errs {
				w.errorf(append(path, fieldpath.IndexElement(i)), "%s", e.Message)
			}
			continue
		}
		lhsItems = append(lhsItems, indexed{pe: pe, item: item})
	}
	rhsItems := make([]indexed, 0, len(rhs.Items))
	for i, item := range rhs.Items {
		pe, errs := listItemToPathElement(w.schema, list, item)
		if len(errs) > 0 {
			for _, e := range errs {
				w.errorf(append(path, fieldpath.IndexElement(i)), "%s", e.Message)
			}
			continue
		}
		rhsItems = append(rhsItems, indexed{pe: pe, item: item})
	}

	inRhs := func(pe fieldpath.PathElement) bool {
		for i := range rhsItems {
			if rhsItems[i].pe.Equals(pe) {
				return true
			}
		}
		return false
	}
	lhsMatch := func(pe fieldpath.PathElement) (*value.Value, bool) {
		// later duplicates shadow earlier ones
		var match *value.Value
		for i := range lhsItems {
			if lhsItems[i].pe.Equals(pe) {
				match = lhsItems[i].item
			}
		}
		return match, match != nil
	}

	var out []*value.Value
	for i := range lhsItems {
		if !inRhs(lhsItems[i].pe) {
			out = append(out, lhsItems[i].item)
		}
	}
	for i := range rhsItems {
		pe, item := rhsItems[i].pe, rhsItems[i].item
		if lv, ok := lhsMatch(pe); ok && pe.Value == nil {
			out = append(out, w.merge(append(path, pe), lv, item, list.ElementType))
			continue
		}
		out = append(out, item)
	}
	return value.FromList(out)
}
