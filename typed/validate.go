package typed

import (
	"github.com/applyops/structmerge/fieldpath"
	"github.com/applyops/structmerge/schema"
	"github.com/applyops/structmerge/value"
)

type validator struct {
	schema *schema.Schema
	errs   ValidationErrors
}

func (w *validator) errorf(path fieldpath.Path, format string, args ...any) {
	w.errs = append(w.errs, errorf(path, format, args...)...)
}

func (w *validator) walk(path fieldpath.Path, v *value.Value, tr schema.TypeRef) {
	a, ok := w.schema.Resolve(tr)
	if !ok {
		w.errorf(path, "unresolved type reference %v", describeTypeRef(tr))
		return
	}
	if v.IsNull() {
		// null is valid at any position
		return
	}
	switch v.Kind {
	case value.ListKind:
		if a.List == nil {
			w.errorf(path, "%s", typeMismatch(a, v))
			return
		}
		w.validateList(path, v, a.List)
	case value.MapKind:
		if a.Map == nil {
			w.errorf(path, "%s", typeMismatch(a, v))
			return
		}
		w.validateMap(path, v, a.Map)
	default:
		if a.Scalar == nil {
			w.errorf(path, "%s", typeMismatch(a, v))
			return
		}
		w.validateScalar(path, v, *a.Scalar)
	}
}

func (w *validator) validateScalar(path fieldpath.Path, v *value.Value, s schema.Scalar) {
	switch s {
	case schema.Numeric:
		if v.Kind != value.IntKind && v.Kind != value.FloatKind {
			w.errorf(path, "expected numeric value, got %s", v.Kind)
		}
	case schema.String:
		if v.Kind != value.StringKind {
			w.errorf(path, "expected string value, got %s", v.Kind)
		}
	case schema.Boolean:
		if v.Kind != value.BoolKind {
			w.errorf(path, "expected boolean value, got %s", v.Kind)
		}
	case schema.Untyped:
		if !v.IsScalar() {
			w.errorf(path, "expected scalar value, got %s", v.Kind)
		}
	default:
		w.errorf(path, "unknown scalar kind %q in schema", s)
	}
}

func (w *validator) validateList(path fieldpath.Path, v *value.Value, list *schema.List) {
	if list.ElementRelationship != schema.Associative {
		for i, item := range v.Items {
			w.walk(append(path, fieldpath.IndexElement(i)), item, list.ElementType)
		}
		return
	}
	observed := fieldpath.NewPathElementSet()
	for i, item := range v.Items {
		pe, errs := listItemToPathElement(w.schema, list, item)
		if len(errs) > 0 {
			for _, e := range errs {
				w.errorf(append(path, fieldpath.IndexElement(i)), "%s", e.Message)
			}
			continue
		}
		if observed.Has(pe) {
			w.errorf(append(path, pe), "duplicate entries for key %v", pe.String())
			continue
		}
		observed.Insert(pe)
		w.walk(append(path, pe), item, list.ElementType)
	}
}

func (w *validator) validateMap(path fieldpath.Path, v *value.Value, m *schema.Map) {
	for i := range v.Map.Pairs {
		key, val := v.Map.Pairs[i].Key, v.Map.Pairs[i].Val
		keyPath := append(path, fieldpath.FieldElement(key))
		if f, ok := m.FindField(key); ok {
			w.walk(keyPath, val, f.Type)
			continue
		}
		if hasElementType(m) {
			w.walk(keyPath, val, m.ElementType)
			continue
		}
		if len(m.Fields) == 0 {
			// no declared fields and no element type: nothing is legal
			w.errorf(keyPath, "field %q is not declared and map has no element type", key)
			continue
		}
		w.errorf(keyPath, "unknown field %q", key)
	}
}

func hasElementType(m *schema.Map) bool {
	return m.ElementType.NamedType != nil ||
		m.ElementType.Inline.Scalar != nil ||
		m.ElementType.Inline.List != nil ||
		m.ElementType.Inline.Map != nil
}

func typeMismatch(a schema.Atom, v *value.Value) string {
	switch {
	case a.Scalar != nil:
		return "expected " + string(*a.Scalar) + " scalar, got " + v.Kind.String()
	case a.List != nil:
		return "expected list, got " + v.Kind.String()
	case a.Map != nil:
		return "expected map, got " + v.Kind.String()
	}
	return "schema atom declares no variant"
}

func describeTypeRef(tr schema.TypeRef) string {
	if tr.NamedType != nil {
		return *tr.NamedType
	}
	return "(inline)"
}
