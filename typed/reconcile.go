package typed

import (
	"github.com/applyops/structmerge/fieldpath"
	"github.com/applyops/structmerge/schema"
)

// ReconcileFieldSetWithSchema adjusts an ownership set recorded under an
// older schema to the current one. Wherever the schema now declares a
// node atomic but the set still tracks granular content beneath it, the
// contained paths collapse to the node's own root. The reverse direction
// is deliberately not expanded: an owner recorded at an atomic root keeps
// owning just that root even if the node later becomes granular.
//
// Returns nil when the set needs no change.
func ReconcileFieldSetWithSchema(fieldset *fieldpath.Set, tv *TypedValue) (*fieldpath.Set, error) {
	r := &reconciler{
		schema:   tv.schema,
		toRemove: fieldpath.NewSet(),
		toAdd:    fieldpath.NewSet(),
	}
	if err := r.walk(fieldset, nil, tv.typeRef); err != nil {
		return nil, err
	}
	if r.toRemove.Empty() && r.toAdd.Empty() {
		return nil, nil
	}
	return fieldset.Difference(r.toRemove).Union(r.toAdd), nil
}

type reconciler struct {
	schema   *schema.Schema
	toRemove *fieldpath.Set
	toAdd    *fieldpath.Set
}

func (r *reconciler) walk(node *fieldpath.Set, prefix fieldpath.Path, tr schema.TypeRef) error {
	if node.Members.Empty() && node.Children.Empty() {
		return nil
	}
	a, ok := r.schema.Resolve(tr)
	if !ok {
		return errorf(prefix, "unresolved type reference %v", describeTypeRef(tr))
	}
	if r.nowAtomic(a) {
		r.collapse(node, prefix)
		return nil
	}
	var walkErr error
	node.Children.Iterate(func(pe fieldpath.PathElement, child *fieldpath.Set) {
		if walkErr != nil {
			return
		}
		childType, ok := r.elementType(a, pe)
		if !ok {
			return
		}
		walkErr = r.walk(child, append(prefix, pe), childType)
	})
	return walkErr
}

// nowAtomic reports whether granular ownership below this node is no
// longer expressible. Deduced untyped maps are exempt: their granularity
// comes from the data, not the schema.
func (r *reconciler) nowAtomic(a schema.Atom) bool {
	if a.Map != nil {
		if a.Map.ElementRelationship != schema.Atomic {
			return false
		}
		if len(a.Map.Fields) == 0 && a.Map.ElementType.NamedType != nil &&
			*a.Map.ElementType.NamedType == schema.UntypedDeducedName {
			return false
		}
		return true
	}
	if a.List != nil {
		return a.List.ElementRelationship != schema.Associative
	}
	// a scalar cannot carry granular content either
	return a.Scalar != nil
}

// collapse replaces the node's contained paths with just its own root.
func (r *reconciler) collapse(node *fieldpath.Set, prefix fieldpath.Path) {
	node.Iterate(func(p fieldpath.Path) {
		full := make(fieldpath.Path, 0, len(prefix)+len(p))
		full = append(full, prefix...)
		full = append(full, p...)
		r.toRemove.Insert(full)
	})
	r.toAdd.Insert(prefix.Copy())
}

func (r *reconciler) elementType(a schema.Atom, pe fieldpath.PathElement) (schema.TypeRef, bool) {
	switch {
	case pe.FieldName != nil:
		if a.Map == nil {
			return schema.TypeRef{}, false
		}
		if f, ok := a.Map.FindField(*pe.FieldName); ok {
			return f.Type, true
		}
		if hasElementType(a.Map) {
			return a.Map.ElementType, true
		}
		return schema.TypeRef{}, false
	case pe.Key != nil, pe.Value != nil, pe.Index != nil:
		if a.List == nil {
			return schema.TypeRef{}, false
		}
		return a.List.ElementType, true
	}
	return schema.TypeRef{}, false
}
