package typed

import (
	"fmt"

	"github.com/applyops/structmerge/fieldpath"
	"github.com/applyops/structmerge/schema"
	"github.com/applyops/structmerge/value"
)

// TypedValue is a value bound to a schema and a type reference within it.
// All schema-driven operations hang off this triple.
type TypedValue struct {
	value   *value.Value
	typeRef schema.TypeRef
	schema  *schema.Schema
}

// AsTyped binds v to the schema and type reference, validating it. The
// returned value is known valid for every later operation.
func AsTyped(v *value.Value, s *schema.Schema, tr schema.TypeRef) (*TypedValue, error) {
	tv := &TypedValue{value: v, typeRef: tr, schema: s}
	if err := tv.Validate(); err != nil {
		return nil, err
	}
	return tv, nil
}

// AsTypedUnvalidated binds without validating, for values whose validity
// is already known.
func AsTypedUnvalidated(v *value.Value, s *schema.Schema, tr schema.TypeRef) *TypedValue {
	return &TypedValue{value: v, typeRef: tr, schema: s}
}

// AsDeduced binds v to the deduced schema, which accepts anything.
func AsDeduced(v *value.Value) *TypedValue {
	return &TypedValue{value: v, typeRef: schema.DeducedRef(), schema: schema.DeducedSchema()}
}

func (tv *TypedValue) AsValue() *value.Value {
	return tv.value
}

func (tv *TypedValue) Schema() *schema.Schema {
	return tv.schema
}

func (tv *TypedValue) TypeRef() schema.TypeRef {
	return tv.typeRef
}

// Empty returns the null value bound to the same schema and type.
func (tv *TypedValue) Empty() *TypedValue {
	return AsTypedUnvalidated(value.Null(), tv.schema, tv.typeRef)
}

// Validate walks the value against the schema, accumulating every
// problem found. Nil means the value conforms.
func (tv *TypedValue) Validate() error {
	v := &validator{schema: tv.schema}
	v.walk(nil, tv.value, tv.typeRef)
	if len(v.errs) > 0 {
		return v.errs
	}
	return nil
}

// ToFieldSet returns the set of paths the value contains: leaves, atomic
// container roots, and associative-list item keys with their interiors.
func (tv *TypedValue) ToFieldSet() (*fieldpath.Set, error) {
	w := &fieldSetWalker{schema: tv.schema, set: fieldpath.NewSet()}
	w.walk(nil, tv.value, tv.typeRef)
	if len(w.errs) > 0 {
		return nil, w.errs
	}
	return w.set, nil
}

// Merge combines rhs into tv, rhs winning wherever both are present. Both
// sides must share tv's schema and type reference.
func (tv *TypedValue) Merge(rhs *TypedValue) (*TypedValue, error) {
	if tv.schema != rhs.schema {
		return nil, errorf(nil, "expected objects with identical schemas")
	}
	w := &mergeWalker{schema: tv.schema}
	out := w.merge(nil, tv.value, rhs.value, tv.typeRef)
	if len(w.errs) > 0 {
		return nil, w.errs
	}
	return AsTypedUnvalidated(out, tv.schema, tv.typeRef), nil
}

// Compare reports the difference between tv and rhs as three disjoint
// path sets. All-empty means the values are equal. Swapping the operands
// swaps Removed and Added and preserves Modified.
func (tv *TypedValue) Compare(rhs *TypedValue) (*Comparison, error) {
	if tv.schema != rhs.schema {
		return nil, errorf(nil, "expected objects with identical schemas")
	}
	w := &compareWalker{
		schema: tv.schema,
		comparison: &Comparison{
			Removed:  fieldpath.NewSet(),
			Modified: fieldpath.NewSet(),
			Added:    fieldpath.NewSet(),
		},
	}
	w.walk(nil, tv.value, rhs.value, tv.typeRef)
	if len(w.errs) > 0 {
		return nil, w.errs
	}
	return w.comparison, nil
}

// RemoveItems returns a copy of tv with every node whose path is in items
// replaced by absence. A container emptied this way stays as an explicit
// empty container unless its own path was in the set.
func (tv *TypedValue) RemoveItems(items *fieldpath.Set) *TypedValue {
	out := removeWithSchema(tv.value, items, tv.schema, tv.typeRef, removeMode)
	if out == nil {
		out = value.Null()
	}
	return AsTypedUnvalidated(out, tv.schema, tv.typeRef)
}

// ExtractItems keeps only the subtrees whose paths are members of items,
// plus the prefixes needed to reach them. Branches with nothing retained
// collapse to absence.
func (tv *TypedValue) ExtractItems(items *fieldpath.Set) *TypedValue {
	out := removeWithSchema(tv.value, items, tv.schema, tv.typeRef, extractMode)
	if out == nil {
		out = value.Null()
	}
	return AsTypedUnvalidated(out, tv.schema, tv.typeRef)
}

// Comparison is the difference between two values: paths present only in
// the left operand, present in both with different content, and present
// only in the right operand. The three sets are disjoint.
type Comparison struct {
	Removed  *fieldpath.Set
	Modified *fieldpath.Set
	Added    *fieldpath.Set
}

func (c *Comparison) IsSame() bool {
	return c.Removed.Empty() && c.Modified.Empty() && c.Added.Empty()
}

func (c *Comparison) String() string {
	return fmt.Sprintf("- Removed:\n%v\n- Modified:\n%v\n- Added:\n%v\n",
		c.Removed, c.Modified, c.Added)
}

// FilterFields drops every path for which drop returns true from all
// three sets.
func (c *Comparison) FilterFields(drop func(fieldpath.Path) bool) *Comparison {
	return &Comparison{
		Removed:  filterSet(c.Removed, drop),
		Modified: filterSet(c.Modified, drop),
		Added:    filterSet(c.Added, drop),
	}
}

func filterSet(s *fieldpath.Set, drop func(fieldpath.Path) bool) *fieldpath.Set {
	out := fieldpath.NewSet()
	s.Iterate(func(p fieldpath.Path) {
		if !drop(p) {
			out.Insert(p)
		}
	})
	return out
}
