package typed

import (
	"github.com/applyops/structmerge/fieldpath"
	"github.com/applyops/structmerge/schema"
	"github.com/applyops/structmerge/value"
)

type removeFlavor int

const (
	// removeMode replaces every node whose path is in the set with
	// absence.
	removeMode removeFlavor = iota
	// extractMode keeps only subtrees whose paths are members of the
	// set, plus the prefixes needed to reach them.
	extractMode
)

// removeWithSchema walks a value and a path set in parallel. A nil return
// means the whole subtree is absent from the result.
func removeWithSchema(v *value.Value, set *fieldpath.Set, s *schema.Schema, tr schema.TypeRef, mode removeFlavor) *value.Value {
	if set.Empty() {
		if mode == extractMode {
			return nil
		}
		return v
	}
	a, ok := s.Resolve(tr)
	if !ok {
		// an unresolvable subtree is opaque; treat it as a leaf
		a = schema.Atom{}
	}
	switch {
	case v == nil || v.IsNull() || v.IsScalar():
		return v
	case v.Kind == value.ListKind:
		if a.List != nil && a.List.ElementRelationship == schema.Associative {
			return removeFromList(v, set, s, a.List, mode)
		}
		return v
	case v.Kind == value.MapKind:
		if a.Map != nil && a.Map.ElementRelationship != schema.Atomic {
			return removeFromMap(v, set, s, a.Map, mode)
		}
		return v
	}
	return v
}

func removeFromMap(v *value.Value, set *fieldpath.Set, s *schema.Schema, m *schema.Map, mode removeFlavor) *value.Value {
	fieldType := func(key string) schema.TypeRef {
		if f, ok := m.FindField(key); ok {
			return f.Type
		}
		return m.ElementType
	}
	out := &value.Map{}
	for i := range v.Map.Pairs {
		key, val := v.Map.Pairs[i].Key, v.Map.Pairs[i].Val
		pe := fieldpath.FieldElement(key)
		member := set.Members.Has(pe)
		child := set.Children.Get(pe)
		if child != nil && child.Root {
			member = true
		}
		switch mode {
		case removeMode:
			if member {
				continue
			}
			if child != nil {
				val = removeWithSchema(val, child, s, fieldType(key), mode)
				if val == nil {
					continue
				}
			}
			out.Pairs = append(out.Pairs, value.Pair{Key: key, Val: val})
		case extractMode:
			if member {
				out.Pairs = append(out.Pairs, value.Pair{Key: key, Val: val})
				continue
			}
			if child == nil {
				continue
			}
			kept := removeWithSchema(val, child, s, fieldType(key), mode)
			if kept == nil {
				continue
			}
			out.Pairs = append(out.Pairs, value.Pair{Key: key, Val: kept})
		}
	}
	if len(out.Pairs) == 0 && mode == extractMode {
		return nil
	}
	// an emptied container stays explicit unless its own path was removed
	return value.FromMap(out)
}

func removeFromList(v *value.Value, set *fieldpath.Set, s *schema.Schema, list *schema.List, mode removeFlavor) *value.Value {
	var out []*value.Value
	for _, item := range v.Items {
		pe, errs := listItemToPathElement(s, list, item)
		if len(errs) > 0 {
			// unidentifiable items pass through untouched on remove and
			// are never extracted
			if mode == removeMode {
				out = append(out, item)
			}
			continue
		}
		member := set.Members.Has(pe)
		child := set.Children.Get(pe)
		if child != nil && child.Root {
			member = true
		}
		switch mode {
		case removeMode:
			if member {
				continue
			}
			if child != nil {
				kept := removeWithSchema(item, child, s, list.ElementType, mode)
				if kept == nil {
					continue
				}
				item = kept
			}
			out = append(out, item)
		case extractMode:
			if member {
				out = append(out, item)
				continue
			}
			if child == nil {
				continue
			}
			kept := removeWithSchema(item, child, s, list.ElementType, mode)
			if kept == nil {
				continue
			}
			out = append(out, kept)
		}
	}
	if out == nil && mode == extractMode {
		return nil
	}
	return value.FromList(out)
}
