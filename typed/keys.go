package typed

import (
	"github.com/applyops/structmerge/fieldpath"
	"github.com/applyops/structmerge/schema"
	"github.com/applyops/structmerge/value"
)

// listItemToPathElement computes the identity of one associative-list
// item. With declared keys the item must be a map supplying one field per
// key name; a key field absent from the item falls back to the declared
// default, so items that omit a defaulted key resolve to the same identity
// as items that spell it out. Without declared keys the list is a value
// set and the item's own value is its identity.
//
// Every operation that walks an associative list shares this computation.
func listItemToPathElement(s *schema.Schema, list *schema.List, item *value.Value) (fieldpath.PathElement, ValidationErrors) {
	if len(list.Keys) == 0 {
		return fieldpath.ValueElement(item), nil
	}
	if item.Kind != value.MapKind {
		return fieldpath.PathElement{}, errorf(nil, "keyed list item of kind %s is not a map", item.Kind)
	}
	fields := make(value.FieldList, 0, len(list.Keys))
	for _, keyName := range list.Keys {
		if v, ok := item.Map.Get(keyName); ok {
			fields = append(fields, value.Field{Name: keyName, Value: v})
			continue
		}
		if d, ok := keyFieldDefault(s, list, keyName); ok {
			fields = append(fields, value.Field{Name: keyName, Value: d})
			continue
		}
		return fieldpath.PathElement{}, errorf(nil, "missing key field %q", keyName)
	}
	return fieldpath.KeyElementFrom(fields), nil
}

func keyFieldDefault(s *schema.Schema, list *schema.List, keyName string) (*value.Value, bool) {
	a, ok := s.Resolve(list.ElementType)
	if !ok || a.Map == nil {
		return nil, false
	}
	f, ok := a.Map.FindField(keyName)
	if !ok || f.Default == nil {
		return nil, false
	}
	return f.Default, true
}
