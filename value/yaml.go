package value

import (
	"errors"
	"fmt"

	"github.com/goccy/go-yaml"
)

// ErrParse marks failures turning text into a Value. These are distinct
// from schema validation failures, which only arise once a Value exists.
var ErrParse = errors.New("parse error")

// FromYAML parses a YAML document into a Value. Mapping key order is
// preserved.
func FromYAML(data []byte) (*Value, error) {
	var native any
	if err := yaml.UnmarshalWithOptions(data, &native, yaml.UseOrderedMap()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	v, err := FromNative(native)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return v, nil
}

// ToYAML renders v as a YAML document, preserving map key order.
func (v *Value) ToYAML() ([]byte, error) {
	return yaml.Marshal(v.ToNative())
}

// FromNative converts a decoded Go value (as produced by goccy/go-yaml or
// encoding/json) into a Value.
func FromNative(native any) (*Value, error) {
	switch n := native.(type) {
	case nil:
		return Null(), nil
	case bool:
		return FromBool(n), nil
	case int:
		return FromInt(int64(n)), nil
	case int64:
		return FromInt(n), nil
	case uint64:
		return FromInt(int64(n)), nil
	case float64:
		return FromFloat(n), nil
	case string:
		return FromString(n), nil
	case []any:
		items := make([]*Value, len(n))
		for i, item := range n {
			v, err := FromNative(item)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return FromList(items), nil
	case yaml.MapSlice:
		m := &Map{}
		for _, item := range n {
			key, ok := item.Key.(string)
			if !ok {
				return nil, fmt.Errorf("non-string map key %v", item.Key)
			}
			if _, dup := m.Get(key); dup {
				return nil, fmt.Errorf("duplicate map key %q", key)
			}
			v, err := FromNative(item.Value)
			if err != nil {
				return nil, err
			}
			m.Pairs = append(m.Pairs, Pair{Key: key, Val: v})
		}
		return FromMap(m), nil
	case map[string]any:
		// unordered fallback; goccy with UseOrderedMap never produces this
		m := NewMap()
		for key, val := range n {
			v, err := FromNative(val)
			if err != nil {
				return nil, err
			}
			m.Set(key, v)
		}
		sortPairs(m)
		return FromMap(m), nil
	}
	return nil, fmt.Errorf("cannot convert %T to value", native)
}

// ToNative converts v to plain Go values, with yaml.MapSlice for maps so
// goccy/go-yaml keeps key order when re-encoding.
func (v *Value) ToNative() any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case NullKind:
		return nil
	case BoolKind:
		return v.Bool
	case IntKind:
		return v.Int
	case FloatKind:
		return v.Float
	case StringKind:
		return v.Str
	case ListKind:
		items := make([]any, len(v.Items))
		for i, item := range v.Items {
			items[i] = item.ToNative()
		}
		return items
	case MapKind:
		ms := make(yaml.MapSlice, 0, v.Map.Len())
		for i := range v.Map.Pairs {
			ms = append(ms, yaml.MapItem{Key: v.Map.Pairs[i].Key, Value: v.Map.Pairs[i].Val.ToNative()})
		}
		return ms
	}
	return nil
}

func sortPairs(m *Map) {
	for i := 1; i < len(m.Pairs); i++ {
		for j := i; j > 0 && m.Pairs[j].Key < m.Pairs[j-1].Key; j-- {
			m.Pairs[j], m.Pairs[j-1] = m.Pairs[j-1], m.Pairs[j]
		}
	}
}
