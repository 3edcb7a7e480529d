package fieldpath

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/applyops/structmerge/value"
)

// The persisted wire format for a Set is a tree of JSON objects whose keys
// carry a short textual code for each path element:
//
//	f:<name>          map field name
//	v:<json-value>    set-style scalar value
//	k:<json-object>   associative-list key tuple, keys sorted
//	i:<int>           list index
//
// A member with no children serializes as an empty object. A path that is
// both a member and has children is marked with a "." sentinel inside its
// nested object. Unknown key prefixes are silently dropped on read so old
// readers survive new element kinds.

// ToJSON serializes the set in the wire format.
func (s *Set) ToJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.emit(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Set) emit(buf *bytes.Buffer) error {
	buf.WriteByte('{')
	first := true
	sep := func() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
	}
	if s.Root {
		sep()
		buf.WriteString(`".":{}`)
	}
	for _, e := range s.entries() {
		key, err := serializePathElement(e.element)
		if err != nil {
			return err
		}
		sep()
		d, err := jsonString(key)
		if err != nil {
			return err
		}
		buf.Write(d)
		buf.WriteByte(':')
		if e.child == nil {
			buf.WriteString("{}")
			continue
		}
		if err := e.child.emit(buf); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func jsonString(s string) ([]byte, error) {
	v := value.FromString(s)
	return v.ToJSON()
}

func serializePathElement(e PathElement) (string, error) {
	switch {
	case e.FieldName != nil:
		return "f:" + *e.FieldName, nil
	case e.Key != nil:
		m := &value.Map{}
		for _, f := range *e.Key {
			m.Set(f.Name, f.Value)
		}
		d, err := value.FromMap(m).ToJSON()
		if err != nil {
			return "", err
		}
		return "k:" + string(d), nil
	case e.Value != nil:
		d, err := e.Value.ToJSON()
		if err != nil {
			return "", err
		}
		return "v:" + string(d), nil
	case e.Index != nil:
		return "i:" + strconv.Itoa(*e.Index), nil
	}
	return "", fmt.Errorf("invalid path element")
}

// DeserializePathElement parses a wire-format key. The second return is
// false for unrecognized prefixes, which readers skip without error.
func DeserializePathElement(s string) (PathElement, bool, error) {
	if s == "." {
		return PathElement{}, false, nil
	}
	if len(s) < 2 || s[1] != ':' {
		return PathElement{}, false, nil
	}
	body := s[2:]
	switch s[0] {
	case 'f':
		return FieldElement(body), true, nil
	case 'v':
		v, err := value.FromJSON([]byte(body))
		if err != nil {
			return PathElement{}, false, fmt.Errorf("parsing value path element %q: %w", s, err)
		}
		return ValueElement(v), true, nil
	case 'k':
		v, err := value.FromJSON([]byte(body))
		if err != nil {
			return PathElement{}, false, fmt.Errorf("parsing key path element %q: %w", s, err)
		}
		if v.Kind != value.MapKind {
			return PathElement{}, false, fmt.Errorf("key path element %q is not an object", s)
		}
		fl := make(value.FieldList, 0, v.Map.Len())
		for i := range v.Map.Pairs {
			fl = append(fl, value.Field{Name: v.Map.Pairs[i].Key, Value: v.Map.Pairs[i].Val})
		}
		return KeyElementFrom(fl), true, nil
	case 'i':
		i, err := strconv.Atoi(body)
		if err != nil {
			return PathElement{}, false, fmt.Errorf("parsing index path element %q: %w", s, err)
		}
		return IndexElement(i), true, nil
	}
	return PathElement{}, false, nil
}

// SetFromJSON parses the wire format back into a Set.
func SetFromJSON(data []byte) (*Set, error) {
	v, err := value.FromJSON(data)
	if err != nil {
		return nil, err
	}
	s := NewSet()
	if err := setFromValue(s, v); err != nil {
		return nil, err
	}
	return s, nil
}

func setFromValue(s *Set, v *value.Value) error {
	if v.Kind != value.MapKind {
		return fmt.Errorf("field set node is not an object")
	}
	for i := range v.Map.Pairs {
		key, sub := v.Map.Pairs[i].Key, v.Map.Pairs[i].Val
		if key == "." {
			s.Root = true
			continue
		}
		e, known, err := DeserializePathElement(key)
		if err != nil {
			return err
		}
		if !known {
			continue
		}
		if sub.Kind == value.MapKind && sub.Map.Len() == 0 {
			s.Members.Insert(e)
			continue
		}
		child := s.Children.Descend(e)
		if s.Members.Has(e) {
			s.Members.Delete(e)
			child.Root = true
		}
		if err := setFromValue(child, sub); err != nil {
			return err
		}
	}
	return nil
}

func (s *Set) JSONString() string {
	d, err := s.ToJSON()
	if err != nil {
		return fmt.Sprintf("!!serialize error: %v", err)
	}
	return string(d)
}
