package value

import (
	"strconv"
	"strings"
)

// Kind discriminates the variants of a Value.
type Kind uint8

const (
	NullKind Kind = iota
	BoolKind
	IntKind
	FloatKind
	StringKind
	ListKind
	MapKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "boolean"
	case IntKind:
		return "integer"
	case FloatKind:
		return "float"
	case StringKind:
		return "string"
	case ListKind:
		return "list"
	case MapKind:
		return "map"
	}
	return "unknown"
}

// Value is a generic document tree: a tagged union of null, bool, int64,
// float64, string, ordered list and ordered string-keyed map. Values are
// immutable by convention: every transform yields a new Value and may share
// subtrees with its inputs, so callers must not mutate a Value after handing
// it off.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Items []*Value
	Map   *Map
}

func Null() *Value {
	return &Value{Kind: NullKind}
}

func FromBool(b bool) *Value {
	return &Value{Kind: BoolKind, Bool: b}
}

func FromInt(i int64) *Value {
	return &Value{Kind: IntKind, Int: i}
}

func FromFloat(f float64) *Value {
	return &Value{Kind: FloatKind, Float: f}
}

func FromString(s string) *Value {
	return &Value{Kind: StringKind, Str: s}
}

func FromList(items []*Value) *Value {
	return &Value{Kind: ListKind, Items: items}
}

func FromMap(m *Map) *Value {
	if m == nil {
		m = &Map{}
	}
	return &Value{Kind: MapKind, Map: m}
}

// IsNull reports whether v is nil or the null value. Absence and explicit
// null are interchangeable for merge purposes.
func (v *Value) IsNull() bool {
	return v == nil || v.Kind == NullKind
}

func (v *Value) IsScalar() bool {
	if v == nil {
		return false
	}
	switch v.Kind {
	case BoolKind, IntKind, FloatKind, StringKind:
		return true
	}
	return false
}

// Copy returns a deep copy of v.
func (v *Value) Copy() *Value {
	if v == nil {
		return nil
	}
	res := &Value{Kind: v.Kind, Bool: v.Bool, Int: v.Int, Float: v.Float, Str: v.Str}
	if v.Items != nil {
		res.Items = make([]*Value, len(v.Items))
		for i, item := range v.Items {
			res.Items[i] = item.Copy()
		}
	}
	if v.Map != nil {
		res.Map = v.Map.Copy()
	}
	return res
}

func (v *Value) Equals(o *Value) bool {
	return Compare(v, o) == 0
}

// String renders a compact JSON-ish debug form.
func (v *Value) String() string {
	var sb strings.Builder
	v.debug(&sb)
	return sb.String()
}

func (v *Value) debug(sb *strings.Builder) {
	if v == nil {
		sb.WriteString("null")
		return
	}
	switch v.Kind {
	case NullKind:
		sb.WriteString("null")
	case BoolKind:
		sb.WriteString(strconv.FormatBool(v.Bool))
	case IntKind:
		sb.WriteString(strconv.FormatInt(v.Int, 10))
	case FloatKind:
		sb.WriteString(strconv.FormatFloat(v.Float, 'g', -1, 64))
	case StringKind:
		sb.WriteString(strconv.Quote(v.Str))
	case ListKind:
		sb.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.debug(sb)
		}
		sb.WriteByte(']')
	case MapKind:
		sb.WriteByte('{')
		for i := range v.Map.Pairs {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(v.Map.Pairs[i].Key))
			sb.WriteByte(':')
			v.Map.Pairs[i].Val.debug(sb)
		}
		sb.WriteByte('}')
	}
}

// Pair is one entry of a Map.
type Pair struct {
	Key string
	Val *Value
}

// Map is an ordered string-keyed map with unique keys. Iteration and
// serialization follow insertion order.
type Map struct {
	Pairs []Pair
}

func NewMap(pairs ...Pair) *Map {
	m := &Map{}
	for _, p := range pairs {
		m.Set(p.Key, p.Val)
	}
	return m
}

func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Pairs)
}

func (m *Map) Get(key string) (*Value, bool) {
	if m == nil {
		return nil, false
	}
	for i := range m.Pairs {
		if m.Pairs[i].Key == key {
			return m.Pairs[i].Val, true
		}
	}
	return nil, false
}

// Set replaces the value for key if present, otherwise appends it.
func (m *Map) Set(key string, val *Value) {
	for i := range m.Pairs {
		if m.Pairs[i].Key == key {
			m.Pairs[i].Val = val
			return
		}
	}
	m.Pairs = append(m.Pairs, Pair{Key: key, Val: val})
}

func (m *Map) Delete(key string) {
	for i := range m.Pairs {
		if m.Pairs[i].Key == key {
			m.Pairs = append(m.Pairs[:i], m.Pairs[i+1:]...)
			return
		}
	}
}

func (m *Map) Copy() *Map {
	if m == nil {
		return nil
	}
	res := &Map{Pairs: make([]Pair, len(m.Pairs))}
	for i := range m.Pairs {
		res.Pairs[i] = Pair{Key: m.Pairs[i].Key, Val: m.Pairs[i].Val.Copy()}
	}
	return res
}

// Field is a named value, used for associative-list key tuples.
type Field struct {
	Name  string
	Value *Value
}

// FieldList is a sorted-by-name list of fields identifying one
// associative-list item.
type FieldList []Field

func (fl FieldList) Sort() {
	for i := 1; i < len(fl); i++ {
		for j := i; j > 0 && fl[j].Name < fl[j-1].Name; j-- {
			fl[j], fl[j-1] = fl[j-1], fl[j]
		}
	}
}

func (fl FieldList) Get(name string) (*Value, bool) {
	for i := range fl {
		if fl[i].Name == name {
			return fl[i].Value, true
		}
	}
	return nil, false
}

func (fl FieldList) Compare(o FieldList) int {
	n := min(len(fl), len(o))
	for i := 0; i < n; i++ {
		if c := strings.Compare(fl[i].Name, o[i].Name); c != 0 {
			return c
		}
		if c := Compare(fl[i].Value, o[i].Value); c != 0 {
			return c
		}
	}
	switch {
	case len(fl) < len(o):
		return -1
	case len(fl) > len(o):
		return 1
	}
	return 0
}

func (fl FieldList) Equals(o FieldList) bool {
	return fl.Compare(o) == 0
}

func (fl FieldList) Copy() FieldList {
	res := make(FieldList, len(fl))
	for i := range fl {
		res[i] = Field{Name: fl[i].Name, Value: fl[i].Value.Copy()}
	}
	return res
}

func (fl FieldList) String() string {
	var sb strings.Builder
	for i := range fl {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(fl[i].Name)
		sb.WriteByte('=')
		fl[i].Value.debug(&sb)
	}
	return sb.String()
}
