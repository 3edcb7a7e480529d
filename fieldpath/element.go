package fieldpath

import (
	"cmp"
	"sort"
	"strconv"
	"strings"

	"github.com/applyops/structmerge/value"
)

// PathElement is one step of a field path: a map field name, an
// associative-list key tuple, a set-style scalar value, or a list index.
// Exactly one of the four members is set.
type PathElement struct {
	FieldName *string
	Key       *value.FieldList
	Value     *value.Value
	Index     *int
}

func FieldElement(name string) PathElement {
	return PathElement{FieldName: &name}
}

// KeyElement builds a key-tuple element; fields are sorted by name.
func KeyElement(fields ...value.Field) PathElement {
	fl := value.FieldList(fields)
	fl.Sort()
	return PathElement{Key: &fl}
}

func KeyElementFrom(fl value.FieldList) PathElement {
	fl.Sort()
	return PathElement{Key: &fl}
}

func ValueElement(v *value.Value) PathElement {
	return PathElement{Value: v}
}

func IndexElement(i int) PathElement {
	return PathElement{Index: &i}
}

// Compare establishes the total order over path elements: type rank
// (FieldName < Key < Value < Index), then intra-type comparison.
func (e PathElement) Compare(o PathElement) int {
	if c := cmp.Compare(e.rank(), o.rank()); c != 0 {
		return c
	}
	switch {
	case e.FieldName != nil:
		return strings.Compare(*e.FieldName, *o.FieldName)
	case e.Key != nil:
		return e.Key.Compare(*o.Key)
	case e.Value != nil:
		return value.Compare(e.Value, o.Value)
	case e.Index != nil:
		return cmp.Compare(*e.Index, *o.Index)
	}
	return 0
}

func (e PathElement) rank() int {
	switch {
	case e.FieldName != nil:
		return 0
	case e.Key != nil:
		return 1
	case e.Value != nil:
		return 2
	case e.Index != nil:
		return 3
	}
	return 100
}

func (e PathElement) Equals(o PathElement) bool {
	return e.Compare(o) == 0
}

func (e PathElement) Less(o PathElement) bool {
	return e.Compare(o) < 0
}

func (e PathElement) String() string {
	switch {
	case e.FieldName != nil:
		return "." + *e.FieldName
	case e.Key != nil:
		return "[" + e.Key.String() + "]"
	case e.Value != nil:
		return "[v=" + e.Value.String() + "]"
	case e.Index != nil:
		return "[" + strconv.Itoa(*e.Index) + "]"
	}
	return "{invalid}"
}

// PathElementSet is a sorted set of path elements.
type PathElementSet struct {
	members []PathElement
}

func NewPathElementSet(elements ...PathElement) PathElementSet {
	s := PathElementSet{}
	for _, e := range elements {
		s.Insert(e)
	}
	return s
}

func (s *PathElementSet) find(e PathElement) (int, bool) {
	i := sort.Search(len(s.members), func(i int) bool {
		return s.members[i].Compare(e) >= 0
	})
	return i, i < len(s.members) && s.members[i].Equals(e)
}

func (s *PathElementSet) Insert(e PathElement) {
	i, found := s.find(e)
	if found {
		return
	}
	s.members = append(s.members, PathElement{})
	copy(s.members[i+1:], s.members[i:])
	s.members[i] = e
}

func (s *PathElementSet) Delete(e PathElement) {
	i, found := s.find(e)
	if !found {
		return
	}
	s.members = append(s.members[:i], s.members[i+1:]...)
}

func (s *PathElementSet) Has(e PathElement) bool {
	_, found := s.find(e)
	return found
}

func (s *PathElementSet) Size() int {
	return len(s.members)
}

func (s *PathElementSet) Empty() bool {
	return len(s.members) == 0
}

// Iterate visits the members in order.
func (s *PathElementSet) Iterate(f func(PathElement)) {
	for _, e := range s.members {
		f(e)
	}
}

func (s *PathElementSet) Equals(o *PathElementSet) bool {
	if len(s.members) != len(o.members) {
		return false
	}
	for i := range s.members {
		if !s.members[i].Equals(o.members[i]) {
			return false
		}
	}
	return true
}

func (s *PathElementSet) Union(o *PathElementSet) PathElementSet {
	res := PathElementSet{members: make([]PathElement, 0, len(s.members)+len(o.members))}
	i, j := 0, 0
	for i < len(s.members) && j < len(o.members) {
		c := s.members[i].Compare(o.members[j])
		switch {
		case c < 0:
			res.members = append(res.members, s.members[i])
			i++
		case c > 0:
			res.members = append(res.members, o.members[j])
			j++
		default:
			res.members = append(res.members, s.members[i])
			i++
			j++
		}
	}
	res.members = append(res.members, s.members[i:]...)
	res.members = append(res.members, o.members[j:]...)
	return res
}

func (s *PathElementSet) Intersection(o *PathElementSet) PathElementSet {
	res := PathElementSet{}
	i, j := 0, 0
	for i < len(s.members) && j < len(o.members) {
		c := s.members[i].Compare(o.members[j])
		switch {
		case c < 0:
			i++
		case c > 0:
			j++
		default:
			res.members = append(res.members, s.members[i])
			i++
			j++
		}
	}
	return res
}

func (s *PathElementSet) Difference(o *PathElementSet) PathElementSet {
	res := PathElementSet{}
	i, j := 0, 0
	for i < len(s.members) && j < len(o.members) {
		c := s.members[i].Compare(o.members[j])
		switch {
		case c < 0:
			res.members = append(res.members, s.members[i])
			i++
		case c > 0:
			j++
		default:
			i++
			j++
		}
	}
	res.members = append(res.members, s.members[i:]...)
	return res
}
