package fieldpath

import (
	"sort"
	"testing"

	"github.com/applyops/structmerge/value"
)

func TestPathElementOrder(t *testing.T) {
	// increasing order: field names, then key tuples, then values, then
	// indices, each ordered within its kind
	ordered := []PathElement{
		FieldElement("a"),
		FieldElement("b"),
		KeyElement(value.Field{Name: "name", Value: value.FromString("a")}),
		KeyElement(value.Field{Name: "name", Value: value.FromString("b")}),
		KeyElement(
			value.Field{Name: "name", Value: value.FromString("b")},
			value.Field{Name: "port", Value: value.FromInt(80)},
		),
		ValueElement(value.FromBool(true)),
		ValueElement(value.FromInt(3)),
		ValueElement(value.FromString("x")),
		IndexElement(0),
		IndexElement(7),
	}
	for i := range ordered {
		for j := range ordered {
			c := ordered[i].Compare(ordered[j])
			switch {
			case i < j && c >= 0:
				t.Errorf("expected %v < %v, got %d", ordered[i], ordered[j], c)
			case i == j && c != 0:
				t.Errorf("expected %v == %v, got %d", ordered[i], ordered[j], c)
			case i > j && c <= 0:
				t.Errorf("expected %v > %v, got %d", ordered[i], ordered[j], c)
			}
		}
	}
}

func TestKeyElementSortsFields(t *testing.T) {
	a := KeyElement(
		value.Field{Name: "port", Value: value.FromInt(80)},
		value.Field{Name: "name", Value: value.FromString("http")},
	)
	b := KeyElement(
		value.Field{Name: "name", Value: value.FromString("http")},
		value.Field{Name: "port", Value: value.FromInt(80)},
	)
	if !a.Equals(b) {
		t.Errorf("key elements with reordered fields differ: %v vs %v", a, b)
	}
}

func TestPathElementString(t *testing.T) {
	tests := []struct {
		elem PathElement
		want string
	}{
		{FieldElement("spec"), ".spec"},
		{IndexElement(3), "[3]"},
		{ValueElement(value.FromString("tcp")), `[v="tcp"]`},
	}
	for _, tt := range tests {
		if got := tt.elem.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestPathElementSet(t *testing.T) {
	s := PathElementSet{}
	for _, name := range []string{"c", "a", "b", "a"} {
		s.Insert(FieldElement(name))
	}
	if s.Size() != 3 {
		t.Fatalf("expected 3 members, got %d", s.Size())
	}
	var got []string
	s.Iterate(func(e PathElement) {
		got = append(got, *e.FieldName)
	})
	if !sort.StringsAreSorted(got) {
		t.Errorf("iteration not in order: %v", got)
	}
	s.Delete(FieldElement("b"))
	if s.Has(FieldElement("b")) {
		t.Errorf("b still present after delete")
	}
	if !s.Has(FieldElement("a")) || !s.Has(FieldElement("c")) {
		t.Errorf("delete removed the wrong members")
	}
}

func TestPathElementSetAlgebra(t *testing.T) {
	mk := func(names ...string) *PathElementSet {
		s := &PathElementSet{}
		for _, n := range names {
			s.Insert(FieldElement(n))
		}
		return s
	}
	a := mk("a", "b", "c")
	b := mk("b", "c", "d")

	union := a.Union(b)
	if want := mk("a", "b", "c", "d"); !union.Equals(want) {
		t.Errorf("union = %v", union.members)
	}
	inter := a.Intersection(b)
	if want := mk("b", "c"); !inter.Equals(want) {
		t.Errorf("intersection = %v", inter.members)
	}
	diff := a.Difference(b)
	if want := mk("a"); !diff.Equals(want) {
		t.Errorf("difference = %v", diff.members)
	}
}
