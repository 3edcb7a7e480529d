package fieldpath

import (
	"testing"

	"github.com/applyops/structmerge/value"
)

func fe(name string) PathElement {
	return FieldElement(name)
}

func p(elements ...PathElement) Path {
	return MakePath(elements...)
}

func TestSetInsertHas(t *testing.T) {
	s := NewSet(
		p(fe("a"), fe("b")),
		p(fe("a"), fe("c")),
		p(fe("d")),
		p(fe("list"), KeyElement(value.Field{Name: "name", Value: value.FromString("x")})),
	)
	tests := []struct {
		path Path
		want bool
	}{
		{p(fe("a"), fe("b")), true},
		{p(fe("a"), fe("c")), true},
		{p(fe("d")), true},
		{p(fe("a")), false},
		{p(fe("a"), fe("b"), fe("z")), false},
		{p(fe("list"), KeyElement(value.Field{Name: "name", Value: value.FromString("x")})), true},
		{p(fe("list"), KeyElement(value.Field{Name: "name", Value: value.FromString("y")})), false},
		{p(), false},
	}
	for _, tt := range tests {
		if got := s.Has(tt.path); got != tt.want {
			t.Errorf("Has(%v) = %v, want %v", tt.path, got, tt.want)
		}
	}
	if s.Size() != 4 {
		t.Errorf("Size() = %d, want 4", s.Size())
	}
}

func TestSetInsertOrderIrrelevant(t *testing.T) {
	// a member that later grows children moves into the child node; both
	// insertion orders must produce the same structure
	a := NewSet()
	a.Insert(p(fe("x")))
	a.Insert(p(fe("x"), fe("y")))

	b := NewSet()
	b.Insert(p(fe("x"), fe("y")))
	b.Insert(p(fe("x")))

	if !a.Equals(b) {
		t.Errorf("insertion order changed the structure:\n%v\nvs\n%v", a, b)
	}
	if !a.Has(p(fe("x"))) || !a.Has(p(fe("x"), fe("y"))) {
		t.Errorf("paths lost while restructuring")
	}
	if a.Size() != 2 {
		t.Errorf("Size() = %d, want 2", a.Size())
	}
}

func TestSetAlgebra(t *testing.T) {
	a := NewSet(
		p(fe("a")),
		p(fe("b"), fe("c")),
		p(fe("b"), fe("d")),
		p(fe("e")),
	)
	b := NewSet(
		p(fe("a")),
		p(fe("b"), fe("c")),
		p(fe("f")),
	)

	union := a.Union(b)
	for _, path := range []Path{
		p(fe("a")), p(fe("b"), fe("c")), p(fe("b"), fe("d")), p(fe("e")), p(fe("f")),
	} {
		if !union.Has(path) {
			t.Errorf("union missing %v", path)
		}
	}
	if union.Size() != 5 {
		t.Errorf("union size = %d, want 5", union.Size())
	}

	inter := a.Intersection(b)
	if want := NewSet(p(fe("a")), p(fe("b"), fe("c"))); !inter.Equals(want) {
		t.Errorf("intersection:\n%v\nwant:\n%v", inter, want)
	}

	diff := a.Difference(b)
	if want := NewSet(p(fe("b"), fe("d")), p(fe("e"))); !diff.Equals(want) {
		t.Errorf("difference:\n%v\nwant:\n%v", diff, want)
	}

	// laws
	if !a.Union(b).Equals(b.Union(a)) {
		t.Errorf("union is not commutative")
	}
	if !a.Intersection(a).Equals(a) {
		t.Errorf("self intersection is not identity")
	}
	if !a.Difference(a).Empty() {
		t.Errorf("self difference is not empty")
	}
	if !a.Difference(b).Union(a.Intersection(b)).Equals(a) {
		t.Errorf("(a-b) union (a int b) != a")
	}
}

func TestSetAlgebraMemberVsChild(t *testing.T) {
	// one side has .x as a member, the other has content below .x
	member := NewSet(p(fe("x")))
	deep := NewSet(p(fe("x"), fe("y")))

	union := member.Union(deep)
	if !union.Has(p(fe("x"))) || !union.Has(p(fe("x"), fe("y"))) {
		t.Errorf("union lost a path:\n%v", union)
	}
	if !member.Intersection(deep).Empty() {
		t.Errorf("intersection of disjoint paths is not empty")
	}
	if !member.Difference(deep).Equals(member) {
		t.Errorf("difference removed an unrelated path")
	}
	if !union.Difference(member).Equals(deep) {
		t.Errorf("difference did not recover the deep set:\n%v", union.Difference(member))
	}
}

func TestSetIterateOrder(t *testing.T) {
	s := NewSet(
		p(fe("z")),
		p(fe("a"), IndexElement(2)),
		p(fe("a"), fe("b")),
		p(fe("a"), ValueElement(value.FromString("v"))),
		p(fe("a"), KeyElement(value.Field{Name: "k", Value: value.FromInt(1)})),
	)
	var got []string
	s.Iterate(func(path Path) {
		got = append(got, path.String())
	})
	want := []string{
		".a.b",
		`.a[k=1]`,
		`.a[v="v"]`,
		".a[2]",
		".z",
	}
	if len(got) != len(want) {
		t.Fatalf("iterated %d paths, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("path %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSetLeaves(t *testing.T) {
	s := NewSet(
		p(fe("a")),
		p(fe("a"), fe("b")),
		p(fe("c")),
	)
	leaves := s.Leaves()
	if want := NewSet(p(fe("a"), fe("b")), p(fe("c"))); !leaves.Equals(want) {
		t.Errorf("leaves:\n%v\nwant:\n%v", leaves, want)
	}
}

func TestSetCopyIndependent(t *testing.T) {
	s := NewSet(p(fe("a"), fe("b")))
	c := s.Copy()
	c.Insert(p(fe("z")))
	if s.Has(p(fe("z"))) {
		t.Errorf("mutating the copy changed the original")
	}
	if !c.Has(p(fe("a"), fe("b"))) {
		t.Errorf("copy lost a path")
	}
}
