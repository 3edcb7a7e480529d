package value

import (
	"cmp"
	"strings"
)

// Compare returns an integer comparing two values.
// The result will be 0 if a==b, -1 if a < b, and +1 if a > b.
//
// Values of different kinds order by kind rank, then by natural order
// within the kind, so any Value can serve as a map key or sort key.
// Rank: Null < Bool < Int < Float < String < List < Map.
func Compare(a, b *Value) int {
	if a == b {
		return 0
	}
	if a == nil {
		a = Null()
	}
	if b == nil {
		b = Null()
	}

	rankA := rank(a.Kind)
	rankB := rank(b.Kind)
	if rankA != rankB {
		return cmp.Compare(rankA, rankB)
	}

	switch a.Kind {
	case NullKind:
		return 0
	case BoolKind:
		if a.Bool == b.Bool {
			return 0
		}
		if !a.Bool {
			return -1
		}
		return 1
	case IntKind:
		return cmp.Compare(a.Int, b.Int)
	case FloatKind:
		return cmp.Compare(a.Float, b.Float)
	case StringKind:
		return strings.Compare(a.Str, b.Str)
	case ListKind:
		return compareLists(a, b)
	case MapKind:
		return compareMaps(a, b)
	}
	return 0
}

func rank(k Kind) int {
	switch k {
	case NullKind:
		return 0
	case BoolKind:
		return 1
	case IntKind:
		return 2
	case FloatKind:
		return 3
	case StringKind:
		return 4
	case ListKind:
		return 5
	case MapKind:
		return 6
	}
	return 100
}

func compareLists(a, b *Value) int {
	lenA := len(a.Items)
	lenB := len(b.Items)
	for i := 0; i < min(lenA, lenB); i++ {
		if c := Compare(a.Items[i], b.Items[i]); c != 0 {
			return c
		}
	}
	return cmp.Compare(lenA, lenB)
}

func compareMaps(a, b *Value) int {
	lenA := a.Map.Len()
	lenB := b.Map.Len()
	for i := 0; i < min(lenA, lenB); i++ {
		pa, pb := &a.Map.Pairs[i], &b.Map.Pairs[i]
		if c := strings.Compare(pa.Key, pb.Key); c != 0 {
			return c
		}
		if c := Compare(pa.Val, pb.Val); c != 0 {
			return c
		}
	}
	return cmp.Compare(lenA, lenB)
}
