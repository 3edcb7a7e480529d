package value

import (
	"testing"
)

func TestCompareKindRank(t *testing.T) {
	// Null < Bool < Int < Float < String < List < Map
	ordered := []*Value{
		Null(),
		FromBool(false),
		FromBool(true),
		FromInt(-1),
		FromInt(7),
		FromFloat(0.5),
		FromString(""),
		FromString("a"),
		FromList(nil),
		FromList([]*Value{FromInt(1)}),
		FromMap(NewMap()),
		FromMap(NewMap(Pair{Key: "a", Val: FromInt(1)})),
	}
	for i := range ordered {
		for j := range ordered {
			c := Compare(ordered[i], ordered[j])
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

func TestCompareLists(t *testing.T) {
	tests := []struct {
		name string
		a, b *Value
		want int
	}{
		{"elementwise", FromList([]*Value{FromInt(1)}), FromList([]*Value{FromInt(2)}), -1},
		{"prefix shorter", FromList([]*Value{FromInt(1)}), FromList([]*Value{FromInt(1), FromInt(2)}), -1},
		{"equal", FromList([]*Value{FromInt(1), FromInt(2)}), FromList([]*Value{FromInt(1), FromInt(2)}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare = %d, want %d", got, tt.want)
			}
			if got := Compare(tt.b, tt.a); got != -tt.want {
				t.Errorf("reversed Compare = %d, want %d", got, -tt.want)
			}
		})
	}
}

func TestCompareMaps(t *testing.T) {
	mk := func(pairs ...Pair) *Value {
		return FromMap(NewMap(pairs...))
	}
	tests := []struct {
		name string
		a, b *Value
		want int
	}{
		{"key order", mk(Pair{"a", FromInt(1)}), mk(Pair{"b", FromInt(1)}), -1},
		{"value order", mk(Pair{"a", FromInt(1)}), mk(Pair{"a", FromInt(2)}), -1},
		{"length last", mk(Pair{"a", FromInt(1)}), mk(Pair{"a", FromInt(1)}, Pair{"b", FromInt(2)}), -1},
		{"equal", mk(Pair{"a", FromInt(1)}), mk(Pair{"a", FromInt(1)}), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEqualsNilAndNull(t *testing.T) {
	if !Null().IsNull() {
		t.Errorf("Null() not null")
	}
	var v *Value
	if !v.IsNull() {
		t.Errorf("nil value not null")
	}
	if !v.Equals(Null()) {
		t.Errorf("nil and explicit null differ")
	}
}
