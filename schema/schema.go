package schema

import (
	"sync"

	"github.com/applyops/structmerge/value"
)

// Schema is a catalog of named type definitions. It is immutable once
// built; the name index and resolution cache are the only internal mutable
// state and build lazily behind a lock, so one Schema may be shared across
// goroutines.
type Schema struct {
	Types []TypeDef

	once  sync.Once
	index map[string]*TypeDef

	lock  sync.Mutex
	cache map[resolveKey]Atom
}

// TypeDef ties a name to an atom.
type TypeDef struct {
	Name string
	Atom
}

// Atom holds at most one of scalar, list or map.
type Atom struct {
	Scalar *Scalar
	List   *List
	Map    *Map
}

type Scalar string

const (
	Numeric Scalar = "numeric"
	String  Scalar = "string"
	Boolean Scalar = "boolean"
	Untyped Scalar = "untyped"
)

// ElementRelationship states how a container's elements relate for
// ownership, compare and merge.
type ElementRelationship string

const (
	// Atomic containers are treated as single values: owned, compared
	// and replaced wholesale.
	Atomic ElementRelationship = "atomic"
	// Associative lists identify items by key fields (or, keyless, by
	// the item's own scalar value) instead of position.
	Associative ElementRelationship = "associative"
	// Separable maps track and merge each key independently. This is the
	// default relationship for maps.
	Separable ElementRelationship = "separable"
)

// TypeRef is either a reference to a named type or an inline atom, plus an
// optional element-relationship override. An override changes only the
// relationship of the resolved container, never its shape.
type TypeRef struct {
	NamedType           *string
	ElementRelationship *ElementRelationship
	Inline              Atom
}

func NamedRef(name string) TypeRef {
	return TypeRef{NamedType: &name}
}

func InlineRef(a Atom) TypeRef {
	return TypeRef{Inline: a}
}

type List struct {
	ElementType         TypeRef
	ElementRelationship ElementRelationship
	// Keys names the fields identifying one item of an associative list.
	// Empty keys with an associative relationship make a value-set.
	Keys []string
}

type Map struct {
	Fields              []StructField
	ElementType         TypeRef
	ElementRelationship ElementRelationship
	Unions              []Union

	once  sync.Once
	index map[string]*StructField
}

type StructField struct {
	Name    string
	Type    TypeRef
	Default *value.Value
}

// Union records a discriminated-union constraint over sibling fields. The
// engine carries unions through for consumers; no merge semantics are
// attached to them.
type Union struct {
	Discriminator string
	Fields        []UnionField
}

type UnionField struct {
	FieldName          string
	DiscriminatorValue string
}

// FindField looks a declared field up by name.
func (m *Map) FindField(name string) (*StructField, bool) {
	m.once.Do(func() {
		m.index = make(map[string]*StructField, len(m.Fields))
		for i := range m.Fields {
			m.index[m.Fields[i].Name] = &m.Fields[i]
		}
	})
	f, ok := m.index[name]
	return f, ok
}

// FindNamedType looks a type definition up by name.
func (s *Schema) FindNamedType(name string) (*TypeDef, bool) {
	s.once.Do(func() {
		s.index = make(map[string]*TypeDef, len(s.Types))
		for i := range s.Types {
			s.index[s.Types[i].Name] = &s.Types[i]
		}
	})
	td, ok := s.index[name]
	return td, ok
}

type resolveKey struct {
	name     string
	override ElementRelationship
}

// Resolve follows a type reference to its atom. A reference with an
// override resolves the un-overridden atom, then replaces the relationship
// of whichever container is present; a scalar with an override does not
// resolve. Results for named references are cached by (name, override);
// resolving the same reference repeatedly is idempotent.
func (s *Schema) Resolve(tr TypeRef) (Atom, bool) {
	if tr.NamedType == nil {
		return applyOverride(tr.Inline, tr.ElementRelationship)
	}
	key := resolveKey{name: *tr.NamedType}
	if tr.ElementRelationship != nil {
		key.override = *tr.ElementRelationship
	}
	s.lock.Lock()
	if s.cache == nil {
		s.cache = map[resolveKey]Atom{}
	}
	if a, ok := s.cache[key]; ok {
		s.lock.Unlock()
		return a, true
	}
	s.lock.Unlock()

	td, ok := s.FindNamedType(*tr.NamedType)
	if !ok {
		return Atom{}, false
	}
	a, ok := applyOverride(td.Atom, tr.ElementRelationship)
	if !ok {
		return Atom{}, false
	}
	s.lock.Lock()
	s.cache[key] = a
	s.lock.Unlock()
	return a, true
}

// applyOverride replaces the element relationship of whichever container
// variants are present. It never changes the container's shape; an atom
// with neither map nor list (a scalar, or nothing) does not resolve under
// an override.
func applyOverride(a Atom, override *ElementRelationship) (Atom, bool) {
	if override == nil {
		return a, true
	}
	if a.Map == nil && a.List == nil {
		return Atom{}, false
	}
	res := a
	if a.Map != nil {
		m := Map{
			Fields:              a.Map.Fields,
			ElementType:         a.Map.ElementType,
			ElementRelationship: *override,
			Unions:              a.Map.Unions,
		}
		res.Map = &m
	}
	if a.List != nil {
		l := *a.List
		l.ElementRelationship = *override
		res.List = &l
	}
	return res, true
}
