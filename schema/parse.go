package schema

import (
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/applyops/structmerge/value"
)

// The authoring format is YAML of the shape
//
//	types:
//	- name: myType
//	  map:
//	    fields:
//	    - name: f
//	      type:
//	        scalar: string
//
// with list and scalar analogues. It deserializes into the TypeDef list;
// malformed schema text is a configuration bug and fails outright.

type schemaYAML struct {
	Types []typeDefYAML `yaml:"types"`
}

type typeDefYAML struct {
	Name     string `yaml:"name"`
	AtomYAML `yaml:",inline"`
}

// AtomYAML mirrors Atom for deserialization.
type AtomYAML struct {
	Scalar *string   `yaml:"scalar"`
	List   *listYAML `yaml:"list"`
	Map    *mapYAML  `yaml:"map"`
}

type listYAML struct {
	ElementType         typeRefYAML `yaml:"elementType"`
	ElementRelationship string      `yaml:"elementRelationship"`
	Keys                []string    `yaml:"keys"`
}

type mapYAML struct {
	Fields              []structFieldYAML `yaml:"fields"`
	ElementType         *typeRefYAML      `yaml:"elementType"`
	ElementRelationship string            `yaml:"elementRelationship"`
	Unions              []unionYAML       `yaml:"unions"`
}

type structFieldYAML struct {
	Name    string      `yaml:"name"`
	Type    typeRefYAML `yaml:"type"`
	Default any         `yaml:"default"`
}

type typeRefYAML struct {
	NamedType           *string `yaml:"namedType"`
	ElementRelationship *string `yaml:"elementRelationship"`
	AtomYAML            `yaml:",inline"`
}

type unionYAML struct {
	Discriminator string            `yaml:"discriminator"`
	Fields        []unionFieldYAML  `yaml:"fields"`
}

type unionFieldYAML struct {
	FieldName          string `yaml:"fieldName"`
	DiscriminatorValue string `yaml:"discriminatorValue"`
}

// FromYAML deserializes the authoring format into a Schema.
func FromYAML(data []byte) (*Schema, error) {
	var raw schemaYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing schema: %w", err)
	}
	s := &Schema{}
	for i := range raw.Types {
		a, err := raw.Types[i].AtomYAML.toAtom()
		if err != nil {
			return nil, fmt.Errorf("type %q: %w", raw.Types[i].Name, err)
		}
		s.Types = append(s.Types, TypeDef{Name: raw.Types[i].Name, Atom: a})
	}
	// The untyped placeholders cannot be expressed in the authoring format
	// (their atoms carry several variants at once), so provide them to any
	// schema that does not define the names itself.
	defined := map[string]bool{}
	for i := range s.Types {
		defined[s.Types[i].Name] = true
	}
	for _, td := range DeducedDefs() {
		if !defined[td.Name] {
			s.Types = append(s.Types, td)
		}
	}
	return s, nil
}

func (a *AtomYAML) toAtom() (Atom, error) {
	set := 0
	res := Atom{}
	if a.Scalar != nil {
		sc := Scalar(*a.Scalar)
		switch sc {
		case Numeric, String, Boolean, Untyped:
		default:
			return Atom{}, fmt.Errorf("unknown scalar kind %q", sc)
		}
		res.Scalar = &sc
		set++
	}
	if a.List != nil {
		l, err := a.List.toList()
		if err != nil {
			return Atom{}, err
		}
		res.List = l
		set++
	}
	if a.Map != nil {
		m, err := a.Map.toMap()
		if err != nil {
			return Atom{}, err
		}
		res.Map = m
		set++
	}
	if set > 1 {
		return Atom{}, fmt.Errorf("atom declares more than one of scalar, list, map")
	}
	return res, nil
}

func (l *listYAML) toList() (*List, error) {
	et, err := l.ElementType.toTypeRef()
	if err != nil {
		return nil, err
	}
	rel, err := listRelationship(l.ElementRelationship)
	if err != nil {
		return nil, err
	}
	return &List{ElementType: et, ElementRelationship: rel, Keys: l.Keys}, nil
}

func (m *mapYAML) toMap() (*Map, error) {
	res := &Map{}
	for i := range m.Fields {
		tr, err := m.Fields[i].Type.toTypeRef()
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", m.Fields[i].Name, err)
		}
		sf := StructField{Name: m.Fields[i].Name, Type: tr}
		if m.Fields[i].Default != nil {
			d, err := value.FromNative(m.Fields[i].Default)
			if err != nil {
				return nil, fmt.Errorf("field %q default: %w", m.Fields[i].Name, err)
			}
			sf.Default = d
		}
		res.Fields = append(res.Fields, sf)
	}
	if m.ElementType != nil {
		et, err := m.ElementType.toTypeRef()
		if err != nil {
			return nil, err
		}
		res.ElementType = et
	}
	rel, err := mapRelationship(m.ElementRelationship)
	if err != nil {
		return nil, err
	}
	res.ElementRelationship = rel
	for i := range m.Unions {
		u := Union{Discriminator: m.Unions[i].Discriminator}
		for j := range m.Unions[i].Fields {
			u.Fields = append(u.Fields, UnionField{
				FieldName:          m.Unions[i].Fields[j].FieldName,
				DiscriminatorValue: m.Unions[i].Fields[j].DiscriminatorValue,
			})
		}
		res.Unions = append(res.Unions, u)
	}
	return res, nil
}

func (tr *typeRefYAML) toTypeRef() (TypeRef, error) {
	res := TypeRef{NamedType: tr.NamedType}
	if tr.ElementRelationship != nil {
		rel := ElementRelationship(*tr.ElementRelationship)
		switch rel {
		case Atomic, Associative, Separable:
		default:
			return TypeRef{}, fmt.Errorf("unknown element relationship %q", rel)
		}
		res.ElementRelationship = &rel
	}
	if tr.NamedType == nil {
		a, err := tr.AtomYAML.toAtom()
		if err != nil {
			return TypeRef{}, err
		}
		res.Inline = a
	}
	return res, nil
}

func listRelationship(s string) (ElementRelationship, error) {
	switch ElementRelationship(s) {
	case Atomic:
		return Atomic, nil
	case Associative:
		return Associative, nil
	case "":
		// lists must say what they are
		return "", fmt.Errorf("list must declare an elementRelationship (atomic or associative)")
	}
	return "", fmt.Errorf("unknown list element relationship %q", s)
}

func mapRelationship(s string) (ElementRelationship, error) {
	switch ElementRelationship(s) {
	case Atomic:
		return Atomic, nil
	case Separable, "":
		return Separable, nil
	}
	return "", fmt.Errorf("unknown map element relationship %q", s)
}
