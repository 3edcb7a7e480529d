package schema

import (
	"github.com/goccy/go-yaml"
)

// ToYAML renders the schema in the authoring format. The untyped
// placeholder definitions are omitted since FromYAML restores them and
// their atoms are inexpressible in the format anyway.
func (s *Schema) ToYAML() ([]byte, error) {
	placeholder := map[string]bool{
		UntypedDeducedName: true,
		UntypedAtomicName:  true,
	}
	out := encSchema{}
	for i := range s.Types {
		td := &s.Types[i]
		if placeholder[td.Name] {
			continue
		}
		out.Types = append(out.Types, encTypeDef{Name: td.Name, EncAtom: encodeAtom(td.Atom)})
	}
	return yaml.Marshal(out)
}

type encSchema struct {
	Types []encTypeDef `yaml:"types"`
}

type encTypeDef struct {
	Name    string `yaml:"name"`
	EncAtom `yaml:",inline"`
}

type EncAtom struct {
	Scalar *string  `yaml:"scalar,omitempty"`
	List   *encList `yaml:"list,omitempty"`
	Map    *encMap  `yaml:"map,omitempty"`
}

type encList struct {
	ElementType         encTypeRef `yaml:"elementType"`
	ElementRelationship string     `yaml:"elementRelationship"`
	Keys                []string   `yaml:"keys,omitempty"`
}

type encMap struct {
	Fields              []encStructField `yaml:"fields,omitempty"`
	ElementType         *encTypeRef      `yaml:"elementType,omitempty"`
	ElementRelationship string           `yaml:"elementRelationship,omitempty"`
}

type encStructField struct {
	Name    string     `yaml:"name"`
	Type    encTypeRef `yaml:"type"`
	Default any        `yaml:"default,omitempty"`
}

type encTypeRef struct {
	NamedType           *string `yaml:"namedType,omitempty"`
	ElementRelationship *string `yaml:"elementRelationship,omitempty"`
	EncAtom             `yaml:",inline"`
}

func encodeAtom(a Atom) EncAtom {
	res := EncAtom{}
	if a.Scalar != nil {
		s := string(*a.Scalar)
		res.Scalar = &s
	}
	if a.List != nil {
		et := encodeTypeRef(a.List.ElementType)
		res.List = &encList{
			ElementType:         et,
			ElementRelationship: string(a.List.ElementRelationship),
			Keys:                a.List.Keys,
		}
	}
	if a.Map != nil {
		m := &encMap{}
		for i := range a.Map.Fields {
			f := &a.Map.Fields[i]
			ef := encStructField{Name: f.Name, Type: encodeTypeRef(f.Type)}
			if f.Default != nil {
				ef.Default = f.Default.ToNative()
			}
			m.Fields = append(m.Fields, ef)
		}
		if a.Map.ElementType != (TypeRef{}) {
			et := encodeTypeRef(a.Map.ElementType)
			m.ElementType = &et
		}
		if a.Map.ElementRelationship != Separable {
			m.ElementRelationship = string(a.Map.ElementRelationship)
		}
		res.Map = m
	}
	return res
}

func encodeTypeRef(tr TypeRef) encTypeRef {
	res := encTypeRef{NamedType: tr.NamedType}
	if tr.ElementRelationship != nil {
		rel := string(*tr.ElementRelationship)
		res.ElementRelationship = &rel
	}
	if tr.NamedType == nil {
		res.EncAtom = encodeAtom(tr.Inline)
	}
	return res
}
