// Package schemaconv builds a merge schema from an OpenAPI document.
//
// The converter consumes the document as a generic value tree so it can
// work from either JSON or YAML input, and it keeps going on problems:
// a definition that cannot be converted is reported with its path and
// replaced by the deduced placeholder, so one bad type never sinks the
// whole catalog.
package schemaconv

import (
	"fmt"
	"strings"

	"github.com/applyops/structmerge/schema"
	"github.com/applyops/structmerge/value"
)

const (
	extListType              = "x-kubernetes-list-type"
	extListMapKeys           = "x-kubernetes-list-map-keys"
	extMapType               = "x-kubernetes-map-type"
	extPreserveUnknownFields = "x-kubernetes-preserve-unknown-fields"
	extEmbeddedResource      = "x-kubernetes-embedded-resource"
	extIntOrString           = "x-kubernetes-int-or-string"
	extUnions                = "x-kubernetes-unions"
)

// FromOpenAPI converts the definitions of a parsed OpenAPI document into
// a schema. Both the v2 "definitions" and v3 "components.schemas"
// layouts are accepted. Errors are per-definition and non-fatal.
func FromOpenAPI(doc *value.Value) (*schema.Schema, []error) {
	c := &converter{}
	defs := c.definitions(doc)
	if defs == nil {
		return nil, c.errs
	}
	out := &schema.Schema{}
	for i := range defs.Pairs {
		name, def := defs.Pairs[i].Key, defs.Pairs[i].Val
		atom := c.atom(name, def)
		out.Types = append(out.Types, schema.TypeDef{Name: name, Atom: atom})
	}
	out.Types = append(out.Types, schema.DeducedDefs()...)
	return out, c.errs
}

type converter struct {
	errs []error
}

func (c *converter) errorf(path, format string, args ...any) {
	c.errs = append(c.errs, fmt.Errorf("%s: %s", path, fmt.Sprintf(format, args...)))
}

func (c *converter) definitions(doc *value.Value) *value.Map {
	if doc == nil || doc.Kind != value.MapKind {
		c.errs = append(c.errs, fmt.Errorf("document is not an object"))
		return nil
	}
	if defs, ok := doc.Map.Get("definitions"); ok && defs.Kind == value.MapKind {
		return defs.Map
	}
	if comps, ok := doc.Map.Get("components"); ok && comps.Kind == value.MapKind {
		if schemas, ok := comps.Map.Get("schemas"); ok && schemas.Kind == value.MapKind {
			return schemas.Map
		}
	}
	c.errs = append(c.errs, fmt.Errorf("document has no definitions or components.schemas"))
	return nil
}

// atom converts one schema object into an Atom. Conversion failures fall
// back to the deduced placeholder so the rest of the document survives.
func (c *converter) atom(path string, def *value.Value) schema.Atom {
	tr := c.typeRef(path, def)
	if tr.Inline != (schema.Atom{}) {
		return tr.Inline
	}
	if tr.NamedType != nil {
		// a definition that is just a $ref cannot be expressed as an
		// atom of its own; callers should reference the target directly
		c.errorf(path, "definition aliases %q, aliases are not supported", *tr.NamedType)
	}
	return deducedAtom()
}

// typeRef converts a schema object appearing in field position, where a
// $ref or an anonymous inline type are both legal.
func (c *converter) typeRef(path string, def *value.Value) schema.TypeRef {
	if def == nil || def.Kind != value.MapKind {
		c.errorf(path, "schema object is not an object")
		return schema.DeducedRef()
	}
	m := def.Map
	if ref, ok := m.Get("$ref"); ok {
		if ref.Kind != value.StringKind {
			c.errorf(path, "$ref is not a string")
			return schema.DeducedRef()
		}
		name := refName(ref.Str)
		if name == "" {
			c.errorf(path, "unsupported $ref %q", ref.Str)
			return schema.DeducedRef()
		}
		return schema.TypeRef{NamedType: &name}
	}
	if truthy(m, extIntOrString) {
		return inlineRef(schema.Atom{Scalar: scalarPtr(schema.String)})
	}
	if (truthy(m, extPreserveUnknownFields) || truthy(m, extEmbeddedResource)) && !hasKey(m, "properties") {
		return schema.DeducedRef()
	}

	switch typeName(m) {
	case "boolean":
		return inlineRef(schema.Atom{Scalar: scalarPtr(schema.Boolean)})
	case "integer", "number":
		return inlineRef(schema.Atom{Scalar: scalarPtr(schema.Numeric)})
	case "string":
		return inlineRef(schema.Atom{Scalar: scalarPtr(schema.String)})
	case "array":
		return inlineRef(schema.Atom{List: c.list(path, m)})
	case "object", "":
		return inlineRef(schema.Atom{Map: c.mapAtom(path, m)})
	default:
		c.errorf(path, "unknown type %q", typeName(m))
		return schema.DeducedRef()
	}
}

func (c *converter) list(path string, m *value.Map) *schema.List {
	out := &schema.List{
		ElementType:         schema.DeducedRef(),
		ElementRelationship: schema.Atomic,
	}
	if items, ok := m.Get("items"); ok {
		out.ElementType = c.typeRef(path+".items", items)
	}
	listType := stringKey(m, extListType)
	switch listType {
	case "", "atomic":
		out.ElementRelationship = schema.Atomic
	case "set":
		out.ElementRelationship = schema.Associative
	case "map":
		out.ElementRelationship = schema.Associative
		keys, ok := m.Get(extListMapKeys)
		if !ok || keys.Kind != value.ListKind || len(keys.Items) == 0 {
			c.errorf(path, "list-type map requires %s", extListMapKeys)
			break
		}
		for _, k := range keys.Items {
			if k.Kind != value.StringKind {
				c.errorf(path, "%s entries must be strings", extListMapKeys)
				continue
			}
			out.Keys = append(out.Keys, k.Str)
		}
	default:
		c.errorf(path, "unknown %s %q", extListType, listType)
	}
	return out
}

func (c *converter) mapAtom(path string, m *value.Map) *schema.Map {
	out := &schema.Map{ElementRelationship: schema.Separable}
	if props, ok := m.Get("properties"); ok && props.Kind == value.MapKind {
		for i := range props.Map.Pairs {
			name, prop := props.Map.Pairs[i].Key, props.Map.Pairs[i].Val
			field := schema.StructField{
				Name: name,
				Type: c.typeRef(path+"."+name, prop),
			}
			if prop != nil && prop.Kind == value.MapKind {
				if def, ok := prop.Map.Get("default"); ok {
					field.Default = def.Copy()
				}
			}
			out.Fields = append(out.Fields, field)
		}
	}
	if ap, ok := m.Get("additionalProperties"); ok {
		switch {
		case ap.Kind == value.BoolKind && ap.Bool:
			out.ElementType = schema.DeducedRef()
		case ap.Kind == value.MapKind:
			out.ElementType = c.typeRef(path+".additionalProperties", ap)
		}
	} else if len(out.Fields) == 0 && (truthy(m, extPreserveUnknownFields) || truthy(m, extEmbeddedResource)) {
		out.ElementType = schema.DeducedRef()
	}
	if unions, ok := m.Get(extUnions); ok {
		out.Unions = c.unions(path, unions)
	}
	switch mapType := stringKey(m, extMapType); mapType {
	case "", "granular":
	case "atomic":
		out.ElementRelationship = schema.Atomic
	default:
		c.errorf(path, "unknown %s %q", extMapType, mapType)
	}
	return out
}

func (c *converter) unions(path string, v *value.Value) []schema.Union {
	if v.Kind != value.ListKind {
		c.errorf(path, "%s is not a list", extUnions)
		return nil
	}
	var out []schema.Union
	for i, entry := range v.Items {
		if entry == nil || entry.Kind != value.MapKind {
			c.errorf(path, "%s[%d] is not an object", extUnions, i)
			continue
		}
		u := schema.Union{Discriminator: stringKey(entry.Map, "discriminator")}
		if fields, ok := entry.Map.Get("fields-to-discriminateBy"); ok {
			if fields.Kind != value.MapKind {
				c.errorf(path, "%s[%d] fields-to-discriminateBy is not an object", extUnions, i)
				continue
			}
			for j := range fields.Map.Pairs {
				name, dv := fields.Map.Pairs[j].Key, fields.Map.Pairs[j].Val
				if dv == nil || dv.Kind != value.StringKind {
					c.errorf(path, "%s[%d] discriminated value for %q is not a string", extUnions, i, name)
					continue
				}
				u.Fields = append(u.Fields, schema.UnionField{
					FieldName:          name,
					DiscriminatorValue: dv.Str,
				})
			}
		}
		out = append(out, u)
	}
	return out
}

func deducedAtom() schema.Atom {
	return schema.Atom{Map: &schema.Map{
		ElementType:         schema.DeducedRef(),
		ElementRelationship: schema.Separable,
	}}
}

func inlineRef(a schema.Atom) schema.TypeRef {
	return schema.TypeRef{Inline: a}
}

func scalarPtr(s schema.Scalar) *schema.Scalar {
	return &s
}

func refName(ref string) string {
	for _, prefix := range []string{"#/definitions/", "#/components/schemas/"} {
		if strings.HasPrefix(ref, prefix) {
			return strings.TrimPrefix(ref, prefix)
		}
	}
	return ""
}

func typeName(m *value.Map) string {
	return stringKey(m, "type")
}

func stringKey(m *value.Map, key string) string {
	if v, ok := m.Get(key); ok && v.Kind == value.StringKind {
		return v.Str
	}
	return ""
}

func truthy(m *value.Map, key string) bool {
	v, ok := m.Get(key)
	return ok && v.Kind == value.BoolKind && v.Bool
}

func hasKey(m *value.Map, key string) bool {
	_, ok := m.Get(key)
	return ok
}
