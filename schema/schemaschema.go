package schema

import "sync"

// schemaSchemaYAML describes the authoring format in the authoring format
// itself, so authored schema documents can be validated before they are
// deserialized.
const schemaSchemaYAML = `types:
- name: schema
  map:
    fields:
    - name: types
      type:
        list:
          elementType:
            namedType: typeDef
          elementRelationship: associative
          keys:
          - name
- name: typeDef
  map:
    fields:
    - name: name
      type:
        scalar: string
    - name: scalar
      type:
        scalar: string
    - name: map
      type:
        namedType: map
    - name: list
      type:
        namedType: list
- name: typeRef
  map:
    fields:
    - name: namedType
      type:
        scalar: string
    - name: scalar
      type:
        scalar: string
    - name: map
      type:
        namedType: map
    - name: list
      type:
        namedType: list
    - name: elementRelationship
      type:
        scalar: string
- name: map
  map:
    fields:
    - name: fields
      type:
        list:
          elementType:
            namedType: structField
          elementRelationship: associative
          keys:
          - name
    - name: elementType
      type:
        namedType: typeRef
    - name: elementRelationship
      type:
        scalar: string
    - name: unions
      type:
        list:
          elementType:
            namedType: union
          elementRelationship: atomic
- name: structField
  map:
    fields:
    - name: name
      type:
        scalar: string
    - name: type
      type:
        namedType: typeRef
    - name: default
      type:
        namedType: __untyped_atomic_
- name: list
  map:
    fields:
    - name: elementType
      type:
        namedType: typeRef
    - name: elementRelationship
      type:
        scalar: string
    - name: keys
      type:
        list:
          elementType:
            scalar: string
          elementRelationship: atomic
- name: union
  map:
    fields:
    - name: discriminator
      type:
        scalar: string
    - name: fields
      type:
        list:
          elementType:
            namedType: unionField
          elementRelationship: associative
          keys:
          - fieldName
- name: unionField
  map:
    fields:
    - name: fieldName
      type:
        scalar: string
    - name: discriminatorValue
      type:
        scalar: string
`

var (
	schemaSchemaOnce sync.Once
	schemaSchema     *Schema
)

// SchemaSchema returns the self-describing schema. Its root type is named
// "schema".
func SchemaSchema() *Schema {
	schemaSchemaOnce.Do(func() {
		s, err := FromYAML([]byte(schemaSchemaYAML))
		if err != nil {
			panic("builtin schema schema failed to parse: " + err.Error())
		}
		schemaSchema = s
	})
	return schemaSchema
}
