package schema

// Placeholder type names for values whose structure is not declared.
// UntypedDeducedName marks maps whose granularity is deduced from the data;
// schema-change reconciliation leaves them alone.
const (
	UntypedDeducedName = "__untyped_deduced_"
	UntypedAtomicName  = "__untyped_atomic_"
)

// DeducedRef refers to the untyped-deduced placeholder.
func DeducedRef() TypeRef {
	return NamedRef(UntypedDeducedName)
}

// UntypedAtomicRef refers to the untyped-atomic placeholder.
func UntypedAtomicRef() TypeRef {
	return NamedRef(UntypedAtomicName)
}

// DeducedDefs returns the two placeholder type definitions. Schemas that
// reference the placeholders must include these, as the self-describing
// schema and deduced schemas do.
func DeducedDefs() []TypeDef {
	untyped := Untyped
	atomic := Atomic
	return []TypeDef{
		{
			Name: UntypedAtomicName,
			Atom: Atom{
				Scalar: &untyped,
				List: &List{
					ElementType:         NamedRef(UntypedAtomicName),
					ElementRelationship: Atomic,
				},
				Map: &Map{
					ElementType:         NamedRef(UntypedAtomicName),
					ElementRelationship: Atomic,
				},
			},
		},
		{
			Name: UntypedDeducedName,
			Atom: Atom{
				Scalar: &untyped,
				List: &List{
					ElementType:         NamedRef(UntypedAtomicName),
					ElementRelationship: Atomic,
				},
				Map: &Map{
					ElementType: TypeRef{
						NamedType:           strPtr(UntypedDeducedName),
						ElementRelationship: &atomic,
					},
					ElementRelationship: Separable,
				},
			},
		},
	}
}

// DeducedSchema is a schema whose root accepts anything, deducing map
// granularity from the data.
func DeducedSchema() *Schema {
	return &Schema{Types: DeducedDefs()}
}

func strPtr(s string) *string { return &s }
