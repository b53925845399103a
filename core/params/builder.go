package params

// CollectionBuilder provides a fluent API for declaring a collection
type CollectionBuilder struct {
	specs Collection
}

// NewCollection creates a new collection builder
func NewCollection() *CollectionBuilder {
	return &CollectionBuilder{}
}

// Param starts a new parameter and returns its builder
func (b *CollectionBuilder) Param(name string) *SpecBuilder {
	return &SpecBuilder{
		collection: b,
		spec:       Spec{Name: name},
	}
}

// Build returns the collection as declared so far, without validating it
func (b *CollectionBuilder) Build() Collection {
	out := make(Collection, len(b.specs))
	for i, s := range b.specs {
		out[i] = cloneSpec(s)
	}
	return out
}

// Validated implements Source.
func (b *CollectionBuilder) Validated() (*ValidatedCollection, error) {
	return Validate(b.Build())
}

// SpecBuilder provides a fluent API for one parameter
type SpecBuilder struct {
	collection *CollectionBuilder
	spec       Spec
}

// Alias adds alternative tokens
func (sb *SpecBuilder) Alias(aliases ...string) *SpecBuilder {
	sb.spec.Aliases = append(sb.spec.Aliases, aliases...)
	return sb
}

// String sets the kind to string
func (sb *SpecBuilder) String() *SpecBuilder {
	sb.spec.Kind = KindString
	return sb
}

// Number sets the kind to number
func (sb *SpecBuilder) Number() *SpecBuilder {
	sb.spec.Kind = KindNumber
	return sb
}

// Boolean sets the kind to boolean
func (sb *SpecBuilder) Boolean() *SpecBuilder {
	sb.spec.Kind = KindBoolean
	return sb
}

// Required marks the parameter as required
func (sb *SpecBuilder) Required() *SpecBuilder {
	sb.spec.Required = true
	return sb
}

// Optional marks the parameter as optional
func (sb *SpecBuilder) Optional() *SpecBuilder {
	sb.spec.Required = false
	return sb
}

// Default sets the value used when the parameter is not supplied.
// Has default = optional.
func (sb *SpecBuilder) Default(val any) *SpecBuilder {
	sb.spec.Default = val
	sb.spec.Required = false
	return sb
}

// Description sets the help text
func (sb *SpecBuilder) Description(desc string) *SpecBuilder {
	sb.spec.Description = desc
	return sb
}

// Done finishes this parameter and returns to the collection builder
func (sb *SpecBuilder) Done() *CollectionBuilder {
	sb.collection.specs = append(sb.collection.specs, sb.spec)
	return sb.collection
}
