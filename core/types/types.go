package types

import (
	"fmt"
	"sort"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
)

// Kind is the declared category of a field value
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindBoolean Kind = "boolean"
	KindLiteral Kind = "literal"
)

// IsPrimitive reports whether the kind is matched by runtime kind alone.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindString, KindNumber, KindBoolean:
		return true
	default:
		return false
	}
}

// ParseKind converts a declared kind name into a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if k.IsPrimitive() || k == KindLiteral {
		return k, nil
	}
	return "", fmt.Errorf("unknown kind %q (want string, number, boolean or literal)", s)
}

// TypeDefinition describes the accepted values of one object field.
//
// Primitive kinds match by runtime kind. KindLiteral matches by membership in
// Values, which must hold at least one string, number or boolean.
type TypeDefinition struct {
	Kind     Kind
	Values   []any
	Optional bool
}

// ObjectSchema maps field names to their type definitions
type ObjectSchema map[string]TypeDefinition

// String returns a required string definition.
func String() TypeDefinition { return TypeDefinition{Kind: KindString} }

// Number returns a required number definition.
func Number() TypeDefinition { return TypeDefinition{Kind: KindNumber} }

// Boolean returns a required boolean definition.
func Boolean() TypeDefinition { return TypeDefinition{Kind: KindBoolean} }

// Literal returns a required definition accepting exactly the given values.
func Literal(values ...any) TypeDefinition {
	return TypeDefinition{Kind: KindLiteral, Values: values}
}

// Optional marks a definition as satisfied by an absent value.
func Optional(def TypeDefinition) TypeDefinition {
	def.Optional = true
	return def
}

// Expected renders what the definition accepts: the kind name, or the literal
// values joined with " | ".
func (d TypeDefinition) Expected() string {
	if d.Kind != KindLiteral {
		return string(d.Kind)
	}
	return formatLiterals(d.Values)
}

// Validate checks that the definition itself is well formed.
func (d TypeDefinition) Validate() error {
	switch {
	case d.Kind.IsPrimitive():
		if len(d.Values) > 0 {
			return fmt.Errorf("kind %s does not take literal values", d.Kind)
		}
	case d.Kind == KindLiteral:
		if len(d.Values) == 0 {
			return fmt.Errorf("literal kind needs at least one value")
		}
		for _, v := range d.Values {
			if !isPrimitiveValue(v) {
				return fmt.Errorf("literal value %v is %s, want string, number or boolean", v, runtimeKind(v))
			}
		}
	default:
		return fmt.Errorf("unknown kind %q", d.Kind)
	}
	return nil
}

// Keys returns the schema's field names in sorted order.
func (s ObjectSchema) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Validate checks every field definition, reporting all malformed fields.
func (s ObjectSchema) Validate() error {
	var diags []argerrors.Diagnostic
	for _, key := range s.Keys() {
		if err := s[key].Validate(); err != nil {
			diags = append(diags, argerrors.Diagnostic{
				Kind:    argerrors.MalformedSpec,
				Subject: key,
				Message: fmt.Sprintf("Invalid object schema field %q: %v.", key, err),
			})
		}
	}
	if len(diags) > 0 {
		return argerrors.New(argerrors.InvalidSchema, diags...)
	}
	return nil
}

// Extend returns a new schema holding base's fields overlaid by s's fields;
// fields of s win on collision. Neither input is modified.
func (s ObjectSchema) Extend(base ObjectSchema) ObjectSchema {
	out := make(ObjectSchema, len(base)+len(s))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range s {
		out[k] = v
	}
	return out
}

// FieldDescription is the expected shape of one schema field.
type FieldDescription struct {
	Key      string
	Expected string
	Optional bool
}

// String renders the field as `key[?]: expected`.
func (f FieldDescription) String() string {
	marker := ""
	if f.Optional {
		marker = "?"
	}
	return fmt.Sprintf("%s%s: %s", f.Key, marker, f.Expected)
}

// Describe lists the expected shape of every field, sorted by key.
func Describe(schema ObjectSchema) []FieldDescription {
	out := make([]FieldDescription, 0, len(schema))
	for _, key := range schema.Keys() {
		def := schema[key]
		out = append(out, FieldDescription{Key: key, Expected: def.Expected(), Optional: def.Optional})
	}
	return out
}
