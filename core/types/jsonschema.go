package types

import (
	"encoding/json"
)

// draft2020 is the JSON Schema dialect argmerge emits.
const draft2020 = "https://json-schema.org/draft/2020-12/schema"

// JSONSchema represents a JSON Schema Draft 2020-12 document
type JSONSchema map[string]any

// ToJSONSchema converts a TypeDefinition to JSON Schema format
func (d TypeDefinition) ToJSONSchema() JSONSchema {
	schema := make(JSONSchema)
	switch d.Kind {
	case KindLiteral:
		values := make([]any, len(d.Values))
		copy(values, d.Values)
		schema["enum"] = values
	default:
		schema["type"] = string(d.Kind)
	}
	return schema
}

// ToJSONSchema converts an ObjectSchema to a closed JSON Schema object:
// optional fields are left out of "required" and unknown keys are rejected.
func (s ObjectSchema) ToJSONSchema() JSONSchema {
	properties := make(map[string]any, len(s))
	required := []string{}
	for _, key := range s.Keys() {
		def := s[key]
		properties[key] = def.ToJSONSchema()
		if !def.Optional {
			required = append(required, key)
		}
	}

	schema := JSONSchema{
		"type":                 "object",
		"properties":           properties,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// ToJSONSchema converts the alternatives, each extended with the shared
// fields, into a single document accepting any of them.
func (s Schemas) ToJSONSchema() JSONSchema {
	candidates := s.Effective()
	anyOf := make([]any, len(candidates))
	for i, schema := range candidates {
		anyOf[i] = schema.ToJSONSchema()
	}

	if len(anyOf) == 0 {
		// anyOf must not be empty; a schema with no candidates accepts nothing.
		return JSONSchema{"$schema": draft2020, "not": JSONSchema{}}
	}
	return JSONSchema{
		"$schema": draft2020,
		"anyOf":   anyOf,
	}
}

// ToJSON serializes the JSON Schema to JSON bytes
func (j JSONSchema) ToJSON() ([]byte, error) {
	return json.MarshalIndent(j, "", "  ")
}
