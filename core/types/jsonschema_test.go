package types

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
)

func TestObjectSchemaToJSONSchema(t *testing.T) {
	schema := ObjectSchema{
		"out":    String(),
		"custom": Optional(Boolean()),
		"mode":   Literal("a", "b"),
	}

	want := JSONSchema{
		"type": "object",
		"properties": map[string]any{
			"custom": JSONSchema{"type": "boolean"},
			"mode":   JSONSchema{"enum": []any{"a", "b"}},
			"out":    JSONSchema{"type": "string"},
		},
		"additionalProperties": false,
		"required":             []string{"mode", "out"},
	}

	if diff := cmp.Diff(want, schema.ToJSONSchema()); diff != "" {
		t.Errorf("ToJSONSchema() mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemasToJSONSchemaIsValidJSON(t *testing.T) {
	s := Schemas{
		Alternatives: []ObjectSchema{{"config": Optional(String())}, {"schema": String(), "out": String()}},
		Shared:       ObjectSchema{"custom": Optional(Boolean())},
	}

	b, err := s.ToJSONSchema().ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, draft2020, decoded["$schema"])
	assert.Len(t, decoded["anyOf"], 2)
}

func TestValidatorAcceptsMatchingDocument(t *testing.T) {
	v := NewValidator(nil)
	s := Schemas{
		Alternatives: []ObjectSchema{{"schema": String(), "out": String()}},
		Shared:       ObjectSchema{"custom": Optional(Boolean()), "retries": Optional(Number())},
	}

	err := v.Validate(s.ToJSONSchema(), map[string]any{"schema": "s", "out": "o", "custom": true, "retries": 3})

	assert.NoError(t, err)
}

func TestValidatorExplainsFailures(t *testing.T) {
	v := NewValidator(nil)
	s := Schemas{Alternatives: []ObjectSchema{{"schema": String(), "out": String()}}}

	err := v.Validate(s.ToJSONSchema(), map[string]any{"schema": 1})

	require.Error(t, err)
	assert.True(t, argerrors.IsKind(err, argerrors.NoSchemaMatched))
	all := argerrors.All(err)
	require.NotEmpty(t, all)
	assert.NotEmpty(t, all[0].Diagnostics)
	assert.Contains(t, err.Error(), "schema")
}

func TestValidatorRejectsEverythingWithoutAlternatives(t *testing.T) {
	s := Schemas{Shared: ObjectSchema{"custom": Optional(Boolean())}}

	schema := s.ToJSONSchema()
	err := NewValidator(nil).Validate(schema, map[string]any{"custom": true})

	assert.NotContains(t, schema, "anyOf")
	require.Error(t, err)
	assert.True(t, argerrors.IsKind(err, argerrors.NoSchemaMatched))
}

func TestValidatorCachesCompiledSchemas(t *testing.T) {
	v := NewValidator(nil)
	schema := ObjectSchema{"out": String()}.ToJSONSchema()

	require.NoError(t, v.Validate(schema, map[string]any{"out": "a"}))
	require.NoError(t, v.Validate(schema, map[string]any{"out": "b"}))

	assert.Equal(t, 1, v.cache.len())
}

func TestValidatorDepthLimit(t *testing.T) {
	cfg := DefaultValidationConfig()
	cfg.MaxSchemaDepth = 1
	v := NewValidator(cfg)

	s := Schemas{Alternatives: []ObjectSchema{{"out": String()}}}
	err := v.Validate(s.ToJSONSchema(), map[string]any{"out": "a"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema too deep")
}

func TestValidatorBlocksRemoteRefs(t *testing.T) {
	v := NewValidator(nil)
	schema := JSONSchema{"$ref": "https://example.com/schema.json"}

	err := v.Validate(schema, map[string]any{})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "schema compilation failed")
}

func TestHashSchemaIsStable(t *testing.T) {
	a, err := hashSchema(ObjectSchema{"a": String(), "b": Number()}.ToJSONSchema())
	require.NoError(t, err)
	b, err := hashSchema(ObjectSchema{"b": Number(), "a": String()}.ToJSONSchema())
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
}
