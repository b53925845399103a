package types

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
)

func TestValidateObjectSuccess(t *testing.T) {
	schema := ObjectSchema{
		"config": String(),
		"port":   Optional(Number()),
		"mode":   Literal("fast", "slow"),
	}
	obj := map[string]any{"config": "cfg.json", "mode": "slow"}

	res := ValidateObject(obj, schema)

	assert.True(t, res.OK)
	assert.Empty(t, res.Diagnostics)
	assert.Equal(t, obj, res.Value)
}

func TestValidateObjectAccumulatesEveryError(t *testing.T) {
	schema := ObjectSchema{
		"config": String(),
		"out":    String(),
		"port":   Number(),
		"mode":   Literal("fast", "slow"),
	}
	obj := map[string]any{
		"confg": "x",
		"port":  "80",
		"mode":  "medium",
	}

	res := ValidateObject(obj, schema)

	want := []string{
		`Unrecognized key "confg". Did you mean "config"?`,
		`Missing key "config".`,
		`Missing key "out".`,
		`Invalid value in key "mode": expected "fast" | "slow", received "medium".`,
		`Invalid value in key "port": expected number, received string.`,
	}
	assert.False(t, res.OK)
	if diff := cmp.Diff(want, res.Errors()); diff != "" {
		t.Errorf("errors mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, argerrors.UnrecognizedKey, res.Diagnostics[0].Kind)
	assert.Equal(t, argerrors.MissingKey, res.Diagnostics[1].Kind)
	assert.Equal(t, argerrors.InvalidValue, res.Diagnostics[4].Kind)
	assert.Equal(t, "port", res.Diagnostics[4].Subject)
}

func TestValidateObjectSkipsUnrecognizedKeys(t *testing.T) {
	res := ValidateObject(map[string]any{"extra": 42}, ObjectSchema{})

	assert.Equal(t, []string{`Unrecognized key "extra".`}, res.Errors())
}

func TestValidateObjectDoesNotModifyInput(t *testing.T) {
	obj := map[string]any{"a": 1}
	ValidateObject(obj, ObjectSchema{"b": String()})

	assert.Equal(t, map[string]any{"a": 1}, obj)
}

func TestValidateObjectNilValueForOptionalField(t *testing.T) {
	res := ValidateObject(map[string]any{"dialect": nil}, ObjectSchema{"dialect": Optional(String())})
	assert.True(t, res.OK)

	res = ValidateObject(map[string]any{"dialect": nil}, ObjectSchema{"dialect": String()})
	assert.Equal(t, []string{`Invalid value in key "dialect": expected string, received null.`}, res.Errors())
}

func TestSuggest(t *testing.T) {
	known := []string{"config", "custom", "out", "schema"}

	assert.Equal(t, "config", Suggest("confg", known))
	assert.Equal(t, "schema", Suggest("schemaa", known))
	assert.Equal(t, "", Suggest("zzz", known))
}
