package types

import (
	"sort"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
)

// Result is the outcome of validating one object against one schema.
type Result struct {
	OK          bool
	Value       map[string]any
	Diagnostics []argerrors.Diagnostic
}

// Errors returns the diagnostic messages in reporting order.
func (r Result) Errors() []string {
	out := make([]string, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		out[i] = d.Message
	}
	return out
}

// ValidateObject validates obj against schema and accumulates every problem:
// unrecognized keys first, then missing required keys, then invalid values.
// Unrecognized keys are not type checked. obj is never modified.
func ValidateObject(obj map[string]any, schema ObjectSchema) Result {
	var diags []argerrors.Diagnostic

	objKeys := make([]string, 0, len(obj))
	for k := range obj {
		objKeys = append(objKeys, k)
	}
	sort.Strings(objKeys)

	schemaKeys := schema.Keys()
	var known []string
	for _, key := range objKeys {
		if _, ok := schema[key]; !ok {
			diags = append(diags, argerrors.UnrecognizedKeyDiagnostic(key, Suggest(key, schemaKeys)))
			continue
		}
		known = append(known, key)
	}

	for _, key := range schemaKeys {
		if _, ok := obj[key]; !ok && !schema[key].Optional {
			diags = append(diags, argerrors.MissingKeyDiagnostic(key))
		}
	}

	for _, key := range known {
		def := schema[key]
		value := obj[key]
		if ValidateValue(value, def) {
			continue
		}
		received := runtimeKind(value)
		if def.Kind == KindLiteral && isPrimitiveValue(value) {
			received = formatLiteral(value)
		}
		diags = append(diags, argerrors.InvalidValueDiagnostic(key, def.Expected(), received))
	}

	if len(diags) > 0 {
		return Result{Diagnostics: diags}
	}
	return Result{OK: true, Value: obj}
}
