package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
)

// Validator validates documents against compiled JSON Schemas.
//
// It complements ValidateMulti: where ValidateMulti reports only candidate
// shapes, a compiled schema explains every failing keyword of every branch.
type Validator struct {
	config *ValidationConfig
	cache  *schemaCache
}

// NewValidator creates a new validator with given config
func NewValidator(config *ValidationConfig) *Validator {
	if config == nil {
		config = DefaultValidationConfig()
	}

	var cache *schemaCache
	if config.EnableCache {
		cache = newSchemaCache(config.MaxCacheSize)
	}

	return &Validator{
		config: config,
		cache:  cache,
	}
}

// Validate checks value against schema. Violations come back as a
// NoSchemaMatched error with one InvalidValue diagnostic per failing keyword.
func (v *Validator) Validate(schema JSONSchema, value any) error {
	schemaBytes, err := json.Marshal(schema)
	if err != nil {
		return fmt.Errorf("schema marshal failed: %w", err)
	}
	if len(schemaBytes) > v.config.MaxSchemaSize {
		return fmt.Errorf("schema too large: %d bytes (max: %d)",
			len(schemaBytes), v.config.MaxSchemaSize)
	}

	if depth := measureDepth(map[string]any(schema), 0); depth > v.config.MaxSchemaDepth {
		return fmt.Errorf("schema too deep: %d levels (max: %d)",
			depth, v.config.MaxSchemaDepth)
	}

	compiled, err := v.getCompiled(schema, schemaBytes)
	if err != nil {
		return fmt.Errorf("schema compilation failed: %w", err)
	}

	doc, err := normalizeDocument(value)
	if err != nil {
		return fmt.Errorf("document is not JSON compatible: %w", err)
	}

	if err := compiled.Validate(doc); err != nil {
		return convertValidationError(err)
	}
	return nil
}

// getCompiled returns the cached compiled schema or compiles and caches it
func (v *Validator) getCompiled(schema JSONSchema, schemaBytes []byte) (*jsonschema.Schema, error) {
	key, err := hashSchema(schema)
	if err != nil {
		return nil, err
	}

	if v.cache != nil {
		if compiled, ok := v.cache.get(key); ok {
			return compiled, nil
		}
	}

	compiled, err := v.compile(schemaBytes)
	if err != nil {
		return nil, err
	}

	if v.cache != nil {
		v.cache.put(key, compiled)
	}
	return compiled, nil
}

func (v *Validator) compile(schemaBytes []byte) (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = v.config.AssertFormat
	compiler.LoadURL = v.secureLoader()

	url := "schema://main.json"
	if err := compiler.AddResource(url, bytes.NewReader(schemaBytes)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
}

// secureLoader only lets $ref load from the configured schemes
func (v *Validator) secureLoader() func(string) (io.ReadCloser, error) {
	return func(url string) (io.ReadCloser, error) {
		for _, scheme := range v.config.AllowedSchemes {
			if strings.HasPrefix(url, scheme+"://") || strings.HasPrefix(url, scheme+":") {
				return jsonschema.LoadURL(url)
			}
		}
		return nil, fmt.Errorf("$ref URL scheme not allowed: %s", url)
	}
}

// normalizeDocument round-trips value through JSON so that Go integer types,
// typed maps and structs reach the validator as JSON values.
func normalizeDocument(value any) (any, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// convertValidationError flattens a jsonschema error tree into diagnostics
func convertValidationError(err error) error {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return err
	}

	var diags []argerrors.Diagnostic
	var collect func(*jsonschema.ValidationError)
	collect = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			location := e.InstanceLocation
			if location == "" {
				location = "/"
			}
			diags = append(diags, argerrors.Diagnostic{
				Kind:    argerrors.InvalidValue,
				Subject: location,
				Message: fmt.Sprintf("at %s (%s): %s", location, e.KeywordLocation, e.Message),
			})
			return
		}
		for _, cause := range e.Causes {
			collect(cause)
		}
	}
	collect(ve)

	return argerrors.Wrap(argerrors.NoSchemaMatched, ve, diags...)
}

// measureDepth counts nesting through properties, items and combinators to
// bound the work a hostile schema can cause.
func measureDepth(obj any, currentDepth int) int {
	var m map[string]any
	switch v := obj.(type) {
	case JSONSchema:
		m = map[string]any(v)
	case map[string]any:
		m = v
	default:
		return currentDepth
	}

	maxDepth := currentDepth
	deeper := func(child any) {
		if d := measureDepth(child, currentDepth+1); d > maxDepth {
			maxDepth = d
		}
	}

	switch props := m["properties"].(type) {
	case map[string]any:
		for _, field := range props {
			deeper(field)
		}
	case map[string]JSONSchema:
		for _, field := range props {
			deeper(field)
		}
	}

	if items, ok := m["items"]; ok {
		deeper(items)
	}

	for _, key := range []string{"allOf", "anyOf", "oneOf"} {
		switch arr := m[key].(type) {
		case []any:
			for _, s := range arr {
				deeper(s)
			}
		case []JSONSchema:
			for _, s := range arr {
				deeper(s)
			}
		}
	}

	return maxDepth
}
