package types

import (
	"fmt"
	"reflect"
	"strings"
)

// ValidateValue reports whether value satisfies def.
//
// A nil value counts as absent. No coercion happens here: "1" is not a number
// and 1 is not "1".
func ValidateValue(value any, def TypeDefinition) bool {
	if value == nil {
		return def.Optional
	}

	switch def.Kind {
	case KindString, KindNumber, KindBoolean:
		return runtimeKind(value) == string(def.Kind)
	case KindLiteral:
		for _, allowed := range def.Values {
			if literalEqual(value, allowed) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// runtimeKind names the category of a Go value the way schemas name kinds.
func runtimeKind(v any) string {
	if v == nil {
		return "null"
	}
	switch v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if _, ok := toFloat(v); ok {
		return "number"
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Func:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// toFloat converts any Go integer or float to float64.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func isPrimitiveValue(v any) bool {
	switch runtimeKind(v) {
	case "string", "number", "boolean":
		return true
	default:
		return false
	}
}

// literalEqual compares two primitives; numbers compare by value across Go types.
func literalEqual(a, b any) bool {
	if !isPrimitiveValue(a) || !isPrimitiveValue(b) {
		return false
	}
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	return a == b
}

func formatLiteral(v any) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%v", v)
}

func formatLiterals(values []any) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = formatLiteral(v)
	}
	return strings.Join(parts, " | ")
}
