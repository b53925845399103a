// Package errors defines the failure kinds reported by argmerge.
//
// Every failure surfaces as a single *Error whose message is the newline-joined
// list of its diagnostics. Callers that need to branch on the category use
// IsKind or KindOf instead of matching message prefixes; each Diagnostic also
// carries its own kind and subject.
package errors

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is the category of an aggregated failure.
type Kind string

const (
	// Schema authoring errors
	SchemaConflict Kind = "SCHEMA_CONFLICT"
	InvalidSchema  Kind = "INVALID_SCHEMA"

	// User input errors
	CliParse        Kind = "CLI_PARSE_ERROR"
	NoSchemaMatched Kind = "NO_SCHEMA_MATCHED"

	// Caller configuration errors
	MergeConflict Kind = "MERGE_CONFLICT"
	ConfigLoad    Kind = "CONFIG_LOAD_ERROR"
)

// DiagnosticKind is the category of a single problem inside an aggregated failure.
type DiagnosticKind string

const (
	DuplicateToken           DiagnosticKind = "DuplicateToken"
	MalformedSpec            DiagnosticKind = "MalformedSpec"
	DuplicateParameter       DiagnosticKind = "DuplicateParameter"
	MissingRequiredParameter DiagnosticKind = "MissingRequiredParameter"
	TypeMismatch             DiagnosticKind = "TypeMismatch"
	UnrecognizedKey          DiagnosticKind = "UnrecognizedKey"
	MissingKey               DiagnosticKind = "MissingKey"
	InvalidValue             DiagnosticKind = "InvalidValue"
	OverlappingKeys          DiagnosticKind = "OverlappingKeys"
	CandidateShapes          DiagnosticKind = "CandidateShapes"
	LoaderFailure            DiagnosticKind = "LoaderFailure"
)

// Diagnostic is one human-readable problem.
type Diagnostic struct {
	Kind    DiagnosticKind
	Subject string // parameter, alias or key the diagnostic is about
	Message string
}

func (d Diagnostic) String() string {
	return d.Message
}

// Error is an aggregated failure carrying every diagnostic found in one pass.
type Error struct {
	Kind        Kind
	Diagnostics []Diagnostic
	Cause       error
	Context     map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	lines := make([]string, 0, len(e.Diagnostics))
	for _, d := range e.Diagnostics {
		lines = append(lines, d.Message)
	}
	if len(lines) == 0 {
		if e.Cause != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
		}
		return string(e.Kind)
	}
	return strings.Join(lines, "\n")
}

// Unwrap allows error unwrapping
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates an Error of the given kind from diagnostics.
func New(kind Kind, diagnostics ...Diagnostic) *Error {
	return &Error{
		Kind:        kind,
		Diagnostics: diagnostics,
		Context:     make(map[string]interface{}),
	}
}

// Wrap creates an Error of the given kind wrapping an existing error.
func Wrap(kind Kind, cause error, diagnostics ...Diagnostic) *Error {
	e := New(kind, diagnostics...)
	e.Cause = cause
	return e
}

// WithContext adds context information to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	e.Context[key] = value
	return e
}

// GetContext returns context value by key
func (e *Error) GetContext(key string) (interface{}, bool) {
	value, exists := e.Context[key]
	return value, exists
}

// ByKind returns the diagnostics of the given kind, in reporting order.
func (e *Error) ByKind(kind DiagnosticKind) []Diagnostic {
	var out []Diagnostic
	for _, d := range e.Diagnostics {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

// Has reports whether any diagnostic has the given kind.
func (e *Error) Has(kind DiagnosticKind) bool {
	return len(e.ByKind(kind)) > 0
}

// IsKind reports whether err, or any error joined or wrapped inside it, is an
// *Error of the given kind.
func IsKind(err error, kind Kind) bool {
	found := false
	walk(err, func(e *Error) bool {
		if e.Kind == kind {
			found = true
			return false
		}
		return true
	})
	return found
}

// KindOf returns the kind of the first *Error found in err's tree, or "" if none.
func KindOf(err error) Kind {
	var kind Kind
	walk(err, func(e *Error) bool {
		kind = e.Kind
		return false
	})
	return kind
}

// All returns every *Error in err's tree, depth first.
func All(err error) []*Error {
	var out []*Error
	walk(err, func(e *Error) bool {
		out = append(out, e)
		return true
	})
	return out
}

// walk visits every *Error reachable from err until visit returns false.
func walk(err error, visit func(*Error) bool) bool {
	if err == nil {
		return true
	}
	if e, ok := err.(*Error); ok {
		if !visit(e) {
			return false
		}
		return walk(e.Cause, visit)
	}
	switch u := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range u.Unwrap() {
			if !walk(inner, visit) {
				return false
			}
		}
		return true
	case interface{ Unwrap() error }:
		return walk(u.Unwrap(), visit)
	}
	return true
}

// Helper functions for the diagnostics argmerge reports

// NewDuplicateTokens reports name/alias tokens declared more than once in a collection.
func NewDuplicateTokens(tokens []string) *Error {
	msg := fmt.Sprintf("Invalid CLI parameter schemas: duplicate aliases: %s.", strings.Join(tokens, ", "))
	diag := Diagnostic{Kind: DuplicateToken, Subject: strings.Join(tokens, ","), Message: msg}
	return New(SchemaConflict, diag).WithContext("tokens", tokens)
}

// MalformedSpecDiagnostic describes a spec that cannot be used for parsing.
func MalformedSpecDiagnostic(name, reason string) Diagnostic {
	return Diagnostic{
		Kind:    MalformedSpec,
		Subject: name,
		Message: fmt.Sprintf("Invalid CLI parameter schema %q: %s.", name, reason),
	}
}

// DuplicateParameterDiagnostic reports a parameter supplied more than once.
func DuplicateParameterDiagnostic(name string, aliases []string) Diagnostic {
	return Diagnostic{
		Kind:    DuplicateParameter,
		Subject: name,
		Message: fmt.Sprintf("CLI duplicate param error: found multiple instances of param %s: %s.",
			name, strings.Join(aliases, ", ")),
	}
}

// TypeMismatchDiagnostic reports a flag whose value could not be coerced.
// received is nil when the flag was the last token.
func TypeMismatchDiagnostic(alias, expected string, received *string) Diagnostic {
	got := "nothing"
	if received != nil {
		got = fmt.Sprintf("%q", *received)
	}
	return Diagnostic{
		Kind:    TypeMismatch,
		Subject: alias,
		Message: fmt.Sprintf("CLI param type error: invalid type on param %s: expected %s, received %s.",
			alias, expected, got),
	}
}

// MissingParameterDiagnostic reports a required parameter absent from argv.
func MissingParameterDiagnostic(name string) Diagnostic {
	return Diagnostic{
		Kind:    MissingRequiredParameter,
		Subject: name,
		Message: fmt.Sprintf("CLI missing param error: required parameter %s is missing.", name),
	}
}

// UnrecognizedKeyDiagnostic reports an object key the schema does not declare.
func UnrecognizedKeyDiagnostic(key, suggestion string) Diagnostic {
	msg := fmt.Sprintf("Unrecognized key %q.", key)
	if suggestion != "" {
		msg += fmt.Sprintf(" Did you mean %q?", suggestion)
	}
	return Diagnostic{Kind: UnrecognizedKey, Subject: key, Message: msg}
}

// MissingKeyDiagnostic reports a required schema key absent from the object.
func MissingKeyDiagnostic(key string) Diagnostic {
	return Diagnostic{Kind: MissingKey, Subject: key, Message: fmt.Sprintf("Missing key %q.", key)}
}

// InvalidValueDiagnostic reports a value that does not satisfy its type definition.
func InvalidValueDiagnostic(key, expected, received string) Diagnostic {
	return Diagnostic{
		Kind:    InvalidValue,
		Subject: key,
		Message: fmt.Sprintf("Invalid value in key %q: expected %s, received %s.", key, expected, received),
	}
}

// NewMergeConflict reports keys provided by both the CLI and the config loader.
func NewMergeConflict(keys []string) *Error {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	msg := fmt.Sprintf("Following parameters have been provided both in CLI and config: %s.", strings.Join(sorted, ", "))
	diag := Diagnostic{Kind: OverlappingKeys, Subject: strings.Join(sorted, ","), Message: msg}
	return New(MergeConflict, diag).WithContext("keys", sorted)
}

// NewNoSchemaMatched reports an object that matched none of the candidate shapes.
func NewNoSchemaMatched(report string) *Error {
	return New(NoSchemaMatched, Diagnostic{Kind: CandidateShapes, Message: report})
}

// NewConfigLoadError wraps a failure returned by a config loader.
func NewConfigLoadError(source string, cause error) *Error {
	diag := Diagnostic{
		Kind:    LoaderFailure,
		Subject: source,
		Message: fmt.Sprintf("Config loader %s failed: %v", source, cause),
	}
	return Wrap(ConfigLoad, cause, diag)
}
