// Package params validates CLI parameter declarations and parses argument
// vectors against them.
//
// A Collection is authored by the caller and must pass Validate before it can
// be parsed; Parse only accepts the *ValidatedCollection that Validate returns.
package params

import (
	"errors"
	"fmt"
	"strings"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
)

// ValueKind is the type a parameter's value is coerced to.
type ValueKind string

const (
	KindString  ValueKind = "string"
	KindNumber  ValueKind = "number"
	KindBoolean ValueKind = "boolean"
)

// ParseValueKind converts a kind name into a ValueKind.
func ParseValueKind(s string) (ValueKind, error) {
	switch k := ValueKind(s); k {
	case KindString, KindNumber, KindBoolean:
		return k, nil
	default:
		return "", fmt.Errorf("unknown kind %q (want string, number or boolean)", s)
	}
}

// Spec declares one CLI parameter.
type Spec struct {
	Name        string   // canonical token, e.g. "--config"
	Aliases     []string // alternative tokens, e.g. "-c"
	Kind        ValueKind
	Required    bool
	Default     any    // optional string/number specs only
	Description string // shown by the CLI, not used for parsing
}

// Key returns the result key for the spec: its name without leading dashes.
func (s Spec) Key() string {
	return TrimDashes(s.Name)
}

// Tokens returns the name followed by the aliases.
func (s Spec) Tokens() []string {
	out := make([]string, 0, 1+len(s.Aliases))
	out = append(out, s.Name)
	return append(out, s.Aliases...)
}

// Collection is an ordered list of specs as authored.
type Collection []Spec

// Validated implements Source.
func (c Collection) Validated() (*ValidatedCollection, error) {
	return Validate(c)
}

// Source is anything that can be turned into a validated collection.
type Source interface {
	Validated() (*ValidatedCollection, error)
}

// ValidatedCollection is a collection that passed Validate. The zero value is
// not usable; only Validate produces one.
type ValidatedCollection struct {
	specs     []Spec
	validated bool
}

// Validated implements Source.
func (v *ValidatedCollection) Validated() (*ValidatedCollection, error) {
	return v, nil
}

// Specs returns a copy of the validated specs in declaration order.
func (v *ValidatedCollection) Specs() []Spec {
	out := make([]Spec, len(v.specs))
	for i, s := range v.specs {
		out[i] = cloneSpec(s)
	}
	return out
}

// Lookup finds the spec owning a name or alias token.
func (v *ValidatedCollection) Lookup(token string) (Spec, bool) {
	if i := v.indexOf(token); i >= 0 {
		return cloneSpec(v.specs[i]), true
	}
	return Spec{}, false
}

func (v *ValidatedCollection) indexOf(token string) int {
	for i, s := range v.specs {
		if s.Name == token {
			return i
		}
		for _, a := range s.Aliases {
			if a == token {
				return i
			}
		}
	}
	return -1
}

// Validate checks a collection and returns the capability Parse requires.
//
// Every token used more than once across names and aliases is reported in a
// single SchemaConflict error. Malformed specs (bad token shape, unknown kind,
// misplaced default) are reported as InvalidSchema. When both occur the two
// errors are joined. Validate has no side effects and may be called again
// with the same result.
func Validate(c Collection) (*ValidatedCollection, error) {
	var errs []error

	if dups := duplicateTokens(c); len(dups) > 0 {
		errs = append(errs, argerrors.NewDuplicateTokens(dups))
	}

	specs := make([]Spec, len(c))
	var diags []argerrors.Diagnostic
	for i, s := range c {
		normalized, specDiags := checkSpec(s)
		diags = append(diags, specDiags...)
		specs[i] = normalized
	}
	if len(diags) > 0 {
		errs = append(errs, argerrors.New(argerrors.InvalidSchema, diags...))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &ValidatedCollection{specs: specs, validated: true}, nil
}

// duplicateTokens returns every token seen twice, once each, in the order the
// second sighting happened.
func duplicateTokens(c Collection) []string {
	seen := make(map[string]bool)
	reported := make(map[string]bool)
	var dups []string
	for _, s := range c {
		for _, tok := range s.Tokens() {
			if !seen[tok] {
				seen[tok] = true
				continue
			}
			if !reported[tok] {
				reported[tok] = true
				dups = append(dups, tok)
			}
		}
	}
	return dups
}

// checkSpec returns a normalized copy of s (numeric defaults become float64)
// along with every problem found.
func checkSpec(s Spec) (Spec, []argerrors.Diagnostic) {
	out := cloneSpec(s)
	var diags []argerrors.Diagnostic
	report := func(format string, args ...any) {
		diags = append(diags, argerrors.MalformedSpecDiagnostic(s.Name, fmt.Sprintf(format, args...)))
	}

	if !validToken(s.Name) || s.Key() == "" {
		report("name must be \"-\" followed by at least one character")
	}
	for _, a := range s.Aliases {
		if !validToken(a) {
			report("alias %q must be \"-\" followed by at least one character", a)
		}
	}
	if _, err := ParseValueKind(string(s.Kind)); err != nil {
		report("%v", err)
		return out, diags
	}

	if s.Default == nil {
		return out, diags
	}
	switch {
	case s.Required:
		report("only optional parameters may declare a default")
	case s.Kind == KindBoolean:
		report("boolean parameters cannot declare a default")
	case s.Kind == KindString:
		if _, ok := s.Default.(string); !ok {
			report("default %v is not a string", s.Default)
		}
	case s.Kind == KindNumber:
		f, ok := toFloat(s.Default)
		if !ok {
			report("default %v is not a number", s.Default)
			break
		}
		out.Default = f
	}
	return out, diags
}

func validToken(tok string) bool {
	return len(tok) >= 2 && tok[0] == '-'
}

func cloneSpec(s Spec) Spec {
	if s.Aliases != nil {
		s.Aliases = append([]string(nil), s.Aliases...)
	}
	return s
}

// TrimDashes strips every leading dash from name.
func TrimDashes(name string) string {
	return strings.TrimLeft(name, "-")
}

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
