package params

import (
	"errors"
	"math"
	"strconv"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
	"github.com/aledsdavies/argmerge/core/invariant"
)

// Values maps a parameter key (name without dashes) to its coerced value:
// a string, a float64, or true for flags.
type Values map[string]any

// String returns the string value stored under key.
func (v Values) String(key string) (string, bool) {
	s, ok := v[key].(string)
	return s, ok
}

// Number returns the number stored under key.
func (v Values) Number(key string) (float64, bool) {
	f, ok := v[key].(float64)
	return f, ok
}

// Flag reports whether the boolean parameter under key was supplied.
func (v Values) Flag(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// Keys returns the keys present in v.
func (v Values) Keys() []string {
	out := make([]string, 0, len(v))
	for k := range v {
		out = append(out, k)
	}
	return out
}

// occurrence is one match of a spec token in argv.
type occurrence struct {
	spec     int // index into the validated specs
	alias    string
	position int
}

// scan walks argv once, left to right. A matched flag consumes its own
// position and, unless boolean, the next one as its value. Consumed positions
// are recorded instead of removing tokens from argv.
func scan(vc *ValidatedCollection, argv []string) ([]occurrence, map[int]bool) {
	var occs []occurrence
	consumed := make(map[int]bool)

	for i := 0; i < len(argv); {
		prev := i
		idx := vc.indexOf(argv[i])
		switch {
		case idx < 0:
			i++
		case vc.specs[idx].Kind == KindBoolean:
			occs = append(occs, occurrence{spec: idx, alias: argv[i], position: i})
			consumed[i] = true
			i++
		default:
			occs = append(occs, occurrence{spec: idx, alias: argv[i], position: i})
			consumed[i] = true
			if i+1 < len(argv) {
				consumed[i+1] = true
			}
			i += 2
		}
		invariant.Invariant(i > prev, "scan cursor must advance")
	}
	return occs, consumed
}

// Parse parses argv against a validated collection.
//
// Tokens that match no spec are ignored, so argv may be the full os.Args.
// All problems are collected into one CliParse error, ordered as duplicate
// parameters, then type mismatches, then missing required parameters.
// Optional parameters that were not supplied are absent from the result
// unless their spec declares a Default. argv is never modified.
func Parse(vc *ValidatedCollection, argv []string) (Values, error) {
	invariant.Precondition(vc != nil && vc.validated, "collection must be obtained from params.Validate")

	occs, _ := scan(vc, argv)

	result := make(Values)
	seen := make([][]string, len(vc.specs))
	var typeDiags []argerrors.Diagnostic

	for _, occ := range occs {
		spec := vc.specs[occ.spec]
		seen[occ.spec] = append(seen[occ.spec], occ.alias)

		value, diag := coerce(spec, occ, argv)
		if diag != nil {
			typeDiags = append(typeDiags, *diag)
			continue
		}
		if _, exists := result[spec.Key()]; !exists {
			result[spec.Key()] = value
		}
	}

	var diags []argerrors.Diagnostic
	for i, aliases := range seen {
		if len(aliases) > 1 {
			diags = append(diags, argerrors.DuplicateParameterDiagnostic(vc.specs[i].Name, aliases))
		}
	}
	diags = append(diags, typeDiags...)
	for i, spec := range vc.specs {
		if spec.Required && len(seen[i]) == 0 {
			diags = append(diags, argerrors.MissingParameterDiagnostic(spec.Name))
		}
	}

	if len(diags) > 0 {
		return nil, argerrors.New(argerrors.CliParse, diags...)
	}

	for i, spec := range vc.specs {
		if len(seen[i]) == 0 && spec.Default != nil {
			result[spec.Key()] = spec.Default
		}
	}
	return result, nil
}

// coerce converts the token after a string or number flag into its value.
func coerce(spec Spec, occ occurrence, argv []string) (any, *argerrors.Diagnostic) {
	if spec.Kind == KindBoolean {
		return true, nil
	}

	if occ.position+1 >= len(argv) {
		d := argerrors.TypeMismatchDiagnostic(occ.alias, string(spec.Kind), nil)
		return nil, &d
	}
	raw := argv[occ.position+1]

	if spec.Kind == KindString {
		return raw, nil
	}

	// Out of range values come back as ±Inf with ErrRange; infinities are
	// numbers, NaN is not.
	f, err := strconv.ParseFloat(raw, 64)
	if (err != nil && !errors.Is(err, strconv.ErrRange)) || math.IsNaN(f) {
		d := argerrors.TypeMismatchDiagnostic(occ.alias, string(spec.Kind), &raw)
		return nil, &d
	}
	return f, nil
}

// Leftover returns the argv tokens no spec consumed, in order.
func Leftover(vc *ValidatedCollection, argv []string) []string {
	invariant.Precondition(vc != nil && vc.validated, "collection must be obtained from params.Validate")

	_, consumed := scan(vc, argv)
	var out []string
	for i, tok := range argv {
		if !consumed[i] {
			out = append(out, tok)
		}
	}
	return out
}
