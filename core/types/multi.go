package types

import (
	"strings"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
)

// noMatchHeader opens the report of a failed multi-schema validation.
const noMatchHeader = "None of the following sets of keys have been matched:"

// attemptsKey is the error context key holding per-alternative results.
const attemptsKey = "attempts"

// Schemas groups the alternative shapes a record may take with the fields
// every shape shares.
type Schemas struct {
	Alternatives []ObjectSchema
	Shared       ObjectSchema
}

// Effective returns every alternative extended with the shared fields.
// With no alternatives there are no candidates and nothing can match.
func (s Schemas) Effective() []ObjectSchema {
	out := make([]ObjectSchema, len(s.Alternatives))
	for i, alt := range s.Alternatives {
		out[i] = alt.Extend(s.Shared)
	}
	return out
}

// Validate checks the shared schema and every alternative for malformed fields.
func (s Schemas) Validate() error {
	if err := s.Shared.Validate(); err != nil {
		return err
	}
	for _, schema := range s.Alternatives {
		if err := schema.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMulti validates obj against each alternative extended with shared,
// and returns the index of the first alternative that matches.
//
// When nothing matches it fails with a NoSchemaMatched error whose message is
// a table of every candidate shape. The message does not say which field
// checks failed; those results are kept on the error and available through
// Attempts.
func ValidateMulti(obj map[string]any, alternatives []ObjectSchema, shared ObjectSchema) (int, error) {
	return Schemas{Alternatives: alternatives, Shared: shared}.Match(obj)
}

// Match is ValidateMulti over a Schemas value. A nil obj is an empty object.
func (s Schemas) Match(obj map[string]any) (int, error) {
	if obj == nil {
		obj = map[string]any{}
	}

	candidates := s.Effective()
	if err := s.Validate(); err != nil {
		return -1, err
	}

	attempts := make([]Result, 0, len(candidates))
	for i, schema := range candidates {
		res := ValidateObject(obj, schema)
		if res.OK {
			return i, nil
		}
		attempts = append(attempts, res)
	}

	err := argerrors.NewNoSchemaMatched(renderCandidates(candidates)).
		WithContext(attemptsKey, attempts)
	return -1, err
}

// Attempts returns the per-alternative results carried by a NoSchemaMatched
// error, in alternative order. It returns nil for any other error.
func Attempts(err error) []Result {
	for _, e := range argerrors.All(err) {
		if e.Kind != argerrors.NoSchemaMatched {
			continue
		}
		if v, ok := e.GetContext(attemptsKey); ok {
			if results, ok := v.([]Result); ok {
				return results
			}
		}
	}
	return nil
}

// renderCandidates lays out one row per schema between dashed borders as wide
// as the longest row.
func renderCandidates(schemas []ObjectSchema) string {
	if len(schemas) == 0 {
		return noMatchHeader
	}
	rows := make([]string, len(schemas))
	width := 0
	for i, schema := range schemas {
		fields := Describe(schema)
		parts := make([]string, len(fields))
		for j, f := range fields {
			parts[j] = f.String()
		}
		rows[i] = strings.Join(parts, ", ")
		if rows[i] == "" {
			rows[i] = "(no keys)"
		}
		if len(rows[i]) > width {
			width = len(rows[i])
		}
	}

	border := strings.Repeat("-", width)

	var b strings.Builder
	b.WriteString(noMatchHeader)
	b.WriteString("\n")
	b.WriteString(border)
	for _, row := range rows {
		b.WriteString("\n")
		b.WriteString(row)
		b.WriteString("\n")
		b.WriteString(border)
	}
	return b.String()
}
