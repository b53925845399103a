package params

import (
	"errors"
	"fmt"
	"strings"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
)

// FromTemplates builds and validates a collection from compact declarations
// of the form "<name>[|alias...] <!|?><kind>", for example
//
//	"--config|-c !string"   required string, aliased -c
//	"--verbose ?boolean"    optional flag
func FromTemplates(templates ...string) (*ValidatedCollection, error) {
	c := make(Collection, 0, len(templates))
	var diags []argerrors.Diagnostic

	for _, tmpl := range templates {
		spec, err := parseTemplate(tmpl)
		if err != nil {
			diags = append(diags, argerrors.MalformedSpecDiagnostic(tmpl, err.Error()))
			continue
		}
		c = append(c, spec)
	}
	if len(diags) > 0 {
		return nil, argerrors.New(argerrors.InvalidSchema, diags...)
	}

	return Validate(c)
}

func parseTemplate(tmpl string) (Spec, error) {
	fields := strings.Fields(tmpl)
	if len(fields) != 2 {
		return Spec{}, errors.New("want \"<name>[|alias...] <!|?><kind>\"")
	}
	tokenZone, typeZone := fields[0], fields[1]

	var tokens []string
	for _, tok := range strings.Split(tokenZone, "|") {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	if len(tokens) == 0 {
		return Spec{}, errors.New("missing parameter name")
	}

	var required bool
	switch typeZone[0] {
	case '!':
		required = true
	case '?':
	default:
		return Spec{}, fmt.Errorf("kind %q must start with ! (required) or ? (optional)", typeZone)
	}

	kind, err := ParseValueKind(typeZone[1:])
	if err != nil {
		return Spec{}, err
	}

	spec := Spec{Name: tokens[0], Kind: kind, Required: required}
	if len(tokens) > 1 {
		spec.Aliases = tokens[1:]
	}
	return spec, nil
}
