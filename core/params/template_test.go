package params

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
)

func TestFromTemplates(t *testing.T) {
	vc, err := FromTemplates("--config|-c !string", "--flag ?boolean", "--retries|-r|-n ?number")

	require.NoError(t, err)
	assert.Equal(t, []Spec{
		{Name: "--config", Aliases: []string{"-c"}, Kind: KindString, Required: true},
		{Name: "--flag", Kind: KindBoolean},
		{Name: "--retries", Aliases: []string{"-r", "-n"}, Kind: KindNumber},
	}, vc.Specs())

	got, err := Parse(vc, []string{"-c", "x.yaml", "-n", "3"})
	require.NoError(t, err)
	assert.Equal(t, Values{"config": "x.yaml", "retries": 3.0}, got)
}

func TestFromTemplatesErrors(t *testing.T) {
	tests := []struct {
		name      string
		templates []string
		kind      argerrors.Kind
		contains  string
	}{
		{"missing kind", []string{"--config"}, argerrors.InvalidSchema, `want "<name>[|alias...] <!|?><kind>"`},
		{"bad marker", []string{"--config string"}, argerrors.InvalidSchema, "must start with ! (required) or ? (optional)"},
		{"unknown kind", []string{"--config !list"}, argerrors.InvalidSchema, `unknown kind "list"`},
		{"only separators", []string{"|| !string"}, argerrors.InvalidSchema, "missing parameter name"},
		{"duplicate alias", []string{"--a|-x !string", "--b|-x ?boolean"}, argerrors.SchemaConflict, "duplicate aliases: -x."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromTemplates(tt.templates...)

			require.Error(t, err)
			assert.True(t, argerrors.IsKind(err, tt.kind))
			assert.Contains(t, err.Error(), tt.contains)
		})
	}
}

func TestCollectionBuilder(t *testing.T) {
	b := NewCollection().
		Param("--config").Alias("-c").String().Required().Description("config file").Done().
		Param("--port").Number().Default(8080).Done().
		Param("--verbose").Alias("-v").Boolean().Done()

	assert.Equal(t, Collection{
		{Name: "--config", Aliases: []string{"-c"}, Kind: KindString, Required: true, Description: "config file"},
		{Name: "--port", Kind: KindNumber, Default: 8080},
		{Name: "--verbose", Aliases: []string{"-v"}, Kind: KindBoolean},
	}, b.Build())

	vc, err := b.Validated()
	require.NoError(t, err)

	got, err := Parse(vc, []string{"-c", "a.json", "-v"})
	require.NoError(t, err)
	assert.Equal(t, Values{"config": "a.json", "port": 8080.0, "verbose": true}, got)
}

func TestCollectionBuilderDefaultMakesOptional(t *testing.T) {
	c := NewCollection().Param("--port").Number().Required().Default(1).Done().Build()

	assert.False(t, c[0].Required)
}

func TestSourceImplementations(t *testing.T) {
	c := Collection{{Name: "--flag", Kind: KindBoolean}}
	vc := mustValidate(t, c)

	for _, src := range []Source{c, vc, NewCollection().Param("--flag").Boolean().Done()} {
		got, err := src.Validated()
		require.NoError(t, err)
		assert.Equal(t, vc.Specs(), got.Specs())
	}
}
