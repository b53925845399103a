package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type buildOptions struct {
	Config string `mapstructure:"config"`
	Port   int    `mapstructure:"port"`
	DryRun bool   `mapstructure:"dry-run"`
	Custom bool
}

func TestDecode(t *testing.T) {
	got, err := Decode[buildOptions](Record{
		"config":  "a.json",
		"port":    8080.0,
		"dry-run": true,
		"custom":  true,
	})

	require.NoError(t, err)
	assert.Equal(t, buildOptions{Config: "a.json", Port: 8080, DryRun: true, Custom: true}, got)
}

func TestDecodeLeavesAbsentFieldsZero(t *testing.T) {
	got, err := Decode[buildOptions](Record{"config": "a.json"})

	require.NoError(t, err)
	assert.Equal(t, buildOptions{Config: "a.json"}, got)
}

func TestDecodeRejectsMismatchedTypes(t *testing.T) {
	_, err := Decode[buildOptions](Record{"port": "eighty"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode record")
}

func TestDecodeIntoMap(t *testing.T) {
	got, err := Decode[map[string]any](Record{"a": 1.0})

	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1.0}, got)
}
