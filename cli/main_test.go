package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
)

const testManifest = `
params:
  - name: --config
    aliases: [-c]
    kind: string
    description: config file
  - name: --verbose
    aliases: [-v]
    kind: boolean
  - name: --retries
    kind: number
    default: 3
schemas:
  alternatives:
    - name: string
    - schema: string
      out: string
  shared:
    config: string?
    verbose: boolean?
    retries: number?
config:
  param: config
`

// isolateEnv pins the ARGMERGE_* settings so the host environment cannot
// leak into a test.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ARGMERGE_LOG_LEVEL", "error")
	t.Setenv("ARGMERGE_LOG_FORMAT", "text")
	t.Setenv("ARGMERGE_NO_COLOR", "true")
	t.Setenv("NO_COLOR", "1")
	for _, name := range []string{"ARGMERGE_LOG_FILE", "ARGMERGE_MANIFEST", "ARGMERGE_WATCH_DEBOUNCE"} {
		if original, ok := os.LookupEnv(name); ok {
			require.NoError(t, os.Unsetenv(name))
			t.Cleanup(func() { os.Setenv(name, original) })
		}
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer

	a := newApp(strings.NewReader(stdin), &out, &errOut)
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	a.close()

	return out.String(), errOut.String(), err
}

func TestRunPrintsMergedRecord(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	m := writeFile(t, dir, "argmerge.yaml", testManifest)
	cfg := writeFile(t, dir, "app.json", `{"name": "app"}`)

	out, _, err := execute(t, "", "--manifest", m, "run", "--", "-c", cfg, "-v")

	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]any{"config": cfg, "name": "app", "retries": 3.0, "verbose": true}, got)
}

func TestRunYAMLOutput(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	m := writeFile(t, dir, "argmerge.yaml", testManifest)
	cfg := writeFile(t, dir, "app.yaml", "schema: s\nout: o\n")

	out, _, err := execute(t, "", "-m", m, "run", "-o", "yaml", "--", "--config", cfg)

	require.NoError(t, err)
	assert.Contains(t, out, "out: o\n")
	assert.Contains(t, out, "schema: s\n")
	assert.Contains(t, out, "retries: 3\n")
}

func TestRunReportsMergeConflict(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	m := writeFile(t, dir, "argmerge.yaml", testManifest)
	cfg := writeFile(t, dir, "app.json", `{"name": "app", "verbose": false}`)

	out, _, err := execute(t, "", "-m", m, "run", "--", "-c", cfg, "-v")

	require.Error(t, err)
	assert.Empty(t, out)
	assert.True(t, argerrors.IsKind(err, argerrors.MergeConflict))
}

func TestRunReportsCLIErrors(t *testing.T) {
	isolateEnv(t)
	m := writeFile(t, t.TempDir(), "argmerge.yaml", testManifest)

	_, _, err := execute(t, "", "-m", m, "run", "--", "--retries", "many")

	require.Error(t, err)
	assert.True(t, argerrors.IsKind(err, argerrors.CliParse))
	assert.Equal(t, 1, exitCode(err))
}

func TestRunRejectsUnknownOutput(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	m := writeFile(t, dir, "argmerge.yaml", testManifest)
	cfg := writeFile(t, dir, "app.json", `{"name": "app"}`)

	_, _, err := execute(t, "", "-m", m, "run", "-o", "toml", "--", "-c", cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown output format "toml"`)
}

func TestRunMissingManifest(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "", "-m", filepath.Join(t.TempDir(), "absent.yaml"), "run")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read manifest")
}

func TestRunInvalidManifest(t *testing.T) {
	isolateEnv(t)
	m := writeFile(t, t.TempDir(), "argmerge.yaml", `
params:
  - name: --config
    aliases: [-c]
    kind: string
  - name: --custom
    aliases: [-c]
    kind: boolean
`)

	_, _, err := execute(t, "", "-m", m, "run")

	require.Error(t, err)
	assert.True(t, argerrors.IsKind(err, argerrors.SchemaConflict))
	assert.Equal(t, 2, exitCode(err))
}

func TestRunWatchNeedsConfigFile(t *testing.T) {
	isolateEnv(t)
	m := writeFile(t, t.TempDir(), "argmerge.yaml", testManifest)

	_, _, err := execute(t, "", "-m", m, "run", "--watch", "--", "-v")

	require.Error(t, err)
	var cliErr *CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, "config", cliErr.Type)
}

func TestCheckMerge(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	m := writeFile(t, dir, "argmerge.yaml", testManifest)
	cfg := writeFile(t, dir, "app.json", `{"schema": "s", "out": "o"}`)

	out, _, err := execute(t, "", "-m", m, "check", "--", "-c", cfg)

	require.NoError(t, err)
	assert.Equal(t, "ok: record matches alternative 1\n", out)
}

func TestCheckExplainsRejection(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	m := writeFile(t, dir, "argmerge.yaml", testManifest)
	cfg := writeFile(t, dir, "app.json", `{"out": "o"}`)

	_, errOut, err := execute(t, "", "-m", m, "check", "--explain", "--", "-c", cfg)

	require.Error(t, err)
	assert.True(t, argerrors.IsKind(err, argerrors.NoSchemaMatched))
	assert.Contains(t, errOut, "alternative 0:\n")
	assert.Contains(t, errOut, `  - Missing key "name".`)
	assert.Contains(t, errOut, "alternative 1:\n")
	assert.Contains(t, errOut, `  - Missing key "schema".`)
	assert.Contains(t, errOut, "json schema:\n")
}

func TestCheckDocumentFromStdin(t *testing.T) {
	isolateEnv(t)
	m := writeFile(t, t.TempDir(), "argmerge.yaml", testManifest)

	tests := []struct {
		name   string
		format string
		input  string
	}{
		{"json", "json", `{"schema": "s", "out": "o"}`},
		{"yaml", "yaml", "schema: s\nout: o\nverbose: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.input, "-m", m, "check", "-d", "-", "-f", tt.format)

			require.NoError(t, err)
			assert.Equal(t, "ok: record matches alternative 1\n", out)
		})
	}
}

func TestCheckDocumentFile(t *testing.T) {
	isolateEnv(t)
	dir := t.TempDir()
	m := writeFile(t, dir, "argmerge.yaml", testManifest)
	doc := writeFile(t, dir, "record.yaml", "config: app.json\nname: 7\n")

	_, errOut, err := execute(t, "", "-m", m, "check", "--explain", "-d", doc)

	require.Error(t, err)
	assert.True(t, argerrors.IsKind(err, argerrors.NoSchemaMatched))
	assert.Contains(t, errOut, `Invalid value in key "name"`)
}

func TestParamsListsDeclarations(t *testing.T) {
	isolateEnv(t)
	m := writeFile(t, t.TempDir(), "argmerge.yaml", testManifest)

	out, _, err := execute(t, "", "-m", m, "params", "--", "-c", "x", "stray", "-v")

	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 4)
	assert.Equal(t, []string{"NAME", "ALIASES", "KIND", "REQUIRED", "DEFAULT", "DESCRIPTION"}, strings.Fields(lines[0]))
	assert.Equal(t, []string{"--config", "-c", "string", "false", "-", "config", "file"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"--retries", "-", "number", "false", "3"}, strings.Fields(lines[3]))
	assert.Contains(t, out, "unconsumed: stray\n")
}

func TestSchemaPrintsRecordShapes(t *testing.T) {
	isolateEnv(t)
	m := writeFile(t, t.TempDir(), "argmerge.yaml", testManifest)

	out, _, err := execute(t, "", "-m", m, "schema")

	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", got["$schema"])
	assert.Len(t, got["anyOf"], 2)
}

func TestSchemaMeta(t *testing.T) {
	isolateEnv(t)

	out, _, err := execute(t, "", "schema", "--meta")

	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Contains(t, got, "properties")
}

func TestInvalidSettings(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "", "--log-level", "loud", "schema", "--meta")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid settings")
}
