// Package manifest reads a declarative description of a CLI: its parameters,
// the shapes the merged record may take, and where configuration comes from.
//
// A manifest is YAML (JSON documents are accepted as well):
//
//	params:
//	  - name: --config
//	    aliases: [-c]
//	    kind: string
//	schemas:
//	  alternatives:
//	    - config: string
//	    - schema: string
//	      out: string
//	  shared:
//	    custom: boolean?
//	    mode: {kind: literal, values: [fast, slow], optional: true}
//	config:
//	  param: config
package manifest

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
	"github.com/aledsdavies/argmerge/core/merge"
	"github.com/aledsdavies/argmerge/core/params"
	"github.com/aledsdavies/argmerge/core/types"
	"github.com/aledsdavies/argmerge/runtime/loader"
)

//go:embed manifest.schema.json
var metaSchemaJSON []byte

var metaSchema = func() types.JSONSchema {
	var s types.JSONSchema
	if err := json.Unmarshal(metaSchemaJSON, &s); err != nil {
		panic(fmt.Sprintf("manifest: invalid embedded schema: %v", err))
	}
	return s
}()

var validator = types.NewValidator(nil)

// MetaSchema returns the JSON Schema manifests are checked against.
func MetaSchema() types.JSONSchema {
	return metaSchema
}

// Manifest is a decoded manifest document.
type Manifest struct {
	Params []ParamDecl `yaml:"params"`
	Shapes SchemasDecl `yaml:"schemas"`
	Config *SourceDecl `yaml:"config"`

	dir string // directory relative config files are resolved against
}

// ParamDecl declares one CLI parameter.
type ParamDecl struct {
	Name        string   `yaml:"name"`
	Aliases     []string `yaml:"aliases"`
	Kind        string   `yaml:"kind"`
	Required    bool     `yaml:"required"`
	Default     any      `yaml:"default"`
	Description string   `yaml:"description"`
}

// SchemasDecl declares the alternative record shapes and their shared fields.
type SchemasDecl struct {
	Alternatives []map[string]FieldDecl `yaml:"alternatives"`
	Shared       map[string]FieldDecl   `yaml:"shared"`
}

// FieldDecl is one field of a shape. In YAML it is either a kind name with an
// optional "?" suffix or a mapping with kind, optional and values.
type FieldDecl struct {
	Kind     string `yaml:"kind"`
	Optional bool   `yaml:"optional"`
	Values   []any  `yaml:"values"`
}

// UnmarshalYAML accepts the "kind" and "kind?" shorthands.
func (f *FieldDecl) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		f.Kind = strings.TrimSuffix(node.Value, "?")
		f.Optional = strings.HasSuffix(node.Value, "?")
		return nil
	}
	type plain FieldDecl
	return node.Decode((*plain)(f))
}

// SourceDecl says where configuration is loaded from. Every configured
// source is used and they must not provide the same key.
type SourceDecl struct {
	Param string `yaml:"param"` // CLI parameter key holding a config file path
	File  string `yaml:"file"`  // config file, relative to the manifest
	Env   string `yaml:"env"`   // environment variable prefix
}

var knownKeys = map[string][]string{
	"":        {"config", "params", "schemas"},
	"params":  {"aliases", "default", "description", "kind", "name", "required"},
	"schemas": {"alternatives", "shared"},
	"config":  {"env", "file", "param"},
}

// Load reads and parses the manifest at path.
func Load(ctx context.Context, path string) (*Manifest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := Parse(data)
	if err != nil {
		return nil, err
	}
	m.dir = filepath.Dir(path)
	return m, nil
}

// Parse decodes and validates a manifest document. Structural problems are
// reported together as an InvalidSchema error.
func Parse(data []byte) (*Manifest, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	root, ok := doc.(map[string]any)
	if !ok {
		return nil, argerrors.New(argerrors.InvalidSchema, argerrors.Diagnostic{
			Kind:    argerrors.MalformedSpec,
			Message: "Invalid manifest: document must be a mapping.",
		})
	}

	if diags := unknownKeys(root); len(diags) > 0 {
		return nil, argerrors.New(argerrors.InvalidSchema, diags...)
	}

	if err := validator.Validate(metaSchema, root); err != nil {
		var diags []argerrors.Diagnostic
		for _, e := range argerrors.All(err) {
			diags = append(diags, e.Diagnostics...)
		}
		return nil, argerrors.Wrap(argerrors.InvalidSchema, err, diags...)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	return &m, nil
}

// unknownKeys reports misspelled keys with the closest known key.
func unknownKeys(root map[string]any) []argerrors.Diagnostic {
	var diags []argerrors.Diagnostic
	check := func(section string, obj any) {
		m, ok := obj.(map[string]any)
		if !ok {
			return
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			known := knownKeys[section]
			if contains(known, k) {
				continue
			}
			d := argerrors.UnrecognizedKeyDiagnostic(k, types.Suggest(k, known))
			if section != "" {
				d.Message = section + ": " + d.Message
			}
			diags = append(diags, d)
		}
	}

	check("", root)
	if list, ok := root["params"].([]any); ok {
		for _, p := range list {
			check("params", p)
		}
	}
	check("schemas", root["schemas"])
	check("config", root["config"])
	return diags
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// Collection returns the declared parameters.
func (m *Manifest) Collection() params.Collection {
	c := make(params.Collection, len(m.Params))
	for i, p := range m.Params {
		c[i] = params.Spec{
			Name:        p.Name,
			Aliases:     p.Aliases,
			Kind:        params.ValueKind(p.Kind),
			Required:    p.Required,
			Default:     p.Default,
			Description: p.Description,
		}
	}
	return c
}

// Schemas returns the declared record shapes. A manifest that declares only
// shared fields gets one empty alternative, so the shared fields alone make
// up the record.
func (m *Manifest) Schemas() (types.Schemas, error) {
	s := types.Schemas{Shared: toObjectSchema(m.Shapes.Shared)}
	for _, alt := range m.Shapes.Alternatives {
		s.Alternatives = append(s.Alternatives, toObjectSchema(alt))
	}
	if len(s.Alternatives) == 0 {
		s.Alternatives = []types.ObjectSchema{{}}
	}
	if err := s.Validate(); err != nil {
		return types.Schemas{}, err
	}
	return s, nil
}

func toObjectSchema(fields map[string]FieldDecl) types.ObjectSchema {
	out := make(types.ObjectSchema, len(fields))
	for key, f := range fields {
		out[key] = types.TypeDefinition{
			Kind:     types.Kind(f.Kind),
			Values:   f.Values,
			Optional: f.Optional,
		}
	}
	return out
}

// Loader builds the configuration loader described by the config section,
// or returns nil when there is none.
func (m *Manifest) Loader(ctx context.Context, opts ...loader.Option) (merge.Loader, error) {
	if m.Config == nil {
		return nil, nil
	}

	var loaders []merge.Loader
	if m.Config.Param != "" {
		loaders = append(loaders, loader.FromParam(ctx, m.Config.Param, opts...))
	}
	if m.Config.File != "" {
		loaders = append(loaders, loader.File(ctx, m.resolve(m.Config.File), opts...))
	}
	if m.Config.Env != "" {
		schemas, err := m.Schemas()
		if err != nil {
			return nil, err
		}
		loaders = append(loaders, loader.Env(m.Config.Env, fieldsOf(schemas), opts...))
	}

	switch len(loaders) {
	case 0:
		return nil, nil
	case 1:
		return loaders[0], nil
	default:
		return loader.Chain(loaders...), nil
	}
}

// ConfigPath returns the config file the loader reads for the given CLI
// values: the declared file, else the path held by the config parameter.
// It returns "" when neither applies.
func (m *Manifest) ConfigPath(cli params.Values) string {
	if m.Config == nil {
		return ""
	}
	if m.Config.File != "" {
		return m.resolve(m.Config.File)
	}
	if m.Config.Param != "" {
		if path, ok := cli.String(m.Config.Param); ok {
			return path
		}
	}
	return ""
}

func (m *Manifest) resolve(path string) string {
	if !filepath.IsAbs(path) && m.dir != "" {
		return filepath.Join(m.dir, path)
	}
	return path
}

// fieldsOf collects every field of every shape; the first declaration of a
// key decides its type.
func fieldsOf(s types.Schemas) types.ObjectSchema {
	out := types.ObjectSchema{}
	for _, schema := range s.Effective() {
		for _, key := range schema.Keys() {
			if _, ok := out[key]; !ok {
				out[key] = schema[key]
			}
		}
	}
	return out
}
