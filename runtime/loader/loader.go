// Package loader provides ready-made configuration sources for merge.Merge.
package loader

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/aledsdavies/argmerge/core/merge"
	"github.com/aledsdavies/argmerge/core/params"
	"github.com/aledsdavies/argmerge/core/types"
)

// Option configures a loader.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func newOptions(opts []Option) *options {
	o := &options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// File loads the document at path, ignoring the CLI values.
func File(ctx context.Context, path string, opts ...Option) merge.Loader {
	o := newOptions(opts)
	return func(params.Values) (map[string]any, error) {
		o.logger.Debug("Loading config file.", "path", path)
		out, err := Read(ctx, path)
		if err != nil {
			return nil, err
		}
		o.logger.Debug("Loaded config file.", "path", path, "keys", len(out))
		return out, nil
	}
}

// FromParam loads the document whose path is the CLI value under key, for
// example "config" for --config. No value means no configuration.
func FromParam(ctx context.Context, key string, opts ...Option) merge.Loader {
	o := newOptions(opts)
	return func(cli params.Values) (map[string]any, error) {
		path, ok := cli.String(key)
		if !ok || path == "" {
			o.logger.Debug("No config path supplied.", "param", key)
			return map[string]any{}, nil
		}
		return File(ctx, path, opts...)(cli)
	}
}

// Env reads the schema's keys from environment variables named
// PREFIX_KEY, with dashes in the key replaced by underscores. Values of
// number and boolean fields are converted when they parse; otherwise the raw
// string is kept so schema validation reports it.
func Env(prefix string, schema types.ObjectSchema, opts ...Option) merge.Loader {
	o := newOptions(opts)
	return func(params.Values) (map[string]any, error) {
		v := viper.New()
		v.SetEnvPrefix(prefix)
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

		out := make(map[string]any)
		for _, key := range schema.Keys() {
			if err := v.BindEnv(key); err != nil {
				return nil, fmt.Errorf("failed to bind env for %q: %w", key, err)
			}
			if !v.IsSet(key) {
				continue
			}
			out[key] = convertEnv(v.GetString(key), schema[key])
		}
		o.logger.Debug("Loaded config from environment.", "prefix", prefix, "keys", len(out))
		return out, nil
	}
}

func convertEnv(raw string, def types.TypeDefinition) any {
	switch def.Kind {
	case types.KindNumber:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case types.KindBoolean:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	case types.KindLiteral:
		for _, allowed := range def.Values {
			if fmt.Sprint(allowed) == raw {
				return allowed
			}
		}
	}
	return raw
}

// Static returns a copy of m on every call.
func Static(m map[string]any) merge.Loader {
	return func(params.Values) (map[string]any, error) {
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[k] = v
		}
		return out, nil
	}
}

// Chain runs every loader and unions their output. Like CLI and config, the
// loaders must not provide the same key.
func Chain(loaders ...merge.Loader) merge.Loader {
	return func(cli params.Values) (map[string]any, error) {
		out := make(map[string]any)
		owner := make(map[string]int)
		var overlap []string

		for i, l := range loaders {
			part, err := l(cli)
			if err != nil {
				return nil, fmt.Errorf("loader %d: %w", i, err)
			}
			for k, v := range part {
				if _, dup := owner[k]; dup {
					overlap = append(overlap, k)
					continue
				}
				owner[k] = i
				out[k] = v
			}
		}

		if len(overlap) > 0 {
			sort.Strings(overlap)
			return nil, fmt.Errorf("keys provided by more than one loader: %s", strings.Join(overlap, ", "))
		}
		return out, nil
	}
}
