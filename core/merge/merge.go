// Package merge combines parsed CLI parameters with externally loaded
// configuration and validates the result against a set of object schemas.
package merge

import (
	"io"
	"log/slog"
	"sort"

	argerrors "github.com/aledsdavies/argmerge/core/errors"
	"github.com/aledsdavies/argmerge/core/invariant"
	"github.com/aledsdavies/argmerge/core/params"
	"github.com/aledsdavies/argmerge/core/types"
)

// recordKey is the error context key holding the record that matched no schema.
const recordKey = "record"

// Loader produces configuration fields. It receives the parsed CLI values so
// the source may depend on them, for example a --config path.
type Loader func(cli params.Values) (map[string]any, error)

// Record is the union of CLI and configuration fields.
type Record map[string]any

// Result describes a successful merge.
type Result struct {
	Record      Record
	CLI         params.Values
	Config      map[string]any
	Alternative int // index of the alternative the record matched
}

// Option configures a merge.
type Option func(*options)

type options struct {
	logger     *slog.Logger
	loaderName string
}

// WithLogger sets the logger used for debug output. Merges are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithLoaderName names the loader in ConfigLoad errors.
func WithLoaderName(name string) Option {
	return func(o *options) {
		o.loaderName = name
	}
}

func newOptions(opts []Option) *options {
	o := &options{
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		loaderName: "config",
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Merge parses argv, loads configuration, and validates their union.
//
// CLI fields and configuration fields must not share a key: an overlap is a
// MergeConflict, never resolved by precedence. A nil loader contributes no
// fields. The union must match one of schemas' alternatives.
func Merge(src params.Source, argv []string, loader Loader, schemas types.Schemas, opts ...Option) (Record, error) {
	res, err := Run(src, argv, loader, schemas, opts...)
	if err != nil {
		return nil, err
	}
	return res.Record, nil
}

// Run is Merge returning the intermediate values and the matched alternative.
func Run(src params.Source, argv []string, loader Loader, schemas types.Schemas, opts ...Option) (*Result, error) {
	o := newOptions(opts)

	vc, err := src.Validated()
	if err != nil {
		return nil, err
	}

	cli, err := params.Parse(vc, argv)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("parsed CLI parameters", "keys", sortedKeys(cli))

	cfg := map[string]any{}
	if loader != nil {
		loaded, err := loader(cloneValues(cli))
		if err != nil {
			return nil, argerrors.NewConfigLoadError(o.loaderName, err)
		}
		if loaded != nil {
			cfg = loaded
		}
	}
	o.logger.Debug("loaded configuration", "loader", o.loaderName, "keys", sortedKeys(cfg))

	record, err := Combine(cli, cfg)
	if err != nil {
		return nil, err
	}

	idx, err := schemas.Match(record)
	if err != nil {
		if e, ok := err.(*argerrors.Error); ok && e.Kind == argerrors.NoSchemaMatched {
			e.WithContext(recordKey, record)
		}
		return nil, err
	}
	o.logger.Debug("record matched schema", "alternative", idx)

	return &Result{Record: record, CLI: cli, Config: cfg, Alternative: idx}, nil
}

// RecordOf returns the merged record carried by a NoSchemaMatched error
// from Merge or Run.
func RecordOf(err error) (Record, bool) {
	for _, e := range argerrors.All(err) {
		if v, ok := e.GetContext(recordKey); ok {
			r, ok := v.(Record)
			return r, ok
		}
	}
	return nil, false
}

// Combine returns the union of cli and cfg, failing with MergeConflict when
// any key appears in both. Neither input is modified.
func Combine(cli params.Values, cfg map[string]any) (Record, error) {
	var overlap []string
	for k := range cfg {
		if _, ok := cli[k]; ok {
			overlap = append(overlap, k)
		}
	}
	if len(overlap) > 0 {
		return nil, argerrors.NewMergeConflict(overlap)
	}

	record := make(Record, len(cli)+len(cfg))
	for k, v := range cli {
		record[k] = v
	}
	for k, v := range cfg {
		record[k] = v
	}
	invariant.Postcondition(len(record) == len(cli)+len(cfg), "record must hold every CLI and config field")
	return record, nil
}

func cloneValues(v params.Values) params.Values {
	out := make(params.Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
