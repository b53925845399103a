package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aledsdavies/argmerge/core/merge"
	"github.com/aledsdavies/argmerge/core/params"
	"github.com/aledsdavies/argmerge/core/types"
	"github.com/aledsdavies/argmerge/internal/config"
	"github.com/aledsdavies/argmerge/internal/logger"
	"github.com/aledsdavies/argmerge/runtime/loader"
	"github.com/aledsdavies/argmerge/runtime/manifest"
	"github.com/aledsdavies/argmerge/runtime/watch"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := newApp(os.Stdin, os.Stdout, os.Stderr)
	err := a.rootCmd().ExecuteContext(ctx)
	a.close()
	stop()

	if err != nil {
		FormatError(os.Stderr, err, a.useColor)
		os.Exit(exitCode(err))
	}
}

// app holds the state shared by every subcommand.
type app struct {
	in          io.Reader
	out, errOut io.Writer

	manifestPath string
	logLevel     string
	logFormat    string
	logFile      string
	noColor      bool

	settings *config.Settings
	logger   *slog.Logger
	closer   io.Closer
	useColor bool
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut, logger: logger.Discard()}
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "argmerge",
		Short:         "Merge command-line parameters with configuration and validate the result",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	rootCmd.SetIn(a.in)
	rootCmd.SetOut(a.out)
	rootCmd.SetErr(a.errOut)

	rootCmd.PersistentFlags().StringVarP(&a.manifestPath, "manifest", "m", "argmerge.yaml", "Path to the manifest declaring parameters and schemas")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "Log format (text|json)")
	rootCmd.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Write logs to a rotated file instead of stderr")
	rootCmd.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	rootCmd.AddCommand(a.runCmd(), a.checkCmd(), a.paramsCmd(), a.schemaCmd())
	return rootCmd
}

// setup resolves settings from the environment and any flags given
// explicitly, then builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	overrides := map[string]any{}
	flags := cmd.Flags()
	if flags.Changed("manifest") {
		overrides["manifest"] = a.manifestPath
	}
	if flags.Changed("log-level") {
		overrides["log_level"] = a.logLevel
	}
	if flags.Changed("log-format") {
		overrides["log_format"] = a.logFormat
	}
	if flags.Changed("log-file") {
		overrides["log_file"] = a.logFile
	}
	if flags.Changed("no-color") {
		overrides["no_color"] = a.noColor
	}

	settings, err := config.Load(overrides)
	if err != nil {
		return err
	}

	log, closer, err := logger.New(logger.Options{
		Level:  settings.LogLevel,
		Format: settings.LogFormat,
		File:   settings.LogFile,
		Output: a.errOut,
	})
	if err != nil {
		return err
	}

	a.settings = settings
	a.logger = log
	a.closer = closer
	a.useColor = ShouldUseColor(settings.NoColor)
	return nil
}

func (a *app) close() {
	if a.closer != nil {
		_ = a.closer.Close()
	}
}

// session is a loaded manifest ready to merge argument vectors.
type session struct {
	manifest   *manifest.Manifest
	collection *params.ValidatedCollection
	schemas    types.Schemas
	loader     merge.Loader
	opts       []merge.Option
}

func (a *app) open(ctx context.Context) (*session, error) {
	m, err := manifest.Load(ctx, a.settings.Manifest)
	if err != nil {
		return nil, err
	}

	vc, err := m.Collection().Validated()
	if err != nil {
		return nil, err
	}

	schemas, err := m.Schemas()
	if err != nil {
		return nil, err
	}

	l, err := m.Loader(ctx, loader.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}

	a.logger.Debug("manifest loaded", "path", a.settings.Manifest, "params", len(vc.Specs()),
		"alternatives", len(schemas.Alternatives))

	return &session{
		manifest:   m,
		collection: vc,
		schemas:    schemas,
		loader:     l,
		opts:       []merge.Option{merge.WithLogger(a.logger), merge.WithLoaderName(loaderName(m))},
	}, nil
}

func (s *session) merge(argv []string) (*merge.Result, error) {
	return merge.Run(s.collection, argv, s.loader, s.schemas, s.opts...)
}

// loaderName describes the manifest's config sources for error messages.
func loaderName(m *manifest.Manifest) string {
	if m.Config == nil {
		return "config"
	}
	var parts []string
	if m.Config.Param != "" {
		parts = append(parts, "param "+m.Config.Param)
	}
	if m.Config.File != "" {
		parts = append(parts, "file "+m.Config.File)
	}
	if m.Config.Env != "" {
		parts = append(parts, "env "+m.Config.Env+"_*")
	}
	if len(parts) == 0 {
		return "config"
	}
	return strings.Join(parts, " + ")
}

func (a *app) runCmd() *cobra.Command {
	var (
		output    string
		watchMode bool
	)

	cmd := &cobra.Command{
		Use:   "run [-- args...]",
		Short: "Merge arguments with configuration and print the record",
		Example: `  argmerge run -- --config app.yaml --verbose
  argmerge run --watch -o yaml -- -c app.yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			if watchMode {
				return a.watch(cmd.Context(), s, args, output)
			}

			res, err := s.merge(args)
			if err != nil {
				return err
			}
			return writeRecord(a.out, res.Record, output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "Output format (json|yaml)")
	cmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "Merge again whenever the config file changes")
	return cmd
}

// watch prints a record for the current config file, then again after every
// change until ctx is cancelled. Merge failures are reported and watching
// continues.
func (a *app) watch(ctx context.Context, s *session, argv []string, output string) error {
	cli, err := params.Parse(s.collection, argv)
	if err != nil {
		return err
	}

	path := s.manifest.ConfigPath(cli)
	if path == "" {
		return &CLIError{
			Type:    "config",
			Message: "nothing to watch: no config file is in use",
			Hint:    "Declare config.file in the manifest, or pass the config.param parameter.",
		}
	}

	w, err := watch.New(path, watch.WithDebounce(a.settings.WatchDebounce), watch.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	emit := func(context.Context) {
		res, err := s.merge(argv)
		if err != nil {
			FormatError(a.errOut, err, a.useColor)
			return
		}
		if err := writeRecord(a.out, res.Record, output); err != nil {
			FormatError(a.errOut, err, a.useColor)
		}
	}

	emit(ctx)
	return w.Run(ctx, emit)
}

func (a *app) checkCmd() *cobra.Command {
	var (
		document string
		format   string
		explain  bool
	)

	cmd := &cobra.Command{
		Use:   "check [-- args...]",
		Short: "Report which record shape a merge or a document matches",
		Example: `  argmerge check -- --config app.yaml
  argmerge check --explain --document record.json
  cat record.yaml | argmerge check -d - -f yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			var (
				idx    int
				record map[string]any
			)
			if document != "" {
				record, err = a.readDocument(cmd.Context(), document, format)
				if err != nil {
					return err
				}
				idx, err = s.schemas.Match(record)
			} else {
				var res *merge.Result
				res, err = s.merge(args)
				if res != nil {
					idx = res.Alternative
				} else if r, ok := merge.RecordOf(err); ok {
					record = r
				}
			}

			if err != nil {
				if explain {
					a.explain(err, s.schemas, record)
				}
				return err
			}

			fmt.Fprintf(a.out, "%s record matches alternative %d\n", Colorize("ok:", ColorGreen, a.useColor), idx)
			return nil
		},
	}

	cmd.Flags().StringVarP(&document, "document", "d", "", "Check a record document instead of merging (- for stdin)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Document format when it cannot be told from the extension")
	cmd.Flags().BoolVar(&explain, "explain", false, "Explain why each alternative rejected the record")
	return cmd
}

// explain writes why each alternative rejected record, followed by the
// equivalent JSON Schema verdict.
func (a *app) explain(err error, schemas types.Schemas, record map[string]any) {
	if len(types.Attempts(err)) == 0 {
		return
	}
	FormatAttempts(a.errOut, err, a.useColor)

	if record == nil {
		return
	}
	verr := types.NewValidator(nil).Validate(schemas.ToJSONSchema(), record)
	if verr == nil {
		return
	}
	fmt.Fprintf(a.errOut, "%s\n", Colorize("json schema:", ColorCyan, a.useColor))
	for _, line := range strings.Split(verr.Error(), "\n") {
		fmt.Fprintf(a.errOut, "  %s\n", Colorize(line, ColorGray, a.useColor))
	}
	fmt.Fprintln(a.errOut)
}

func (a *app) readDocument(ctx context.Context, path, format string) (map[string]any, error) {
	if path != "-" {
		if format == "" {
			return loader.Read(ctx, path)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read document: %w", err)
		}
		return loader.Decode(loader.Format(format), path, data)
	}

	if format == "" {
		format = string(loader.FormatJSON)
	}
	data, err := io.ReadAll(a.in)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return loader.Decode(loader.Format(format), "stdin", data)
}

func (a *app) paramsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "params [-- args...]",
		Short: "List the parameters the manifest declares",
		Long: `List the parameters the manifest declares.

Any arguments after -- are scanned against the parameters and the tokens no
parameter consumes are reported.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tALIASES\tKIND\tREQUIRED\tDEFAULT\tDESCRIPTION")
			for _, spec := range s.collection.Specs() {
				aliases := "-"
				if len(spec.Aliases) > 0 {
					aliases = strings.Join(spec.Aliases, ", ")
				}
				def := "-"
				if spec.Default != nil {
					def = fmt.Sprint(spec.Default)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\t%s\t%s\n",
					spec.Name, aliases, spec.Kind, spec.Required, def, spec.Description)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(args) > 0 {
				leftover := params.Leftover(s.collection, args)
				if len(leftover) > 0 {
					fmt.Fprintf(a.out, "\n%s %s\n",
						Colorize("unconsumed:", ColorYellow, a.useColor), strings.Join(leftover, " "))
				}
			}
			return nil
		},
	}
}

func (a *app) schemaCmd() *cobra.Command {
	var meta bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the records the manifest accepts",
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema types.JSONSchema
			if meta {
				schema = manifest.MetaSchema()
			} else {
				s, err := a.open(cmd.Context())
				if err != nil {
					return err
				}
				schema = s.schemas.ToJSONSchema()
			}

			data, err := schema.ToJSON()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "%s\n", data)
			return err
		},
	}

	cmd.Flags().BoolVar(&meta, "meta", false, "Print the schema of manifest files instead")
	return cmd
}

func writeRecord(w io.Writer, record merge.Record, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(record, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any(record)); err != nil {
			return fmt.Errorf("failed to encode record: %w", err)
		}
		return enc.Close()
	default:
		return &CLIError{
			Type:    "arguments",
			Message: fmt.Sprintf("unknown output format %q", format),
			Hint:    "Use -o json or -o yaml.",
		}
	}
}
