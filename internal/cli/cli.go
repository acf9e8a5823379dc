package cli

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/vk/pipeargs/internal/app"
	"github.com/vk/pipeargs/internal/argparse"
	"github.com/vk/pipeargs/internal/hcl_adapter"
	"github.com/vk/pipeargs/internal/pipeline"
	"github.com/vk/pipeargs/internal/profile"
	"github.com/vk/pipeargs/internal/schema"
	"github.com/vk/pipeargs/internal/session"
	"github.com/vk/pipeargs/internal/writeback"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// usageErrors are reported with exit code 2.
var usageErrors = []error{
	argparse.ErrUsage,
	argparse.ErrUnknownFlag,
	argparse.ErrExtraRequired,
	schema.ErrInvalidValue,
	schema.ErrFlattenMultiProcess,
	pipeline.ErrInvalidSettings,
	profile.ErrUnknownProfile,
	session.ErrSessionActive,
	writeback.ErrInputShape,
}

// exitError maps an application error to an exit code. Help is not an error.
func exitError(err error) error {
	if err == nil || errors.Is(err, argparse.ErrHelp) {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	for _, target := range usageErrors {
		if errors.Is(err, target) {
			return &ExitError{Code: 2, Message: err.Error()}
		}
	}
	return &ExitError{Code: 1, Message: err.Error()}
}

type rootOptions struct {
	logLevel  string
	logFormat string
	configs   []string
	dump      bool
	flatten   string
}

func (o *rootOptions) appConfig(paths []string) (*app.Config, error) {
	cfg, err := app.NewConfig(app.Config{
		PipelinePaths: paths,
		ConfigPaths:   o.configs,
		LogLevel:      o.logLevel,
		LogFormat:     o.logFormat,
		Dump:          o.dump,
		Flatten:       o.flatten,
	})
	if err != nil {
		return nil, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, nil
}

// NewRootCommand builds the command tree. Output, including pipeline help
// and logs, goes to outW.
func NewRootCommand(outW io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "pipeargs",
		Short:         "Command-line arguments and configuration for declared pipelines",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(outW)
	root.SetErr(outW)

	pf := root.PersistentFlags()
	pf.StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&opts.logFormat, "log-format", "auto", "Log output format. Options: 'auto', 'text' or 'json'.")
	pf.StringSliceVar(&opts.configs, "config", nil, "Profile files to read, in priority order. Defaults to ~/.pipen.toml and ./.pipen.toml.")
	pf.BoolVar(&opts.dump, "dump", false, "Always write the resolved arguments to <outdir>/args.toml.")
	pf.StringVar(&opts.flatten, "flatten", "", "Override plugin_opts.args_flatten: 'auto', 'true' or 'false'.")

	root.AddCommand(newRunCommand(outW, opts), newSchemaCommand(outW, opts))
	return root
}

func newRunCommand(outW io.Writer, opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run PIPELINE [pipeline arguments...]",
		Short: "Parse pipeline arguments and apply the resolved configuration",
		Long: "Loads the pipeline declared in PIPELINE (an .hcl file or a directory), " +
			"parses the remaining arguments against its generated options and reports " +
			"the resolved configuration. Use `run PIPELINE -h` for the pipeline's own help.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.appConfig(args[:1])
			if err != nil {
				return err
			}
			a := app.NewApp(outW, cfg, hcl_adapter.NewLoader())
			defer a.Close()
			slog.Debug("Running pipeline.", "path", args[0], "args", len(args)-1)
			return exitError(a.Run(cmd.Context(), args[1:]))
		},
	}
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func newSchemaCommand(outW io.Writer, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "schema PIPELINE",
		Short: "Print every option the pipeline accepts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.appConfig(args)
			if err != nil {
				return err
			}
			a := app.NewApp(outW, cfg, hcl_adapter.NewLoader())
			defer a.Close()
			return exitError(a.Describe(cmd.Context()))
		},
	}
}

// Execute runs the command line and returns an *ExitError on failure.
func Execute(ctx context.Context, args []string, outW io.Writer) error {
	root := NewRootCommand(outW)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Errors not raised by a command are cobra's own usage errors.
	return &ExitError{Code: 2, Message: err.Error()}
}
