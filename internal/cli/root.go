// Package cli implements the ncurep command tree.
package cli

import (
	"cmp"
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/coral-mesh/ncurep/internal/cli/helpers"
	"github.com/coral-mesh/ncurep/internal/config"
	"github.com/coral-mesh/ncurep/internal/logging"
	"github.com/coral-mesh/ncurep/internal/safe"
)

// app is the state shared by subcommands once the root command has loaded
// the configuration.
type app struct {
	cfg    *config.Config
	loader *config.Loader
	logCfg logging.Config
	logger zerolog.Logger
	stderr io.Writer
}

type rootOptions struct {
	logLevel string
	pretty   bool
}

// NewRootCmd builds the ncurep command tree.
func NewRootCmd() *cobra.Command {
	var (
		opts rootOptions
		a    = &app{}
	)

	cmd := &cobra.Command{
		Use:   "ncurep",
		Short: "Decode Nsight Compute profiling reports",
		Long: `Decode Nsight Compute (.ncu-rep) kernel profiling reports without the
NVIDIA tools installed.

ncurep walks the NVR container, resolves each profiled kernel's sections,
metrics and hints, and prints them as tables or JSON. Decoded reports can
be imported into a local DuckDB database to list and compare kernels
across captures.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	cmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", true, "Human-readable log output")

	cmd.AddCommand(
		newInspectCmd(a),
		newShowCmd(a),
		newImportCmd(a),
		newReportsCmd(a),
		newKernelsCmd(a),
		newMetricsCmd(a),
		newRemoveCmd(a),
		newConfigCmd(a),
		newVersionCmd(),
	)

	return cmd
}

func (a *app) init(cmd *cobra.Command, opts rootOptions) error {
	a.loader = config.NewLoader()
	cfg, err := a.loader.Load()
	if err != nil {
		return err
	}

	if opts.logLevel != "" {
		if _, err := logging.ParseLevel(opts.logLevel); err != nil {
			return err
		}
		cfg.Log.Level = opts.logLevel
	}
	if cmd.Flags().Changed("pretty") {
		cfg.Log.Pretty = opts.pretty
	}

	a.cfg = cfg
	a.stderr = cmd.ErrOrStderr()
	a.logCfg = logging.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		Output: a.stderr,
	}
	a.logger = logging.New(a.logCfg)
	return nil
}

// componentLogger returns a logger tagged with the subsystem it serves.
func (a *app) componentLogger(component string) zerolog.Logger {
	return logging.NewWithComponent(a.logCfg, component)
}

// readReport reads a report file within the configured size limit.
func (a *app) readReport(path string) ([]byte, error) {
	buf, err := safe.ReadFile(path, &safe.ReadOptions{MaxSize: a.cfg.Report.MaxSize})
	if err != nil {
		return nil, fmt.Errorf("failed to read report: %w", err)
	}
	return buf, nil
}

// formatter resolves the --format flag, falling back to output.format.
func (a *app) formatter(flag string) (helpers.Formatter, error) {
	format, err := helpers.ValidateFormat(cmp.Or(flag, a.cfg.Output.Format))
	if err != nil {
		return nil, err
	}
	return helpers.NewFormatter(format)
}

// databasePath resolves the --db flag, falling back to storage.database.
func (a *app) databasePath(flag string) string {
	return cmp.Or(flag, a.cfg.Storage.Database)
}

// Execute runs the root command. It returns when ctx is canceled or the
// command finishes.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}
