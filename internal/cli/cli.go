package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vk/pipegrid/internal/app"
	"github.com/vk/pipegrid/internal/config"
	"github.com/vk/pipegrid/internal/plugin"
	"github.com/vk/pipegrid/internal/registry"
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

func usageError(err error) error {
	return &ExitError{Code: 2, Message: err.Error()}
}

// Options carries the collaborators the commands need.
type Options struct {
	Out    io.Writer
	Loader config.Loader
	// Modules overrides the built-in modules when set.
	Modules []registry.Module
}

type flags struct {
	configFile        string
	grid              []string
	logLevel          string
	logFormat         string
	workers           int
	healthcheckPort   int
	progressURL       string
	progressNamespace string
	watch             bool
}

// Execute parses args and runs the selected command.
func Execute(ctx context.Context, args []string, opts Options) error {
	root := NewRootCommand(opts)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the command tree.
func NewRootCommand(opts Options) *cobra.Command {
	return newRootCommand(opts, &flags{})
}

func newRootCommand(opts Options, f *flags) *cobra.Command {
	root := &cobra.Command{
		Use:   "pipegrid [GRID_PATH...]",
		Short: "Runs data pipelines described as graphs of typed nodes.",
		Long: `pipegrid - builds parallel pipeline instances from a graph description
and runs them concurrently.

GRID_PATH is a .hcl or .json file, or a directory containing them.
Running pipegrid with paths is the same as 'pipegrid run'.`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(f.grid) == 0 {
				slog.Debug("No grid path provided, printing usage and exiting.")
				return cmd.Help()
			}
			return runCommand(cmd, f, opts, args)
		},
	}
	root.SetOut(opts.Out)
	root.SetErr(opts.Out)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	pf := root.PersistentFlags()
	pf.StringVarP(&f.configFile, "config", "c", "", "Path to a YAML settings file.")
	pf.StringSliceVarP(&f.grid, "grid", "g", nil, "Path to a grid file or directory. Repeatable.")
	pf.StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	pf.StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	pf.IntVar(&f.workers, "workers", 10, "Maximum number of concurrent plugin calls.")
	pf.IntVar(&f.healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check and metrics server. 0 is disabled.")
	pf.StringVar(&f.progressURL, "progress-url", "", "socket.io endpoint receiving progress events.")
	pf.StringVar(&f.progressNamespace, "progress-namespace", "", "socket.io namespace for progress events.")

	runCmd := &cobra.Command{
		Use:   "run [GRID_PATH...]",
		Short: "Build the graph and run every pipeline instance.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCommand(cmd, f, opts, args)
		},
	}
	runCmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Run again whenever a grid file changes.")

	planCmd := &cobra.Command{
		Use:   "plan [GRID_PATH...]",
		Short: "Build the graph and print the pipeline layout without running it.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, args)
			if err != nil {
				return err
			}
			return newApp(cmd, cfg, opts).Plan(cmd.Context(), cmd.OutOrStdout())
		},
	}

	exportCmd := &cobra.Command{
		Use:   "export [GRID_PATH...]",
		Short: "Merge the grid files and print them as one HCL document.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, args)
			if err != nil {
				return err
			}
			return newApp(cmd, cfg, opts).Export(cmd.Context(), cmd.OutOrStdout())
		},
	}

	pluginsCmd := &cobra.Command{
		Use:   "plugins",
		Short: "List the registered plugin types.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := app.DefaultConfig()
			cfg.LogLevel = strings.ToLower(f.logLevel)
			cfg.LogFormat = strings.ToLower(f.logFormat)
			return writePlugins(cmd.OutOrStdout(), newApp(cmd, &cfg, opts).Registry())
		},
	}

	root.AddCommand(runCmd, planCmd, exportCmd, pluginsCmd)
	return root
}

func newApp(cmd *cobra.Command, cfg *app.Config, opts Options) *app.App {
	return app.NewApp(cmd.ErrOrStderr(), cfg, opts.Loader, opts.Modules...)
}

func runCommand(cmd *cobra.Command, f *flags, opts Options, args []string) error {
	cfg, err := resolveConfig(cmd, f, args)
	if err != nil {
		return err
	}
	a := newApp(cmd, cfg, opts)
	if f.watch {
		return a.Watch(cmd.Context())
	}
	return a.Run(cmd.Context())
}

// resolveConfig layers defaults, the settings file and explicitly set flags,
// then validates the result.
func resolveConfig(cmd *cobra.Command, f *flags, args []string) (*app.Config, error) {
	cfg := app.DefaultConfig()
	if f.configFile != "" {
		if err := app.LoadConfigFile(f.configFile, &cfg); err != nil {
			return nil, usageError(err)
		}
	}

	set := func(name string, apply func()) {
		if fl := cmd.Flags().Lookup(name); fl != nil && fl.Changed {
			apply()
		}
	}
	set("log-level", func() { cfg.LogLevel = f.logLevel })
	set("log-format", func() { cfg.LogFormat = f.logFormat })
	set("workers", func() { cfg.Workers = f.workers })
	set("healthcheck-port", func() { cfg.HealthcheckPort = f.healthcheckPort })
	set("progress-url", func() { cfg.ProgressURL = f.progressURL })
	set("progress-namespace", func() { cfg.ProgressNamespace = f.progressNamespace })

	switch {
	case len(args) > 0:
		cfg.GridPaths = append(append([]string{}, f.grid...), args...)
	case len(f.grid) > 0:
		cfg.GridPaths = f.grid
	}

	out, err := app.NewConfig(cfg)
	if err != nil {
		return nil, usageError(err)
	}
	slog.Debug("CLI parser finished successfully.", "config", out)
	return out, nil
}

func writePlugins(w io.Writer, reg *registry.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tKIND\tINPUTS\tOUTPUTS\tDESCRIPTION")
	for _, d := range reg.Describe() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Type, d.Kind, slotList(d.Inputs), slotList(d.Outputs), d.Description)
	}
	return tw.Flush()
}

func slotList(slots []plugin.SlotInfo) string {
	if len(slots) == 0 {
		return "-"
	}
	parts := make([]string, len(slots))
	for i, sl := range slots {
		parts[i] = sl.Name
		if sl.Type != "" {
			parts[i] += ":" + sl.Type
		}
	}
	return strings.Join(parts, ",")
}
