package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/specialistvlad/gridsweep/internal/app"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every command that builds an App.
type globalFlags struct {
	logLevel  string
	logFormat string
}

// NewRootCommand builds the gridsweep command tree.
func NewRootCommand(outW io.Writer) *cobra.Command {
	var global globalFlags

	root := &cobra.Command{
		Use:   "gridsweep",
		Short: "Run every combination of a configuration space",
		Long: `gridsweep enumerates the cartesian product of a configuration space
declared in HCL sweep files, runs each combination and collects the
results into a table that can be saved as YAML or SQLite.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetFlagErrorFunc(flagError)

	pf := root.PersistentFlags()
	pf.StringVar(&global.logLevel, "log-level", "info", "Logging level: debug, info, warn or error.")
	pf.StringVar(&global.logFormat, "log-format", "text", "Log output format: text or json.")

	root.AddCommand(
		newRunCommand(outW, &global),
		newListCommand(outW, &global),
		newShowCommand(outW),
	)
	return root
}

func newRunCommand(outW io.Writer, global *globalFlags) *cobra.Command {
	cfg := app.Config{}

	cmd := &cobra.Command{
		Use:   "run PATH",
		Short: "Run a sweep declared in a file or directory of .hcl files",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.SweepPath = args[0]
			cfg.LogLevel = global.logLevel
			cfg.LogFormat = global.logFormat

			config, err := app.NewConfig(cfg)
			if err != nil {
				return usageError{err}
			}
			slog.Debug("CLI configuration ready.", "config", config)

			a, err := app.NewApp(outW, config)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&cfg.SweepName, "sweep", "s", "", "Sweep to run when the files declare several.")
	f.StringVarP(&cfg.OutputPath, "output", "o", "", "Results file (.yaml, .yml, .db or .sqlite), overriding the sweep's output.")
	f.BoolVarP(&cfg.Interactive, "interactive", "i", false, "Step through combinations from the terminal.")
	f.DurationVar(&cfg.Timeout, "timeout", 0, "Per-combination timeout, overriding the sweep's. 0 keeps the sweep's value.")
	f.StringArrayVar(&cfg.Namespaces, "namespace", nil, "Implementation namespace to allow. Repeatable; overrides the sweep's namespaces.")
	f.IntVar(&cfg.HealthcheckPort, "healthcheck-port", 0, "Port for the HTTP health and metrics server. 0 is disabled.")
	return cmd
}

func newListCommand(outW io.Writer, global *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list [PATH]",
		Short: "List implementations and the sweeps declared under PATH",
		Args:  positional(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) == 1 {
				path = args[0]
			}
			config, err := app.NewConfig(app.Config{
				SweepPath: path,
				LogLevel:  global.logLevel,
				LogFormat: global.logFormat,
			})
			if err != nil {
				return usageError{err}
			}
			a, err := app.NewApp(cmd.ErrOrStderr(), config)
			if err != nil {
				return err
			}
			return a.List(outW)
		},
	}
}

func newShowCommand(outW io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "show FILE",
		Short: "Print the results saved in a .yaml or .sqlite file",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Show(cmd.Context(), outW, args[0]); err != nil {
				return fmt.Errorf("failed to show %s: %w", args[0], err)
			}
			return nil
		},
	}
}
