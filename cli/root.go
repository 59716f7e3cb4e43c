/*
root.go - Command-line interface for the savings goal planner

PURPOSE:
  Runs projections and yield calculations from the terminal, without the
  HTTP server. Shares the planning engine and the SGS client with it.

COMMANDS:
  planner project     Months/years to reach a savings goal
  planner yield       Real and net real yield for a nominal rate
  planner indicators  Latest Selic/IPCA from the central bank

GLOBAL FLAGS:
  --json        Print JSON instead of text
  --log-level   Log level for diagnostics on stderr (default: warn)

SEE ALSO:
  - cmd/planner/main.go: Entry point
  - plan.go: YAML plan files
*/
package cli

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/warp/goal-planner/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	JSON     bool
	LogLevel string
}

// NewRootCommand creates the root command for the planner CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "planner",
		Short: "Savings goal planner",
		Long: `Estimate how long it takes to reach a savings goal with monthly
contributions compounding at a real (inflation-adjusted) rate.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "print JSON output")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewProjectCommand(opts))
	cmd.AddCommand(NewYieldCommand(opts))
	cmd.AddCommand(NewIndicatorsCommand(opts))

	return cmd
}

// newLogger writes diagnostics to stderr so stdout stays parseable.
func (o *RootOptions) newLogger(stderr io.Writer) zerolog.Logger {
	return logger.New(logger.Config{Level: o.LogLevel, Pretty: true, Output: stderr})
}
