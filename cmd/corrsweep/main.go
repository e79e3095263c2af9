package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/teranos/corrsweep/cmd/corrsweep/commands"
	"github.com/teranos/corrsweep/internal/exitcode"
	"github.com/teranos/corrsweep/logger"
)

var rootCmd = &cobra.Command{
	Use:   "corrsweep",
	Short: "corrsweep - corruption robustness sweeps for depth evaluators",
	Long: `corrsweep - corruption robustness sweeps for depth-estimation evaluators.

corrsweep runs one evaluator script once for every corruption in the catalog
at every severity from 1 to 5, prints each command with its output and
errors, and records the outcome of every invocation.

Available commands:
  run      - Run the full sweep
  plan     - Print the command lines without running them
  catalog  - List corruptions, severities and evaluator backends
  results  - Inspect recorded runs
  am       - Manage corrsweep configuration ("I am")
  version  - Show version information

Examples:
  corrsweep run                        # 75 invocations of the default evaluator
  corrsweep run -e monodepth -p 2      # Another backend, two at a time
  corrsweep plan                       # Preview the commands
  corrsweep results ls                 # Recent runs`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize global logger before any command runs
		return commands.Setup(cmd)
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default: am.toml layers)")

	rootCmd.AddCommand(commands.RunCmd)
	rootCmd.AddCommand(commands.PlanCmd)
	rootCmd.AddCommand(commands.CatalogCmd)
	rootCmd.AddCommand(commands.ResultsCmd)
	rootCmd.AddCommand(commands.AmCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	err := rootCmd.ExecuteContext(context.Background())
	commands.PrintError(os.Stderr, err)
	logger.Cleanup()
	os.Exit(exitcode.Code(err))
}
