package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/corrsweep/am"
	"github.com/teranos/corrsweep/errors"
	"github.com/teranos/corrsweep/sweep"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage corrsweep configuration",
	Long: `am: Manage corrsweep configuration ("I am")

Configuration sources (in order of precedence):
1. Command line flags
2. Environment variables (CORRSWEEP_* prefix)
3. --config file, or project config (./am.toml or ./corrsweep.toml, searched up)
4. User config (~/.corrsweep/am.toml)
5. System config (/etc/corrsweep/am.toml)
6. Default values

Examples:
  corrsweep am show                    # Show current configuration
  corrsweep am show --format json      # Show configuration in JSON format
  corrsweep am get sweep.interpreter   # Get specific config value
  corrsweep am validate                # Validate current configuration
  corrsweep am where                   # Show which layer set each value`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective corrsweep configuration from all sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := am.Marshal(configFormat)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config")
		}
		if configFormat == "toml" {
			fmt.Fprintln(cmd.OutOrStdout(), "# corrsweep configuration")
		}
		fmt.Fprint(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., sweep.parallel, database.path)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := args[0]
		if !am.IsSet(key) {
			return errors.WithHint(
				errors.NewNotFoundError("configuration key %q", key),
				"run 'corrsweep am show' to list every key",
			)
		}
		fmt.Fprintln(cmd.OutOrStdout(), am.Get(key))
		return nil
	},
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	Long:  "Validate the configuration and check that the active evaluator resolves to a script and weights",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := validateConfig(cfg); err != nil {
			return errors.Wrap(err, "configuration validation failed")
		}
		fmt.Fprintln(cmd.OutOrStdout(), pterm.Success.Sprint("Configuration is valid"))
		return nil
	},
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where each configuration value comes from",
	RunE: func(cmd *cobra.Command, args []string) error {
		return printSettingSources(cmd.OutOrStdout(), am.Settings())
	},
}

var configFormat string

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amWhereCmd)
}

// validateConfig runs the config rules and resolves the active evaluator
func validateConfig(cfg *am.Config) error {
	if err := cfg.Validate(sweep.BuiltinLabels()...); err != nil {
		return err
	}
	_, err := sweep.ResolveEvaluator(cfg.Sweep.Evaluator, cfg.Evaluators)
	return err
}

func printSettingSources(w io.Writer, settings []am.SettingInfo) error {
	data := pterm.TableData{{"Key", "Value", "Source", "From"}}
	for _, s := range settings {
		value := fmt.Sprintf("%v", s.Value)
		// Truncate long values
		if len(value) > 50 {
			value = value[:47] + "..."
		}
		data = append(data, []string{s.Key, value, string(s.Source), s.SourcePath})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render settings")
	}
	fmt.Fprintln(w, "Configuration cascade (later overrides earlier): default < system < user < project/file < environment")
	fmt.Fprintln(w, table)
	return nil
}
