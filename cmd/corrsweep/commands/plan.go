package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/corrsweep/am"
	"github.com/teranos/corrsweep/errors"
	"github.com/teranos/corrsweep/sweep"
)

// PlanCmd prints the invocations of a sweep without running them
var PlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Print the command lines a run would execute",
	Long: `Print every command line of the sweep in execution order, without
running anything. The plan is verified first: each line is parsed back and
must name exactly one (corruption, severity) pair.

Examples:
  corrsweep plan                          # One command per line
  corrsweep plan -e monodepth --format json
  corrsweep plan -o sweep.sh              # Write the commands to a file`,
	Args: cobra.NoArgs,
	RunE: runPlan,
}

var planFlags struct {
	sweepFlags
	format string
	output string
}

func init() {
	planFlags.register(PlanCmd)
	PlanCmd.Flags().StringVar(&planFlags.format, "format", "text", "Output format: text, json, yaml")
	PlanCmd.Flags().StringVarP(&planFlags.output, "output", "o", "", "Write the plan to a file instead of stdout")
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	planFlags.apply(cmd, cfg)

	plan, err := buildPlan(cfg)
	if err != nil {
		return err
	}
	if err := plan.Verify(); err != nil {
		return errors.Wrap(err, "plan verification failed")
	}

	data, err := renderPlan(plan, planFlags.format)
	if err != nil {
		return err
	}

	if planFlags.output != "" {
		if err := os.WriteFile(planFlags.output, data, am.DefaultFilePermissions); err != nil {
			return errors.Wrapf(err, "failed to write plan to %s", planFlags.output)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d commands to %s\n", plan.Len(), planFlags.output)
		return nil
	}

	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// renderPlan formats a plan as one command per line, JSON or YAML
func renderPlan(plan *sweep.Plan, format string) ([]byte, error) {
	switch format {
	case "", "text":
		var b strings.Builder
		for _, inv := range plan.Invocations {
			b.WriteString(inv.Command())
			b.WriteByte('\n')
		}
		return []byte(b.String()), nil

	case "json":
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal plan to JSON")
		}
		return append(data, '\n'), nil

	case "yaml":
		data, err := yaml.Marshal(plan)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal plan to YAML")
		}
		return data, nil
	}

	return nil, errors.WithHint(
		errors.NewInvalidRequestError("unsupported format: %s", format),
		"supported formats: text, json, yaml",
	)
}
