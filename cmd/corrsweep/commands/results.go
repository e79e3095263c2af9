package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/corrsweep/errors"
	"github.com/teranos/corrsweep/sweep"
)

// ResultsCmd groups the commands that read recorded runs
var ResultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Inspect recorded sweep runs",
	Long: `Inspect runs recorded in the run database.

Run IDs may be shortened to any unique prefix, such as the 8 characters
shown in log lines.

Examples:
  corrsweep results ls                     # Most recent runs
  corrsweep results show 3f2a9c1e          # Replay a run's output
  corrsweep results show 3f2a9c1e --failed # Only failed invocations
  corrsweep results show 3f2a9c1e --format json
  corrsweep results rm 3f2a9c1e`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var resultsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded runs, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, store, err := openStore(resultsFlags.dbPath)
		if err != nil {
			return err
		}
		defer database.Close()
		return listRuns(cmd.OutOrStdout(), store, resultsFlags.limit)
	},
}

var resultsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run and its invocations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, store, err := openStore(resultsFlags.dbPath)
		if err != nil {
			return err
		}
		defer database.Close()
		return showRun(cmd.OutOrStdout(), store, args[0], resultsFlags.format, resultsFlags.failed)
	},
}

var resultsRmCmd = &cobra.Command{
	Use:   "rm <run-id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, store, err := openStore(resultsFlags.dbPath)
		if err != nil {
			return err
		}
		defer database.Close()

		if err := store.DeleteRun(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", args[0])
		return nil
	},
}

var resultsFlags struct {
	dbPath string
	limit  int
	format string
	failed bool
}

func init() {
	ResultsCmd.PersistentFlags().StringVar(&resultsFlags.dbPath, "db", "", "Run database path (overrides database.path)")
	resultsLsCmd.Flags().IntVar(&resultsFlags.limit, "limit", 20, "Maximum number of runs to display")
	resultsShowCmd.Flags().StringVar(&resultsFlags.format, "format", "text", "Output format: text, json, yaml")
	resultsShowCmd.Flags().BoolVar(&resultsFlags.failed, "failed", false, "Only show failed invocations")

	ResultsCmd.AddCommand(resultsLsCmd)
	ResultsCmd.AddCommand(resultsShowCmd)
	ResultsCmd.AddCommand(resultsRmCmd)
}

// listRuns prints a table of recent runs
func listRuns(w io.Writer, store *sweep.Store, limit int) error {
	runs, err := store.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded yet. Start one with 'corrsweep run'.")
		return nil
	}

	data := pterm.TableData{{"Run", "Evaluator", "Status", "Total", "Failed", "Parallel", "Started", "Duration"}}
	for _, run := range runs {
		duration := "-"
		if run.CompletedAt != nil {
			duration = run.CompletedAt.Sub(run.StartedAt).Round(time.Second).String()
		}
		data = append(data, []string{
			shortRunID(run.ID),
			run.Evaluator,
			string(run.Status),
			strconv.Itoa(run.Total),
			strconv.Itoa(run.Failed),
			strconv.Itoa(run.Parallel),
			run.StartedAt.Local().Format(time.DateTime),
			duration,
		})
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render runs")
	}
	fmt.Fprintln(w, table)
	return nil
}

// showRun prints one run. Text replays the original console blocks.
func showRun(w io.Writer, store *sweep.Store, id, format string, failedOnly bool) error {
	run, err := store.GetRun(id)
	if err != nil {
		return err
	}
	summary := run.Summary()
	if failedOnly {
		run.Results = run.FailedResults()
	}

	switch format {
	case "", "text":
		emitter := sweep.NewConsoleEmitter(w, 0)
		for _, res := range run.Results {
			emitter.EmitResult(res)
		}
		emitter.EmitComplete(summary)
		return nil

	case "json":
		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal run to JSON")
		}
		fmt.Fprintln(w, string(data))
		return nil

	case "yaml":
		data, err := yaml.Marshal(run)
		if err != nil {
			return errors.Wrap(err, "failed to marshal run to YAML")
		}
		fmt.Fprint(w, string(data))
		return nil
	}

	return errors.WithHint(
		errors.NewInvalidRequestError("unsupported format: %s", format),
		"supported formats: text, json, yaml",
	)
}

// shortRunID is the first UUID segment, as shown in log lines
func shortRunID(id string) string {
	for i, c := range id {
		if c == '-' {
			return id[:i]
		}
	}
	return id
}
