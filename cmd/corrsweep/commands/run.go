package commands

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/teranos/corrsweep/am"
	"github.com/teranos/corrsweep/errors"
	"github.com/teranos/corrsweep/internal/exitcode"
	"github.com/teranos/corrsweep/logger"
	"github.com/teranos/corrsweep/sweep"
)

// RunCmd runs the full corruption sweep for one evaluator
var RunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the evaluator over every corruption and severity",
	Long: `Run the active evaluator once per (corruption, severity) pair.

Every invocation prints its command line, its stdout and its stderr,
followed by a separator. A failing invocation is recorded and the batch
moves on; nothing short of Ctrl+C stops a sweep early.

Examples:
  corrsweep run                               # 75 invocations of the default evaluator
  corrsweep run -e afsfmlearner               # Pick another evaluator backend
  corrsweep run --interpreter python3 --parallel 2
  corrsweep run --json > sweep.jsonl          # One JSON event per line
  corrsweep run --strict                      # Exit 3 if any invocation failed`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var runFlags struct {
	sweepFlags
	parallel         int
	launchIntervalMS int
	json             bool
	dbPath           string
	noRecord         bool
	strict           bool
}

func init() {
	runFlags.register(RunCmd)
	f := RunCmd.Flags()
	f.IntVarP(&runFlags.parallel, "parallel", "p", 1, "Invocations to run at once (1 = sequential)")
	f.IntVar(&runFlags.launchIntervalMS, "launch-interval", 0, "Minimum milliseconds between evaluator launches")
	f.BoolVar(&runFlags.json, "json", false, "Emit JSON events instead of text blocks")
	f.StringVar(&runFlags.dbPath, "db", "", "Run database path (overrides database.path)")
	f.BoolVar(&runFlags.noRecord, "no-record", false, "Do not record the run in the database")
	f.BoolVar(&runFlags.strict, "strict", false, "Exit with status 3 when any invocation failed")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, cfg)

	verbosity, _ := cmd.Flags().GetCount("verbose")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := executeSweep(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), verbosity)
	if err != nil {
		return err
	}

	return runExitError(run, cfg.Sweep.Strict)
}

// runExitError maps a finished run to the error main turns into an exit status
func runExitError(run *sweep.Run, strict bool) error {
	code := exitcode.ForRun(run.Status == sweep.StatusCancelled, run.Failed, strict)
	switch code {
	case exitcode.Success:
		return nil
	case exitcode.Cancelled:
		s := run.Summary()
		return &exitcode.Error{Code: code, Err: errors.Wrapf(errors.ErrCancelled,
			"run %s stopped after %d of %d invocations", shortRunID(run.ID), s.Passed+s.Failed, s.Total)}
	case exitcode.Failures:
		return &exitcode.Error{Code: code, Err: errors.Newf("%d of %d invocations failed", run.Failed, run.Total)}
	}
	return &exitcode.Error{Code: code}
}

func applyRunFlags(cmd *cobra.Command, cfg *am.Config) {
	runFlags.apply(cmd, cfg)

	f := cmd.Flags()
	if f.Changed("parallel") {
		cfg.Sweep.Parallel = runFlags.parallel
	}
	if f.Changed("launch-interval") {
		cfg.Sweep.LaunchIntervalMS = runFlags.launchIntervalMS
	}
	if runFlags.json {
		cfg.Output.Format = am.FormatJSON
	}
	if f.Changed("db") {
		cfg.Database.Path = runFlags.dbPath
	}
	if runFlags.noRecord {
		cfg.Database.Record = false
	}
	if runFlags.strict {
		cfg.Sweep.Strict = true
	}
}

// executeSweep plans, runs and records one sweep. Result blocks go to out,
// the optional banner to errOut.
func executeSweep(ctx context.Context, cfg *am.Config, out, errOut io.Writer, verbosity int) (*sweep.Run, error) {
	plan, err := buildPlan(cfg)
	if err != nil {
		return nil, err
	}

	workers := cfg.GetParallel()
	if warning := sweep.CheckMemoryPressure(workers, cfg.Sweep.MemoryPerWorkerGB); warning != "" {
		logger.Warnw(warning, logger.FieldWorkers, workers)
	}

	var recorder sweep.RunRecorder
	dbPath := ""
	if cfg.Database.Record {
		dbPath = cfg.GetDatabasePath()
		database, store, err := openStore(dbPath)
		if err != nil {
			return nil, err
		}
		defer database.Close()
		recorder = store
	}

	var emitter sweep.Emitter
	if cfg.Output.Format == am.FormatJSON {
		emitter = sweep.NewJSONEmitter(out)
	} else {
		emitter = sweep.NewConsoleEmitter(out, verbosity)
		if logger.ShouldOutput(verbosity, logger.OutputConfig) {
			printRunBanner(errOut, verbosity, plan, workers, dbPath)
		}
	}

	invoker := &sweep.Invoker{
		Runner:       &sweep.ProcessRunner{},
		Emitter:      emitter,
		Store:        recorder,
		Pacer:        sweep.NewPacer(time.Duration(cfg.Sweep.LaunchIntervalMS) * time.Millisecond),
		Parallel:     workers,
		MirrorOutput: logger.ShouldOutput(verbosity, logger.OutputChildOutput),
		Logger:       logger.ComponentLogger("sweep.invoker"),
	}

	return invoker.Run(ctx, plan)
}
