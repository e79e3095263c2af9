package sweep

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/teranos/corrsweep/errors"
	"github.com/teranos/corrsweep/logger"
)

// Invoker runs every invocation of a plan and reports each result.
//
// Child failures (non-zero exit, missing executable, stderr output) are
// recorded and never stop the batch. Run returns an error only when the
// batch cannot start: an invalid plan or a store that rejects the run.
type Invoker struct {
	Runner       Runner             // nil = ProcessRunner
	Emitter      Emitter            // nil = discard
	Store        RunRecorder        // nil = do not persist
	Pacer        *Pacer             // nil = launch immediately
	Parallel     int                // <= 1 = sequential
	MirrorOutput bool               // Also log child stdout/stderr at debug level
	Logger       *zap.SugaredLogger // nil = global logger
}

// Run executes plan and returns the finished run. A cancelled ctx stops new
// launches, kills running children and yields a run with StatusCancelled.
func (inv *Invoker) Run(ctx context.Context, plan *Plan) (*Run, error) {
	if err := plan.Verify(); err != nil {
		return nil, errors.Wrap(err, "plan verification failed")
	}

	runner := inv.Runner
	if runner == nil {
		runner = &ProcessRunner{}
	}
	emitter := inv.Emitter
	if emitter == nil {
		emitter = nopEmitter{}
	}
	workers := inv.Parallel
	if workers < 1 {
		workers = 1
	}

	run := &Run{
		ID:          uuid.NewString(),
		Evaluator:   plan.Evaluator.Label,
		Interpreter: plan.Interpreter,
		ScriptPath:  plan.ScriptPath,
		DataPath:    plan.DataPath,
		WeightsPath: plan.WeightsPath,
		Parallel:    workers,
		Status:      StatusRunning,
		Total:       plan.Len(),
		StartedAt:   time.Now(),
	}

	log := logger.LoggerFromContext(logger.WithRunID(ctx, run.ID), inv.Logger)

	if inv.Store != nil {
		if err := inv.Store.CreateRun(run); err != nil {
			return nil, errors.Wrap(err, "failed to record run start")
		}
	}

	log.Infow("Run started",
		logger.FieldEvaluator, run.Evaluator,
		logger.FieldTotalCount, run.Total,
		logger.FieldWorkers, workers,
	)
	emitter.EmitStart(run.ID, plan)

	// Indexed by Seq so results stay in plan order whatever finishes first
	results := make([]Result, plan.Len())
	for i, invocation := range plan.Invocations {
		results[i] = Result{
			Seq:        invocation.Seq,
			Corruption: invocation.Corruption,
			Severity:   invocation.Severity,
			Command:    invocation.Command(),
			Status:     StatusQueued,
		}
	}

	var g errgroup.Group
	g.SetLimit(workers)

	for i, invocation := range plan.Invocations {
		if ctx.Err() != nil {
			break
		}
		if err := inv.Pacer.Wait(ctx); err != nil {
			break
		}

		g.Go(func() error {
			// A slot may free up only after cancellation
			if ctx.Err() != nil {
				return nil
			}
			res := inv.execute(ctx, runner, plan, invocation, log)
			results[i] = res

			if inv.Store != nil {
				if err := inv.Store.RecordResult(run.ID, res); err != nil {
					log.Warnw("Failed to record invocation",
						logger.FieldSeq, res.Seq,
						logger.FieldError, err.Error(),
					)
				}
			}
			emitter.EmitResult(res)
			return nil
		})
	}
	g.Wait()

	completedAt := time.Now()
	run.CompletedAt = &completedAt
	for _, res := range results {
		if res.Status == StatusQueued {
			continue
		}
		run.Results = append(run.Results, res)
		if res.Failed() {
			run.Failed++
		}
	}

	switch {
	case ctx.Err() != nil:
		run.Status = StatusCancelled
	case run.Failed > 0:
		run.Status = StatusFailed
	default:
		run.Status = StatusCompleted
	}

	if inv.Store != nil {
		if err := inv.Store.CompleteRun(run); err != nil {
			log.Errorw("Failed to record run completion", logger.FieldError, err.Error())
		}
	}

	summary := run.Summary()
	log.Infow("Run finished",
		logger.FieldTotalCount, summary.Total,
		logger.FieldFailed, summary.Failed,
		logger.FieldDurationMS, summary.DurationMS,
		"status", string(run.Status),
	)
	emitter.EmitComplete(summary)

	return run, nil
}

// execute runs one invocation to completion
func (inv *Invoker) execute(ctx context.Context, runner Runner, plan *Plan, invocation Invocation, log *zap.SugaredLogger) Result {
	log.Debugw("Invocation started",
		logger.FieldSeq, invocation.Seq,
		logger.FieldCorruption, string(invocation.Corruption),
		logger.FieldSeverity, int(invocation.Severity),
	)

	res := newResult(invocation, runner.Run(ctx, invocation.Args, plan.WorkDir))

	fields := []interface{}{
		logger.FieldSeq, res.Seq,
		logger.FieldCorruption, string(res.Corruption),
		logger.FieldSeverity, int(res.Severity),
		logger.FieldExitCode, res.ExitCode,
		logger.FieldDurationMS, res.DurationMS,
	}
	if res.Failed() {
		if res.Error != "" {
			fields = append(fields, logger.FieldError, res.Error)
		}
		log.Infow("Invocation failed", fields...)
	} else {
		log.Debugw("Invocation finished", fields...)
	}

	if inv.MirrorOutput {
		log.Debugw("Child output",
			logger.FieldSeq, res.Seq,
			logger.FieldStdout, res.Stdout,
			logger.FieldStderr, res.Stderr,
		)
	}

	return res
}
