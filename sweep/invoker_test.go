package sweep

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/teranos/corrsweep/errors"
	qtest "github.com/teranos/corrsweep/internal/testing"
	"github.com/teranos/corrsweep/logger"
)

func stubPlan(t *testing.T, interpreter, script string, catalog ...Corruption) *Plan {
	t.Helper()
	plan, err := NewPlan(PlanConfig{
		Evaluator:   Evaluator{Label: "stub", Script: script, Weights: "weights", EvalMono: true},
		Interpreter: interpreter,
		DataPath:    "data",
		Catalog:     catalog,
	})
	require.NoError(t, err)
	return plan
}

// fakeRunner answers without starting processes and tracks concurrency
type fakeRunner struct {
	mu      sync.Mutex
	calls   []string
	active  int32
	peak    int32
	delay   time.Duration
	outcome func(args []string) Outcome
}

func (f *fakeRunner) Run(ctx context.Context, args []string, dir string) Outcome {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return Outcome{ExitCode: -1, Err: ctx.Err(), StartedAt: time.Now()}
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, args[3]+"/"+args[5])
	f.mu.Unlock()

	if f.outcome != nil {
		return f.outcome(args)
	}
	return Outcome{Stdout: "OK\n", StartedAt: time.Now(), Duration: f.delay}
}

func (f *fakeRunner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeRecorder fails on demand
type fakeRecorder struct {
	createErr   error
	recordErr   error
	completeErr error
	mu          sync.Mutex
	recorded    int
	completed   *Run
}

func (r *fakeRecorder) CreateRun(*Run) error { return r.createErr }

func (r *fakeRecorder) RecordResult(string, Result) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recorded++
	return r.recordErr
}

func (r *fakeRecorder) CompleteRun(run *Run) error {
	r.completed = run
	return r.completeErr
}

func TestInvoker_StubEvaluatorConsole(t *testing.T) {
	script := qtest.WriteStubEvaluator(t, qtest.StubFailOn("fog"))
	plan := stubPlan(t, qtest.StubInterpreter, script)

	var out bytes.Buffer
	inv := &Invoker{Emitter: NewConsoleEmitter(&out, 0), Logger: zap.NewNop().Sugar()}

	run, err := inv.Run(context.Background(), plan)
	require.NoError(t, err)

	console := out.String()
	assert.Equal(t, 75, strings.Count(console, "CMD "))
	assert.Equal(t, 75, strings.Count(console, Separator+"\n"))
	assert.Equal(t, 1, strings.Count(console, "--corruption gaussian_noise --severity 1 "))
	assert.Equal(t, 1, strings.Count(console, "--corruption jpeg_compression --severity 5 "))
	assert.Equal(t, 70, strings.Count(console, "Output: OK\n"))
	assert.Equal(t, 70, strings.Count(console, "Errors: \n"))
	assert.Equal(t, 5, strings.Count(console, "Errors: FAIL\n"))

	// Failures on fog do not stop the corruptions after it
	assert.Less(t, strings.Index(console, "--corruption fog "), strings.Index(console, "--corruption jpeg_compression --severity 5 "))

	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, 75, run.Total)
	assert.Equal(t, 5, run.Failed)
	require.Len(t, run.Results, 75)
	for i, res := range run.Results {
		assert.Equal(t, i, res.Seq)
		if res.Corruption == "fog" {
			assert.Equal(t, 1, res.ExitCode)
			assert.Equal(t, "FAIL\n", res.Stderr)
		} else {
			assert.Equal(t, StatusCompleted, res.Status)
		}
	}

	summary := run.Summary()
	assert.Equal(t, 70, summary.Passed)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, []int{45, 46, 47, 48, 49}, summary.FailedSeqs)
}

func TestInvoker_MissingInterpreterFailsEveryInvocation(t *testing.T) {
	plan := stubPlan(t, "corrsweep-no-such-python", "evaluate_depth.py")

	run, err := (&Invoker{Logger: zap.NewNop().Sugar()}).Run(context.Background(), plan)
	require.NoError(t, err, "child failures are not invoker errors")

	assert.Equal(t, StatusFailed, run.Status)
	assert.Equal(t, 75, run.Failed)
	for _, res := range run.Results {
		assert.Equal(t, -1, res.ExitCode)
		assert.Contains(t, res.Stderr, "corrsweep-no-such-python")
		assert.NotEmpty(t, res.Error)
	}
}

func TestInvoker_Parallel(t *testing.T) {
	plan := stubPlan(t, "python", "eval.py")
	runner := &fakeRunner{delay: 5 * time.Millisecond}

	var out bytes.Buffer
	inv := &Invoker{Runner: runner, Emitter: NewConsoleEmitter(&out, 0), Parallel: 4, Logger: zap.NewNop().Sugar()}

	run, err := inv.Run(context.Background(), plan)
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.LessOrEqual(t, atomic.LoadInt32(&runner.peak), int32(4))
	assert.Greater(t, atomic.LoadInt32(&runner.peak), int32(1))

	require.Len(t, run.Results, 75)
	seen := make(map[string]int)
	for i, res := range run.Results {
		assert.Equal(t, i, res.Seq, "results are kept in plan order")
		assert.Equal(t, plan.Invocations[i].Command(), res.Command)
		seen[fmt.Sprintf("%s/%d", res.Corruption, res.Severity)]++
	}
	assert.Len(t, seen, 75)
	for pair, n := range seen {
		assert.Equal(t, 1, n, pair)
	}

	// The summary follows the last separator
	console := out.String()
	last := strings.LastIndex(console, Separator+"\n")
	require.Positive(t, last)
	blocks := strings.Split(console[:last], Separator+"\n")
	require.Len(t, blocks, 75)
	for _, b := range blocks {
		assert.True(t, strings.HasPrefix(b, "CMD "), b)
		assert.Equal(t, 1, strings.Count(b, "CMD "), b)
		assert.Equal(t, 1, strings.Count(b, "Output: "), b)
		assert.True(t, strings.HasSuffix(b, "Errors: \n"), b)
	}
	assert.Contains(t, console[last:], "All 75 invocations exited cleanly")
}

func TestInvoker_SequentialByDefault(t *testing.T) {
	runner := &fakeRunner{delay: time.Millisecond}
	_, err := (&Invoker{Runner: runner, Logger: zap.NewNop().Sugar()}).Run(context.Background(), stubPlan(t, "python", "eval.py", "fog", "snow"))
	require.NoError(t, err)

	assert.Equal(t, int32(1), runner.peak)
	assert.Equal(t, []string{
		"fog/1", "fog/2", "fog/3", "fog/4", "fog/5",
		"snow/1", "snow/2", "snow/3", "snow/4", "snow/5",
	}, runner.calls)
}

func TestInvoker_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := &fakeRunner{}
	var n int32
	runner.outcome = func([]string) Outcome {
		if atomic.AddInt32(&n, 1) == 3 {
			cancel()
		}
		return Outcome{Stdout: "OK\n", StartedAt: time.Now()}
	}
	recorder := &fakeRecorder{}

	run, err := (&Invoker{Runner: runner, Store: recorder, Logger: zap.NewNop().Sugar()}).Run(ctx, stubPlan(t, "python", "eval.py"))
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, run.Status)
	assert.Len(t, run.Results, 3)
	assert.Equal(t, 3, runner.callCount())
	assert.Equal(t, 72, run.Summary().Skipped)

	require.NotNil(t, recorder.completed, "a cancelled run is still closed in the store")
	assert.Equal(t, StatusCancelled, recorder.completed.Status)
}

func TestInvoker_CancelKillsRunningChildren(t *testing.T) {
	script := qtest.WriteStubEvaluator(t, qtest.StubSleep)
	plan := stubPlan(t, qtest.StubInterpreter, script, "fog")

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	start := time.Now()
	inv := &Invoker{Runner: &ProcessRunner{WaitDelay: time.Second}, Parallel: 2, Logger: zap.NewNop().Sugar()}
	run, err := inv.Run(ctx, plan)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Equal(t, StatusCancelled, run.Status)
	for _, res := range run.Results {
		assert.True(t, res.Failed())
	}
}

func TestInvoker_StoreWriteFailuresOnlyWarn(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	recorder := &fakeRecorder{
		recordErr:   errors.New("database is locked"),
		completeErr: errors.New("database is locked"),
	}

	run, err := (&Invoker{
		Runner: &fakeRunner{},
		Store:  recorder,
		Logger: zap.New(core).Sugar(),
	}).Run(context.Background(), stubPlan(t, "python", "eval.py", "fog"))
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, run.Status)
	assert.Len(t, run.Results, 5)
	assert.Equal(t, 5, recorder.recorded)

	warnings := logs.FilterMessage("Failed to record invocation")
	assert.Equal(t, 5, warnings.Len())
	assert.Equal(t, zapcore.WarnLevel, warnings.All()[0].Level)
	assert.Equal(t, 1, logs.FilterMessage("Failed to record run completion").Len())
}

func TestInvoker_CreateRunFailureAborts(t *testing.T) {
	runner := &fakeRunner{}
	recorder := &fakeRecorder{createErr: errors.New("disk full")}

	run, err := (&Invoker{Runner: runner, Store: recorder, Logger: zap.NewNop().Sugar()}).Run(context.Background(), stubPlan(t, "python", "eval.py"))
	require.Error(t, err)
	assert.Nil(t, run)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, runner.callCount())
}

func TestInvoker_RejectsTamperedPlan(t *testing.T) {
	plan := stubPlan(t, "python", "eval.py")
	plan.Invocations = append(plan.Invocations, plan.Invocations[0])
	plan.Invocations[75].Seq = 75

	runner := &fakeRunner{}
	_, err := (&Invoker{Runner: runner}).Run(context.Background(), plan)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidRequestError(err))
	assert.Contains(t, err.Error(), "plan verification failed")
	assert.Zero(t, runner.callCount())
}

func TestInvoker_PersistsRun(t *testing.T) {
	store := newTestStore(t)
	runner := &fakeRunner{outcome: func(args []string) Outcome {
		if args[5] == "5" {
			return Outcome{ExitCode: 2, Stderr: "CUDA out of memory\n", StartedAt: time.Now()}
		}
		return Outcome{Stdout: "abs_rel 0.061\n", StartedAt: time.Now()}
	}}

	run, err := (&Invoker{Runner: runner, Store: store, Logger: zap.NewNop().Sugar()}).Run(context.Background(), stubPlan(t, "python", "eval.py", "fog", "snow"))
	require.NoError(t, err)

	got, err := store.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, got.Status)
	assert.Equal(t, 2, got.Failed)
	assert.Equal(t, 10, got.Total)
	require.Len(t, got.Results, 10)
	assert.Equal(t, "CUDA out of memory\n", got.Results[4].Stderr)
	assert.Equal(t, 2, got.Results[9].ExitCode)
	assert.Equal(t, "abs_rel 0.061\n", got.Results[0].Stdout)
}

func TestInvoker_Pacer(t *testing.T) {
	runner := &fakeRunner{}
	inv := &Invoker{Runner: runner, Pacer: NewPacer(20 * time.Millisecond), Parallel: 5, Logger: zap.NewNop().Sugar()}

	start := time.Now()
	_, err := inv.Run(context.Background(), stubPlan(t, "python", "eval.py", "fog"))
	require.NoError(t, err)

	// Five launches are four intervals apart even with free workers
	assert.GreaterOrEqual(t, time.Since(start), 75*time.Millisecond)
}

func TestInvoker_LogsWithRunID(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	inv := &Invoker{Runner: &fakeRunner{}, MirrorOutput: true, Logger: zap.New(core).Sugar()}

	run, err := inv.Run(context.Background(), stubPlan(t, "python", "eval.py", "fog"))
	require.NoError(t, err)

	started := logs.FilterMessage("Run started").All()
	require.Len(t, started, 1)
	assert.Equal(t, run.ID, started[0].ContextMap()[logger.FieldRunID])

	mirrored := logs.FilterMessage("Child output").All()
	require.Len(t, mirrored, 5)
	assert.Equal(t, "OK\n", mirrored[0].ContextMap()[logger.FieldStdout])
}
