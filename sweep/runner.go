package sweep

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/teranos/corrsweep/errors"
)

// Outcome is what one child process left behind
type Outcome struct {
	ExitCode  int
	Stdout    string
	Stderr    string
	StartedAt time.Time
	Duration  time.Duration
	Err       error // Start failure or cancellation; nil for any normal exit
}

// Runner executes one evaluator command line
type Runner interface {
	Run(ctx context.Context, args []string, dir string) Outcome
}

// DefaultWaitDelay bounds how long Run waits for a killed child's output pipes
const DefaultWaitDelay = 5 * time.Second

// ProcessRunner runs commands as local child processes
type ProcessRunner struct {
	Env       []string      // nil = inherit the parent environment
	WaitDelay time.Duration // 0 = DefaultWaitDelay
}

// Run starts args[0] with the remaining args, waits, and captures both streams.
// It never returns an error: a missing executable becomes ExitCode -1 with the
// error text appended to Stderr.
func (r *ProcessRunner) Run(ctx context.Context, args []string, dir string) Outcome {
	out := Outcome{StartedAt: time.Now()}
	if len(args) == 0 {
		out.ExitCode = -1
		out.Err = errors.NewInvalidRequestError("empty command")
		out.Stderr = out.Err.Error()
		return out
	}

	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Dir = dir
	if r.Env != nil {
		cmd.Env = r.Env
	}
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out.Duration = time.Since(out.StartedAt)
	out.Stdout = stdout.String()
	out.Stderr = stderr.String()

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		out.ExitCode = 0
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		if ctx.Err() != nil {
			out.Err = errors.Wrap(ctx.Err(), "evaluator interrupted")
		}
	default:
		out.ExitCode = -1
		out.Err = errors.Wrapf(err, "failed to run %s", args[0])
		out.Stderr = appendLine(out.Stderr, err.Error())
	}

	return out
}

func appendLine(s, line string) string {
	if s != "" && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s + line
}
