package sweep

import (
	"time"
)

// ResultStatus is the lifecycle state of an invocation or a run
type ResultStatus string

const (
	StatusQueued    ResultStatus = "queued"
	StatusRunning   ResultStatus = "running"
	StatusCompleted ResultStatus = "completed"
	StatusFailed    ResultStatus = "failed"
	StatusCancelled ResultStatus = "cancelled" // Runs only
)

// Result records one invocation
type Result struct {
	Seq        int          `json:"seq" yaml:"seq"`
	Corruption Corruption   `json:"corruption" yaml:"corruption"`
	Severity   Severity     `json:"severity" yaml:"severity"`
	Command    string       `json:"command" yaml:"command"`
	Status     ResultStatus `json:"status" yaml:"status"`
	ExitCode   int          `json:"exit_code" yaml:"exit_code"`
	Stdout     string       `json:"stdout" yaml:"stdout"`
	Stderr     string       `json:"stderr" yaml:"stderr"`
	Error      string       `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt  time.Time    `json:"started_at" yaml:"started_at"`
	DurationMS int64        `json:"duration_ms" yaml:"duration_ms"`
}

// Failed reports whether the invocation ended in anything but a clean exit
func (r Result) Failed() bool {
	return r.Status == StatusFailed
}

// newResult converts a runner outcome into a finished result
func newResult(inv Invocation, out Outcome) Result {
	res := Result{
		Seq:        inv.Seq,
		Corruption: inv.Corruption,
		Severity:   inv.Severity,
		Command:    inv.Command(),
		ExitCode:   out.ExitCode,
		Stdout:     out.Stdout,
		Stderr:     out.Stderr,
		StartedAt:  out.StartedAt,
		DurationMS: out.Duration.Milliseconds(),
		Status:     StatusCompleted,
	}
	if out.Err != nil {
		res.Error = out.Err.Error()
	}
	if out.ExitCode != 0 || out.Err != nil {
		res.Status = StatusFailed
	}
	return res
}

// Run is one execution of a full plan
type Run struct {
	ID          string       `json:"id" yaml:"id"`
	Evaluator   string       `json:"evaluator" yaml:"evaluator"`
	Interpreter string       `json:"interpreter" yaml:"interpreter"`
	ScriptPath  string       `json:"script_path" yaml:"script_path"`
	DataPath    string       `json:"data_path" yaml:"data_path"`
	WeightsPath string       `json:"weights_path" yaml:"weights_path"`
	Parallel    int          `json:"parallel" yaml:"parallel"`
	Status      ResultStatus `json:"status" yaml:"status"`
	Total       int          `json:"total" yaml:"total"`
	Failed      int          `json:"failed" yaml:"failed"`
	StartedAt   time.Time    `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	Results     []Result     `json:"results,omitempty" yaml:"results,omitempty"`
}

// Summary is the pass/fail tally printed after a run
type Summary struct {
	RunID      string       `json:"run_id" yaml:"run_id"`
	Evaluator  string       `json:"evaluator" yaml:"evaluator"`
	Status     ResultStatus `json:"status" yaml:"status"`
	Total      int          `json:"total" yaml:"total"`
	Passed     int          `json:"passed" yaml:"passed"`
	Failed     int          `json:"failed" yaml:"failed"`
	Skipped    int          `json:"skipped" yaml:"skipped"`
	DurationMS int64        `json:"duration_ms" yaml:"duration_ms"`
	FailedSeqs []int        `json:"failed_seqs,omitempty" yaml:"failed_seqs,omitempty"`
}

// Summary tallies the recorded results against the planned total
func (r *Run) Summary() Summary {
	s := Summary{
		RunID:     r.ID,
		Evaluator: r.Evaluator,
		Status:    r.Status,
		Total:     r.Total,
	}
	for _, res := range r.Results {
		if res.Failed() {
			s.Failed++
			s.FailedSeqs = append(s.FailedSeqs, res.Seq)
		} else {
			s.Passed++
		}
	}
	s.Skipped = s.Total - s.Passed - s.Failed
	if r.CompletedAt != nil {
		s.DurationMS = r.CompletedAt.Sub(r.StartedAt).Milliseconds()
	}
	return s
}

// FailedResults returns only the failed invocations, in plan order
func (r *Run) FailedResults() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}
