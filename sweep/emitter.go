package sweep

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// Emitter reports run progress. Implementations must be safe for concurrent
// EmitResult calls when the invoker runs in parallel.
//
// Implementations include:
// - ConsoleEmitter: the CMD/Output/Errors block per invocation, plus a pterm summary
// - JSONEmitter: one JSON event per line for pipelines
type Emitter interface {
	EmitStart(runID string, plan *Plan)
	EmitResult(res Result)
	EmitComplete(summary Summary)
}

// Separator closes every console block
var Separator = strings.Repeat("-", 40)

// ConsoleEmitter prints each invocation as
//
//	CMD <command>
//	Output: <stdout>
//	Errors: <stderr>
//	----------------------------------------
type ConsoleEmitter struct {
	mu        sync.Mutex
	w         io.Writer
	verbosity int
}

// NewConsoleEmitter creates a console emitter writing blocks to w
func NewConsoleEmitter(w io.Writer, verbosity int) *ConsoleEmitter {
	return &ConsoleEmitter{w: w, verbosity: verbosity}
}

// EmitStart announces the run at -v and above
func (e *ConsoleEmitter) EmitStart(runID string, plan *Plan) {
	if e.verbosity < 1 {
		return
	}
	line := pterm.Info.Sprintf("Run %s: %d invocations of %s (%s)",
		runID, plan.Len(), plan.Evaluator.Label, plan.ScriptPath)
	e.write(line + "\n")
}

// EmitResult writes one block in a single Write so parallel blocks never interleave
func (e *ConsoleEmitter) EmitResult(res Result) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "CMD", res.Command)
	fmt.Fprintln(&buf, "Output:", res.Stdout)
	fmt.Fprintln(&buf, "Errors:", res.Stderr)
	fmt.Fprintln(&buf, Separator)
	e.write(buf.String())
}

// EmitComplete prints the pass/fail table
func (e *ConsoleEmitter) EmitComplete(s Summary) {
	data := pterm.TableData{
		{"Run", "Evaluator", "Status", "Total", "Passed", "Failed", "Skipped", "Duration"},
		{
			s.RunID,
			s.Evaluator,
			string(s.Status),
			strconv.Itoa(s.Total),
			strconv.Itoa(s.Passed),
			strconv.Itoa(s.Failed),
			strconv.Itoa(s.Skipped),
			(time.Duration(s.DurationMS) * time.Millisecond).String(),
		},
	}

	table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		table = fmt.Sprintf("%v", data)
	}

	var status string
	switch {
	case s.Status == StatusCancelled:
		status = pterm.Warning.Sprintf("Cancelled after %d of %d invocations", s.Passed+s.Failed, s.Total)
	case s.Failed > 0:
		status = pterm.Warning.Sprintf("%d of %d invocations failed (seq %s)", s.Failed, s.Total, joinInts(s.FailedSeqs))
	default:
		status = pterm.Success.Sprintf("All %d invocations exited cleanly", s.Total)
	}

	e.write(table + "\n" + status + "\n")
}

func (e *ConsoleEmitter) write(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	io.WriteString(e.w, s)
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}

// ProgressEvent is one line of JSON output
type ProgressEvent struct {
	Type      string      `json:"type"` // "start", "result", "complete"
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// JSONEmitter outputs structured JSON events, one per line
type JSONEmitter struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

// NewJSONEmitter creates a JSON emitter writing to w
func NewJSONEmitter(w io.Writer) *JSONEmitter {
	return &JSONEmitter{encoder: json.NewEncoder(w)}
}

// EmitStart emits the plan header
func (e *JSONEmitter) EmitStart(runID string, plan *Plan) {
	e.emit("start", map[string]interface{}{
		"run_id":       runID,
		"evaluator":    plan.Evaluator.Label,
		"interpreter":  plan.Interpreter,
		"script_path":  plan.ScriptPath,
		"data_path":    plan.DataPath,
		"weights_path": plan.WeightsPath,
		"total":        plan.Len(),
	})
}

// EmitResult emits one invocation
func (e *JSONEmitter) EmitResult(res Result) {
	e.emit("result", res)
}

// EmitComplete emits the summary
func (e *JSONEmitter) EmitComplete(s Summary) {
	e.emit("complete", s)
}

func (e *JSONEmitter) emit(kind string, data interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.encoder.Encode(ProgressEvent{Type: kind, Timestamp: time.Now(), Data: data})
}

// nopEmitter discards everything
type nopEmitter struct{}

func (nopEmitter) EmitStart(string, *Plan) {}
func (nopEmitter) EmitResult(Result)       {}
func (nopEmitter) EmitComplete(Summary)    {}
