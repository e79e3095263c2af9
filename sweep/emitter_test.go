package sweep

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	pterm.DisableStyling()
}

func TestConsoleEmitter_BlockFormat(t *testing.T) {
	var buf bytes.Buffer
	e := NewConsoleEmitter(&buf, 0)

	e.EmitResult(Result{Command: "python eval.py --corruption fog --severity 1", Stdout: "OK\n", Stderr: ""})

	want := "CMD python eval.py --corruption fog --severity 1\n" +
		"Output: OK\n\n" +
		"Errors: \n" +
		"----------------------------------------\n"
	assert.Equal(t, want, buf.String())
	assert.Len(t, Separator, 40)
}

func TestConsoleEmitter_FailureBlock(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleEmitter(&buf, 0).EmitResult(Result{Command: "c", Stdout: "", Stderr: "FAIL"})

	lines := strings.Split(buf.String(), "\n")
	assert.Equal(t, "CMD c", lines[0])
	assert.Equal(t, "Output: ", lines[1])
	assert.Equal(t, "Errors: FAIL", lines[2])
	assert.Equal(t, Separator, lines[3])
}

func TestConsoleEmitter_StartOnlyWhenVerbose(t *testing.T) {
	plan := &Plan{Evaluator: Evaluator{Label: "monovit"}, ScriptPath: "s.py", Invocations: make([]Invocation, 3)}

	var quiet bytes.Buffer
	NewConsoleEmitter(&quiet, 0).EmitStart("run-1", plan)
	assert.Empty(t, quiet.String())

	var verbose bytes.Buffer
	NewConsoleEmitter(&verbose, 1).EmitStart("run-1", plan)
	assert.Contains(t, verbose.String(), "3 invocations of monovit")
}

func TestConsoleEmitter_Summary(t *testing.T) {
	tests := []struct {
		name    string
		summary Summary
		want    string
	}{
		{"clean", Summary{RunID: "r", Status: StatusCompleted, Total: 2, Passed: 2}, "All 2 invocations exited cleanly"},
		{"failures", Summary{RunID: "r", Status: StatusFailed, Total: 3, Passed: 1, Failed: 2, FailedSeqs: []int{0, 2}}, "2 of 3 invocations failed (seq 0,2)"},
		{"cancelled", Summary{RunID: "r", Status: StatusCancelled, Total: 75, Passed: 4, Skipped: 71}, "Cancelled after 4 of 75 invocations"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewConsoleEmitter(&buf, 0).EmitComplete(tt.summary)
			assert.Contains(t, buf.String(), tt.want)
			assert.Contains(t, buf.String(), "Passed")
		})
	}
}

// Concurrent results must come out as whole blocks
func TestConsoleEmitter_AtomicBlocks(t *testing.T) {
	var buf bytes.Buffer
	e := NewConsoleEmitter(&buf, 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e.EmitResult(Result{Seq: i, Command: "cmd", Stdout: strings.Repeat("x", 512), Stderr: "e"})
		}(i)
	}
	wg.Wait()

	blocks := strings.Split(strings.TrimSuffix(buf.String(), Separator+"\n"), Separator+"\n")
	require.Len(t, blocks, 50)
	for _, b := range blocks {
		assert.True(t, strings.HasPrefix(b, "CMD cmd\nOutput: "), b)
		assert.True(t, strings.HasSuffix(b, "Errors: e\n"), b)
	}
}

func TestJSONEmitter(t *testing.T) {
	var buf bytes.Buffer
	e := NewJSONEmitter(&buf)
	plan := &Plan{Evaluator: Evaluator{Label: "monovit"}, Interpreter: "python", Invocations: make([]Invocation, 2)}

	e.EmitStart("run-1", plan)
	e.EmitResult(Result{Seq: 0, Corruption: "fog", Severity: 1, Status: StatusCompleted, Stdout: "OK\n"})
	e.EmitResult(Result{Seq: 1, Corruption: "fog", Severity: 2, Status: StatusFailed, ExitCode: 1, Stderr: "FAIL\n"})
	e.EmitComplete(Summary{RunID: "run-1", Total: 2, Passed: 1, Failed: 1, FailedSeqs: []int{1}})

	var events []map[string]interface{}
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var ev map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.Len(t, events, 4)

	assert.Equal(t, "start", events[0]["type"])
	assert.Equal(t, float64(2), events[0]["data"].(map[string]interface{})["total"])

	second := events[2]["data"].(map[string]interface{})
	assert.Equal(t, "result", events[2]["type"])
	assert.Equal(t, "failed", second["status"])
	assert.Equal(t, float64(1), second["exit_code"])
	assert.Equal(t, "FAIL\n", second["stderr"])

	assert.Equal(t, "complete", events[3]["type"])
	assert.Equal(t, float64(1), events[3]["data"].(map[string]interface{})["failed"])
}
