package testing

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"
)

// Stub evaluator bodies. The evaluator receives
// --corruption <name> --severity <level> ..., so $2 is the corruption and $4 the severity.
const (
	StubOK    = `echo OK`
	StubFail  = `echo FAIL >&2; exit 1`
	StubEcho  = `echo "$2 $4"`
	StubSleep = `sleep 30; echo late`
)

// StubFailOn fails (stderr FAIL, exit 1) only for the given corruption
func StubFailOn(corruption string) string {
	return `if [ "$2" = "` + corruption + `" ]; then echo FAIL >&2; exit 1; fi; echo OK`
}

// StubInterpreter is the interpreter that runs stub evaluator scripts
const StubInterpreter = "sh"

// WriteStubEvaluator writes a POSIX shell evaluator with the given body into a
// temp dir and returns its path. Run it with StubInterpreter.
// Skips the test where no POSIX shell is available.
func WriteStubEvaluator(t *testing.T, body string) string {
	t.Helper()

	if runtime.GOOS == "windows" {
		t.Skip("stub evaluators need a POSIX shell")
	}
	if _, err := exec.LookPath(StubInterpreter); err != nil {
		t.Skipf("%s not found: %v", StubInterpreter, err)
	}

	path := filepath.Join(t.TempDir(), "evaluate_depth.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755); err != nil {
		t.Fatalf("Failed to write stub evaluator: %v", err)
	}
	return path
}
