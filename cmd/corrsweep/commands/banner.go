package commands

import (
	"fmt"
	"io"

	"github.com/teranos/corrsweep/logger"
	"github.com/teranos/corrsweep/sweep"
	"github.com/teranos/corrsweep/version"
)

// printRunBanner prints the effective sweep settings before the first block
func printRunBanner(w io.Writer, verbosity int, plan *sweep.Plan, workers int, dbPath string) {
	green := "\033[32m"
	bold := "\033[1m"
	reset := "\033[0m"

	versionInfo := version.Get()

	fmt.Fprintf(w, "%s%s┌─ corrsweep ─────────────────────────────────────────┐%s\n", green, bold, reset)
	fmt.Fprintf(w, "%s│%s Version:     %s (commit %s)\n", green, reset, versionInfo.Version, versionInfo.Short())
	fmt.Fprintf(w, "%s│%s Evaluator:   %s\n", green, reset, plan.Evaluator.Label)
	fmt.Fprintf(w, "%s│%s Command:     %s %s\n", green, reset, plan.Interpreter, plan.ScriptPath)
	fmt.Fprintf(w, "%s│%s Data:        %s\n", green, reset, plan.DataPath)
	fmt.Fprintf(w, "%s│%s Weights:     %s\n", green, reset, plan.WeightsPath)
	fmt.Fprintf(w, "%s│%s Invocations: %d (%d at a time)\n", green, reset, plan.Len(), workers)
	if dbPath != "" {
		fmt.Fprintf(w, "%s│%s Database:    %s\n", green, reset, dbPath)
	}
	fmt.Fprintf(w, "%s│%s Verbosity:   %s\n", green, reset, logger.LevelName(verbosity))
	fmt.Fprintf(w, "%s└─────────────────────────────────────────────────────┘%s\n", green, reset)
}
