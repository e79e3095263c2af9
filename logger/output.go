package logger

// Output controls what categories of information are shown at each verbosity level.
//
// Verbosity Levels:
//
//	0 (default) - Result blocks, final summary, errors with hints
//	1 (-v)      - + Run lifecycle, config summary, memory warnings
//	2 (-vv)     - + Per-invocation timing, resolved evaluator paths, store writes
//	3 (-vvv)    - + Child stdout/stderr mirrored into the log stream

// OutputCategory defines a category of output that can be enabled/disabled
type OutputCategory int

const (
	// Level 0 (default) - Always shown
	OutputResults OutputCategory = iota // Per-invocation result blocks
	OutputErrors                        // Errors with hints
	OutputSummary                       // Final pass/fail summary

	// Level 1 (-v) - Informational
	OutputRunLifecycle // Run started/finished, cancellation
	OutputConfig       // Effective evaluator, interpreter, paths

	// Level 2 (-vv) - Detailed
	OutputTiming     // Per-invocation duration
	OutputStoreWrite // SQLite writes for runs and results

	// Level 3 (-vvv) - Trace
	OutputChildOutput // Child stdout/stderr mirrored to the log
)

// categoryLevels maps each output category to its minimum verbosity level
var categoryLevels = map[OutputCategory]int{
	OutputResults: VerbosityUser,
	OutputErrors:  VerbosityUser,
	OutputSummary: VerbosityUser,

	OutputRunLifecycle: VerbosityInfo,
	OutputConfig:       VerbosityInfo,

	OutputTiming:     VerbosityDebug,
	OutputStoreWrite: VerbosityDebug,

	OutputChildOutput: VerbosityTrace,
}

// ShouldOutput returns true if the given category should be shown at the given verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		// Unknown category, default to highest verbosity required
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}

// categoryNames provides human-readable names for output categories
var categoryNames = map[OutputCategory]string{
	OutputResults:      "results",
	OutputErrors:       "errors",
	OutputSummary:      "summary",
	OutputRunLifecycle: "run-lifecycle",
	OutputConfig:       "config",
	OutputTiming:       "timing",
	OutputStoreWrite:   "store-write",
	OutputChildOutput:  "child-output",
}

// CategoryName returns the human-readable name for an output category
func CategoryName(category OutputCategory) string {
	if name, ok := categoryNames[category]; ok {
		return name
	}
	return "unknown"
}
