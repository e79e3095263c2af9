package am

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/teranos/corrsweep/errors"
	"github.com/teranos/corrsweep/version"
)

// Validate checks that the configuration is valid. builtinEvaluators are the
// labels compiled into the binary; the active evaluator must be one of them or
// be declared under [evaluators.<label>].
func (c *Config) Validate(builtinEvaluators ...string) error {
	if strings.TrimSpace(c.Sweep.Interpreter) == "" {
		return invalid(errors.New("sweep.interpreter cannot be empty"),
			"set sweep.interpreter or CORRSWEEP_PYTHON, e.g. python3")
	}

	if strings.TrimSpace(c.Sweep.DataPath) == "" {
		return invalid(errors.New("sweep.data_path cannot be empty"),
			"point sweep.data_path at the evaluation dataset directory")
	}

	// Parallel: 1 = sequential, 0 and negative are invalid
	if c.Sweep.Parallel < 1 {
		return invalid(errors.Newf("sweep.parallel must be >= 1, got %d", c.Sweep.Parallel),
			"use 1 for sequential execution")
	}

	if c.Sweep.LaunchIntervalMS < 0 {
		return invalid(errors.Newf("sweep.launch_interval_ms must be >= 0, got %d", c.Sweep.LaunchIntervalMS), "")
	}

	// Memory per worker: 0 = skip the memory check, negative = invalid
	if c.Sweep.MemoryPerWorkerGB < 0 {
		return invalid(errors.Newf("sweep.memory_per_worker_gb must be >= 0, got %g", c.Sweep.MemoryPerWorkerGB), "")
	}

	switch c.Output.Format {
	case "", FormatText, FormatJSON:
	default:
		return invalid(errors.Newf("output.format must be %q or %q, got %q", FormatText, FormatJSON, c.Output.Format), "")
	}

	for label, ev := range c.Evaluators {
		if strings.TrimSpace(label) == "" {
			return invalid(errors.New("evaluator label cannot be empty"), "")
		}
		if isBuiltin(label, builtinEvaluators) {
			continue // Partial overrides of built-ins inherit the missing fields
		}
		if ev.Script == "" {
			return invalid(errors.Newf("evaluators.%s.script cannot be empty", label),
				"custom evaluators need both script and weights")
		}
		if ev.Weights == "" {
			return invalid(errors.Newf("evaluators.%s.weights cannot be empty", label),
				"custom evaluators need both script and weights")
		}
	}

	if c.Sweep.Evaluator == "" {
		return invalid(errors.New("sweep.evaluator cannot be empty"), "")
	}
	if len(builtinEvaluators) > 0 {
		if _, ok := c.Evaluators[c.Sweep.Evaluator]; !ok && !isBuiltin(c.Sweep.Evaluator, builtinEvaluators) {
			return invalid(errors.Newf("unknown evaluator %q", c.Sweep.Evaluator),
				"known evaluators: "+strings.Join(c.knownLabels(builtinEvaluators), ", "))
		}
	}

	return c.checkRequires(version.Get())
}

// checkRequires matches the running version against the requires constraint.
// Dev builds satisfy every constraint.
func (c *Config) checkRequires(info version.Info) error {
	if strings.TrimSpace(c.Requires) == "" {
		return nil
	}

	constraint, err := semver.NewConstraint(c.Requires)
	if err != nil {
		return invalid(errors.Wrapf(err, "requires %q is not a valid semver constraint", c.Requires), "")
	}

	if info.IsDev() {
		return nil
	}

	current, err := info.Semver()
	if err != nil {
		return errors.Wrapf(err, "cannot parse binary version %q", info.Version)
	}

	if !constraint.Check(current) {
		return invalid(errors.Newf("corrsweep %s does not satisfy requires %q", current, c.Requires),
			"install a matching release or relax the requires constraint")
	}
	return nil
}

func (c *Config) knownLabels(builtin []string) []string {
	seen := make(map[string]bool)
	for _, l := range builtin {
		seen[l] = true
	}
	for l := range c.Evaluators {
		seen[l] = true
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels
}

func isBuiltin(label string, builtin []string) bool {
	for _, b := range builtin {
		if b == label {
			return true
		}
	}
	return false
}

// invalid marks err as an invalid configuration and attaches an optional hint
func invalid(err error, hint string) error {
	err = errors.Mark(err, errors.ErrInvalidRequest)
	if hint != "" {
		err = errors.WithHint(err, hint)
	}
	return err
}
