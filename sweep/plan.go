package sweep

import (
	"path/filepath"
	"strings"

	"github.com/teranos/corrsweep/errors"
)

// PlanConfig is everything needed to lay out one sweep
type PlanConfig struct {
	Evaluator   Evaluator
	Interpreter string
	DataPath    string
	Weights     string // Overrides Evaluator.Weights when set
	WorkDir     string
	Catalog     []Corruption // nil = DefaultCatalog()
}

// Invocation is one child process in the plan
type Invocation struct {
	Seq        int        `json:"seq" yaml:"seq"`
	Corruption Corruption `json:"corruption" yaml:"corruption"`
	Severity   Severity   `json:"severity" yaml:"severity"`
	Args       []string   `json:"args" yaml:"args"`
}

// Command renders the invocation for display and storage
func (i Invocation) Command() string {
	return RenderCommand(i.Args)
}

// Plan is the ordered Cartesian product catalog x severities for one evaluator
type Plan struct {
	Evaluator   Evaluator    `json:"evaluator" yaml:"evaluator"`
	Interpreter string       `json:"interpreter" yaml:"interpreter"`
	ScriptPath  string       `json:"script_path" yaml:"script_path"`
	DataPath    string       `json:"data_path" yaml:"data_path"`
	WeightsPath string       `json:"weights_path" yaml:"weights_path"`
	WorkDir     string       `json:"work_dir,omitempty" yaml:"work_dir,omitempty"`
	Invocations []Invocation `json:"invocations" yaml:"invocations"`
}

// NewPlan builds the invocations: corruptions in catalog order, severities ascending
func NewPlan(cfg PlanConfig) (*Plan, error) {
	if strings.TrimSpace(cfg.Interpreter) == "" {
		return nil, errors.WithHint(errors.NewInvalidRequestError("interpreter is required"),
			"pass --interpreter or set sweep.interpreter")
	}
	if cfg.Evaluator.Script == "" {
		return nil, errors.NewInvalidRequestError("evaluator %q has no script", cfg.Evaluator.Label)
	}
	if strings.TrimSpace(cfg.DataPath) == "" {
		return nil, errors.WithHint(errors.NewInvalidRequestError("data path is required"),
			"pass --data-path or set sweep.data_path")
	}

	weights := cfg.Evaluator.Weights
	if cfg.Weights != "" {
		weights = cfg.Weights
	}
	if weights == "" {
		return nil, errors.NewInvalidRequestError("evaluator %q has no weights folder", cfg.Evaluator.Label)
	}

	catalog := cfg.Catalog
	if len(catalog) == 0 {
		catalog = DefaultCatalog()
	}

	plan := &Plan{
		Evaluator:   cfg.Evaluator,
		Interpreter: cfg.Interpreter,
		ScriptPath:  portablePath(cfg.Evaluator.Script),
		DataPath:    portablePath(cfg.DataPath),
		WeightsPath: portablePath(weights),
		WorkDir:     cfg.WorkDir,
	}
	if plan.WorkDir != "" {
		plan.WorkDir = portablePath(plan.WorkDir)
	}

	severities := Severities()
	plan.Invocations = make([]Invocation, 0, len(catalog)*len(severities))
	for _, c := range catalog {
		for _, s := range severities {
			spec := CommandSpec{
				Interpreter: plan.Interpreter,
				Script:      plan.ScriptPath,
				Corruption:  c,
				Severity:    s,
				DataPath:    plan.DataPath,
				Weights:     plan.WeightsPath,
				EvalMono:    cfg.Evaluator.EvalMono,
			}
			plan.Invocations = append(plan.Invocations, Invocation{
				Seq:        len(plan.Invocations),
				Corruption: c,
				Severity:   s,
				Args:       spec.Args(),
			})
		}
	}

	return plan, nil
}

// portablePath accepts forward-slash paths on every platform
func portablePath(p string) string {
	return filepath.Clean(filepath.FromSlash(p))
}

// Len returns the number of invocations
func (p *Plan) Len() int {
	return len(p.Invocations)
}

// Verify round-trips every rendered command through ParseCommand and checks
// that each (corruption, severity) pair appears exactly once.
func (p *Plan) Verify() error {
	if p == nil || len(p.Invocations) == 0 {
		return errors.NewInvalidRequestError("plan has no invocations")
	}

	type pair struct {
		c Corruption
		s Severity
	}
	seen := make(map[pair]int, len(p.Invocations))

	for i, inv := range p.Invocations {
		if inv.Seq != i {
			return errors.NewInvalidRequestError("invocation %d has sequence number %d", i, inv.Seq)
		}

		parsed, err := ParseCommand(inv.Command())
		if err != nil {
			return errors.Wrapf(err, "invocation %d", i)
		}
		if parsed.Corruption != inv.Corruption || parsed.Severity != inv.Severity {
			return errors.NewInvalidRequestError("invocation %d renders %s/%d, want %s/%d",
				i, parsed.Corruption, parsed.Severity, inv.Corruption, inv.Severity)
		}
		if parsed.DataPath != p.DataPath || parsed.Weights != p.WeightsPath || parsed.Script != p.ScriptPath {
			return errors.NewInvalidRequestError("invocation %d does not carry the plan's paths", i)
		}

		key := pair{inv.Corruption, inv.Severity}
		if prev, dup := seen[key]; dup {
			return errors.WithHint(
				errors.NewInvalidRequestError("%s/%d planned twice (invocations %d and %d)", inv.Corruption, inv.Severity, prev, i),
				"each corruption may appear once in the catalog",
			)
		}
		seen[key] = i
	}

	return nil
}
