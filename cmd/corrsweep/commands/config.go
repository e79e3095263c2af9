package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/corrsweep/am"
	"github.com/teranos/corrsweep/errors"
	"github.com/teranos/corrsweep/sweep"
)

// sweepFlags are the per-run overrides shared by run and plan
type sweepFlags struct {
	evaluator   string
	interpreter string
	dataPath    string
	weights     string
	workDir     string
}

func (f *sweepFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVarP(&f.evaluator, "evaluator", "e", "", "Evaluator backend label (see 'corrsweep catalog')")
	fs.StringVar(&f.interpreter, "interpreter", "", "Program that runs the evaluator script (default from sweep.interpreter)")
	fs.StringVar(&f.dataPath, "data-path", "", "Dataset directory passed as --data_path")
	fs.StringVar(&f.weights, "weights", "", "Weights folder passed as --load_weights_folder (overrides the evaluator's)")
	fs.StringVar(&f.workDir, "work-dir", "", "Working directory for evaluator processes")
}

// apply overlays the flags the user actually set onto cfg
func (f *sweepFlags) apply(cmd *cobra.Command, cfg *am.Config) {
	fs := cmd.Flags()
	if fs.Changed("evaluator") {
		cfg.Sweep.Evaluator = f.evaluator
	}
	if fs.Changed("interpreter") {
		cfg.Sweep.Interpreter = f.interpreter
	}
	if fs.Changed("data-path") {
		cfg.Sweep.DataPath = f.dataPath
	}
	if fs.Changed("weights") {
		cfg.Sweep.Weights = f.weights
	}
	if fs.Changed("work-dir") {
		cfg.Sweep.WorkDir = f.workDir
	}
}

// loadConfig returns a copy of the active configuration for one command
func loadConfig() (*am.Config, error) {
	cfg, err := am.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	c := *cfg
	return &c, nil
}

// buildPlan validates cfg and lays out the sweep it describes
func buildPlan(cfg *am.Config) (*sweep.Plan, error) {
	if err := cfg.Validate(sweep.BuiltinLabels()...); err != nil {
		return nil, err
	}

	evaluator, err := sweep.ResolveEvaluator(cfg.Sweep.Evaluator, cfg.Evaluators)
	if err != nil {
		return nil, err
	}

	return sweep.NewPlan(sweep.PlanConfig{
		Evaluator:   evaluator,
		Interpreter: cfg.Sweep.Interpreter,
		DataPath:    cfg.Sweep.DataPath,
		Weights:     cfg.Sweep.Weights,
		WorkDir:     cfg.Sweep.WorkDir,
	})
}
