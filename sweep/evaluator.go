package sweep

import (
	"maps"
	"slices"
	"strings"

	"github.com/teranos/corrsweep/am"
	"github.com/teranos/corrsweep/errors"
)

// Evaluator is one depth-estimation backend: a script plus the weights it loads
type Evaluator struct {
	Label       string `json:"label" yaml:"label"`
	Script      string `json:"script" yaml:"script"`
	Weights     string `json:"weights" yaml:"weights"`
	EvalMono    bool   `json:"eval_mono" yaml:"eval_mono"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Built-in evaluator labels
const (
	EvaluatorAFSfMLearner   = "afsfmlearner"
	EvaluatorMonodepth      = "monodepth"
	EvaluatorMonoViT        = "monovit"
	EvaluatorEndoSfMLearner = "endosfmlearner"
)

var builtinEvaluators = map[string]Evaluator{
	EvaluatorAFSfMLearner: {
		Label:       EvaluatorAFSfMLearner,
		Script:      "AF-SfMLearner/evaluate_depth.py",
		Weights:     "../models/Model_MIA/Model_MIA",
		EvalMono:    true,
		Description: "AF-SfMLearner trained on SCARED",
	},
	EvaluatorMonodepth: {
		Label:       EvaluatorMonodepth,
		Script:      "AF-SfMLearner/evaluate_depth.py",
		Weights:     "../models/weights_19/weights_19",
		EvalMono:    true,
		Description: "Monodepth2 weights through the AF-SfMLearner evaluator",
	},
	EvaluatorMonoViT: {
		Label:       EvaluatorMonoViT,
		Script:      "endo-manydepth/manydepth/evaluate_hr_depth.py",
		Weights:     "../models/weights_19_MonoViT/weights_19",
		EvalMono:    true,
		Description: "MonoViT high-resolution evaluator",
	},
	EvaluatorEndoSfMLearner: {
		Label:       EvaluatorEndoSfMLearner,
		Script:      "EndoSLAM/EndoSfMLearner/eval_depth.py",
		Weights:     "../models/weights_19_MonoViT/weights_19",
		EvalMono:    true,
		Description: "EndoSfMLearner from EndoSLAM",
	},
}

// BuiltinEvaluators returns a copy of the compiled-in backends keyed by label
func BuiltinEvaluators() map[string]Evaluator {
	return maps.Clone(builtinEvaluators)
}

// BuiltinLabels returns the compiled-in labels, sorted
func BuiltinLabels() []string {
	return slices.Sorted(maps.Keys(builtinEvaluators))
}

// Evaluators merges config overrides into the built-ins. A partial override
// of a built-in keeps the fields it leaves empty.
func Evaluators(overrides map[string]am.EvaluatorConfig) map[string]Evaluator {
	out := BuiltinEvaluators()
	for label, o := range overrides {
		ev, ok := out[label]
		if !ok {
			ev = Evaluator{Label: label, EvalMono: true}
		}
		if o.Script != "" {
			ev.Script = o.Script
		}
		if o.Weights != "" {
			ev.Weights = o.Weights
		}
		if o.EvalMono != nil {
			ev.EvalMono = *o.EvalMono
		}
		if o.Description != "" {
			ev.Description = o.Description
		}
		out[label] = ev
	}
	return out
}

// ResolveEvaluator selects the active backend by label
func ResolveEvaluator(label string, overrides map[string]am.EvaluatorConfig) (Evaluator, error) {
	all := Evaluators(overrides)
	ev, ok := all[label]
	if !ok {
		return Evaluator{}, errors.WithHint(
			errors.NewInvalidRequestError("unknown evaluator %q", label),
			"known evaluators: "+strings.Join(slices.Sorted(maps.Keys(all)), ", "),
		)
	}
	if ev.Script == "" || ev.Weights == "" {
		return Evaluator{}, errors.WithHint(
			errors.NewInvalidRequestError("evaluator %q needs both script and weights", label),
			"set evaluators."+label+".script and evaluators."+label+".weights",
		)
	}
	return ev, nil
}
