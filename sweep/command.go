package sweep

import (
	"strconv"

	"github.com/kballard/go-shellquote"

	"github.com/teranos/corrsweep/errors"
)

// Evaluator command-line flags
const (
	FlagCorruption = "--corruption"
	FlagSeverity   = "--severity"
	FlagDataPath   = "--data_path"
	FlagWeights    = "--load_weights_folder"
	FlagEvalMono   = "--eval_mono"
)

// CommandSpec is every value substituted into the evaluator command template
type CommandSpec struct {
	Interpreter string
	Script      string
	Corruption  Corruption
	Severity    Severity
	DataPath    string
	Weights     string
	EvalMono    bool
}

// Args renders the template:
//
//	<interpreter> <script> --corruption <c> --severity <s> --data_path <d> --load_weights_folder <w> [--eval_mono]
func (c CommandSpec) Args() []string {
	args := []string{
		c.Interpreter,
		c.Script,
		FlagCorruption, string(c.Corruption),
		FlagSeverity, strconv.Itoa(int(c.Severity)),
		FlagDataPath, c.DataPath,
		FlagWeights, c.Weights,
	}
	if c.EvalMono {
		args = append(args, FlagEvalMono)
	}
	return args
}

// RenderCommand joins args into one shell-quoted display line
func RenderCommand(args []string) string {
	return shellquote.Join(args...)
}

// ParseCommand reverses RenderCommand back into the substituted values
func ParseCommand(line string) (CommandSpec, error) {
	words, err := shellquote.Split(line)
	if err != nil {
		return CommandSpec{}, errors.Wrapf(errors.ErrInvalidRequest, "cannot split command %q: %v", line, err)
	}
	if len(words) < 2 {
		return CommandSpec{}, errors.NewInvalidRequestError("command %q has no interpreter and script", line)
	}

	spec := CommandSpec{Interpreter: words[0], Script: words[1]}
	var haveCorruption, haveSeverity bool

	for i := 2; i < len(words); i++ {
		flag := words[i]
		if flag == FlagEvalMono {
			spec.EvalMono = true
			continue
		}

		if i+1 >= len(words) {
			return CommandSpec{}, errors.NewInvalidRequestError("flag %s in %q has no value", flag, line)
		}
		value := words[i+1]
		i++

		switch flag {
		case FlagCorruption:
			spec.Corruption = Corruption(value)
			haveCorruption = true
		case FlagSeverity:
			n, err := strconv.Atoi(value)
			if err != nil {
				return CommandSpec{}, errors.NewInvalidRequestError("severity %q is not an integer", value)
			}
			spec.Severity = Severity(n)
			haveSeverity = true
		case FlagDataPath:
			spec.DataPath = value
		case FlagWeights:
			spec.Weights = value
		default:
			return CommandSpec{}, errors.NewInvalidRequestError("unexpected flag %s in %q", flag, line)
		}
	}

	if !haveCorruption || !haveSeverity {
		return CommandSpec{}, errors.NewInvalidRequestError("command %q lacks %s or %s", line, FlagCorruption, FlagSeverity)
	}
	if !spec.Severity.Valid() {
		return CommandSpec{}, errors.NewInvalidRequestError("severity %d outside %d..%d", spec.Severity, MinSeverity, MaxSeverity)
	}
	return spec, nil
}
