package am

// Config represents the corrsweep configuration
type Config struct {
	Sweep      SweepConfig                `mapstructure:"sweep"`
	Evaluators map[string]EvaluatorConfig `mapstructure:"evaluators"`
	Database   DatabaseConfig             `mapstructure:"database"`
	Output     OutputConfig               `mapstructure:"output"`
	Requires   string                     `mapstructure:"requires"` // Semver constraint on the running binary, e.g. ">= 0.3"
}

// SweepConfig configures one batch over the corruption catalog
type SweepConfig struct {
	Evaluator   string `mapstructure:"evaluator"`   // Active evaluator label (default: monovit)
	Interpreter string `mapstructure:"interpreter"` // Program that runs the evaluator script (default: python)
	DataPath    string `mapstructure:"data_path"`   // Dataset directory passed as --data_path
	Weights     string `mapstructure:"weights"`     // Overrides the evaluator's weights folder
	WorkDir     string `mapstructure:"work_dir"`    // Working directory for children (empty = inherit)

	Parallel          int     `mapstructure:"parallel"`             // Concurrent invocations (default: 1, sequential)
	LaunchIntervalMS  int     `mapstructure:"launch_interval_ms"`   // Minimum gap between launches (0 = off)
	MemoryPerWorkerGB float64 `mapstructure:"memory_per_worker_gb"` // Expected evaluator footprint, for the memory check (0 = skip)
	Strict            bool    `mapstructure:"strict"`               // Exit non-zero when any invocation failed
}

// EvaluatorConfig overrides or adds an evaluator backend under [evaluators.<label>]
type EvaluatorConfig struct {
	Script      string `mapstructure:"script"`
	Weights     string `mapstructure:"weights"`
	EvalMono    *bool  `mapstructure:"eval_mono"` // nil = true
	Description string `mapstructure:"description"`
}

// DatabaseConfig configures the SQLite run store
type DatabaseConfig struct {
	Path   string `mapstructure:"path"`
	Record bool   `mapstructure:"record"` // Persist runs and results (default: true)
}

// OutputConfig configures console presentation
type OutputConfig struct {
	Format   string `mapstructure:"format"`    // text or json
	LogTheme string `mapstructure:"log_theme"` // gruvbox, everforest
}

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
