package am

import (
	"fmt"

	"github.com/spf13/viper"
)

// Default values shared with the sweep package's built-in backends
const (
	DefaultEvaluator    = "monovit"
	DefaultInterpreter  = "python"
	DefaultDataPath     = "../data/raw/SCARED"
	DefaultDatabasePath = "corrsweep.db"
	DefaultLogTheme     = "everforest"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Sweep defaults
	v.SetDefault("sweep.evaluator", DefaultEvaluator)
	v.SetDefault("sweep.interpreter", DefaultInterpreter)
	v.SetDefault("sweep.data_path", DefaultDataPath)
	v.SetDefault("sweep.weights", "")
	v.SetDefault("sweep.work_dir", "")
	v.SetDefault("sweep.parallel", 1)             // Sequential, one child at a time
	v.SetDefault("sweep.launch_interval_ms", 0)   // No pacing
	v.SetDefault("sweep.memory_per_worker_gb", 5) // Typical footprint of a depth network on the evaluation split
	v.SetDefault("sweep.strict", false)

	// Database defaults
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("database.record", true)

	// Output defaults
	v.SetDefault("output.format", FormatText)
	v.SetDefault("output.log_theme", DefaultLogTheme)
}

// BindEnvVars explicitly binds the settings most often overridden per shell
func BindEnvVars(v *viper.Viper) {
	v.BindEnv("database.path", "CORRSWEEP_DATABASE_PATH", "CORRSWEEP_DB")
	v.BindEnv("sweep.interpreter", "CORRSWEEP_SWEEP_INTERPRETER", "CORRSWEEP_PYTHON")
	v.BindEnv("output.log_theme", "CORRSWEEP_OUTPUT_LOG_THEME", "CORRSWEEP_LOG_THEME")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return DefaultDatabasePath
	}
	return c.Database.Path
}

// GetLogTheme returns the log theme (default: everforest)
func (c *Config) GetLogTheme() string {
	if c.Output.LogTheme == "" {
		return DefaultLogTheme
	}
	return c.Output.LogTheme
}

// GetParallel returns the worker count, never less than 1
func (c *Config) GetParallel() int {
	if c.Sweep.Parallel < 1 {
		return 1
	}
	return c.Sweep.Parallel
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Sweep: {Evaluator: %s, Interpreter: %s, Parallel: %d}, Database: %s}",
		c.Sweep.Evaluator, c.Sweep.Interpreter, c.Sweep.Parallel, c.Database.Path)
}
