package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/teranos/corrsweep/errors"
)

// EnvPrefix is the prefix for environment overrides (CORRSWEEP_SWEEP_PARALLEL=4)
const EnvPrefix = "CORRSWEEP"

// Project config file names, checked in order in each directory
var projectConfigNames = []string{"am.toml", "corrsweep.toml"}

var globalConfig *Config
var viperInstance *viper.Viper

// ConfigSources records which file last set each flattened key during loading
var ConfigSources = map[string]SourceInfo{}

// Load reads the corrsweep configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v := initViper()

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() *viper.Viper {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path.
// Environment overrides still apply on top of the file.
func LoadFromFile(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(err, "failed to read config file %s", configPath),
			"config files are TOML, e.g. [sweep] evaluator = \"monovit\"",
		)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}

	// Make the explicit file the active configuration for Get* helpers
	viperInstance = v
	globalConfig = config
	ConfigSources = map[string]SourceInfo{}
	trackSources(v.AllSettings(), "", SourceInfo{Source: SourceFile, Path: configPath})

	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

// newViper returns a Viper with defaults and environment binding but no files
func newViper() *viper.Viper {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	BindEnvVars(v)
	SetDefaults(v)

	return v
}

// initViper initializes Viper with configuration sources and defaults
func initViper() *viper.Viper {
	if viperInstance != nil {
		return viperInstance
	}

	v := newViper()

	// Merge configs in precedence order: system -> user -> project -> env vars
	mergeConfigFiles(v)

	viperInstance = v
	return v
}

// findProjectConfig walks up from the working directory looking for a project config.
// Returns the path to the first config file found, or empty string if none found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		for _, name := range projectConfigNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// configLayer is one candidate config file and the source it represents
type configLayer struct {
	path   string
	source ConfigSource
}

// configLayers lists config files from lowest to highest precedence
func configLayers() []configLayer {
	layers := []configLayer{
		{path: "/etc/corrsweep/am.toml", source: SourceSystem},
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		layers = append(layers, configLayer{
			path:   filepath.Join(homeDir, ".corrsweep", "am.toml"),
			source: SourceUser,
		})
	}

	if projectConfig := findProjectConfig(); projectConfig != "" {
		layers = append(layers, configLayer{path: projectConfig, source: SourceProject})
	}

	return layers
}

// mergeConfigFiles merges configuration files in precedence order.
// Precedence (lowest to highest): defaults < system < user < project < env vars.
// Files are merged into the config layer so environment overrides keep winning.
func mergeConfigFiles(v *viper.Viper) {
	ConfigSources = map[string]SourceInfo{}

	for _, layer := range configLayers() {
		if _, err := os.Stat(layer.path); err != nil {
			continue
		}

		tempViper := viper.New()
		tempViper.SetConfigFile(layer.path)
		tempViper.SetConfigType("toml")

		if err := tempViper.ReadInConfig(); err != nil {
			continue
		}

		settings := tempViper.AllSettings()
		if err := v.MergeConfigMap(settings); err != nil {
			continue
		}
		trackSources(settings, "", SourceInfo{Source: layer.source, Path: layer.path})
	}
}

// trackSources flattens settings and marks every leaf key as coming from info
func trackSources(settings map[string]interface{}, prefix string, info SourceInfo) {
	for key, value := range settings {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			trackSources(nested, fullKey, info)
			continue
		}
		ConfigSources[fullKey] = info
	}
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return initViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return initViper().GetString(key)
}

// GetInt returns a configuration value as int using dot notation
func GetInt(key string) int {
	return initViper().GetInt(key)
}

// IsSet reports whether key has a value from any layer, including defaults
func IsSet(key string) bool {
	return initViper().IsSet(key)
}
