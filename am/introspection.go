package am

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/teranos/corrsweep/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/corrsweep/am.toml
	SourceUser        ConfigSource = "user"        // ~/.corrsweep/am.toml
	SourceProject     ConfigSource = "project"     // am.toml or corrsweep.toml up the tree
	SourceFile        ConfigSource = "file"        // --config
	SourceEnvironment ConfigSource = "environment" // CORRSWEEP_* env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // File path or environment variable name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      interface{}  `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// Settings returns every effective setting, flattened and sorted by key,
// with the layer that supplied it
func Settings() []SettingInfo {
	v := GetViper()
	var out []SettingInfo
	flattenSettings(v.AllSettings(), "", &out)
	return out
}

func flattenSettings(settings map[string]interface{}, prefix string, out *[]SettingInfo) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nested, ok := value.(map[string]interface{}); ok {
			flattenSettings(nested, fullKey, out)
			continue
		}

		info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := ConfigSources[fullKey]; ok {
			info = si
		}

		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(fullKey, ".", "_"))
		if _, ok := os.LookupEnv(envKey); ok {
			info = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		*out = append(*out, SettingInfo{
			Key:        fullKey,
			Value:      value,
			Source:     info.Source,
			SourcePath: info.Path,
		})
	}
}

// Marshal renders the effective configuration as toml, json or yaml
func Marshal(format string) ([]byte, error) {
	settings := GetViper().AllSettings()

	switch strings.ToLower(format) {
	case "toml", "":
		return toml.Marshal(settings)
	case "json":
		return json.MarshalIndent(settings, "", "  ")
	case "yaml", "yml":
		return yaml.Marshal(settings)
	default:
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidRequest, "unsupported format %q", format),
			"use toml, json or yaml",
		)
	}
}
