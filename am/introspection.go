package am

import (
	"os"
	"sort"
	"strings"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceSystem      ConfigSource = "system"      // /etc/plugctl/am.toml
	SourceUser        ConfigSource = "user"        // ~/.plugctl/am.toml
	SourceProject     ConfigSource = "project"     // am.toml found walking up from the working directory
	SourceExplicit    ConfigSource = "explicit"    // --config
	SourceEnvironment ConfigSource = "environment" // PLUGCTL_* and bound env vars
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // File path or environment variable name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key"`
	Value      interface{}  `json:"value"`
	Source     ConfigSource `json:"source"`
	SourcePath string       `json:"source_path,omitempty"`
}

// ConfigSources records, per flattened key, the last file that set it
var ConfigSources = map[string]SourceInfo{}

// envNames lists the environment variables consulted for a key, in precedence order
var envNames = map[string][]string{
	"plugins.environment": {EnvPrefix + "_PLUGINS_ENVIRONMENT", "APP_ENV"},
	"plugins.path":        {EnvPrefix + "_PLUGINS_PATH", "PLUGINS_PATH"},
}

func trackSources(settings map[string]interface{}, prefix string, info SourceInfo) {
	for key, value := range settings {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok && fullKey != "host.packages" {
			trackSources(nested, fullKey, info)
			continue
		}
		ConfigSources[fullKey] = info
	}
}

// Introspect returns every effective setting with the source that won
func Introspect() []SettingInfo {
	v := GetViper()

	var out []SettingInfo
	var walk func(settings map[string]interface{}, prefix string)
	walk = func(settings map[string]interface{}, prefix string) {
		keys := make([]string, 0, len(settings))
		for k := range settings {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			fullKey := key
			if prefix != "" {
				fullKey = prefix + "." + key
			}
			value := settings[key]
			if nested, ok := value.(map[string]interface{}); ok && fullKey != "host.packages" {
				walk(nested, fullKey)
				continue
			}

			info := SourceInfo{Source: SourceDefault, Path: "built-in default"}
			if si, ok := ConfigSources[fullKey]; ok {
				info = si
			}
			if name := envOverride(fullKey); name != "" {
				info = SourceInfo{Source: SourceEnvironment, Path: name}
			}

			out = append(out, SettingInfo{
				Key:        fullKey,
				Value:      value,
				Source:     info.Source,
				SourcePath: info.Path,
			})
		}
	}
	walk(v.AllSettings(), "")

	return out
}

// envOverride returns the name of the environment variable overriding key, if any
func envOverride(key string) string {
	names, ok := envNames[key]
	if !ok {
		names = []string{EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}
	}
	for _, name := range names {
		if _, set := os.LookupEnv(name); set {
			return name
		}
	}
	return ""
}
