package am

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teranos/plugctl/errors"
)

// EnvPrefix is the prefix of environment variables that override config keys
const EnvPrefix = "PLUGCTL"

// ProjectConfigName is the file name searched for up the directory tree
const ProjectConfigName = "am.toml"

// Options controls where configuration is read from
type Options struct {
	// ConfigFile is merged last, above all discovered files
	ConfigFile string
	// WorkDir is where the project config search and .env lookup start (default: cwd)
	WorkDir string
	// SkipSystem disables the system and user config files (tests)
	SkipSystem bool
}

var globalConfig *Config
var viperInstance *viper.Viper

// Load reads the plugctl configuration with default options, cached after the first call
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}
	return LoadWithOptions(Options{})
}

// LoadWithOptions reads configuration from scratch and replaces the cached config
func LoadWithOptions(opts Options) (*Config, error) {
	v, err := initViper(opts)
	if err != nil {
		return nil, err
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	viperInstance = v
	globalConfig = config
	return config, nil
}

// GetViper returns the Viper instance behind the cached config
func GetViper() *viper.Viper {
	if viperInstance == nil {
		if _, err := Load(); err != nil || viperInstance == nil {
			v := viper.New()
			SetDefaults(v)
			return v
		}
	}
	return viperInstance
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, defaults underneath
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigFile(configPath)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	return LoadWithViper(v)
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	ConfigSources = map[string]SourceInfo{}
}

// initViper initializes Viper with configuration sources and defaults
func initViper(opts Options) (*viper.Viper, error) {
	workDir := opts.WorkDir
	if workDir == "" {
		workDir, _ = os.Getwd()
	}

	if err := loadDotEnv(workDir); err != nil {
		return nil, err
	}

	if opts.ConfigFile != "" {
		if _, err := os.Stat(opts.ConfigFile); err != nil {
			return nil, errors.WithHint(
				errors.Wrapf(err, "config file %s", opts.ConfigFile),
				"check the --config path",
			)
		}
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	BindEnvVars(v)

	SetDefaults(v)

	ConfigSources = map[string]SourceInfo{}
	for _, cf := range configFiles(opts, workDir) {
		if _, err := os.Stat(cf.path); err != nil {
			continue
		}
		// Broken ambient files are skipped; only an explicit --config is fatal
		if err := mergeConfigFile(v, cf); err != nil && cf.source == SourceExplicit {
			return nil, err
		}
	}

	return v, nil
}

type configFile struct {
	path   string
	source ConfigSource
}

// configFiles lists config files in precedence order (lowest first)
func configFiles(opts Options, workDir string) []configFile {
	var files []configFile

	if !opts.SkipSystem {
		files = append(files, configFile{path: "/etc/plugctl/" + ProjectConfigName, source: SourceSystem})
		if homeDir, err := os.UserHomeDir(); err == nil {
			files = append(files, configFile{
				path:   filepath.Join(homeDir, ".plugctl", ProjectConfigName),
				source: SourceUser,
			})
		}
	}

	if projectConfig := findProjectConfig(workDir); projectConfig != "" {
		files = append(files, configFile{path: projectConfig, source: SourceProject})
	}

	if opts.ConfigFile != "" {
		files = append(files, configFile{path: opts.ConfigFile, source: SourceExplicit})
	}

	return files
}

// mergeConfigFile merges one TOML file into v below environment variables
func mergeConfigFile(v *viper.Viper, cf configFile) error {
	tempViper := viper.New()
	tempViper.SetConfigFile(cf.path)
	tempViper.SetConfigType("toml")

	if err := tempViper.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", cf.path)
	}

	settings := tempViper.AllSettings()
	if err := v.MergeConfigMap(settings); err != nil {
		return errors.Wrapf(err, "failed to merge config file %s", cf.path)
	}

	trackSources(settings, "", SourceInfo{Source: cf.source, Path: cf.path})
	return nil
}

// findProjectConfig searches for am.toml by walking up from dir.
// Returns the first path found, or empty string if none.
func findProjectConfig(dir string) string {
	if dir == "" {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ProjectConfigName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// loadDotEnv loads <dir>/.env into the process environment.
// Variables already set are never overridden.
func loadDotEnv(dir string) error {
	path := filepath.Join(dir, ".env")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "failed to load %s", path)
	}
	return nil
}

// Get returns a configuration value using dot notation
func Get(key string) interface{} {
	return GetViper().Get(key)
}

// GetString returns a configuration value as string using dot notation
func GetString(key string) string {
	return GetViper().GetString(key)
}
