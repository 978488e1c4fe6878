// Package am loads plugctl configuration ("I am").
//
// Values come from built-in defaults, then TOML files (system, user,
// project), then an optional explicit file, then PLUGCTL_* environment
// variables. A .env file in the working directory is loaded into the
// process environment before any of that happens.
package am

// Config represents the plugctl configuration
type Config struct {
	Plugins PluginsConfig `mapstructure:"plugins" toml:"plugins" json:"plugins" yaml:"plugins"`
	Host    HostConfig    `mapstructure:"host" toml:"host" json:"host" yaml:"host"`
	Install InstallConfig `mapstructure:"install" toml:"install" json:"install" yaml:"install"`
	Docs    DocsConfig    `mapstructure:"docs" toml:"docs" json:"docs" yaml:"docs"`
	Log     LogConfig     `mapstructure:"log" toml:"log" json:"log" yaml:"log"`
}

// PluginsConfig locates the plugins root and controls activation
type PluginsConfig struct {
	Path string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
	// Namespace is the conventional root namespace plugin sources live under
	Namespace string `mapstructure:"namespace" toml:"namespace" json:"namespace" yaml:"namespace"`
	// Environment is "production" unless APP_ENV says otherwise; anything else enables debug logging
	Environment string `mapstructure:"environment" toml:"environment" json:"environment" yaml:"environment"`
	// EnforceRequirements fails activation of plugins whose requires constraints are unmet
	EnforceRequirements bool `mapstructure:"enforce_requirements" toml:"enforce_requirements" json:"enforce_requirements" yaml:"enforce_requirements"`
	// WatchDebounceMS is the quiet period before a filesystem change invalidates the registry
	WatchDebounceMS int `mapstructure:"watch_debounce_ms" toml:"watch_debounce_ms" json:"watch_debounce_ms" yaml:"watch_debounce_ms"`
}

// HostConfig describes the host application plugins are checked against
type HostConfig struct {
	Name    string `mapstructure:"name" toml:"name" json:"name" yaml:"name"`
	Version string `mapstructure:"version" toml:"version" json:"version" yaml:"version"`
	// Packages lists other installed packages and their versions, name = "1.2.3"
	Packages map[string]string `mapstructure:"packages" toml:"packages" json:"packages" yaml:"packages"`
}

// InstallConfig configures `plugctl install` for package names
type InstallConfig struct {
	// Command is the package-manager invocation the package name is appended to
	Command        string `mapstructure:"command" toml:"command" json:"command" yaml:"command"`
	Workdir        string `mapstructure:"workdir" toml:"workdir" json:"workdir" yaml:"workdir"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds" yaml:"timeout_seconds"`

	// AllowPrivateHosts permits archive downloads from loopback and private addresses
	AllowPrivateHosts bool `mapstructure:"allow_private_hosts" toml:"allow_private_hosts" json:"allow_private_hosts" yaml:"allow_private_hosts"`
}

// DocsConfig configures `plugctl openapi`
type DocsConfig struct {
	Output string `mapstructure:"output" toml:"output" json:"output" yaml:"output"`
}

// LogConfig configures the global logger
type LogConfig struct {
	JSON bool `mapstructure:"json" toml:"json" json:"json" yaml:"json"`
}

// Production is the default plugins.environment value
const Production = "production"

// IsProduction reports whether debug logging should stay off
func (c *Config) IsProduction() bool {
	return c.Plugins.Environment == "" || c.Plugins.Environment == Production
}

// AvailablePackages returns configured packages plus the host itself,
// the set plugin requirements are checked against
func (c *Config) AvailablePackages() map[string]string {
	out := make(map[string]string, len(c.Host.Packages)+1)
	for name, version := range c.Host.Packages {
		out[name] = version
	}
	if c.Host.Name != "" && c.Host.Version != "" {
		out[c.Host.Name] = c.Host.Version
	}
	return out
}

// File and directory permissions used when plugctl creates files
const (
	DefaultDirPermissions  = 0755
	DefaultFilePermissions = 0644
)
