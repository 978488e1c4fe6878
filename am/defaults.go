package am

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Plugins
	v.SetDefault("plugins.path", "plugins")
	v.SetDefault("plugins.namespace", "Plugins")
	v.SetDefault("plugins.environment", Production)
	v.SetDefault("plugins.enforce_requirements", false)
	v.SetDefault("plugins.watch_debounce_ms", 200)

	// Host
	v.SetDefault("host.name", "host")
	v.SetDefault("host.version", "1.0.0")

	// Install
	v.SetDefault("install.command", "composer require")
	v.SetDefault("install.workdir", ".")
	v.SetDefault("install.timeout_seconds", 300)
	v.SetDefault("install.allow_private_hosts", false)

	// Docs
	v.SetDefault("docs.output", "public/docs")

	// Log
	v.SetDefault("log.json", false)
}

// BindEnvVars binds settings whose environment names do not follow the PLUGCTL_* pattern
func BindEnvVars(v *viper.Viper) {
	for key, names := range envNames {
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
}
