// Package commands implements the plugctl command line.
//
// Every command shares one App: the configuration, the plugin registry and
// the provider table are built once in the root PersistentPreRunE and handed
// to the command that runs.
package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/teranos/plugctl/am"
	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/provider"
	"github.com/teranos/plugctl/providers/hello"
	"github.com/teranos/plugctl/registry"
	"github.com/teranos/plugctl/version"
)

// App is the state shared by all commands of one invocation
type App struct {
	configFile  string
	pluginsPath string
	verbosity   int

	// workDir and skipSystem isolate tests from the real environment
	workDir    string
	skipSystem bool

	Config    *am.Config
	Registry  *registry.Registry
	Providers *provider.Table
	Logger    *zap.SugaredLogger
}

// builtinProviders are the providers compiled into plugctl
func builtinProviders() []provider.Provider {
	return []provider.Provider{
		hello.New(),
	}
}

// NewRootCmd builds the plugctl command tree
func NewRootCmd() *cobra.Command {
	return newRootCmd(&App{})
}

func newRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "plugctl",
		Short: "plugctl - manage manifest-declared plugins",
		Long: `plugctl - manage manifest-declared plugins.

Each plugin lives in its own directory under the plugins root and describes
itself with a plugin.json manifest. plugctl discovers those directories,
enables and disables plugins by rewriting their manifests, installs new ones
and activates enabled plugins through the providers compiled into the host.

Examples:
  plugctl list                     # List all plugins
  plugctl info blog                # Show details of one plugin
  plugctl enable blog              # Enable a plugin
  plugctl install ./my-plugin      # Copy a plugin directory in
  plugctl am show                  # Show current configuration`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// version needs neither configuration nor a registry
			if cmd.Name() == "version" {
				return nil
			}
			return app.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logger.Cleanup()
		},
	}

	rootCmd.PersistentFlags().StringVar(&app.configFile, "config", "", "Configuration file merged above all discovered am.toml files")
	rootCmd.PersistentFlags().StringVar(&app.pluginsPath, "plugins-path", "", "Plugins root directory (overrides plugins.path)")
	rootCmd.PersistentFlags().CountVarP(&app.verbosity, "verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv, -vvv)")

	rootCmd.AddCommand(
		newListCmd(app),
		newInfoCmd(app),
		newEnableCmd(app),
		newDisableCmd(app),
		newDiscoverCmd(app),
		newInstallCmd(app),
		newOpenAPICmd(app),
		newWatchCmd(app),
		newServeCmd(app),
		newAmCmd(app),
		newVersionCmd(),
	)

	return rootCmd
}

// setup loads configuration and builds the logger, registry and provider table
func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := am.LoadWithOptions(am.Options{
		ConfigFile: a.configFile,
		WorkDir:    a.workDir,
		SkipSystem: a.skipSystem,
	})
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	a.Config = cfg

	if err := logger.InitializeWithOptions(logger.Options{
		JSON:      cfg.Log.JSON,
		Verbosity: a.verbosity,
		Debug:     !cfg.IsProduction(),
		Output:    cmd.ErrOrStderr(),
	}); err != nil {
		return errors.Wrap(err, "failed to initialize logger")
	}
	a.Logger = logger.Logger

	root := a.pluginsPath
	if root == "" {
		root = cfg.Plugins.Path
	}
	if !filepath.IsAbs(root) && a.workDir != "" {
		root = filepath.Join(a.workDir, root)
	}
	a.Registry = registry.New(root, registry.WithLogger(logger.ComponentLogger("registry")))

	hostVersion := cfg.Host.Version
	if hostVersion == "" {
		hostVersion = version.Version
	}
	a.Providers = provider.NewTable(hostVersion, provider.NewServices(logger.Logger, am.GetViper()), logger.Logger)
	for _, p := range builtinProviders() {
		if err := a.Providers.Register(p); err != nil {
			a.Logger.Warnw("Skipping built-in provider",
				logger.FieldProvider, p.Metadata().Name,
				logger.FieldError, err)
		}
	}

	a.Logger.Debugw("plugctl ready",
		logger.FieldPath, a.Registry.Root(),
		"providers", a.Providers.List())
	return nil
}

// activationOptions are the registry activation settings from configuration
func (a *App) activationOptions() registry.ActivationOptions {
	return registry.ActivationOptions{
		EnforceRequirements: a.Config.Plugins.EnforceRequirements,
		Available:           a.Config.AvailablePackages(),
	}
}
