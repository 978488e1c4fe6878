package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/plugctl/installer"
	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/sym"
)

func newInstallCmd(app *App) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "install <package-or-url>",
		Short: sym.Short("install"),
		Long: sym.Install + ` install - Install a plugin

The source may be a local directory, a git repository, an archive URL or
any other go-getter source. Anything else is treated as a package name and
handed to the package manager configured in install.command, together with
the package flags given here.

After installing, the plugins directory is discovered again.

Examples:
  plugctl install ./my-plugin
  plugctl install https://github.com/acme/blog-plugin.git
  plugctl install github.com/acme/plugins//blog?ref=v1.2.0
  plugctl install https://example.com/blog.tar.gz --name blog
  plugctl install acme/blog-plugin --no-dev --prefer-dist`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var flags []string
			for _, flag := range installer.PackageFlags {
				if set, _ := cmd.Flags().GetBool(flag); set {
					flags = append(flags, flag)
				}
			}
			return runInstall(cmd.Context(), cmd.OutOrStdout(), app, args[0], installer.Options{
				Name:   name,
				Flags:  flags,
				Output: cmd.OutOrStdout(),
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Plugin directory name (default: derived from the source)")
	cmd.Flags().Bool("dev", false, "Install development dependencies")
	cmd.Flags().Bool("no-dev", false, "Do not install development dependencies")
	cmd.Flags().Bool("no-scripts", false, "Skip running installation scripts")
	cmd.Flags().Bool("no-plugins", false, "Skip package-manager plugins")
	cmd.Flags().Bool("prefer-source", false, "Install packages from source when possible")
	cmd.Flags().Bool("prefer-dist", false, "Install packages from dist when possible")
	cmd.Flags().Bool("optimize-autoloader", false, "Optimize autoloader during autoloader dump")
	cmd.Flags().Bool("classmap-authoritative", false, "Autoload classes from the classmap only")
	cmd.Flags().Bool("apcu-autoloader", false, "Use APCu to cache found/not-found classes")

	return cmd
}

func runInstall(ctx context.Context, w io.Writer, app *App, source string, opts installer.Options) error {
	printInfo(w, "Installing plugin: %s", source)

	inst := installer.New(app.Registry, app.Config.Install,
		installer.WithLogger(logger.ComponentLogger("installer")),
		installer.WithWorkDir(app.workDir))

	result, err := inst.Install(ctx, source, opts)
	if err != nil {
		return err
	}

	if result.Kind == installer.KindPackage {
		printSuccess(w, "Package %s installed.", source)
	} else {
		printSuccess(w, "Plugin installed successfully to: %s", result.Path)
	}

	return runDiscover(ctx, w, app)
}
