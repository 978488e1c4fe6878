package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/plugctl/errors"
	"github.com/teranos/plugctl/registry"
	"github.com/teranos/plugctl/sym"
)

func newEnableCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "enable <id>",
		Short: sym.Short("enable"),
		Long: sym.Enable + ` enable - Enable a plugin

Sets "enabled": true in the plugin's plugin.json. Every other field and the
key order of the manifest are left as they are.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetEnabled(cmd.OutOrStdout(), app, args[0], true)
		},
	}
}

func newDisableCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "disable <id>",
		Short: sym.Short("disable"),
		Long: sym.Disable + ` disable - Disable a plugin

Sets "enabled": false in the plugin's plugin.json. Disabled plugins are
skipped by the activation pass.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetEnabled(cmd.OutOrStdout(), app, args[0], false)
		},
	}
}

func runSetEnabled(w io.Writer, app *App, identifier string, enabled bool) error {
	verb := "disabled"
	if enabled {
		verb = "enabled"
	}

	change, err := app.Registry.SetEnabled(identifier, enabled)
	if err != nil {
		var writeErr *registry.WriteError
		if errors.As(err, &writeErr) {
			return errors.WithHintf(err, "check that %s is writable", writeErr.Path)
		}
		return withResolveHint(err)
	}

	if !change.Changed {
		printInfo(w, "Plugin [%s] is already %s.", change.Name, verb)
		return nil
	}
	printSuccess(w, "Plugin [%s] %s successfully.", change.Name, verb)
	return nil
}
