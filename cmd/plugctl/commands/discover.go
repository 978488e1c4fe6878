package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/plugctl/sym"
)

func newDiscoverCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: sym.Short("discover"),
		Long: sym.Discover + ` discover - Re-scan the plugins directory

Drops the cached discovery result, scans the plugins root again and runs the
activation pass: every enabled plugin with a provider is registered and
booted, and plugins with a namespace get their src directory mapped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiscover(cmd.Context(), cmd.OutOrStdout(), app)
		},
	}
}

func runDiscover(ctx context.Context, w io.Writer, app *App) error {
	printInfo(w, "Discovering plugins...")

	app.Registry.Invalidate()
	entries := app.Registry.Discover()
	if len(entries) == 0 {
		printWarning(w, "No plugins found.")
		return nil
	}

	printInfo(w, "Discovered %d %s.", len(entries), plural(len(entries), "plugin"))

	report := app.Registry.Activate(ctx, app.Providers, app.activationOptions())
	for _, id := range report.Activated {
		fmt.Fprintf(w, "  %s %s\n", sym.OK, id)
	}
	for _, failure := range report.Failed {
		printWarning(w, "Plugin %s not activated: %v", failure.ID, failure.Err)
	}
	if report.Err != nil {
		return report.Err
	}

	printSuccess(w, "Plugins discovered and registered successfully.")
	return nil
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
