package commands

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/manifest"
	"github.com/teranos/plugctl/registry"
	"github.com/teranos/plugctl/sym"
)

func newListCmd(app *App) *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   sym.Short("list"),
		Long: sym.List + ` list - List all plugins

Shows every directory under the plugins root, including the ones whose
manifest could not be loaded. With --debug each plugin's provider is also
checked against the providers compiled into plugctl.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd.OutOrStdout(), app, debug)
		},
	}
	cmd.Flags().BoolVar(&debug, "debug", false, "Show detailed error information for problematic plugins")
	return cmd
}

func runList(w io.Writer, app *App, debug bool) error {
	entries := app.Registry.Discover()
	if len(entries) == 0 {
		printInfo(w, "No plugins found.")
		return nil
	}

	rows := [][]string{{"ID", "Name", "Version", "Status", "Description", "Error"}}
	var problems []string
	hasErrors := false

	for _, e := range entries {
		if e.IsError() {
			hasErrors = true
			rows = append(rows, []string{e.Key(), "Unknown", manifest.DefaultVersion, pterm.Yellow("Error"), "No description", e.Err.Error()})
			problems = append(problems, fmt.Sprintf("Plugin %s: %s", e.Key(), e.Err))
			continue
		}

		m := e.Manifest
		status := pterm.Red("Disabled")
		if m.Enabled {
			status = pterm.Green("Enabled")
		}

		var errText string
		if debug {
			if problem := providerProblem(app, e); problem != "" {
				status = pterm.Yellow("Error")
				errText = problem
				problems = append(problems, problem)
			}
		}

		rows = append(rows, []string{m.ID, m.DisplayName(), m.Version, status, describe(m), errText})
	}

	if err := renderTable(w, rows); err != nil {
		return err
	}

	if hasErrors {
		printWarning(w, "Some plugins have errors. Use --debug for more details.")
	}
	if debug && len(problems) > 0 {
		fmt.Fprintln(w)
		printWarning(w, "Detailed errors:")
		for _, p := range problems {
			fmt.Fprintf(w, "  - %s\n", p)
		}
	}

	for _, e := range entries {
		for _, warning := range e.Warnings {
			app.Logger.Warnw(warning, logger.FieldPlugin, e.Key())
		}
	}
	return nil
}

// providerProblem reports why a plugin's provider could not be activated
func providerProblem(app *App, e registry.Entry) string {
	name := e.Provider()
	if name == "" {
		return ""
	}
	if !app.Providers.ProviderExists(name) {
		return "Provider class not found: " + name
	}
	return ""
}

func describe(m *manifest.Manifest) string {
	if m.Description == "" {
		return "No description"
	}
	return m.Description
}
