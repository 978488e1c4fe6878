package commands

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/teranos/plugctl/logger"
	"github.com/teranos/plugctl/openapi"
	"github.com/teranos/plugctl/registry"
	"github.com/teranos/plugctl/sym"
)

func newOpenAPICmd(app *App) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "openapi [ids...]",
		Short: sym.Short("openapi"),
		Long: sym.OpenAPI + ` openapi - Generate plugin API documentation

Plugins document their HTTP API in openapi.json next to plugin.json.
Without arguments every valid plugin's document is merged into
plugins.json. Naming plugins writes one <id>.json per plugin instead.

Examples:
  plugctl openapi
  plugctl openapi blog shop --output build/docs`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpenAPI(cmd.OutOrStdout(), app, args, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default: docs.output)")
	return cmd
}

func runOpenAPI(w io.Writer, app *App, ids []string, output string) error {
	var targets []registry.Entry

	if len(ids) == 0 {
		printInfo(w, "Discovering all valid plugins...")
		for _, e := range app.Registry.Discover() {
			if res := registry.Validate(e); !res.Valid {
				printWarning(w, "Skipping invalid plugin: %s - Reason: %s", e.Path, res.Error)
				continue
			}
			targets = append(targets, e)
		}
	} else {
		printInfo(w, "Resolving requested plugins...")
		for _, id := range ids {
			e, err := app.Registry.Resolve(id)
			if err != nil {
				PrintError(w, err)
				continue
			}
			targets = append(targets, e)
		}
	}

	if len(targets) == 0 {
		printInfo(w, "No valid plugins found to generate documentation for.")
		return nil
	}

	if output == "" {
		output = app.Config.Docs.Output
	}
	if !filepath.IsAbs(output) && app.workDir != "" {
		output = filepath.Join(app.workDir, output)
	}

	gen := openapi.NewGenerator(output, logger.ComponentLogger("openapi"))
	report, err := gen.Generate(targets, len(ids) == 0)
	if err != nil {
		return err
	}

	for _, skipped := range report.Skipped {
		printWarning(w, "Skipping plugin: %s - Reason: %v", skipped.ID, skipped.Err)
	}
	if len(report.Generated) == 0 {
		printInfo(w, "No valid plugins found to generate documentation for.")
		return nil
	}

	if report.Merged != "" {
		printSuccess(w, "Successfully merged plugin documentation into %s", report.Merged)
		for _, g := range report.Generated {
			fmt.Fprintf(w, "  - Merged: %s\n", g.ID)
		}
		return nil
	}

	printSuccess(w, "Generated documentation for %d %s.", len(report.Generated), plural(len(report.Generated), "plugin"))
	for _, g := range report.Generated {
		fmt.Fprintf(w, "  - Generated: %s\n", g.Output)
	}
	return nil
}
